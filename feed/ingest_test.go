package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// fakeLoader records Load/ForceReload calls without real persistence.
type fakeLoader struct {
	count        int
	loadCalls    int
	reloadCalls  int
	lastRecords  []model.StateVector
	rejectOnLoad int
}

func (f *fakeLoader) Count() int { return f.count }

func (f *fakeLoader) Load(ctx context.Context, records []model.StateVector) (int, int, error) {
	f.loadCalls++
	f.lastRecords = records
	return len(records) - f.rejectOnLoad, f.rejectOnLoad, nil
}

func (f *fakeLoader) ForceReload(ctx context.Context, records []model.StateVector) (int, int, error) {
	f.reloadCalls++
	f.lastRecords = records
	return len(records), 0, nil
}

func feedServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_TransportErrorOnBadStatus(t *testing.T) {
	srv := feedServer(t, http.StatusServiceUnavailable, "upstream down")
	f := NewFetcher(srv.URL, time.Second)

	if _, err := f.Fetch(context.Background()); !errors.Is(err, model.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestFetcher_ReturnsBody(t *testing.T) {
	srv := feedServer(t, http.StatusOK, oemDocument)
	f := NewFetcher(srv.URL, time.Second)

	raw, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(raw) != oemDocument {
		t.Fatalf("body mismatch: got %d bytes, want %d", len(raw), len(oemDocument))
	}
}

func TestFetcher_OversizedDocumentIsTransportError(t *testing.T) {
	srv := feedServer(t, http.StatusOK, oemDocument)
	f := NewFetcher(srv.URL, time.Second)
	f.maxBytes = 16

	_, err := f.Fetch(context.Background())
	if !errors.Is(err, model.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	if !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("error = %v, want the size cap named", err)
	}

	// A body exactly at the cap passes through untruncated.
	f.maxBytes = int64(len(oemDocument))
	raw, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch at cap: %v", err)
	}
	if len(raw) != len(oemDocument) {
		t.Fatalf("body truncated: got %d bytes, want %d", len(raw), len(oemDocument))
	}
}

func TestIngest_LoadsParsedRecords(t *testing.T) {
	srv := feedServer(t, http.StatusOK, oemDocument)
	st := &fakeLoader{}

	summary, err := Ingest(context.Background(), NewFetcher(srv.URL, time.Second), st, false, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Loaded != 2 || summary.Rejected != 0 {
		t.Fatalf("summary = %+v, want 2 loaded / 0 rejected", summary)
	}
	if st.loadCalls != 1 || st.reloadCalls != 0 {
		t.Fatalf("load calls = %d/%d, want 1/0", st.loadCalls, st.reloadCalls)
	}
	if len(st.lastRecords) != 2 {
		t.Fatalf("store received %d records, want 2", len(st.lastRecords))
	}
}

func TestIngest_PopulatedStoreSkipsFetch(t *testing.T) {
	fetched := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
		_, _ = w.Write([]byte(oemDocument))
	}))
	defer srv.Close()

	st := &fakeLoader{count: 100}
	summary, err := Ingest(context.Background(), NewFetcher(srv.URL, time.Second), st, false, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !summary.Skipped {
		t.Fatalf("summary.Skipped = false, want true")
	}
	if summary.Loaded != 0 || summary.Rejected != 0 {
		t.Fatalf("no-op ingest reported %d/%d, want 0/0", summary.Loaded, summary.Rejected)
	}
	if fetched {
		t.Fatalf("populated store must not trigger an upstream fetch")
	}
}

func TestIngest_ForceBypassesSkip(t *testing.T) {
	srv := feedServer(t, http.StatusOK, oemDocument)
	st := &fakeLoader{count: 100}

	summary, err := Ingest(context.Background(), NewFetcher(srv.URL, time.Second), st, true, nil)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if summary.Skipped {
		t.Fatalf("forced ingest must not be skipped")
	}
	if st.reloadCalls != 1 {
		t.Fatalf("reload calls = %d, want 1", st.reloadCalls)
	}
}

func TestIngest_TransportFailureLeavesStoreUntouched(t *testing.T) {
	srv := feedServer(t, http.StatusBadGateway, "")
	st := &fakeLoader{}

	_, err := Ingest(context.Background(), NewFetcher(srv.URL, time.Second), st, false, nil)
	if !errors.Is(err, model.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	if st.loadCalls != 0 && st.reloadCalls != 0 {
		t.Fatalf("store must not be loaded on transport failure")
	}
}

func TestIngest_MalformedFeed(t *testing.T) {
	srv := feedServer(t, http.StatusOK, "<oem><data></oem>")
	st := &fakeLoader{}

	_, err := Ingest(context.Background(), NewFetcher(srv.URL, time.Second), st, false, nil)
	if !errors.Is(err, model.ErrMalformedFeed) {
		t.Fatalf("error = %v, want ErrMalformedFeed", err)
	}
}
