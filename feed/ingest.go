package feed

import (
	"context"
	"time"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// RawFetcher is the boundary capability that produces raw feed bytes.
type RawFetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Loader is the subset of the trajectory store that ingest drives.
type Loader interface {
	Count() int
	Load(ctx context.Context, records []model.StateVector) (loaded, rejected int, err error)
	ForceReload(ctx context.Context, records []model.StateVector) (loaded, rejected int, err error)
}

// Ingest runs the full fetch → parse → load pipeline once. Without force, a
// populated store short-circuits the whole pipeline before the upstream
// fetch, so restarts do not hammer the feed. Per-entry parse rejections are
// folded into the summary; fetch and document-level failures abort the
// ingest and leave the store untouched.
func Ingest(ctx context.Context, fetcher RawFetcher, store Loader, force bool, log logging.Logger) (model.IngestSummary, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !force && store.Count() > 0 {
		log.Info(ctx, "store already populated, skipping feed fetch",
			logging.Int("records", store.Count()))
		return model.IngestSummary{Skipped: true, At: time.Now().UTC()}, nil
	}

	raw, err := fetcher.Fetch(ctx)
	if err != nil {
		log.Error(ctx, "feed fetch failed", logging.String("error", err.Error()))
		return model.IngestSummary{}, err
	}

	records, report, err := Parse(raw)
	if err != nil {
		log.Error(ctx, "feed parse failed", logging.String("error", err.Error()))
		return model.IngestSummary{}, err
	}
	for _, rej := range report.Rejections {
		log.Warn(ctx, "state vector rejected",
			logging.Int("entry", rej.Entry),
			logging.String("epoch", rej.Epoch),
			logging.String("reason", rej.Reason),
		)
	}

	load := store.Load
	if force {
		load = store.ForceReload
	}
	loaded, storeRejected, err := load(ctx, records)
	if err != nil {
		return model.IngestSummary{}, err
	}

	summary := model.IngestSummary{
		Loaded:   loaded,
		Rejected: report.Rejected() + storeRejected,
		At:       time.Now().UTC(),
	}
	log.Info(ctx, "feed ingest complete",
		logging.Int("loaded", summary.Loaded),
		logging.Int("rejected", summary.Rejected),
	)
	return summary, nil
}
