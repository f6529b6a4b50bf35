package feed

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/orbit-tracker/model"
)

const oemDocument = `<?xml version="1.0" encoding="UTF-8"?>
<ndm>
  <oem id="CCSDS_OEM_VERS" version="2.0">
    <body>
      <segment>
        <metadata>
          <OBJECT_NAME>ISS</OBJECT_NAME>
          <CENTER_NAME>EARTH</CENTER_NAME>
          <REF_FRAME>EME2000</REF_FRAME>
        </metadata>
        <data>
          <stateVector>
            <EPOCH>2025-055T12:00:00.000000Z</EPOCH>
            <X units="km">-4945.2048</X>
            <Y units="km">-3625.9704</Y>
            <Z units="km">-2944.7433</Z>
            <X_DOT units="km/s">-3.7069</X_DOT>
            <Y_DOT units="km/s">-2.9739</Y_DOT>
            <Z_DOT units="km/s">6.0133</Z_DOT>
          </stateVector>
          <stateVector>
            <EPOCH>2025-055T12:04:00.000000Z</EPOCH>
            <X units="km">-5265.1817</X>
            <Y units="km">-4276.4484</Y>
            <Z units="km">-1437.1091</Z>
            <X_DOT units="km/s">1.9238</X_DOT>
            <Y_DOT units="km/s">3.2822</Y_DOT>
            <Z_DOT units="km/s">6.4568</Z_DOT>
          </stateVector>
        </data>
      </segment>
    </body>
  </oem>
</ndm>`

func TestParse_ExtractsStateVectors(t *testing.T) {
	records, report, err := Parse([]byte(oemDocument))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if report.Entries != 2 || report.Rejected() != 0 {
		t.Fatalf("report = %+v, want 2 entries, 0 rejected", report)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Epoch.String() != "2025-055T12:00:00.000000Z" {
		t.Fatalf("epoch = %q", first.Epoch.String())
	}
	if first.Position != (model.Vec3{X: -4945.2048, Y: -3625.9704, Z: -2944.7433}) {
		t.Fatalf("position = %+v", first.Position)
	}
	if first.Velocity != (model.Vec3{X: -3.7069, Y: -2.9739, Z: 6.0133}) {
		t.Fatalf("velocity = %+v", first.Velocity)
	}
}

func TestParse_ToleratesArbitraryNesting(t *testing.T) {
	// Same samples, wrapped one level deeper than the usual layout.
	doc := `<oem><body><segment><extra><data><stateVector>
		<EPOCH>2025-100T00:00:00.000000Z</EPOCH>
		<X>1</X><Y>2</Y><Z>3</Z>
		<X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
	</stateVector></data></extra></segment></body></oem>`

	records, report, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 || report.Entries != 1 {
		t.Fatalf("got %d records (report %+v), want 1", len(records), report)
	}
	if records[0].Velocity != (model.Vec3{X: 4, Y: 5, Z: 6}) {
		t.Fatalf("velocity = %+v", records[0].Velocity)
	}
}

func TestParse_SkipsIncompleteEntries(t *testing.T) {
	doc := `<oem><data>
	<stateVector>
		<EPOCH>2025-100T00:00:00.000000Z</EPOCH>
		<X>1</X><Y>2</Y><Z>3</Z>
		<X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
	</stateVector>
	<stateVector>
		<EPOCH>2025-100T00:04:00.000000Z</EPOCH>
		<X>1</X><Y>2</Y><Z>3</Z>
		<X_DOT>4</X_DOT><Z_DOT>6</Z_DOT>
	</stateVector>
	<stateVector>
		<EPOCH>2025-100T00:08:00.000000Z</EPOCH>
		<X>not-a-number</X><Y>2</Y><Z>3</Z>
		<X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
	</stateVector>
	<stateVector>
		<EPOCH>February 24 2025</EPOCH>
		<X>1</X><Y>2</Y><Z>3</Z>
		<X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
	</stateVector>
	</data></oem>`

	records, report, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 surviving record", len(records))
	}
	if report.Entries != 4 || report.Rejected() != 3 {
		t.Fatalf("report = %+v, want 4 entries / 3 rejected", report)
	}

	reasons := map[string]bool{}
	for _, rej := range report.Rejections {
		reasons[rej.Reason] = true
	}
	for _, want := range []string{"missing Y_DOT", "unparseable X", "unparseable EPOCH"} {
		if !reasons[want] {
			t.Fatalf("missing rejection reason %q in %+v", want, report.Rejections)
		}
	}
}

func TestParse_RejectsNonFiniteComponents(t *testing.T) {
	doc := `<oem><data><stateVector>
		<EPOCH>2025-100T00:00:00.000000Z</EPOCH>
		<X>NaN</X><Y>2</Y><Z>3</Z>
		<X_DOT>4</X_DOT><Y_DOT>5</Y_DOT><Z_DOT>6</Z_DOT>
	</stateVector></data></oem>`

	records, report, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 0 || report.Rejected() != 1 {
		t.Fatalf("NaN component should be rejected, got %d records (report %+v)", len(records), report)
	}
}

func TestParse_MalformedDocument(t *testing.T) {
	_, _, err := Parse([]byte(`<oem><data><stateVector></data>`))
	if !errors.Is(err, model.ErrMalformedFeed) {
		t.Fatalf("error = %v, want ErrMalformedFeed", err)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	records, report, err := Parse([]byte(`<oem><body></body></oem>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(records) != 0 || report.Entries != 0 {
		t.Fatalf("expected no records, got %d (report %+v)", len(records), report)
	}
}
