// Package feed fetches the upstream trajectory document and parses it into
// canonical state vectors.
package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// Rejection records one skipped entry and why it was skipped.
type Rejection struct {
	Entry  int    `json:"entry"` // 0-based position in document order
	Epoch  string `json:"epoch,omitempty"`
	Reason string `json:"reason"`
}

// Report summarises one parse: how many state-vector entries were seen and
// which of them were rejected. Rejections never abort the parse.
type Report struct {
	Entries    int         `json:"entries"`
	Rejections []Rejection `json:"rejections,omitempty"`
}

// Rejected returns the number of skipped entries.
func (r Report) Rejected() int { return len(r.Rejections) }

// stateVectorXML mirrors one <stateVector> element. Components carry a units
// attribute upstream; we only need the character data.
type stateVectorXML struct {
	Epoch string `xml:"EPOCH"`
	X     string `xml:"X"`
	Y     string `xml:"Y"`
	Z     string `xml:"Z"`
	XDot  string `xml:"X_DOT"`
	YDot  string `xml:"Y_DOT"`
	ZDot  string `xml:"Z_DOT"`
}

// Parse extracts state vectors from an OEM-style XML document. The upstream
// feed has wrapped its samples in varying grouping elements over time, so the
// decoder walks the whole token stream and picks up <stateVector> elements at
// any nesting depth. Entries with missing or unparseable fields are skipped
// and recorded in the report; a document that is not well-formed XML fails
// with ErrMalformedFeed. Output order is document order.
func Parse(raw []byte) ([]model.StateVector, Report, error) {
	var (
		records []model.StateVector
		report  Report
	)

	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Report{}, fmt.Errorf("%w: %v", model.ErrMalformedFeed, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "stateVector" {
			continue
		}

		var entry stateVectorXML
		if err := dec.DecodeElement(&entry, &start); err != nil {
			return nil, Report{}, fmt.Errorf("%w: %v", model.ErrMalformedFeed, err)
		}

		idx := report.Entries
		report.Entries++

		sv, reason := canonicalize(entry)
		if reason != "" {
			report.Rejections = append(report.Rejections, Rejection{
				Entry:  idx,
				Epoch:  strings.TrimSpace(entry.Epoch),
				Reason: reason,
			})
			continue
		}
		records = append(records, sv)
	}

	return records, report, nil
}

// canonicalize validates one raw entry and converts it into a StateVector.
// It returns a non-empty reason when the entry must be skipped.
func canonicalize(entry stateVectorXML) (model.StateVector, string) {
	epochRaw := strings.TrimSpace(entry.Epoch)
	if epochRaw == "" {
		return model.StateVector{}, "missing EPOCH"
	}
	epoch, err := model.ParseEpoch(epochRaw)
	if err != nil {
		return model.StateVector{}, "unparseable EPOCH"
	}

	components := [6]struct {
		name string
		raw  string
	}{
		{"X", entry.X}, {"Y", entry.Y}, {"Z", entry.Z},
		{"X_DOT", entry.XDot}, {"Y_DOT", entry.YDot}, {"Z_DOT", entry.ZDot},
	}

	var values [6]float64
	for i, c := range components {
		raw := strings.TrimSpace(c.raw)
		if raw == "" {
			return model.StateVector{}, "missing " + c.name
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.StateVector{}, "unparseable " + c.name
		}
		values[i] = v
	}

	return model.StateVector{
		Epoch:    epoch,
		Position: model.Vec3{X: values[0], Y: values[1], Z: values[2]},
		Velocity: model.Vec3{X: values[3], Y: values[4], Z: values[5]},
	}, ""
}
