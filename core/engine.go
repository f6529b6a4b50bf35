// Package core implements the trajectory query engine: speed computation,
// nearest-epoch search, and the Cartesian-to-geographic transform, reading
// records through the trajectory store.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// RecordSource is the store surface the engine reads through. The engine
// holds no private copy of the record set, so every query observes the same
// snapshot the store exposes.
type RecordSource interface {
	Get(epoch model.Epoch) (model.StateVector, error)
	All() ([]model.StateVector, error)
	Count() int
}

// ReverseGeocoder resolves coordinates to a human-readable place name. It is
// a boundary capability: one blocking call, bounded by the context deadline
// the engine applies.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// MetricsRecorder receives engine-level events worth counting.
type MetricsRecorder interface {
	IncGeocodeFailure()
}

// Frame selects the reference frame for location queries.
type Frame int

const (
	// FrameInertial applies the geographic transform to the feed's J2K
	// position directly.
	FrameInertial Frame = iota
	// FrameECEF rotates the position to the Earth-fixed frame first, pinning
	// the result to the ground track.
	FrameECEF
)

// Engine answers point and composite queries against the trajectory store.
type Engine struct {
	source   RecordSource
	geocoder ReverseGeocoder
	clock    Clock
	metrics  MetricsRecorder
	log      logging.Logger

	geocodeTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the reference clock for Now queries.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithGeocoder attaches a reverse geocoder. Without one, Place is always the
// unavailable sentinel.
func WithGeocoder(g ReverseGeocoder) Option {
	return func(e *Engine) { e.geocoder = g }
}

// WithGeocodeTimeout bounds each reverse-geocode call.
func WithGeocodeTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.geocodeTimeout = d
		}
	}
}

// WithMetricsRecorder attaches a metrics sink for engine events.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine constructs a query engine reading through source.
func NewEngine(source RecordSource, opts ...Option) *Engine {
	e := &Engine{
		source:         source,
		clock:          SystemClock(),
		log:            logging.Noop(),
		geocodeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Speed returns the magnitude of a velocity vector in km/s. The zero vector
// has speed zero.
func Speed(v model.Vec3) float64 {
	return v.Norm()
}

// AverageSpeed returns the mean speed over the records. An empty input means
// nothing is moving, so the result is zero rather than an error.
func AverageSpeed(records []model.StateVector) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, sv := range records {
		sum += Speed(sv.Velocity)
	}
	return sum / float64(len(records))
}

// FindNearest returns the record whose epoch is closest to ref. Ties go to
// the earliest epoch: the scan runs in ascending order and a later record
// only wins with a strictly smaller distance. An empty record set fails with
// ErrEmptyInput.
func FindNearest(records []model.StateVector, ref time.Time) (model.StateVector, error) {
	if len(records) == 0 {
		return model.StateVector{}, fmt.Errorf("%w: no records to search", model.ErrEmptyInput)
	}

	best := records[0]
	bestDist := best.Epoch.DistanceTo(ref)
	for _, sv := range records[1:] {
		if d := sv.Epoch.DistanceTo(ref); d < bestDist {
			best = sv
			bestDist = d
		}
	}
	return best, nil
}

// SpeedAt returns the instantaneous speed of the record stored at epoch.
func (e *Engine) SpeedAt(epoch model.Epoch) (float64, error) {
	sv, err := e.source.Get(epoch)
	if err != nil {
		return 0, err
	}
	return Speed(sv.Velocity), nil
}

// LocationAt resolves the record at epoch to a geographic location in the
// requested frame, then enriches it with a reverse-geocoded place name.
// Geocoder failure or timeout degrades Place to the unavailable sentinel and
// never fails the query.
func (e *Engine) LocationAt(ctx context.Context, epoch model.Epoch, frame Frame) (model.GeoLocation, error) {
	sv, err := e.source.Get(epoch)
	if err != nil {
		return model.GeoLocation{}, err
	}
	return e.locate(ctx, sv, frame)
}

// NowResult is the composite answer for the nearest-to-now query.
type NowResult struct {
	Record   model.StateVector
	Location model.GeoLocation
	SpeedKmS float64
}

// Now finds the record nearest the clock's current time and resolves its
// location and speed. An empty store fails with ErrEmptyInput.
func (e *Engine) Now(ctx context.Context) (NowResult, error) {
	records, err := e.source.All()
	if err != nil {
		return NowResult{}, err
	}

	nearest, err := FindNearest(records, e.clock.Now())
	if err != nil {
		return NowResult{}, err
	}

	loc, err := e.locate(ctx, nearest, FrameInertial)
	if err != nil {
		return NowResult{}, err
	}

	return NowResult{
		Record:   nearest,
		Location: loc,
		SpeedKmS: Speed(nearest.Velocity),
	}, nil
}

// Stats summarises the stored record set.
type Stats struct {
	Records         int
	FirstEpoch      model.Epoch
	LastEpoch       model.Epoch
	AverageSpeedKmS float64
}

// Stats computes the record count, epoch span, and mean speed. An empty
// store yields zero values, not an error.
func (e *Engine) Stats() (Stats, error) {
	records, err := e.source.All()
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Records:         len(records),
		AverageSpeedKmS: AverageSpeed(records),
	}
	if len(records) > 0 {
		st.FirstEpoch = records[0].Epoch
		st.LastEpoch = records[len(records)-1].Epoch
	}
	return st, nil
}

// locate applies the frame rotation, the geographic transform, and the
// geocoder enrichment to one record.
func (e *Engine) locate(ctx context.Context, sv model.StateVector, frame Frame) (model.GeoLocation, error) {
	pos := sv.Position
	if frame == FrameECEF {
		pos = RotateToECEF(sv.Epoch.Time(), pos)
	}

	loc, err := ToGeo(pos)
	if err != nil {
		return model.GeoLocation{}, err
	}

	loc.Place = e.reverseGeocode(ctx, loc.Latitude, loc.Longitude)
	return loc, nil
}

// reverseGeocode resolves a place name with a bounded timeout, degrading to
// the sentinel on any failure.
func (e *Engine) reverseGeocode(ctx context.Context, lat, lon float64) string {
	if e.geocoder == nil {
		return model.PlaceUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, e.geocodeTimeout)
	defer cancel()

	place, err := e.geocoder.ReverseGeocode(ctx, lat, lon)
	if err != nil || place == "" {
		if err != nil {
			e.log.Warn(ctx, "reverse geocode degraded",
				logging.String("error", err.Error()))
		}
		if e.metrics != nil {
			e.metrics.IncGeocodeFailure()
		}
		return model.PlaceUnavailable
	}
	return place
}
