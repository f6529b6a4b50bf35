package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/signalsfoundry/orbit-tracker/core"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"github.com/signalsfoundry/orbit-tracker/model"
)

// Engine is the query surface the handlers expose over HTTP.
type Engine interface {
	SpeedAt(epoch model.Epoch) (float64, error)
	LocationAt(ctx context.Context, epoch model.Epoch, frame core.Frame) (model.GeoLocation, error)
	Now(ctx context.Context) (core.NowResult, error)
	Stats() (core.Stats, error)
}

// Catalog is the paged epoch index the handlers read directly.
type Catalog interface {
	ListEpochs(offset, limit int) []string
	Get(epoch model.Epoch) (model.StateVector, error)
	Count() int
	LastIngest() time.Time
}

// Refresher triggers one feed ingest on demand.
type Refresher interface {
	Refresh(ctx context.Context, force bool) (model.IngestSummary, error)
}

// RefresherFunc adapts a plain function to the Refresher interface.
type RefresherFunc func(ctx context.Context, force bool) (model.IngestSummary, error)

func (f RefresherFunc) Refresh(ctx context.Context, force bool) (model.IngestSummary, error) {
	return f(ctx, force)
}

// Server routes trajectory queries to the engine and store.
type Server struct {
	engine     Engine
	catalog    Catalog
	refresher  Refresher
	log        logging.Logger
	middleware []mux.MiddlewareFunc
}

// Option customises the server.
type Option func(*Server)

// WithLogger installs the request logger. Defaults to a noop logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRefresher enables the POST /refresh endpoint.
func WithRefresher(r Refresher) Option {
	return func(s *Server) { s.refresher = r }
}

// WithMiddleware appends router middleware, such as the metrics collector's.
func WithMiddleware(mw ...mux.MiddlewareFunc) Option {
	return func(s *Server) { s.middleware = append(s.middleware, mw...) }
}

// NewServer builds a server over the given engine and catalog.
func NewServer(engine Engine, catalog Catalog, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		catalog: catalog,
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router assembles the route table. Every request passes through the request
// ID and tracing middleware before any caller-supplied middleware.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestMiddleware)
	for _, mw := range s.middleware {
		r.Use(mw)
	}

	r.HandleFunc("/epochs", s.handleListEpochs).Methods(http.MethodGet)
	r.HandleFunc("/epochs/{epoch}", s.handleGetRecord).Methods(http.MethodGet)
	r.HandleFunc("/epochs/{epoch}/speed", s.handleSpeed).Methods(http.MethodGet)
	r.HandleFunc("/epochs/{epoch}/location", s.handleLocation).Methods(http.MethodGet)
	r.HandleFunc("/now", s.handleNow).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	if s.refresher != nil {
		r.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	}
	return r
}
