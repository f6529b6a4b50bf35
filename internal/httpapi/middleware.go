package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/signalsfoundry/orbit-tracker/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/signalsfoundry/orbit-tracker/internal/httpapi"

// requestMiddleware threads a request ID through the context, opens a span
// for the matched route, and logs the request on completion.
func (s *Server) requestMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqLog := logging.WithRequestLogger(r.Context(), s.log)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		ctx, span := otel.Tracer(tracerName).Start(ctx, r.Method+" "+route)
		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.String("request_id", logging.RequestIDFromContext(ctx)),
		)
		defer span.End()

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))

		reqLog.Info(ctx, "request handled",
			logging.String("method", r.Method),
			logging.String("route", route),
			logging.String("duration", time.Since(start).String()),
		)
	})
}
