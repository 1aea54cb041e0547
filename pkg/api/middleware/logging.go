package middleware

import (
	"net"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"

	"github.com/marmos91/sqlrealm/internal/logger"
	"github.com/marmos91/sqlrealm/internal/telemetry"
)

// RequestLogger attaches a logger.LogContext to the request and logs its
// start and completion inside a server span. It must run after chi's RequestID and RealIP.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.StartHTTPSpan(r.Context(), r.Method, r.URL.Path)
		defer span.End()

		lc := logger.NewLogContext(chimiddleware.GetReqID(ctx), clientIP(r.RemoteAddr))
		lc.TraceID = telemetry.TraceID(ctx)
		ctx = logger.WithContext(ctx, lc)

		logger.DebugCtx(ctx, "API request started",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		telemetry.SetAttributes(ctx, attribute.Int("http.response.status_code", ww.Status()))
		logger.InfoCtx(ctx, "API request completed",
			logger.KeyMethod, r.Method,
			logger.KeyPath, r.URL.Path,
			logger.KeyStatus, ww.Status(),
			logger.DurationMs(lc.DurationMs()))
	})
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
