package guardian

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RegisterRoutes wires the consortium routes with per-route rate limits.
func RegisterRoutes(s *Server) {
	s.Router.Use(rateLimit(s.Logger, generalLimit))

	addRoute(s.Router, "POST", "/proposal", s.proposalHandler, rateLimit(s.Logger, routeLimit))
	addRoute(s.Router, "POST", "/vote", s.voteHandler, rateLimit(s.Logger, routeLimit))
	addRoute(s.Router, "POST", "/execute", s.executeHandler, rateLimit(s.Logger, routeLimit))
	addRoute(s.Router, "POST", "/freeze_query", s.freezeQueryHandler, rateLimit(s.Logger, routeLimit))
	addRoute(s.Router, "GET", "/health_check", s.healthHandler, rateLimit(s.Logger, routeLimit))
	addRoute(s.Router, "GET", "/audit/verify", s.auditVerifyHandler, rateLimit(s.Logger, routeLimit))
}

// Add route with optional middleware
func addRoute(router chi.Router, method, path string, handler http.HandlerFunc, middleware ...func(http.Handler) http.Handler) {
	if len(middleware) > 0 {
		router.With(middleware...).MethodFunc(method, path, handler)
	} else {
		router.MethodFunc(method, path, handler)
	}
}

func rateLimit(logger *zap.Logger, limit int) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		timePeriod,
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("rate limit exceeded",
				zap.String("ip", r.RemoteAddr),
				zap.String("path", r.URL.Path))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(errTooManyRequests))
		}),
	)
}
