package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/localevents/internal/api/handlers"
	"github.com/Togather-Foundation/localevents/internal/api/middleware"
	"github.com/Togather-Foundation/localevents/internal/api/problem"
	"github.com/Togather-Foundation/localevents/internal/audit"
	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/config"
	"github.com/Togather-Foundation/localevents/internal/domain/events"
	"github.com/Togather-Foundation/localevents/internal/domain/users"
	"github.com/Togather-Foundation/localevents/internal/metrics"
	"github.com/Togather-Foundation/localevents/internal/storage"
)

// NewRouter wires services over repo and returns the full middleware chain.
//
// Order, outermost first: correlation id, request log, security headers,
// CORS, tracing, HTTP metrics, mux. Tracing and metrics read the matched
// pattern off the request, so both sit directly outside the mux.
func NewRouter(cfg config.Config, logger zerolog.Logger, repo storage.Repository, tokens *auth.JWTManager, build BuildInfo) http.Handler {
	auditLogger := audit.NewLogger(logger)
	eventsService := events.NewService(repo.Events(), repo.People())
	usersService := users.NewService(repo.Users(), logger)

	eventsHandler := handlers.NewEventsHandler(eventsService, auditLogger, cfg.Environment)
	authHandler := handlers.NewAuthHandler(usersService, tokens, auditLogger, cfg.Environment)
	health := handlers.NewHealthChecker(repo, build.withDefaults().Version, build.withDefaults().GitCommit)

	rateLimit := middleware.RateLimit(cfg.RateLimit)
	requireIdentity := middleware.RequireIdentity(auth.NewVerifier(tokens), cfg.Environment)

	public := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierPublic)(rateLimit(h))
	}
	authenticated := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierAuthenticated)(
			requireIdentity(rateLimit(middleware.PublicRequestSize()(h))),
		)
	}
	login := func(h http.HandlerFunc) http.Handler {
		return middleware.WithRateLimitTierHandler(middleware.TierLogin)(
			rateLimit(middleware.AuthRequestSize()(h)),
		)
	}

	mux := http.NewServeMux()
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", health.Readyz())
	mux.Handle("/version", VersionHandler(build))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.Handle("/api/openapi.json", methodMux(map[string]http.Handler{
		http.MethodGet: OpenAPIHandler(),
	}))

	mux.Handle("/api/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: login(authHandler.Register),
	}))
	mux.Handle("/api/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: login(authHandler.Login),
	}))

	mux.Handle("/api/events", methodMux(map[string]http.Handler{
		http.MethodGet:  public(eventsHandler.List),
		http.MethodPost: authenticated(eventsHandler.Create),
	}))
	mux.Handle("/api/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    public(eventsHandler.Get),
		http.MethodPut:    authenticated(eventsHandler.Update),
		http.MethodDelete: authenticated(eventsHandler.Delete),
	}))
	mux.Handle("/api/events/{id}/rsvp", methodMux(map[string]http.Handler{
		http.MethodPost:   authenticated(eventsHandler.Rsvp),
		http.MethodDelete: authenticated(eventsHandler.CancelRsvp),
	}))
	mux.Handle("/api/events/{id}/attendees", methodMux(map[string]http.Handler{
		http.MethodGet: authenticated(eventsHandler.Attendees),
	}))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		problem.Write(w, r, http.StatusNotFound, "Not found", nil, cfg.Environment)
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CORS(cfg.CORS, logger)(handler)
	handler = middleware.SecurityHeaders(cfg.IsProduction())(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		problem.Write(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil, "")
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
