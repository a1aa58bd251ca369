// Package rest exposes guardian over HTTP with a chi router.
package rest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/metrics"
	"github.com/dmitrijs2005/guardian/internal/server/services"
)

// Services bundles the domain services the handlers call.
type Services struct {
	Users    *services.UserService
	Invites  *services.InviteService
	Follows  *services.FollowService
	Duress   *services.DuressService
	Evidence *services.EvidenceService
}

type Handler struct {
	svc     Services
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewHandler(svc Services, m *metrics.Metrics, logger logging.Logger) *Handler {
	return &Handler{svc: svc, metrics: m, logger: logger.With("module", "rest")}
}

// splitOrigins turns a comma separated CORS_ORIGIN value into a list.
func splitOrigins(v string) []string {
	var origins []string
	for _, p := range strings.Split(v, ",") {
		if o := strings.TrimRight(strings.TrimSpace(p), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

// Routes builds the router. corsOrigin is a comma separated list of allowed
// origins.
func (h *Handler) Routes(corsOrigin string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: splitOrigins(corsOrigin),
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("System is Live"))
	})
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Post("/register", h.register)
	r.Post("/invite", h.createInvite)

	r.Route("/users/{id}", func(r chi.Router) {
		r.Post("/follow", h.follow)
		r.Post("/unfollow", h.unfollow)
		r.Get("/followers", h.followers)
		r.Get("/following", h.following)
		r.Delete("/followers/{fid}", h.deleteFollower)

		r.Post("/duress", h.triggerDuress)
		r.Get("/duress", h.duressState)
		r.Post("/duress/cancel", h.cancelDuress)
		r.Post("/duress/evidence", h.requestEvidence)
		r.Post("/test-mode", h.enableTestMode)

		r.Post("/checkin", h.checkin)
		r.Get("/map", h.mapInfo)

		r.Get("/preferences", h.preferences)
		r.Patch("/preferences", h.updatePreferences)
	})

	return r
}

// instrument records a metric sample and a debug log line per request,
// labelled by route pattern rather than raw path.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		d := time.Since(start)

		h.metrics.ObserveHTTP(route, r.Method, status, d)
		h.logger.Debug(r.Context(), "request served",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", d.String(),
		)
	})
}
