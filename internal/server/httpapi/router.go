package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voxjournal/voxjournal/internal/logging"
)

// NewRouter assembles the HTTP surface: public auth and health endpoints,
// token-protected entry endpoints, and /metrics for scraping.
func NewRouter(h *Handler, jwtSecret []byte, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(logger))
	r.Use(Metrics())

	r.Get("/healthz", h.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/refresh", h.refresh)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Use(Authenticator(jwtSecret))
			r.Post("/", h.createEntry)
			r.Get("/", h.listEntries)
			r.Get("/{id}", h.getEntry)
			r.Get("/{id}/playback", h.playback)
			r.Post("/{id}/transcription", h.regenerateTranscription)
			r.Delete("/{id}", h.deleteEntry)
		})
	})

	return r
}
