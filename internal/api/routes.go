package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/coverly/warranty-desk/internal/auth"
)

// SetupRoutes configures the router: an open health probe plus the
// four generation operations behind the bearer-token middleware.
func SetupRoutes(h *Handlers, token string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://localhost:*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(token))

		r.Post("/interpret", h.Interpret)
		r.Post("/claims/packet", h.RenderClaimPacket)
		r.Post("/passes", h.ComposePass)
		r.Post("/warranties/calendar", h.EncodeCalendarEvent)
	})

	return r
}
