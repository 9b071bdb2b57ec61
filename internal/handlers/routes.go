package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/gdg-garage/workshop-booking-api/internal/auth"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouteOptions struct {
	EnableCORS  bool
	FrontendURL string
}

func RegisterRoutes(r *chi.Mux, authHandler *auth.AuthHandler, bookingHandler *BookingHandler, workshopHandler *WorkshopHandler, opts RouteOptions) huma.API {
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if opts.EnableCORS {
		r.Use(CORS(opts.FrontendURL))
	}
	r.Use(authHandler.AuthMiddleware)

	// Initialize Huma API
	config := huma.DefaultConfig("Workshop Booking API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: auth.CookieName,
		},
	}
	api := humachi.New(r, config)

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/discord/login", authHandler.HandleLogin)
	r.Get("/auth/discord/callback", authHandler.HandleCallback)
	huma.Post(api, "/auth/login", authHandler.HandlePasswordLogin)
	huma.Post(api, "/auth/logout", authHandler.HandleLogout)

	huma.Get(api, "/workshops/{id}/availability", workshopHandler.HandleAvailability)

	// Protected routes
	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}}
	}
	huma.Get(api, "/me", authHandler.HandleMe, secured)
	huma.Post(api, "/bookings", bookingHandler.HandleCreate, secured)
	huma.Get(api, "/bookings", bookingHandler.HandleList, secured)
	huma.Get(api, "/bookings/{id}", bookingHandler.HandleGet, secured)
	huma.Delete(api, "/bookings/{id}", bookingHandler.HandleCancel, secured)

	return api
}
