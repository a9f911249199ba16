package router

import (
	"net/http"

	"github.com/azad-pos/api/internal/config"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/enum"
	"github.com/azad-pos/api/internal/handler"
	mw "github.com/azad-pos/api/internal/middleware"
	"github.com/azad-pos/api/internal/service"
	"github.com/azad-pos/api/internal/split"
	"github.com/azad-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the long-lived collaborators the routes are wired to.
type Deps struct {
	Queries *database.Queries
	Orders  *service.OrderService
	Hub     *ws.Hub
	Splits  *split.Registry
	// Tickets is nil when no printer queue is configured.
	Tickets handler.TicketRequester
	Logger  *zap.SugaredLogger
}

// New creates a Chi router with all application routes wired up.
// Customer routes are public; staff routes require a role token.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(mw.Logger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(d.Queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	menuHandler := handler.NewMenuHandler(d.Queries)
	r.Route("/menu", menuHandler.RegisterRoutes)

	loyaltyHandler := handler.NewLoyaltyHandler(d.Queries)
	r.Route("/loyalty", loyaltyHandler.RegisterRoutes)

	splitHandler := handler.NewSplitHandler(d.Splits, d.Orders, d.Queries)
	r.Route("/split-sessions", splitHandler.RegisterRoutes)

	// WebSocket routes. Staff authenticate with ?token=, customers follow
	// a single order by its unguessable id.
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeStaff(d.Hub, cfg.JWTSecret, w, r)
	})
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeOrder(d.Hub, d.Orders, w, r)
	})

	orderHandler := handler.NewOrderHandler(d.Orders, d.Queries, d.Tickets)
	r.Route("/orders", func(r chi.Router) {
		orderHandler.RegisterPublicRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(cfg.JWTSecret))
			orderHandler.RegisterStaffRoutes(r)
		})
	})

	// Manager-only routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRole(enum.RoleManager))

		authHandler.RegisterManagerRoutes(r)

		reportsHandler := handler.NewReportsHandler(d.Queries, cfg.Location)
		r.Route("/reports", reportsHandler.RegisterRoutes)
	})

	d.Logger.Infow("router initialized")
	return r
}
