// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/handlers"
	"github.com/MarcoRipari/SalesGenius/cmd/salesgenius-api/middleware"
	"github.com/MarcoRipari/SalesGenius/internal/analytics"
	"github.com/MarcoRipari/SalesGenius/internal/auth"
	"github.com/MarcoRipari/SalesGenius/internal/catalog"
	"github.com/MarcoRipari/SalesGenius/internal/chat"
	"github.com/MarcoRipari/SalesGenius/internal/config"
	"github.com/MarcoRipari/SalesGenius/internal/knowledge"
	"github.com/MarcoRipari/SalesGenius/internal/observability"
	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// Services bundles the wired application services the router exposes.
type Services struct {
	Repos     *storage.Repositories
	Auth      *auth.Service
	Knowledge *knowledge.Service
	Chat      *chat.Service
	Analytics *analytics.Service
	Resolver  *catalog.Resolver
}

// NewRouter creates the main API router with all routes configured.
// Dashboard routes sit behind session auth; widget routes are public and
// keyed by widget key, since they are called from merchants' storefronts.
func NewRouter(logger *observability.Logger, cfg *config.Config, svc *Services) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","service":"salesgenius"}`))
	})

	authHandler := handlers.NewAuthHandler(logger, svc.Auth)
	knowledgeHandler := handlers.NewKnowledgeHandler(logger, svc.Knowledge)
	productsHandler := handlers.NewProductsHandler(logger, svc.Repos.Products, svc.Knowledge, svc.Resolver)
	widgetHandler := handlers.NewWidgetHandler(logger, svc.Chat, svc.Repos.WidgetConfigs)
	conversationsHandler := handlers.NewConversationsHandler(logger, svc.Repos)
	analyticsHandler := handlers.NewAnalyticsHandler(logger, svc.Analytics)

	// Public widget endpoints, open CORS.
	r.Route("/api/widget/{widgetKey}", func(r chi.Router) {
		r.Use(middleware.CORS([]string{"*"}))
		r.Get("/config", widgetHandler.Config)
		r.Post("/chat", widgetHandler.Chat)
		r.Get("/history", widgetHandler.History)
		r.Post("/lead", widgetHandler.Lead)
	})

	// Dashboard endpoints, restricted CORS.
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.Server.CORSOrigins))

		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(svc.Auth))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Route("/knowledge", func(r chi.Router) {
				r.Get("/", knowledgeHandler.List)
				r.Post("/", knowledgeHandler.Add)
				r.Delete("/{sourceID}", knowledgeHandler.Delete)
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", productsHandler.List)
				r.Post("/", productsHandler.Create)
				r.Get("/search", productsHandler.Search)
				r.Post("/rescan/{sourceID}", productsHandler.Rescan)
				r.Put("/{productID}", productsHandler.Update)
				r.Delete("/{productID}", productsHandler.Delete)
			})

			r.Get("/widget-config", widgetHandler.GetConfig)
			r.Put("/widget-config", widgetHandler.UpdateConfig)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", conversationsHandler.List)
				r.Get("/{conversationID}/messages", conversationsHandler.Messages)
			})
			r.Get("/leads", conversationsHandler.Leads)

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/overview", analyticsHandler.Overview)
				r.Get("/daily", analyticsHandler.Daily)
			})
		})
	})

	return r
}
