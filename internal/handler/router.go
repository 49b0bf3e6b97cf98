package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mitaict-site/internal/middleware"
	"mitaict-site/internal/service"
	ws "mitaict-site/internal/websocket"
)

// loginRPS allows five login attempts a minute per client after the burst.
const (
	loginRPS   = 5.0 / 60
	loginBurst = 5
)

// Deps are the services the API is built on. Broker may be nil.
type Deps struct {
	Auth     *service.AuthService
	Content  *service.ContentService
	Contacts *service.ContactService
	Chat     *service.ChatService
	Hub      *ws.Hub
	DB       Pinger
	Broker   BrokerStatus
}

type RouterConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
	OpenAPI        *middleware.OpenAPIValidatorConfig
}

// Router is the site's HTTP handler. Close stops its rate limiters.
type Router struct {
	http.Handler
	limiters []*middleware.RateLimiter
}

func NewRouter(cfg RouterConfig, deps Deps) *Router {
	loginLimiter := middleware.NewRateLimiter("login", loginRPS, loginBurst)
	contactLimiter := middleware.NewRateLimiter("contact", cfg.RateLimitRPS, cfg.RateLimitBurst)
	chatLimiter := middleware.NewRateLimiter("chat", cfg.RateLimitRPS, cfg.RateLimitBurst)

	authHandler := NewAuthHandler(deps.Auth)
	contentHandler := NewContentHandler(deps.Content)
	contactHandler := NewContactHandler(deps.Contacts)
	chatHandler := NewChatHandler(deps.Chat)
	feedHandler := NewFeedHandler(deps.Hub, cfg.AllowedOrigins)
	requireAdmin := middleware.Auth(deps.Auth)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger())
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.OpenAPIValidator(cfg.OpenAPI))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/health", Health)
	r.Get("/health/ready", Ready(deps.DB, deps.Broker))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/services", contentHandler.ListServices)
		r.Get("/saas-products", contentHandler.ListProducts)
		r.Get("/about", contentHandler.About)
		r.Get("/tracking-config", contentHandler.TrackingConfig)

		r.With(contactLimiter.Middleware()).Post("/contact", contactHandler.Submit)
		r.With(chatLimiter.Middleware()).Post("/chat/message", chatHandler.SendMessage)

		r.Route("/admin", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(loginLimiter.Middleware())
				r.Post("/login", authHandler.Login)
				r.Post("/google-login", authHandler.GoogleLogin)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Post("/logout", authHandler.Logout)
				r.Get("/me", authHandler.Me)
				r.Post("/change-password", authHandler.ChangePassword)

				r.Post("/services", contentHandler.CreateService)
				r.Put("/services/{id}", contentHandler.UpdateService)
				r.Delete("/services/{id}", contentHandler.DeleteService)

				r.Post("/saas-products", contentHandler.CreateProduct)
				r.Put("/saas-products/{id}", contentHandler.UpdateProduct)
				r.Delete("/saas-products/{id}", contentHandler.DeleteProduct)

				r.Put("/about", contentHandler.UpdateAbout)
				r.Get("/social-integrations", contentHandler.Integrations)
				r.Put("/social-integrations", contentHandler.UpdateIntegrations)

				r.Get("/contacts", contactHandler.List)
				r.Get("/contacts/export/{format}", contactHandler.Export)
				r.Get("/contacts/{id}", contactHandler.Get)
				r.Put("/contacts/{id}", contactHandler.Update)
				r.Delete("/contacts/{id}", contactHandler.Delete)

				r.Get("/chat-sessions", chatHandler.ListSessions)
				r.Get("/chat-sessions/{id}", chatHandler.GetSession)
				r.Delete("/chat-sessions/{id}", chatHandler.DeleteSession)

				r.Get("/meeting-requests", chatHandler.ListMeetings)
				r.Put("/meeting-requests/{id}/status", chatHandler.UpdateMeetingStatus)
				r.Delete("/meeting-requests/{id}", chatHandler.DeleteMeeting)
			})
		})
	})

	r.With(requireAdmin).Get("/ws/admin/feed", feedHandler.HandleConnection)

	return &Router{
		Handler:  r,
		limiters: []*middleware.RateLimiter{loginLimiter, contactLimiter, chatLimiter},
	}
}

func (rt *Router) Close() {
	for _, l := range rt.limiters {
		l.Stop()
	}
}
