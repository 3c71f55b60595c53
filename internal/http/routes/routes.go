package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"botfleet/internal/http/handler"
	"botfleet/internal/http/middleware"
	"botfleet/internal/infra/config"
	"botfleet/internal/infra/container"
	"botfleet/pkg/logger"
)

// Router wires every HTTP handler and the three auth planes (admin, guest,
// cross-tenancy RPC) onto a chi mux.
type Router struct {
	container   *container.Container
	health      *handler.HealthHandler
	botAdmin    *handler.BotAdminHandler
	serverAdmin *handler.ServerAdminHandler
	commandAdmin *handler.CommandAdminHandler
	guest       *handler.GuestHandler
	pairing     *handler.PairingHandler
	rpc         *handler.RPCHandler
	config      *config.Config
	logger      logger.Logger
}

// NewRouter creates a new router with all handlers built from the Container.
func NewRouter(c *container.Container) *Router {
	return &Router{
		container:    c,
		health:       handler.NewHealthHandler(c, c.Logger),
		botAdmin:     handler.NewBotAdminHandler(c),
		serverAdmin:  handler.NewServerAdminHandler(c),
		commandAdmin: handler.NewCommandAdminHandler(c),
		guest:        handler.NewGuestHandler(c),
		pairing:      handler.NewPairingHandler(c),
		rpc:          handler.NewRPCHandler(c),
		config:       c.Config,
		logger:       c.Logger,
	}
}

// SetupRoutes configures all routes and middleware
func (rt *Router) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	rt.setupGlobalMiddleware(r)
	rt.setupHealthRoutes(r)
	rt.setupUnauthenticatedRoutes(r)
	rt.setupAdminRoutes(r)
	rt.setupGuestRoutes(r)
	rt.setupRPCRoutes(r)

	return r
}

func (rt *Router) setupGlobalMiddleware(r *chi.Mux) {
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware())

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   rt.config.Server.CORS.AllowedOrigins,
		AllowedMethods:   rt.config.Server.CORS.AllowedMethods,
		AllowedHeaders:   rt.config.Server.CORS.AllowedHeaders,
		AllowCredentials: rt.config.Server.CORS.AllowCredentials,
		MaxAge:           rt.config.Server.CORS.MaxAge,
	}
	r.Use(middleware.CORSMiddleware(corsConfig))
	r.Use(middleware.LoggingMiddleware(rt.logger))

	rateLimitConfig := &middleware.RateLimitConfig{
		RequestsPerMinute: rt.config.Server.RateLimit.RequestsPerMinute,
		BurstSize:         rt.config.Server.RateLimit.BurstSize,
		KeyFunc: func(r *http.Request) string {
			return r.RemoteAddr
		},
	}
	r.Use(middleware.RateLimitMiddleware(rateLimitConfig, rt.logger))
	r.Use(middleware.ValidationMiddleware(rt.logger))
}

func (rt *Router) setupHealthRoutes(r *chi.Mux) {
	r.Get("/health", rt.health.Health)
	r.Get("/metrics", rt.health.Metrics)
}

// setupUnauthenticatedRoutes wires the endpoints the spec calls out as
// unauthenticated: registration, guest login entry paths, server catalog
// read, and the pairing-code flow.
func (rt *Router) setupUnauthenticatedRoutes(r *chi.Mux) {
	r.Post("/bots/register", rt.botAdmin.Register)
	r.Get("/servers", rt.serverAdmin.List)

	r.Route("/guest", func(r chi.Router) {
		r.Post("/session-id-proof", rt.guest.SessionIDProof)
		r.Post("/otp/request", rt.guest.RequestOTP)
		r.Post("/otp/verify", rt.guest.VerifyOTP)
	})

	r.Route("/pairing/{botId}", func(r chi.Router) {
		r.Post("/qr", rt.pairing.IssueQR)
		r.Post("/phone", rt.pairing.IssuePairingCode)
		r.Get("/status", rt.pairing.Verify)
	})
}

// setupAdminRoutes wires every admin-authenticated endpoint: bot lifecycle,
// the server catalog, and declarative commands.
func (rt *Router) setupAdminRoutes(r *chi.Mux) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.AdminAuth(rt.container.AdminAuth, rt.logger))

		r.Route("/bots", func(r chi.Router) {
			r.Get("/", rt.botAdmin.List)
			r.Post("/batch", rt.botAdmin.BatchOperate)
			r.Route("/{botId}", func(r chi.Router) {
				r.Get("/", rt.botAdmin.Get)
				r.Delete("/", rt.botAdmin.Delete)
				r.Post("/approve", rt.botAdmin.Approve)
				r.Post("/reject", rt.botAdmin.Reject)
				r.Post("/revoke", rt.botAdmin.Revoke)
				r.Put("/proxy", rt.botAdmin.SetProxy)
				r.Post("/start", rt.botAdmin.Start)
				r.Post("/stop", rt.botAdmin.Stop)
				r.Post("/restart", rt.botAdmin.Restart)
			})
		})

		r.Route("/servers", func(r chi.Router) {
			r.Post("/", rt.serverAdmin.Register)
			r.Get("/", rt.serverAdmin.List)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", rt.serverAdmin.Get)
				r.Put("/health", rt.serverAdmin.SetHealthy)
			})
		})

		r.Route("/commands", func(r chi.Router) {
			r.Post("/", rt.commandAdmin.Create)
			r.Get("/", rt.commandAdmin.List)
			r.Put("/{trigger}", rt.commandAdmin.Update)
			r.Delete("/{id}", rt.commandAdmin.Delete)
		})
	})
}

// setupGuestRoutes wires the guest-authenticated endpoints reached after
// one of the three Guest Auth Core paths issues a token.
func (rt *Router) setupGuestRoutes(r *chi.Mux) {
	r.Route("/guest/me", func(r chi.Router) {
		r.Use(middleware.GuestAuth(rt.container.GuestTokens, rt.logger))
		r.Get("/", rt.guest.Me)
	})
	r.Route("/guest/credentials", func(r chi.Router) {
		r.Use(middleware.GuestAuth(rt.container.GuestTokens, rt.logger))
		r.Post("/", rt.guest.RotateCredentials)
	})
}

// setupRPCRoutes wires the single inbound cross-tenancy RPC endpoint.
func (rt *Router) setupRPCRoutes(r *chi.Mux) {
	r.Route("/rpc", func(r chi.Router) {
		r.Use(middleware.RPCAuth(rt.container.ServerRepo, rt.container.RPCSigner, rt.container.Tenancy, rt.logger))
		r.Post("/", rt.rpc.Handle)
	})
}
