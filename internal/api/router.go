package api

import (
	"net/http"

	"github.com/doublemoney-pro/doublemoney/internal/api/handler"
	"github.com/doublemoney-pro/doublemoney/internal/api/middleware"
	"github.com/doublemoney-pro/doublemoney/internal/api/spec"
	"github.com/doublemoney-pro/doublemoney/internal/config"
	"github.com/doublemoney-pro/doublemoney/internal/domain"
	"github.com/doublemoney-pro/doublemoney/internal/idempotency"
	"github.com/doublemoney-pro/doublemoney/internal/service"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
)

type Router struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *pgxpool.Pool
	redis     redis.Cmdable
	idemStore *idempotency.Store

	users       *service.UserService
	investments *service.InvestmentService
	referrals   *service.ReferralService
	admin       *service.AdminService
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *pgxpool.Pool,
	rdb redis.Cmdable,
	idemStore *idempotency.Store,
	users *service.UserService,
	investments *service.InvestmentService,
	referrals *service.ReferralService,
	admin *service.AdminService,
) *Router {
	return &Router{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		redis:       rdb,
		idemStore:   idemStore,
		users:       users,
		investments: investments,
		referrals:   referrals,
		admin:       admin,
	}
}

func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)

	authHandler := handler.NewAuthHandler(api.users)
	investmentHandler := handler.NewInvestmentHandler(api.investments)
	referralHandler := handler.NewReferralHandler(api.referrals)
	adminHandler := handler.NewAdminHandler(api.admin, api.users)
	healthHandler := handler.NewHealthHandler(api.db, api.redis)
	settingsHandler := handler.NewSettingsHandler(api.cfg.SocialLinks)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.cfg.PublicRateLimitRPS))

		r.Post("/v1/auth/register", authHandler.Register)
		r.Post("/v1/auth/login", authHandler.Login)
		r.Post("/v1/admin/auth/login", authHandler.AdminLogin)
		r.Get("/v1/settings/social-links", settingsHandler.SocialLinks)
	})

	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/openapi.yaml", spec.OpenAPIHandler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))

	// User routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/me", authHandler.Me)
		r.With(middleware.IdempotencyMiddleware(api.idemStore, api.logger)).
			Post("/v1/deposits", investmentHandler.CreateDeposit)
		r.Get("/v1/investments", investmentHandler.ListInvestments)
		r.Get("/v1/investments/{id}/status", investmentHandler.GetStatus)
		r.Get("/v1/investments/{id}/wallet", investmentHandler.GetDepositWallet)
		r.Post("/v1/investments/{id}/confirm-sent", investmentHandler.ConfirmSent)
		r.Get("/v1/referrals/status", referralHandler.GetStatus)
		r.Get("/v1/referrals/earnings", referralHandler.ListEarnings)
	})

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.RequireRole(domain.RoleAdmin))
		r.Use(middleware.AuthRateLimiter(api.cfg.AuthRateLimitRPS))

		r.Get("/v1/admin/dashboard", adminHandler.Dashboard)
		r.Get("/v1/admin/users", adminHandler.ListUsers)
		r.Get("/v1/admin/users/{id}", adminHandler.GetUser)
		r.Post("/v1/admin/users/{id}/toggle", adminHandler.ToggleUser)
		r.Post("/v1/admin/users/{id}/reset-password", adminHandler.ResetPassword)
		r.Get("/v1/admin/investments", investmentHandler.AdminListInvestments)
		r.Post("/v1/admin/investments/{id}/confirm", investmentHandler.AdminConfirm)
		r.Post("/v1/admin/investments/{id}/cancel", investmentHandler.AdminCancel)
		r.Get("/v1/admin/earnings", referralHandler.AdminListEarnings)
		r.Post("/v1/admin/earnings/{id}/approve", referralHandler.AdminApproveEarning)
		r.Post("/v1/admin/earnings/{id}/pay", referralHandler.AdminPayEarning)
		r.Get("/v1/admin/wallets", adminHandler.ListWallets)
		r.Post("/v1/admin/wallets", adminHandler.AddWallet)
		r.Post("/v1/admin/wallets/{id}/toggle", adminHandler.ToggleWallet)
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		handler.RespondError(w, req, http.StatusNotFound, "request/not-found", "resource not found")
	})

	return r
}
