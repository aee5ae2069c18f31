package handler

import (
	"net/http"

	"wallet-ledger/internal/adapter/http/middleware"
	redisStore "wallet-ledger/internal/adapter/storage/redis"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds everything the router needs.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	LedgerSvc      ports.LedgerService
	QuerySvc       ports.QueryService
	ContactSvc     ports.ContactService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore
	HealthCheckers []ports.HealthChecker
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// SetupRouter wires middleware, handlers and routes.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20))

	authHandler := NewAuthHandler(deps.AuthSvc)
	walletHandler := NewWalletHandler(deps.LedgerSvc, deps.QuerySvc)
	txHandler := NewTransactionHandler(deps.QuerySvc)
	contactHandler := NewContactHandler(deps.ContactSvc)

	rules := middleware.DefaultRateLimitRules()
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rules[group], deps.Logger)
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))
	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/signup", rl("auth_signup"), authHandler.Signup)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(deps.TokenSvc, deps.Logger))
	{
		wallet := protected.Group("/wallet")
		{
			wallet.POST("/deposit", rl("wallet_mutation"), walletHandler.Deposit)
			wallet.POST("/transfer", rl("wallet_mutation"), walletHandler.Transfer)
			wallet.POST("/withdraw", rl("wallet_mutation"), walletHandler.Withdraw)
			wallet.GET("/balance", rl("wallet_read"), walletHandler.GetBalance)
		}

		protected.GET("/transactions", rl("wallet_read"), txHandler.GetHistory)
		protected.GET("/contacts", rl("wallet_read"), contactHandler.ListContacts)
	}

	return r
}
