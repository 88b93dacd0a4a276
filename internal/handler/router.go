package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/folio/internal/metrics"
	"github.com/hitoshi/folio/internal/middleware"
	"github.com/hitoshi/folio/internal/procedure"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	IdentityResolver  *middleware.IdentityResolver
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	CSRF              middleware.CSRFConfig

	// プロシージャ
	Procedures *procedure.Root

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 運用
	HealthChecker Pinger
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Logging → Recovery → SecurityHeaders → HTTPMetrics → CORS
//	/api/*: CSRF → Identity → RateLimit(General) → RateLimit(Write)
//
// /health, /metrics, /auth/google/* はAPIのミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{HSTS: deps.CSRF.CookieSecure}))
	if deps.Metrics != nil {
		r.Use(middleware.NewHTTPMetricsMiddleware(deps.Metrics))
	}
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	r.Method(http.MethodGet, "/health", NewHealthHandler(deps.HealthChecker))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	if deps.AuthService != nil {
		authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
		r.Route("/auth/google", func(r chi.Router) {
			r.Get("/login", authHandler.Login)
			r.Get("/callback", authHandler.Callback)
		})
	}

	var collector metrics.MetricsCollector
	if deps.Metrics != nil {
		collector = deps.Metrics
	}
	procHandler := NewProcedureHandler(deps.Procedures, collector)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewCSRFMiddleware(deps.CSRF))
		r.Use(deps.IdentityResolver.Middleware())
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.GeneralMiddleware())
			r.Use(deps.RateLimiter.WriteMiddleware())
		}

		r.Method(http.MethodGet, "/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRF))
		r.Get("/procedures", procHandler.ListProcedures)
		r.Get("/{path}", procHandler.Query)
		r.Post("/{path}", procHandler.Call)
	})

	return r
}
