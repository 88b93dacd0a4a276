package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/folio/internal/api"
	"github.com/hitoshi/folio/internal/auth"
	"github.com/hitoshi/folio/internal/config"
	"github.com/hitoshi/folio/internal/database"
	"github.com/hitoshi/folio/internal/handler"
	"github.com/hitoshi/folio/internal/logger"
	"github.com/hitoshi/folio/internal/metrics"
	"github.com/hitoshi/folio/internal/middleware"
	"github.com/hitoshi/folio/internal/repository"
	"github.com/hitoshi/folio/internal/security"
	"github.com/hitoshi/folio/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	var migrateAction MigrateAction
	if cmd == CommandMigrate {
		if migrateAction, err = ParseMigrateAction(args[1:]); err != nil {
			return err
		}
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg, migrateAction)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(databaseURL string) (*sql.DB, error) {
	db, err := database.Open(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")
	return db, nil
}

// buildServer はAPIサーバーの全依存関係をワイヤリングし、HTTPハンドラーを返す。
// 戻り値のstopはレート制限のクリーンアップgoroutineを停止する。
func buildServer(cfg *config.Config, db *sql.DB, registry *prometheus.Registry) (http.Handler, func()) {
	// 1. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	photoRepo := repository.NewPostgresPhotoRepo(db)
	essayRepo := repository.NewPostgresEssayRepo(db)
	paperRepo := repository.NewPostgresPaperRepo(db)

	// 2. 認証サービスの初期化
	oauthProvider := auth.NewGoogleOAuthProvider(auth.GoogleOAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
	})
	authService := auth.NewService(oauthProvider, userRepo, sessionRepo, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
		OwnerOpenID:   cfg.OwnerOpenID,
		AdminEmails:   cfg.AdminEmails,
	})

	sessionCookie := middleware.SessionCookie{
		Domain: cfg.CookieDomain,
		Secure: cfg.CookieSecure,
		MaxAge: cfg.SessionMaxAge,
	}

	// 3. プロシージャの構築
	procedures := api.NewAppRouter(api.Deps{
		Photos:        photoRepo,
		Essays:        essayRepo,
		Papers:        paperRepo,
		Sanitizer:     security.NewEssaySanitizer(),
		Sessions:      authService,
		SessionCookie: sessionCookie,
	})

	// 4. メトリクスとレート制限
	collector := metrics.NewCollector(registry)
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigPerMinute(cfg.RateLimitGeneral, cfg.RateLimitWrite),
		collector,
	)

	// 5. ルーターの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		IdentityResolver:  middleware.NewIdentityResolver(sessionRepo, userRepo, sessionCookie),
		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		Procedures:  procedures,
		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			BaseURL:       cfg.BaseURL,
			SessionCookie: sessionCookie,
		},
		HealthChecker: db,
		Metrics:       collector,
		Gatherer:      registry,
	})

	return router, rateLimiter.Stop
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	router, stopRateLimiter := buildServer(cfg, db, prometheus.NewRegistry())
	defer stopRateLimiter()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server, "API server")
}

// serveUntilSignal はサーバーを起動し、シグナル受信でグレースフルシャットダウンする。
func serveUntilSignal(server *http.Server, name string) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s listen error: %w", name, err)
	case <-stop:
	}
	slog.Info("shutting down " + name + "...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// buildWorker はセッションクリーンアップジョブと、ワーカー用の/health・/metricsハンドラーを構築する。
func buildWorker(db *sql.DB, registry *prometheus.Registry) (*cleanup.SessionCleanupJob, http.Handler) {
	collector := metrics.NewCollector(registry)
	job := cleanup.NewSessionCleanupJob(repository.NewPostgresSessionRepo(db), collector, slog.Default())

	r := chi.NewRouter()
	r.Method(http.MethodGet, "/health", handler.NewHealthHandler(db))
	r.Method(http.MethodGet, "/metrics", metrics.Handler(registry))

	return job, r
}

// runWorker はワーカーモードで起動する。
// 期限切れセッションをSESSION_CLEANUP_INTERVALごとに削除する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	job, probes := buildWorker(db, prometheus.NewRegistry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		job.Start(ctx, cfg.SessionCleanupInterval)
	}()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      probes,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	err = serveUntilSignal(server, "worker")

	cancel()
	<-done
	return err
}

// runMigrate はデータベースマイグレーションを実行する。
// upは未適用分をすべて適用し、downは指定件数だけ巻き戻し、versionは現在のバージョンをログに出す。
func runMigrate(cfg *config.Config, action MigrateAction) error {
	slog.Info("running database migrations",
		slog.String("action", action.Name),
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	switch action.Name {
	case "down":
		if err := database.RollbackMigrations(cfg.DatabaseURL, action.Steps); err != nil {
			return fmt.Errorf("migration rollback failed: %w", err)
		}
	case "version":
		v, err := database.CurrentVersion(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		slog.Info("schema version",
			slog.Uint64("version", uint64(v.Version)),
			slog.Bool("dirty", v.Dirty),
			slog.Bool("applied", v.Applied),
		)
		return nil
	default:
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	v, err := database.CurrentVersion(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(v.Version)),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
