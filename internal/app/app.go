// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/lumina/internal/catalog"
	"github.com/hitoshi/lumina/internal/config"
	"github.com/hitoshi/lumina/internal/database"
	"github.com/hitoshi/lumina/internal/draft"
	"github.com/hitoshi/lumina/internal/handler"
	"github.com/hitoshi/lumina/internal/identity"
	"github.com/hitoshi/lumina/internal/listing"
	"github.com/hitoshi/lumina/internal/logger"
	"github.com/hitoshi/lumina/internal/metrics"
	"github.com/hitoshi/lumina/internal/middleware"
	"github.com/hitoshi/lumina/internal/repository"
	"github.com/hitoshi/lumina/internal/security"
	"github.com/hitoshi/lumina/internal/session"
	"github.com/hitoshi/lumina/internal/storage"
	"github.com/hitoshi/lumina/internal/user"
	"github.com/hitoshi/lumina/internal/worker/cleanup"
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
	cmd := ParseCommand(args)

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
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	productRepo := repository.NewPostgresProductRepo(db)

	// 3. 外部サービスクライアントの初期化
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	identityClient := identity.NewClient(httpClient, cfg.IdentityURL, cfg.IdentityAPIKey, slog.Default())
	storageClient := storage.NewClient(httpClient, cfg.StorageURL, cfg.StorageBucket, cfg.IdentityAPIKey, slog.Default())

	// 4. セッションストアの初期化
	// アイデンティティイベントの購読を先に開始してから一回限りの
	// 復元照会を発行する。復元の失敗は未サインインとして継続する。
	sessionStore := session.NewStore()
	unsubscribe := identityClient.OnAuthStateChange(sessionStore.Set)
	defer unsubscribe()

	hydrateCtx, hydrateCancel := context.WithTimeout(context.Background(), cfg.HTTPTimeout)
	if err := sessionStore.Hydrate(hydrateCtx, identityClient); err != nil {
		slog.Warn("session hydration failed, starting unauthenticated",
			slog.String("error", err.Error()),
		)
	}
	hydrateCancel()

	// 5. ドラフトマネージャの初期化
	previewStore, err := draft.NewTempPreviewStore()
	if err != nil {
		return fmt.Errorf("failed to create preview store: %w", err)
	}
	defer previewStore.Close()

	draftManager := draft.NewManager(previewStore, slog.Default())

	// 6. セキュリティサービスの初期化
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewTextSanitizer()

	// 7. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 8. ドメインサービスの初期化
	catalogService := catalog.NewService(productRepo, userRepo)
	userService := user.NewService(userRepo)
	submitWorkflow := listing.NewWorkflow(
		sessionStore, draftManager, storageClient, productRepo,
		sanitizer, collector, slog.Default(),
	)

	// 9. レート制限の構成（configはreq/min単位、rate.Limitはreq/sec単位）
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.SubmitRate = rate.Limit(float64(cfg.RateLimitSubmit) / 60.0)
	rateLimiterCfg.SubmitBurst = cfg.RateLimitSubmit
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	// 10. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:            slog.Default(),
		SessionReader:     sessionStore,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		MetricsCollector:  collector,

		IdentityService: identityClient,
		ProfileService:  userService,
		Sessions:        sessionStore,

		CatalogService: catalogService,
		UserRepo:       userRepo,

		DraftManager:  draftManager,
		Submitter:     submitWorkflow,
		UploadMaxSize: cfg.UploadMaxSize,

		SSRFGuard:  ssrfGuard,
		PreviewDir: previewStore.Dir(),

		MetricsHandler: metrics.Handler(registry),
	}

	router := handler.NewRouter(deps)

	// 11. プレビュークリーンアップジョブをバックグラウンド実行
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	cleanupJob := cleanup.NewCleanupJob(previewStore.Dir(), slog.Default())
	cleanupJob.TTL = cfg.PreviewTTL
	go cleanupJob.RunPeriodic(jobCtx, time.Hour)

	// 12. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
