package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lumina/internal/metrics"
	"github.com/hitoshi/lumina/internal/middleware"
	"github.com/hitoshi/lumina/internal/repository"
	"github.com/hitoshi/lumina/internal/security"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionReader     middleware.SessionReader
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	MetricsCollector  metrics.MetricsCollector

	// 認証
	IdentityService IdentityServiceInterface
	ProfileService  ProfileRegistrar
	Sessions        SessionCurrenter

	// カタログ
	CatalogService CatalogServiceInterface
	UserRepo       repository.UserRepository

	// ドラフト・出品
	DraftManager  DraftManagerInterface
	Submitter     SubmitterInterface
	UploadMaxSize int64

	// 画像プロキシ
	SSRFGuard security.SSRFGuardService

	// プレビューファイルの配信元ディレクトリ
	PreviewDir string

	// メトリクスエンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS
//
// カタログ閲覧・画像プロキシ・認証ルート（/auth/*）・ヘルスチェックは
// 訪問者にも公開する。出品フロー（/api/draft*）と /previews/* は
// ガードミドルウェアで保護される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.MetricsCollector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.IdentityService, deps.ProfileService, deps.Sessions)
	catalogHandler := NewCatalogHandler(deps.CatalogService, deps.UserRepo)
	draftHandler := NewDraftHandler(deps.DraftManager, deps.Submitter, deps.UploadMaxSize)
	imageHandler := NewImageHandler(deps.SSRFGuard)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.SignUp)
		r.Post("/login", authHandler.SignIn)
		r.Post("/logout", authHandler.SignOut)
		r.Get("/me", authHandler.Me)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// カタログ閲覧と商品画像プロキシは訪問者にも公開する。
	// 保護されるのは出品フローのみ。
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", catalogHandler.ListProducts)
		r.Get("/{id}", catalogHandler.GetProduct)
	})
	r.Get("/api/image", imageHandler.Proxy)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Guard → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewGuardMiddleware(deps.SessionReader))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 出品ドラフト管理
		r.Route("/api/draft", func(r chi.Router) {
			r.Post("/", draftHandler.OpenDraft)
			r.Get("/", draftHandler.GetDraft)
			r.Put("/", draftHandler.UpdateDraft)
			r.Delete("/", draftHandler.DiscardDraft)

			r.Post("/images", draftHandler.AddImages)
			r.Delete("/images/{index}", draftHandler.RemoveImage)

			// POST /api/draft/submit - 出品提出（提出専用レート制限を追加）
			r.With(deps.RateLimiter.SubmitMiddleware()).Post("/submit", draftHandler.Submit)
		})

		// ステージ画像のローカルプレビュー配信
		if deps.PreviewDir != "" {
			fileServer := http.StripPrefix("/previews/", http.FileServer(http.Dir(deps.PreviewDir)))
			r.Get("/previews/*", fileServer.ServeHTTP)
		}
	})

	return r
}
