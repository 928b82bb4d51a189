package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/lumina/internal/metrics"
	"github.com/hitoshi/lumina/internal/middleware"
	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/session"
)

func newTestRouter(t *testing.T, store *session.Store) (http.Handler, *middleware.RateLimiter) {
	t.Helper()

	limiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	t.Cleanup(limiter.Stop)

	deps := &RouterDeps{
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionReader:     store,
		CORSAllowedOrigin: "http://localhost:5173",
		RateLimiter:       limiter,
		MetricsCollector:  metrics.NopCollector{},
		IdentityService: &mockIdentityService{
			signInFn: func(ctx context.Context, email, password string) (*model.Session, error) {
				return &model.Session{UserID: "user-1", Email: email}, nil
			},
		},
		ProfileService: &mockProfileRegistrar{},
		Sessions:       store,
		CatalogService: &mockCatalogService{
			listFn: func(ctx context.Context) ([]*model.Product, error) {
				return []*model.Product{}, nil
			},
			getFn: func(ctx context.Context, id string) (*model.Product, error) {
				return nil, model.NewProductNotFoundError(id)
			},
		},
		UserRepo:     &mockUserRepo{},
		DraftManager: &mockDraftManager{},
		Submitter:    &mockSubmitter{},
		SSRFGuard:    &mockSSRFGuard{},
		PreviewDir:   t.TempDir(),
	}

	return NewRouter(deps), limiter
}

// TestRouter_HealthIsPublic は/healthが認証なしで到達できることを検証する。
func TestRouter_HealthIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, session.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "ok")
	}
}

// TestRouter_AuthRoutesArePublic は/auth配下が認証なしで到達できることを検証する。
func TestRouter_AuthRoutesArePublic(t *testing.T) {
	router, _ := newTestRouter(t, session.NewStore())

	body := `{"email":"taro@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

// TestRouter_CatalogIsPublic はカタログ閲覧が認証なしで到達できる
// ことを検証する。保護されるのは出品フローのみ。
func TestRouter_CatalogIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, session.NewStore())

	paths := []string{
		"/api/products",
		"/api/products/p-1",
	}

	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code == http.StatusUnauthorized {
			t.Errorf("GET %s: catalog browse should not require a session", path)
		}
	}
}

// TestRouter_ImageProxyIsPublic は商品画像プロキシが認証なしで到達
// できることを検証する。
func TestRouter_ImageProxyIsPublic(t *testing.T) {
	router, _ := newTestRouter(t, session.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/image?src=http://127.0.0.1:1/a.jpg", nil))

	if rec.Code == http.StatusUnauthorized {
		t.Errorf("status = %d, image proxy should not require a session", rec.Code)
	}
}

// TestRouter_DraftRequiresSession は出品フローが未認証で401になる
// ことを検証する。
func TestRouter_DraftRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t, session.NewStore())

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/draft"},
		{http.MethodGet, "/api/draft"},
		{http.MethodPost, "/api/draft/submit"},
		{http.MethodGet, "/previews/a.jpg"},
	}

	for _, p := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(p.method, p.path, nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", p.method, p.path, rec.Code, http.StatusUnauthorized)
		}
	}
}

// TestRouter_DraftWithSession はセッションがあれば出品フローに到達
// できることを検証する。
func TestRouter_DraftWithSession(t *testing.T) {
	store := session.NewStore()
	store.Set(&model.Session{UserID: "user-1", Email: "taro@example.com"})

	router, _ := newTestRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/draft", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

// TestRouter_SignOutRevokesAccess はサインアウト後に出品フローが401に
// 戻ることを検証する。
func TestRouter_SignOutRevokesAccess(t *testing.T) {
	store := session.NewStore()
	store.Set(&model.Session{UserID: "user-1", Email: "taro@example.com"})

	router, _ := newTestRouter(t, store)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/draft", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("authorized request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	store.Set(nil)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/draft", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("after sign-out: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestRouter_UnknownRoute は未定義ルートが404になることを検証する。
func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, session.NewStore())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
