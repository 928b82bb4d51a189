package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/security"
)

// imageProxyMaxBytes はプロキシ経由で転送する画像の最大サイズ。
const imageProxyMaxBytes = 10 * 1024 * 1024 // 10MB

// imageProxyTimeout は外部画像取得のタイムアウト。
const imageProxyTimeout = 10 * time.Second

// ImageHandler は外部商品画像のプロキシハンドラー。
// 内部ネットワークへのアクセスをSSRFガードで遮断した上で、
// 公開URLの画像のみを中継する。
type ImageHandler struct {
	guard      security.SSRFGuardService
	safeClient *http.Client
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(guard security.SSRFGuardService) *ImageHandler {
	return &ImageHandler{
		guard:      guard,
		safeClient: guard.NewSafeClient(imageProxyTimeout),
	}
}

// Proxy は外部画像を取得して中継する。
// GET /api/image?src=xxx
func (h *ImageHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("src")
	if src == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("srcパラメータは必須です"))
		return
	}

	// 1. 静的なURL検証（DNS解決前の事前チェック）
	if err := h.guard.ValidateURL(src); err != nil {
		slog.Warn("image proxy blocked URL",
			slog.String("url", src),
			slog.String("reason", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewImageBlockedError())
		return
	}

	// 2. SSRFガード付きクライアントで取得。
	// DNS再バインディング攻撃はDialer側の検証で防止される。
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("不正なURLです"))
		return
	}

	resp, err := h.safeClient.Do(req)
	if err != nil {
		// Dialer検証による拒否もここに到達する
		slog.Warn("image proxy fetch failed",
			slog.String("url", src),
			slog.String("error", err.Error()),
		)
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewImageBlockedError())
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		writeAPIErrorResponse(w, http.StatusBadGateway, model.NewServiceUnavailableError("画像サーバー"))
		return
	}

	// 3. 画像以外のコンテンツは中継しない
	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewImageBlockedError())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, io.LimitReader(resp.Body, imageProxyMaxBytes)); err != nil {
		slog.Warn("image proxy copy failed", slog.String("error", err.Error()))
	}
}
