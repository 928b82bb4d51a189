// Package storage はオブジェクトストレージサービスのクライアントを提供する。
// アップロードと、パスから決定的に導出される公開URLの解決を行う。
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
)

// Client はオブジェクトストレージのHTTPクライアント。
// 1つのバケットに対するアップロードと公開URL解決を提供する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	bucket     string
	apiKey     string
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, baseURL, bucket, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		bucket:     bucket,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Upload は画像のバイト列を指定パスにアップロードする。
// パスの一意性チェックは行わない（ランダムなファイル名により衝突確率は
// 無視できるものとして扱う）。失敗してもリトライしない。
func (c *Client) Upload(ctx context.Context, path string, data []byte) error {
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, c.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("ストレージへのアップロードに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("ストレージがエラーステータスを返しました",
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
		)
		return fmt.Errorf("storage returned status %d", resp.StatusCode)
	}

	return nil
}

// PublicURL はパスに対応する公開URLを返す。
// ネットワーク通信を伴わず、同一パスには常に同一URLを返す（決定的）。
func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, path)
}
