// Package identity はリモートアイデンティティサービスのクライアントを提供する。
// サインイン・サインアップ・サインアウトの各操作と、現在セッションの
// 一回限りの照会、そしてセッション変化を通知するイベントストリームを含む。
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/hitoshi/lumina/internal/model"
)

// ProfileAttrs はサインアップ時に登録するプロフィール属性。
type ProfileAttrs struct {
	Name  string
	Phone string
}

// Client はアイデンティティサービスのHTTPクライアント。
// 発行された資格情報（アクセストークン）をプロセス内に保持し、
// セッション変化をリスナーに通知する。
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger

	mu        sync.Mutex
	token     string
	listeners map[int]func(*model.Session)
	nextID    int
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
		listeners:  make(map[int]func(*model.Session)),
	}
}

// --- ワイヤフォーマット ---

// tokenResponse はトークンエンドポイントのレスポンス。
type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	User        userResponse `json:"user"`
}

// userResponse はユーザー情報のレスポンス。
type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// errorResponse はアイデンティティサービスのエラーレスポンス。
type errorResponse struct {
	Message string `json:"msg"`
	Error   string `json:"error_description"`
}

// SignIn はメールアドレスとパスワードでサインインする。
// 成功時はセッションを返し、イベントストリームに同じセッションを通知する。
func (c *Client) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var result tokenResponse
	if err := c.post(ctx, "/token?grant_type=password", body, &result); err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:      result.User.ID,
		Email:       result.User.Email,
		AccessToken: result.AccessToken,
	}

	c.setToken(session.AccessToken)
	c.emit(session)

	c.logger.Info("signed in", slog.String("user_id", session.UserID))
	return session, nil
}

// SignUp はアカウントを新規作成する。
// プロフィール属性（名前・電話番号）はユーザーメタデータとして登録される。
// 成功時はセッションを返し、イベントストリームに通知する。
func (c *Client) SignUp(ctx context.Context, email, password string, attrs ProfileAttrs) (*model.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data": map[string]string{
			"name":  attrs.Name,
			"phone": attrs.Phone,
		},
	}

	var result tokenResponse
	if err := c.post(ctx, "/signup", body, &result); err != nil {
		return nil, err
	}

	session := &model.Session{
		UserID:      result.User.ID,
		Email:       result.User.Email,
		AccessToken: result.AccessToken,
	}

	c.setToken(session.AccessToken)
	c.emit(session)

	c.logger.Info("signed up", slog.String("user_id", session.UserID))
	return session, nil
}

// SignOut はサインアウトする。
// サービス側のセッション破棄に失敗してもローカルの資格情報は破棄し、
// イベントストリームには不在（nil）を通知する。
func (c *Client) SignOut(ctx context.Context) error {
	token := c.currentToken()

	// ローカル状態は先に破棄する（リモート失敗でもサインアウト扱い）
	c.setToken("")
	c.emit(nil)

	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/logout", nil)
	if err != nil {
		return fmt.Errorf("failed to create signout request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote signout failed", slog.String("error", err.Error()))
		return nil
	}
	defer resp.Body.Close()

	c.logger.Info("signed out")
	return nil
}

// GetSession は現在のセッションを返す。初期ハイドレーション用の一回限りの照会。
// 未サインインは有効な不在結果として(nil, nil)を返し、エラーにはしない。
// サービスに到達できない場合のみServiceUnavailableを返す。
func (c *Client) GetSession(ctx context.Context) (*model.Session, error) {
	token := c.currentToken()
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create session request: %w", err)
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity service unreachable", slog.String("error", err.Error()))
		return nil, model.NewServiceUnavailableError("identity")
	}
	defer resp.Body.Close()

	// トークンが無効・期限切れの場合はサインアウト状態として扱う
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, model.NewServiceUnavailableError("identity")
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode session response: %w", err)
	}

	return &model.Session{
		UserID:      user.ID,
		Email:       user.Email,
		AccessToken: token,
	}, nil
}

// OnAuthStateChange はセッション変化のリスナーを登録する。
// サインイン・サインアップで新しいセッション、サインアウトでnilが渡される。
// 返される解除関数は冪等で、コンポーネント破棄時に必ず呼び出すこと。
func (c *Client) OnAuthStateChange(fn func(*model.Session)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// post はJSONボディのPOSTリクエストを実行し、レスポンスをデコードする。
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("identity service unreachable",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return model.NewServiceUnavailableError("identity")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeError はエラーレスポンスをAPIErrorに変換する。
func (c *Client) decodeError(resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.NewAuthFailedError(resp.Status)
	}

	var body errorResponse
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return model.NewAuthFailedError(body.Error)
		}
		if body.Message != "" {
			return model.NewAuthFailedError(body.Message)
		}
	}

	return model.NewAuthFailedError(resp.Status)
}

// setHeaders は共通ヘッダーを設定する。tokenが空の場合はAPIキーで認証する。
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// emit は登録済みリスナー全員にセッション変化を通知する。
func (c *Client) emit(session *model.Session) {
	c.mu.Lock()
	fns := make([]func(*model.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}
