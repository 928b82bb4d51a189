package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/lumina/internal/identity"
	"github.com/hitoshi/lumina/internal/model"
)

// IdentityServiceInterface は認証ハンドラーが必要とするアイデンティティ操作。
type IdentityServiceInterface interface {
	SignIn(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password string, attrs identity.ProfileAttrs) (*model.Session, error)
	SignOut(ctx context.Context) error
}

// ProfileRegistrar はサインアップ時のプロフィール登録のためのインターフェース。
type ProfileRegistrar interface {
	Register(ctx context.Context, id, name, phone, email string) error
}

// SessionCurrenter は現在セッションの参照のためのインターフェース。
type SessionCurrenter interface {
	Current() *model.Session
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	identity IdentityServiceInterface
	profiles ProfileRegistrar
	sessions SessionCurrenter
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(identitySvc IdentityServiceInterface, profiles ProfileRegistrar, sessions SessionCurrenter) *AuthHandler {
	return &AuthHandler{
		identity: identitySvc,
		profiles: profiles,
		sessions: sessions,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse はセッション情報のAPIレスポンス。
// 資格情報そのものはレスポンスに含めない。
type sessionResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// SignUp はアカウント作成を処理する。
// POST /auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	// 1. 入力検証（ネットワーク副作用の前に行う）
	if err := validateSignUp(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, err)
		return
	}

	// 2. アイデンティティサービスへのアカウント登録
	session, err := h.identity.SignUp(r.Context(), req.Email, req.Password, identity.ProfileAttrs{
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 3. プロフィールの登録。アカウント自体は作成済みのため、
	// 失敗してもサインアップ全体は失敗にしない。
	if err := h.profiles.Register(r.Context(), session.UserID, req.Name, req.Phone, req.Email); err != nil {
		slog.Warn("profile registration failed after signup",
			slog.String("user_id", session.UserID),
			slog.String("error", err.Error()),
		)
	}

	writeJSONResponse(w, http.StatusCreated, sessionResponse{
		UserID: session.UserID,
		Email:  session.Email,
	})
}

// SignIn はサインインを処理する。
// POST /auth/login
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	if req.Email == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("メールアドレスとパスワードは必須です"))
		return
	}

	session, err := h.identity.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, sessionResponse{
		UserID: session.UserID,
		Email:  session.Email,
	})
}

// SignOut はサインアウトを処理する。
// ローカルセッションの破棄が主目的のため、リモート失効の失敗でも
// 成功として応答する。
// POST /auth/logout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.identity.SignOut(r.Context()); err != nil {
		slog.Warn("remote sign-out failed", slog.String("error", err.Error()))
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me は現在セッションの情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.Current()
	if session == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, sessionResponse{
		UserID: session.UserID,
		Email:  session.Email,
	})
}

// validateSignUp はサインアップ入力を検証する。
func validateSignUp(req *signUpRequest) *model.APIError {
	if strings.TrimSpace(req.Name) == "" {
		return model.NewValidationError("名前は必須です")
	}
	if req.Email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}
	if len(req.Password) < 6 {
		return model.NewValidationError("パスワードは6文字以上で入力してください")
	}
	return nil
}
