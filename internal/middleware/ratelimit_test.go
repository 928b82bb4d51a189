package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1.0 / 60.0),
		GeneralBurst:    3,
		SubmitRate:      rate.Limit(1.0 / 60.0),
		SubmitBurst:     2,
		CleanupInterval: time.Minute,
	}
}

func requestAsUser(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	return req.WithContext(ContextWithUserID(req.Context(), userID))
}

// TestRateLimiter_General_AllowsWithinBurst はバースト内のリクエストが
// 通過することを検証する。
func TestRateLimiter_General_AllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, requestAsUser("user-1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want %d", i, rec.Code, http.StatusOK)
		}
	}
}

// TestRateLimiter_General_BlocksOverBurst はバースト超過で429が返ることを検証する。
func TestRateLimiter_General_BlocksOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestAsUser("user-1"))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAsUser("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}

// TestRateLimiter_PerUser はレート制限がユーザーごとに独立していることを検証する。
func TestRateLimiter_PerUser(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// user-1のバーストを使い切る
	for i := 0; i < 4; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), requestAsUser("user-1"))
	}

	// user-2は影響を受けない
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestAsUser("user-2"))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d (per-user isolation)", rec.Code, http.StatusOK)
	}
}

// TestRateLimiter_Submit_IndependentOfGeneral は提出専用のレート制限が
// API全般のレート制限と独立に動作することを検証する。
func TestRateLimiter_Submit_IndependentOfGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	general := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	submit := rl.SubmitMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	// 提出のバースト（2）を使い切る
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		submit.ServeHTTP(rec, requestAsUser("user-1"))
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %d: status = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	submit.ServeHTTP(rec, requestAsUser("user-1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("submit status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}

	// API全般のバケットは消費されていない
	rec = httptest.NewRecorder()
	general.ServeHTTP(rec, requestAsUser("user-1"))
	if rec.Code != http.StatusOK {
		t.Errorf("general status = %d, want %d (independent buckets)", rec.Code, http.StatusOK)
	}
}

// TestRateLimiter_MissingUserID_Returns401 はユーザーIDなしのリクエストが
// 拒否されることを検証する。
func TestRateLimiter_MissingUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
