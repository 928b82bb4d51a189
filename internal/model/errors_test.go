package model

import (
	"errors"
	"strings"
	"testing"
)

// TestAPIError_ImplementsError はerrorインターフェース適合と
// メッセージ形式を検証する。
func TestAPIError_ImplementsError(t *testing.T) {
	var err error = NewValidationError("商品名は必須です")

	if !strings.Contains(err.Error(), ErrCodeValidation) {
		t.Errorf("Error() = %q, should contain code", err.Error())
	}
	if !strings.Contains(err.Error(), "商品名は必須です") {
		t.Errorf("Error() = %q, should contain reason", err.Error())
	}
}

// TestAPIError_ErrorsAs はerrors.Asでの取り出しを検証する。
// ハンドラー層のHTTPステータス写像はこの経路に依存する。
func TestAPIError_ErrorsAs(t *testing.T) {
	var apiErr *APIError
	if !errors.As(error(NewUnauthorizedError()), &apiErr) {
		t.Fatal("errors.As should extract *APIError")
	}
	if apiErr.Code != ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeUnauthorized)
	}
}

// TestAPIError_UIFields は全コンストラクタがUI表示用のカテゴリと
// 対処方法を設定することを検証する。
func TestAPIError_UIFields(t *testing.T) {
	cases := []*APIError{
		NewValidationError("reason"),
		NewUnauthorizedError(),
		NewAuthFailedError("reason"),
		NewStorageError("reason"),
		NewStoreError("reason"),
		NewServiceUnavailableError("identity"),
		NewProductNotFoundError("p-1"),
		NewSubmitInFlightError(),
		NewImageBlockedError(),
	}

	for _, e := range cases {
		if e.Code == "" || e.Message == "" || e.Category == "" || e.Action == "" {
			t.Errorf("%s: all UI fields should be populated: %+v", e.Code, e)
		}
	}
}
