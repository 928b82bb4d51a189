package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, storage, store, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAuthFailed         = "AUTH_FAILED"
	ErrCodeStorage            = "STORAGE_ERROR"
	ErrCodeStore              = "STORE_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeProductNotFound    = "PRODUCT_NOT_FOUND"
	ErrCodeSellerNotFound     = "SELLER_NOT_FOUND"
	ErrCodeSubmitInFlight     = "SUBMISSION_IN_FLIGHT"
	ErrCodeImageBlocked       = "IMAGE_BLOCKED"
)

// NewValidationError はフォーム入力不正のエラーを生成する。
// ネットワーク副作用が発生する前に返されることが保証される。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
// サインイン画面へのリダイレクトを伴う。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "サインインが必要です。",
		Category: "auth",
		Action:   "サインインしてから再度お試しください。",
	}
}

// NewAuthFailedError は認証失敗（資格情報不正など）のエラーを生成する。
func NewAuthFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeAuthFailed,
		Message:  fmt.Sprintf("認証に失敗しました: %s", reason),
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewStorageError は画像アップロード失敗のエラーを生成する。
// 先行して成功したアップロードはロールバックされず、ドラフトは保持される。
func NewStorageError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeStorage,
		Message:  fmt.Sprintf("画像のアップロードに失敗しました: %s", reason),
		Category: "storage",
		Action:   "しばらく待ってから再度提出してください。",
	}
}

// NewStoreError は商品レコード作成失敗のエラーを生成する。
// この試行でアップロード済みの画像は孤児として残り、ドラフトは保持される。
func NewStoreError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeStore,
		Message:  fmt.Sprintf("商品の登録に失敗しました: %s", reason),
		Category: "store",
		Action:   "しばらく待ってから再度提出してください。",
	}
}

// NewServiceUnavailableError は外部サービス到達不能のエラーを生成する。
// 自動リトライはスケジュールされない。
func NewServiceUnavailableError(service string) *APIError {
	return &APIError{
		Code:     ErrCodeServiceUnavailable,
		Message:  fmt.Sprintf("サービスに接続できません: %s", service),
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "store",
		Action:   "商品一覧を再読み込みしてください。",
	}
}

// NewSubmitInFlightError は提出の多重実行を拒否するエラーを生成する。
func NewSubmitInFlightError() *APIError {
	return &APIError{
		Code:     ErrCodeSubmitInFlight,
		Message:  "出品の提出処理がすでに進行中です。",
		Category: "validation",
		Action:   "現在の提出が完了するまでお待ちください。",
	}
}

// NewImageBlockedError は画像プロキシで拒否されたURLのエラーを生成する。
func NewImageBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeImageBlocked,
		Message:  "セキュリティポリシーにより、指定された画像URLへのアクセスがブロックされました。",
		Category: "validation",
		Action:   "公開されている画像URLのみ表示できます。",
	}
}
