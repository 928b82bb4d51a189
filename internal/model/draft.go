package model

// UploadStatus はステージ画像のアップロード状態を表す。
type UploadStatus string

const (
	// UploadPending は未アップロードの初期状態を示す。
	UploadPending UploadStatus = "pending"
	// UploadDone はアップロード成功を示す。RemoteURLが設定される。
	UploadDone UploadStatus = "uploaded"
	// UploadFailed はアップロード失敗を示す。FailReasonが設定される。
	UploadFailed UploadStatus = "failed"
)

// Preview はステージ画像のローカルプレビューリソースを表す。
// LocalPathは一時ファイルの実体で、解放時に削除される。
type Preview struct {
	URL       string
	LocalPath string
}

// StagedImage はまだアップロードされていないローカル選択済み画像を表す。
// ドラフトマネージャが提出まで排他的に所有する。
type StagedImage struct {
	FileName   string
	Data       []byte
	Preview    *Preview
	Status     UploadStatus
	RemoteURL  string // Status == UploadDone のとき有効
	FailReason string // Status == UploadFailed のとき有効
}

// Draft は作成途中の未保存の出品を表す。
// ワークフロー開始時に空で生成され、フォーム編集と画像の追加・削除で
// 変更され、提出成功または画面離脱で破棄される。
type Draft struct {
	Name        string
	Description string
	Price       string // 提出時にパースするまで文字列のまま保持する
	Category    string
	Images      []*StagedImage
}
