package model

// Session は現在サインインしている利用者の身元証明を表す。
// アイデンティティサービスのイベント受信時に生成され、イベントごとに
// 丸ごと置き換えられる（部分更新はしない）。サインアウトで破棄される。
type Session struct {
	UserID      string
	Email       string
	AccessToken string // アイデンティティサービスが発行する不透明な資格情報
}
