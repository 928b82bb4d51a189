// Package model はドメインモデルを定義する。
package model

import "time"

// User は出品者の公開プロフィールを表す。
// 本体はデータストアが所有し、クライアントは表示のたびに取得した
// 読み取り専用コピーのみを保持する（ビューを越えてキャッシュしない）。
type User struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}
