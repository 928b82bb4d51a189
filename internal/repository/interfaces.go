// Package repository はデータストアへのアクセスインターフェースを定義する。
// クライアントが消費する契約はselectとinsertのみで、更新・削除は存在しない
// （商品は生成後に不変）。
package repository

import (
	"context"

	"github.com/hitoshi/lumina/internal/model"
)

// UserRepository は出品者プロフィールの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create は公開プロフィールのレコードを作成する。
	// サインアップ時にアイデンティティサービスのユーザーIDと同じIDで登録する。
	Create(ctx context.Context, user *model.User) error
}

// ProductRepository は商品データの永続化インターフェース。
type ProductRepository interface {
	// ListAll は全商品を作成日時の降順（新着順）で返す。
	// ページネーションは行わず、全件をクライアント側に保持する。
	ListAll(ctx context.Context) ([]*model.Product, error)

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// Create は商品レコードを1件作成する。提出ワークフローからのみ呼ばれ、
	// 1回の提出につき最大1回のinsertとなる。
	Create(ctx context.Context, product *model.Product) error
}
