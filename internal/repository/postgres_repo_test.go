package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/lumina/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresProductRepoはProductRepositoryインターフェースを満たすことを検証
func TestPostgresProductRepo_ImplementsInterface(t *testing.T) {
	var _ ProductRepository = (*PostgresProductRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresProductRepoが正しく初期化されることを検証
func TestNewPostgresProductRepo_Initializes(t *testing.T) {
	repo := NewPostgresProductRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ユニットテスト: 提出ワークフローが構築する商品レコードの形を検証
// （DB接続なしでロジックのみ検証）
func TestProductRecord_Shape(t *testing.T) {
	product := &model.Product{
		ID:          "product-id-1",
		Name:        "ヴィンテージチェア",
		Description: "1960年代の北欧デザイン",
		Price:       12000,
		Category:    model.CategoryFurniture,
		Images: []string{
			"https://storage.example.com/object/public/product-images/seller-1/a.jpg",
			"https://storage.example.com/object/public/product-images/seller-1/b.jpg",
		},
		SellerID:  "seller-1",
		CreatedAt: time.Now(),
	}

	if !product.Category.Valid() {
		t.Errorf("category %q should be valid", product.Category)
	}
	// imagesカラムの並び順がそのまま表示順となる
	if len(product.Images) != 2 {
		t.Errorf("expected 2 image URLs, got %d", len(product.Images))
	}
	if product.SellerID == "" {
		t.Error("seller ID should be set before insert")
	}
}

// ユーザーレコードがアイデンティティサービスのIDをそのまま使うことの検証
func TestUserRecord_SharesIdentityID(t *testing.T) {
	user := &model.User{
		ID:    "identity-user-1",
		Name:  "田中",
		Phone: "090-0000-0000",
		Email: "tanaka@example.com",
	}

	if user.ID != "identity-user-1" {
		t.Errorf("user.ID = %q, want identity service ID", user.ID)
	}
}
