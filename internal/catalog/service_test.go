package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/lumina/internal/model"
)

// --- モック ---

type mockProductRepo struct {
	listAllFn  func(ctx context.Context) ([]*model.Product, error)
	findByIDFn func(ctx context.Context, id string) (*model.Product, error)
}

func (m *mockProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	return m.listAllFn(ctx)
}
func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockProductRepo) Create(ctx context.Context, product *model.Product) error {
	return nil
}

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	return nil
}

// --- テスト ---

// TestService_List は商品一覧の取得を検証する。
func TestService_List(t *testing.T) {
	now := time.Now()
	repo := &mockProductRepo{
		listAllFn: func(ctx context.Context) ([]*model.Product, error) {
			return []*model.Product{
				{ID: "p-2", Name: "Modern Lamp", CreatedAt: now},
				{ID: "p-1", Name: "Vintage Chair", CreatedAt: now.Add(-time.Hour)},
			}, nil
		},
	}

	svc := NewService(repo, &mockUserRepo{})

	products, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	// リポジトリの返す新着順をそのまま保持する
	if products[0].ID != "p-2" {
		t.Errorf("products[0].ID = %q, want %q", products[0].ID, "p-2")
	}
}

// TestService_List_RepoFailure はデータストア障害がStoreErrorに写像されることを検証する。
func TestService_List_RepoFailure(t *testing.T) {
	repo := &mockProductRepo{
		listAllFn: func(ctx context.Context) ([]*model.Product, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewService(repo, &mockUserRepo{})

	_, err := svc.List(context.Background())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeStore {
		t.Errorf("error = %v, want STORE_ERROR", err)
	}
}

// TestService_Get_NotFound は未知のIDがProductNotFoundになることを検証する。
func TestService_Get_NotFound(t *testing.T) {
	repo := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, nil
		},
	}

	svc := NewService(repo, &mockUserRepo{})

	_, err := svc.Get(context.Background(), "missing-id")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeProductNotFound {
		t.Errorf("error = %v, want PRODUCT_NOT_FOUND", err)
	}
}

// TestFilter は商品名の大文字小文字を区別しない部分一致フィルタを検証する。
func TestFilter(t *testing.T) {
	products := []*model.Product{
		{ID: "p-1", Name: "Vintage Chair"},
		{ID: "p-2", Name: "Modern Lamp"},
		{ID: "p-3", Name: "Armchair"},
	}

	cases := []struct {
		name    string
		term    string
		wantIDs []string
	}{
		{"空の検索語は全件", "", []string{"p-1", "p-2", "p-3"}},
		{"小文字の部分一致", "chair", []string{"p-1", "p-3"}},
		{"大文字の検索語", "CHAIR", []string{"p-1", "p-3"}},
		{"単一ヒット", "lamp", []string{"p-2"}},
		{"ヒットなし", "sofa", []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(products, tc.term)
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("got %d products, want %d", len(got), len(tc.wantIDs))
			}
			for i, id := range tc.wantIDs {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

// TestFilter_DoesNotMutateInput はフィルタが入力列を変更しないことを検証する。
func TestFilter_DoesNotMutateInput(t *testing.T) {
	products := []*model.Product{
		{ID: "p-1", Name: "Vintage Chair"},
		{ID: "p-2", Name: "Modern Lamp"},
	}

	Filter(products, "lamp")

	if products[0].ID != "p-1" || products[1].ID != "p-2" {
		t.Error("input slice should not be mutated")
	}
}

// TestFilter_MatchesNameOnly は説明文が検索対象でないことを検証する。
func TestFilter_MatchesNameOnly(t *testing.T) {
	products := []*model.Product{
		{ID: "p-1", Name: "Modern Lamp", Description: "a chair-side lamp"},
	}

	got := Filter(products, "chair")
	if len(got) != 0 {
		t.Error("filter should match product name only, not description")
	}
}
