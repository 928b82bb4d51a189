package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/lumina/internal/model"
)

// --- モック ---

type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.User, error)
	createFn   func(ctx context.Context, user *model.User) error
	created    []*model.User
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	m.created = append(m.created, user)
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

// --- テスト ---

// TestService_Register は新規プロフィールの登録を検証する。
func TestService_Register(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(repo)

	err := svc.Register(context.Background(), "user-1", "田中", "090-0000-0000", "a@example.com")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 create, got %d", len(repo.created))
	}
	u := repo.created[0]
	if u.ID != "user-1" || u.Name != "田中" || u.Phone != "090-0000-0000" || u.Email != "a@example.com" {
		t.Errorf("created user = %+v", u)
	}
}

// TestService_Register_AlreadyExists は登録済みプロフィールの再登録が
// エラーにならず、レコードも作成されないことを検証する。
func TestService_Register_AlreadyExists(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id}, nil
		},
	}

	svc := NewService(repo)

	if err := svc.Register(context.Background(), "user-1", "田中", "", ""); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Error("expected no create for existing profile")
	}
}

// TestService_Register_LookupFailure は既存確認の失敗がエラーになることを検証する。
func TestService_Register_LookupFailure(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}

	svc := NewService(repo)

	if err := svc.Register(context.Background(), "user-1", "田中", "", ""); err == nil {
		t.Error("expected error when lookup fails")
	}
}

// TestService_Find は存在しないプロフィールがnilで返ることを検証する。
func TestService_Find_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(repo)

	u, err := svc.Find(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if u != nil {
		t.Error("expected nil for missing profile")
	}
}
