// Package user は出品者プロフィール管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/repository"
)

// Service は出品者プロフィールのサービス層。
// サインアップ時の公開プロフィール登録と、出品者カード表示用の参照を提供する。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// Register はサインアップ直後に公開プロフィールのレコードを作成する。
// IDはアイデンティティサービスが発行したユーザーIDをそのまま使用する。
// すでに登録済みの場合（再サインアップ等）はエラーにしない。
func (s *Service) Register(ctx context.Context, id, name, phone, email string) error {
	existing, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		slog.Info("profile already registered", slog.String("user_id", id))
		return nil
	}

	u := &model.User{
		ID:        id,
		Name:      name,
		Phone:     phone,
		Email:     email,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, u); err != nil {
		return fmt.Errorf("failed to register profile: %w", err)
	}

	slog.Info("profile registered", slog.String("user_id", id))
	return nil
}

// Find は指定IDの公開プロフィールを返す。見つからない場合はnil。
func (s *Service) Find(ctx context.Context, id string) (*model.User, error) {
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	return u, nil
}
