// Package catalog はカタログの照会と詳細ビューの状態管理を提供する。
package catalog

import (
	"context"
	"strings"

	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/repository"
)

// Service はカタログ照会のサービス層。
type Service struct {
	products repository.ProductRepository
	users    repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(products repository.ProductRepository, users repository.UserRepository) *Service {
	return &Service{
		products: products,
		users:    users,
	}
}

// List は全商品を作成日時の降順（新着順）で返す。
// 1回の照会で全件を取得し、ページネーションは行わない。
func (s *Service) List(ctx context.Context) ([]*model.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, model.NewStoreError(err.Error())
	}
	return products, nil
}

// Get は指定IDの商品を返す。見つからない場合はProductNotFound。
func (s *Service) Get(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, model.NewStoreError(err.Error())
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// Filter は検索語で商品名の部分一致フィルタを行う。
// 大文字小文字を区別せず、対象は商品名のみ。空の検索語は全件に一致する。
// 検索語の変化のたびに再計算される前提で、入力列は変更しない。
func Filter(products []*model.Product, term string) []*model.Product {
	if term == "" {
		return products
	}

	needle := strings.ToLower(term)
	filtered := make([]*model.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
