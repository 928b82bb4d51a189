package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/lumina/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
// imagesカラムはTEXT[]で、配列の並び順がそのまま表示順となる。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// ListAll は全商品を作成日時の降順（新着順）で返す。
func (r *PostgresProductRepo) ListAll(ctx context.Context) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, category, images, seller_id, created_at
		 FROM products
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, category, images, seller_id, created_at
		 FROM products
		 WHERE id = $1`,
		id,
	)

	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

// Create は商品レコードを1件作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, description, price, category, images, seller_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		product.ID, product.Name, product.Description, product.Price,
		string(product.Category), pq.Array(product.Images), product.SellerID, product.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

// rowScanner は*sql.Rowと*sql.Rowsの両方を受け付けるための抽象。
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct は1行分の商品レコードをスキャンする。
func scanProduct(row rowScanner) (*model.Product, error) {
	p := &model.Product{}
	var category string
	var images pq.StringArray

	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &category, &images, &p.SellerID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	p.Category = model.Category(category)
	p.Images = []string(images)
	return p, nil
}
