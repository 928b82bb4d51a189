package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lumina/internal/catalog"
	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/repository"
)

// CatalogServiceInterface はカタログハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	// List は全商品を新着順で取得する。
	List(ctx context.Context) ([]*model.Product, error)
	// Get は商品IDで単一の商品を取得する。
	Get(ctx context.Context, id string) (*model.Product, error)
}

// CatalogHandler はカタログ閲覧のHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
	users   repository.UserRepository
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface, users repository.UserRepository) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		users:   users,
	}
}

// productResponse は商品一覧のAPIレスポンス。
type productResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
	SellerID    string   `json:"seller_id"`
	CreatedAt   string   `json:"created_at"`
}

// sellerResponse は商品詳細に含める出品者の連絡先情報。
type sellerResponse struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// productDetailResponse は商品詳細のAPIレスポンス。
// 出品者情報の取得に失敗した場合、sellerはnullになる。
type productDetailResponse struct {
	productResponse
	Seller *sellerResponse `json:"seller"`
}

// ListProducts は商品一覧を取得する。
// クエリパラメータqが指定された場合、商品名の部分一致（大文字小文字
// 非区別）で絞り込む。絞り込みは取得済みの一覧に対して行われ、
// 再取得は発生しない。
// GET /api/products?q=xxx
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	term := r.URL.Query().Get("q")
	products = catalog.Filter(products, term)

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// GetProduct は商品詳細を取得する。
// 出品者情報はベストエフォートで取得し、失敗しても詳細自体は返す。
// GET /api/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	product, err := h.service.Get(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	view := catalog.NewDetailView(product)
	view.LoadSeller(r.Context(), h.users)

	resp := productDetailResponse{
		productResponse: toProductResponse(product),
	}
	if seller := view.Seller(); seller != nil {
		resp.Seller = &sellerResponse{
			Name:  seller.Name,
			Phone: seller.Phone,
			Email: seller.Email,
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// toProductResponse はモデルをAPIレスポンスに変換する。
func toProductResponse(p *model.Product) productResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    string(p.Category),
		Images:      images,
		SellerID:    p.SellerID,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}
