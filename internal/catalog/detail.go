package catalog

import (
	"context"
	"log/slog"

	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/repository"
)

// DetailView は商品詳細・ギャラリーのビュー状態を保持する。
// 商品を選択すると生成され、activeImageIndexがその商品の画像列への
// インデックスとなる。
type DetailView struct {
	product          *model.Product
	activeImageIndex int

	seller       *model.User
	sellerLoaded bool
}

// NewDetailView は商品を選択して詳細ビューを開く。
// 初期表示はカバー画像（インデックス0）。
func NewDetailView(product *model.Product) *DetailView {
	return &DetailView{product: product}
}

// Product は表示中の商品を返す。
func (v *DetailView) Product() *model.Product {
	return v.product
}

// ActiveImageIndex は現在表示中の画像インデックスを返す。
func (v *DetailView) ActiveImageIndex() int {
	return v.activeImageIndex
}

// ActiveImage は現在表示中の画像URLを返す。画像が1枚もない場合はfalse。
func (v *DetailView) ActiveImage() (string, bool) {
	if len(v.product.Images) == 0 {
		return "", false
	}
	return v.product.Images[v.activeImageIndex], true
}

// Next は次の画像へ進む。末尾の次は先頭に戻る（ラップアラウンド）。
func (v *DetailView) Next() {
	n := len(v.product.Images)
	if n == 0 {
		return
	}
	v.activeImageIndex = (v.activeImageIndex + 1) % n
}

// Prev は前の画像へ戻る。先頭の前は末尾に回る（ラップアラウンド）。
func (v *DetailView) Prev() {
	n := len(v.product.Images)
	if n == 0 {
		return
	}
	v.activeImageIndex = (v.activeImageIndex - 1 + n) % n
}

// Select はサムネイル選択でインデックスを直接設定する。
// 範囲外の指定は無視する。
func (v *DetailView) Select(i int) {
	if i < 0 || i >= len(v.product.Images) {
		return
	}
	v.activeImageIndex = i
}

// LoadSeller は出品者の公開プロフィールをベストエフォートで取得する。
// 取得失敗はビュー全体のエラーにはせず「情報なし」の表示に劣化させる
// （このフォールバックだけは意図的にエラーを握りつぶす）。
func (v *DetailView) LoadSeller(ctx context.Context, users repository.UserRepository) {
	v.sellerLoaded = true

	if v.product.SellerID == "" {
		return
	}

	seller, err := users.FindByID(ctx, v.product.SellerID)
	if err != nil {
		slog.Warn("出品者情報の取得に失敗しました",
			slog.String("seller_id", v.product.SellerID),
			slog.String("error", err.Error()),
		)
		return
	}

	v.seller = seller
}

// Seller は取得済みの出品者プロフィールを返す。
// 未取得または取得失敗の場合はnil（「情報なし」として表示する）。
func (v *DetailView) Seller() *model.User {
	return v.seller
}

// SellerLoaded は出品者情報の取得を試行済みかを返す。
func (v *DetailView) SellerLoaded() bool {
	return v.sellerLoaded
}
