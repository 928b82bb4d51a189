package model

import "time"

// Category は商品カテゴリを表す。
type Category string

// 定義済みカテゴリ
const (
	CategoryFurniture Category = "Furniture"
	CategoryLighting  Category = "Lighting"
	CategoryDecor     Category = "Decor"
	CategoryArt       Category = "Art"
	CategoryTextiles  Category = "Textiles"
	CategoryOther     Category = "Other"
)

// Valid はカテゴリが定義済みの値かを返す。
func (c Category) Valid() bool {
	switch c {
	case CategoryFurniture, CategoryLighting, CategoryDecor,
		CategoryArt, CategoryTextiles, CategoryOther:
		return true
	}
	return false
}

// Product は出品された商品を表す。
// 出品ワークフローによってのみ生成され、生成後は不変（編集・削除なし）。
// Imagesの並び順は表示順であり、先頭がカバー画像となる。
type Product struct {
	ID          string
	Name        string
	Description string
	Price       float64 // 0以上
	Category    Category
	Images      []string // 公開URLの順序付き列
	SellerID    string
	CreatedAt   time.Time
}
