// Package listing は出品提出ワークフローを提供する。
// ドラフトを検証し、画像を順次アップロードし、商品レコードを作成する。
package listing

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/lumina/internal/metrics"
	"github.com/hitoshi/lumina/internal/model"
	"github.com/hitoshi/lumina/internal/security"
)

// SessionReader は提出時に行為者のセッションを参照するインターフェース。
// session.Storeの部分集合として定義する。
type SessionReader interface {
	Current() *model.Session
}

// DraftSource はワークフローがドラフトを読み取り、アップロード状態を
// 記録し、成功時に破棄するためのインターフェース。
// ステージ画像の所有権は提出完了までドラフトマネージャ側に残る。
type DraftSource interface {
	Snapshot() model.Draft
	MarkUploaded(i int, remoteURL string)
	MarkFailed(i int, reason string)
	Discard()
}

// Uploader はオブジェクトストレージへのアップロードインターフェース。
// storage.Clientの部分集合として定義する。
type Uploader interface {
	Upload(ctx context.Context, path string, data []byte) error
	PublicURL(path string) string
}

// ProductCreator は商品レコードの作成インターフェース。
// repository.ProductRepositoryの部分集合として定義する。
type ProductCreator interface {
	Create(ctx context.Context, product *model.Product) error
}

// Workflow はドラフトから永続化された商品への変換を実行する。
// 同一ドラフトに対する提出の多重実行はin-flightフラグで拒否する。
type Workflow struct {
	sessions  SessionReader
	drafts    DraftSource
	uploader  Uploader
	products  ProductCreator
	sanitizer security.TextSanitizerService
	metrics   metrics.MetricsCollector
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

// NewWorkflow はWorkflowを生成する。
func NewWorkflow(
	sessions SessionReader,
	drafts DraftSource,
	uploader Uploader,
	products ProductCreator,
	sanitizer security.TextSanitizerService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		sessions:  sessions,
		drafts:    drafts,
		uploader:  uploader,
		products:  products,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
	}
}

// Submit はドラフトを提出する。
//
// 手順:
//  1. 多重実行の拒否、セッション確認（不在ならネットワーク副作用なしでUnauthorized）
//  2. 検証（必須フィールド、カテゴリ、価格のパース）。アップロード前に行う。
//  3. ステージ画像を順序どおり1枚ずつアップロードする（並列化しない）。
//     失敗した時点で残りを中断する。成功済みのアップロードは取り消さない
//     （部分失敗時に孤児オブジェクトがストレージに残ることを許容する）。
//  4. 全て成功したら商品レコードを1件insertする。
//
// 失敗時はドラフトを保持し（再試行可能）、最初に遭遇したエラーだけを返す。
// 成功時はドラフトを破棄し、作成された商品を返す。
func (w *Workflow) Submit(ctx context.Context) (*model.Product, error) {
	// 多重提出の拒否（ダブルクリック等による重複レコードを防ぐ）
	w.mu.Lock()
	if w.inFlight {
		w.mu.Unlock()
		return nil, model.NewSubmitInFlightError()
	}
	w.inFlight = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.inFlight = false
		w.mu.Unlock()
	}()

	product, err := w.submit(ctx)
	if err != nil {
		w.metrics.RecordSubmission(outcomeOf(err))
		return nil, err
	}

	w.metrics.RecordSubmission("success")
	return product, nil
}

func (w *Workflow) submit(ctx context.Context) (*model.Product, error) {
	// 1. セッション確認: 不在ならいかなるネットワーク副作用よりも前に失敗する
	session := w.sessions.Current()
	if session == nil {
		return nil, model.NewUnauthorizedError()
	}

	draft := w.drafts.Snapshot()

	// 2. 検証: アップロードループより前に行う
	price, err := validate(&draft)
	if err != nil {
		return nil, err
	}

	// 3. 画像を順序どおり1枚ずつアップロードする。
	//    アップロードk+1はアップロードkの解決まで開始しない。
	imageURLs := make([]string, 0, len(draft.Images))
	for i, img := range draft.Images {
		path := session.UserID + "/" + uuid.New().String() + filepath.Ext(img.FileName)

		start := time.Now()
		if err := w.uploader.Upload(ctx, path, img.Data); err != nil {
			w.drafts.MarkFailed(i, err.Error())
			w.metrics.RecordUploadFailure("storage")
			w.logger.Error("画像のアップロードに失敗したため残りを中断します",
				slog.Int("index", i),
				slog.Int("uploaded", len(imageURLs)),
				slog.String("error", err.Error()),
			)
			// 成功済みのアップロードはロールバックしない
			return nil, model.NewStorageError(err.Error())
		}
		w.metrics.RecordUploadSuccess()
		w.metrics.RecordUploadLatency(time.Since(start))

		url := w.uploader.PublicURL(path)
		w.drafts.MarkUploaded(i, url)
		imageURLs = append(imageURLs, url)
	}

	// 4. 商品レコードを作成する（1回の提出につきinsertは最大1回）
	product := &model.Product{
		ID:          uuid.New().String(),
		Name:        w.sanitizer.Sanitize(draft.Name),
		Description: w.sanitizer.Sanitize(draft.Description),
		Price:       price,
		Category:    model.Category(draft.Category),
		Images:      imageURLs,
		SellerID:    session.UserID,
		CreatedAt:   time.Now(),
	}

	if err := w.products.Create(ctx, product); err != nil {
		w.logger.Error("商品レコードの作成に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("orphaned_uploads", len(imageURLs)),
		)
		return nil, model.NewStoreError(err.Error())
	}

	w.metrics.RecordProductCreated()
	w.logger.Info("product listed",
		slog.String("product_id", product.ID),
		slog.String("seller_id", product.SellerID),
		slog.Int("image_count", len(product.Images)),
	)

	// 成功時のみドラフトを破棄する（失敗時は再試行のため保持）
	w.drafts.Discard()

	return product, nil
}

// validate はドラフトの内容を検証し、パース済みの価格を返す。
// 検証はいかなるアップロードよりも前に完了する。
func validate(draft *model.Draft) (float64, error) {
	if draft.Name == "" {
		return 0, model.NewValidationError("商品名は必須です")
	}
	if draft.Description == "" {
		return 0, model.NewValidationError("説明文は必須です")
	}
	if draft.Category == "" {
		return 0, model.NewValidationError("カテゴリは必須です")
	}
	if !model.Category(draft.Category).Valid() {
		return 0, model.NewValidationError("未定義のカテゴリです: " + draft.Category)
	}

	price, err := strconv.ParseFloat(draft.Price, 64)
	if err != nil {
		return 0, model.NewValidationError("価格が数値ではありません: " + draft.Price)
	}
	// ParseFloatは"NaN"や"Inf"も受理するため明示的に拒否する
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, model.NewValidationError("価格が数値ではありません: " + draft.Price)
	}
	if price < 0 {
		return 0, model.NewValidationError("価格は0以上で入力してください")
	}

	return price, nil
}

// outcomeOf はエラーからメトリクス用の結果ラベルを導出する。
func outcomeOf(err error) string {
	if apiErr, ok := err.(*model.APIError); ok {
		switch apiErr.Code {
		case model.ErrCodeValidation:
			return "validation_error"
		case model.ErrCodeUnauthorized:
			return "unauthorized"
		case model.ErrCodeStorage:
			return "storage_error"
		case model.ErrCodeStore:
			return "store_error"
		case model.ErrCodeSubmitInFlight:
			return "in_flight"
		}
	}
	return "error"
}
