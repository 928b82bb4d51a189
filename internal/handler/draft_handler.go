package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/lumina/internal/draft"
	"github.com/hitoshi/lumina/internal/model"
)

// DraftManagerInterface はドラフトハンドラーが必要とするドラフト操作。
type DraftManagerInterface interface {
	// Open は新しい空のドラフトを開始する。
	Open()
	// SetFields はフォームフィールドを更新する。
	SetFields(name, description, price, category string)
	// AddImages は選択された画像をまとめてステージする。
	AddImages(files []draft.StagedFile) error
	// RemoveImage は指定位置のステージ画像を取り除く。
	RemoveImage(i int) error
	// Snapshot は現在のドラフトのコピーを返す。
	Snapshot() model.Draft
	// Discard はドラフトを破棄する。
	Discard()
}

// SubmitterInterface は出品提出のためのインターフェース。
type SubmitterInterface interface {
	Submit(ctx context.Context) (*model.Product, error)
}

// DraftHandler は出品ドラフト管理のHTTPハンドラー。
type DraftHandler struct {
	manager       DraftManagerInterface
	submitter     SubmitterInterface
	uploadMaxSize int64 // 1ファイルあたりの最大サイズ（バイト）
}

// NewDraftHandler はDraftHandlerを生成する。
func NewDraftHandler(manager DraftManagerInterface, submitter SubmitterInterface, uploadMaxSize int64) *DraftHandler {
	return &DraftHandler{
		manager:       manager,
		submitter:     submitter,
		uploadMaxSize: uploadMaxSize,
	}
}

// updateDraftRequest はドラフトフィールド更新リクエストのボディ。
// 全フィールドをそのまま置き換える（部分更新はしない）。
type updateDraftRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	Category    string `json:"category"`
}

// stagedImageResponse はステージ画像のAPIレスポンス。
type stagedImageResponse struct {
	FileName   string `json:"file_name"`
	PreviewURL string `json:"preview_url"`
	Status     string `json:"status"`
	RemoteURL  string `json:"remote_url,omitempty"`
	FailReason string `json:"fail_reason,omitempty"`
}

// draftResponse はドラフト全体のAPIレスポンス。
type draftResponse struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Price       string                `json:"price"`
	Category    string                `json:"category"`
	Images      []stagedImageResponse `json:"images"`
}

// OpenDraft は新しいドラフトを開始する。
// 既存のドラフトがあれば破棄される。
// POST /api/draft
func (h *DraftHandler) OpenDraft(w http.ResponseWriter, r *http.Request) {
	h.manager.Open()
	writeJSONResponse(w, http.StatusCreated, toDraftResponse(h.manager.Snapshot()))
}

// GetDraft は現在のドラフトの状態を返す。
// GET /api/draft
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, toDraftResponse(h.manager.Snapshot()))
}

// UpdateDraft はドラフトのフォームフィールドを更新する。
// 提出時まで検証は行わず、入力はそのまま保持される。
// PUT /api/draft
func (h *DraftHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req updateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("リクエストボディの解析に失敗しました"))
		return
	}

	h.manager.SetFields(req.Name, req.Description, req.Price, req.Category)
	writeJSONResponse(w, http.StatusOK, toDraftResponse(h.manager.Snapshot()))
}

// AddImages は選択された画像をまとめてドラフトにステージする。
// multipart/form-dataのimagesフィールドを選択順に処理する。
// POST /api/draft/images
func (h *DraftHandler) AddImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("マルチパートフォームの解析に失敗しました"))
		return
	}

	fileHeaders := r.MultipartForm.File["images"]
	if len(fileHeaders) == 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("画像ファイルが含まれていません"))
		return
	}

	files := make([]draft.StagedFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if fh.Size > h.uploadMaxSize {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError(fmt.Sprintf("ファイルサイズが上限を超えています: %s", fh.Filename)))
			return
		}

		f, err := fh.Open()
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError(fmt.Sprintf("ファイルを読み込めません: %s", fh.Filename)))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewValidationError(fmt.Sprintf("ファイルを読み込めません: %s", fh.Filename)))
			return
		}

		files = append(files, draft.StagedFile{
			FileName: fh.Filename,
			Data:     data,
		})
	}

	// 読み込めたファイルは選択順にステージされる。プレビュー生成に
	// 失敗したファイルはスキップされ、エラーとともに通知される。
	if err := h.manager.AddImages(files); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toDraftResponse(h.manager.Snapshot()))
}

// RemoveImage は指定位置のステージ画像を取り除く。
// DELETE /api/draft/images/{index}
func (h *DraftHandler) RemoveImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("位置は整数で指定してください"))
		return
	}

	if err := h.manager.RemoveImage(index); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toDraftResponse(h.manager.Snapshot()))
}

// DiscardDraft はドラフトを破棄する。
// ステージ画像のプレビューリソースも解放される。
// DELETE /api/draft
func (h *DraftHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	h.manager.Discard()
	w.WriteHeader(http.StatusNoContent)
}

// Submit はドラフトを提出して出品を確定する。
// 成功時はドラフトが破棄され、作成された商品を返す。失敗時は
// ドラフトが保持され、修正後の再提出が可能。
// POST /api/draft/submit
func (h *DraftHandler) Submit(w http.ResponseWriter, r *http.Request) {
	product, err := h.submitter.Submit(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, toProductResponse(product))
}

// toDraftResponse はドラフトのスナップショットをAPIレスポンスに変換する。
func toDraftResponse(d model.Draft) draftResponse {
	images := make([]stagedImageResponse, 0, len(d.Images))
	for _, img := range d.Images {
		item := stagedImageResponse{
			FileName:   img.FileName,
			Status:     string(img.Status),
			RemoteURL:  img.RemoteURL,
			FailReason: img.FailReason,
		}
		if img.Preview != nil {
			item.PreviewURL = img.Preview.URL
		}
		images = append(images, item)
	}
	return draftResponse{
		Name:        d.Name,
		Description: d.Description,
		Price:       d.Price,
		Category:    d.Category,
		Images:      images,
	}
}
