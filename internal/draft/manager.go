package draft

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/lumina/internal/model"
)

// StagedFile はUIから受け取るローカル選択済みファイル。
type StagedFile struct {
	FileName string
	Data     []byte
}

// Manager は作成途中のドラフトを1件所有し、フォーム編集と画像の
// 追加・削除を受け付ける。この層ではネットワーク通信を行わず、
// 検証も提出ワークフローに委譲する。
type Manager struct {
	previews PreviewStore
	logger   *slog.Logger

	mu    sync.Mutex
	draft *model.Draft
}

// NewManager はManagerを生成する。ドラフトは空の状態で開始する。
func NewManager(previews PreviewStore, logger *slog.Logger) *Manager {
	return &Manager{
		previews: previews,
		logger:   logger,
		draft:    &model.Draft{},
	}
}

// Open は新しい空のドラフトを開始する。
// 既存のドラフトが残っている場合はプレビューを解放してから置き換える。
func (m *Manager) Open() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseAllLocked()
	m.draft = &model.Draft{}
}

// SetFields はフォームフィールドを受け取った値でそのまま置き換える。
// priceはパースせず文字列のまま保持する。
func (m *Manager) SetFields(name, description, price, category string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.draft.Name = name
	m.draft.Description = description
	m.draft.Price = price
	m.draft.Category = category
}

// AddImages はローカルファイルのバッチを順序を保って末尾に追加し、
// 1ファイルにつき1つのプレビューを確保する。枚数の上限はこの層では
// 設けない（4枚の案内はUI文言のみ）。
// プレビュー確保に失敗したファイルはスキップし、最初のエラーを返す。
func (m *Manager) AddImages(files []StagedFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for _, f := range files {
		preview, err := m.previews.Create(f.FileName, f.Data)
		if err != nil {
			m.logger.Error("プレビューの作成に失敗しました",
				slog.String("file_name", f.FileName),
				slog.String("error", err.Error()),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		m.draft.Images = append(m.draft.Images, &model.StagedImage{
			FileName: f.FileName,
			Data:     f.Data,
			Preview:  preview,
			Status:   model.UploadPending,
		})
	}

	return firstErr
}

// RemoveImage はインデックスiのステージ画像を取り除き、そのプレビューを
// 解放する。残りの画像の相対順序は保持する（並び替えは起きない）。
func (m *Manager) RemoveImage(i int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.draft.Images) {
		return fmt.Errorf("image index out of range: %d", i)
	}

	img := m.draft.Images[i]
	if err := m.previews.Release(img.Preview); err != nil {
		m.logger.Warn("プレビューの解放に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	m.draft.Images = append(m.draft.Images[:i], m.draft.Images[i+1:]...)
	return nil
}

// Snapshot は現在のドラフトの浅いコピーを返す。
// StagedImageは共有されるため、読み取り以外に使用してはならない。
func (m *Manager) Snapshot() model.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := *m.draft
	d.Images = make([]*model.StagedImage, len(m.draft.Images))
	copy(d.Images, m.draft.Images)
	return d
}

// MarkUploaded はインデックスiの画像をアップロード成功として記録する。
func (m *Manager) MarkUploaded(i int, remoteURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.draft.Images) {
		return
	}
	m.draft.Images[i].Status = model.UploadDone
	m.draft.Images[i].RemoteURL = remoteURL
}

// MarkFailed はインデックスiの画像をアップロード失敗として記録する。
func (m *Manager) MarkFailed(i int, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.draft.Images) {
		return
	}
	m.draft.Images[i].Status = model.UploadFailed
	m.draft.Images[i].FailReason = reason
}

// Discard はドラフトを破棄し、全プレビューを解放して空の状態に戻す。
// 提出成功時と画面離脱時の両方で呼ばれる。
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseAllLocked()
	m.draft = &model.Draft{}
}

// releaseAllLocked は保持中の全プレビューを解放する。呼び出し側でロックを取ること。
func (m *Manager) releaseAllLocked() {
	for _, img := range m.draft.Images {
		if err := m.previews.Release(img.Preview); err != nil {
			m.logger.Warn("プレビューの解放に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}
}
