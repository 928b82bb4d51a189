// Package draft は出品ドラフトのクライアント側管理を提供する。
// フォームフィールドとステージ画像をネットワーク通信なしで蓄積する。
package draft

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hitoshi/lumina/internal/model"
)

// PreviewStore はステージ画像のローカルプレビューリソースを管理する
// インターフェース。プレビューは一時的なもので、画像の削除・ドラフトの
// 破棄のあらゆる経路で必ず解放される。
type PreviewStore interface {
	// Create はプレビューリソースを確保し、参照URLを持つPreviewを返す。
	Create(fileName string, data []byte) (*model.Preview, error)
	// Release はプレビューリソースを解放する。冪等。
	Release(p *model.Preview) error
}

// TempPreviewStore は一時ディレクトリ上のファイルとしてプレビューを
// 実装するPreviewStore。URLは /previews/<name> 形式で、ローカルUIが
// 同一プロセスのハンドラ経由で参照する。
type TempPreviewStore struct {
	dir string
}

// NewTempPreviewStore は専用の一時ディレクトリを作成してTempPreviewStoreを生成する。
func NewTempPreviewStore() (*TempPreviewStore, error) {
	dir, err := os.MkdirTemp("", "lumina-previews-")
	if err != nil {
		return nil, fmt.Errorf("failed to create preview directory: %w", err)
	}
	return &TempPreviewStore{dir: dir}, nil
}

// Dir はプレビューファイルを格納するディレクトリを返す。
func (s *TempPreviewStore) Dir() string {
	return s.dir
}

// Create は画像データを一時ファイルに書き出し、プレビューを返す。
// ファイル名はランダムに採番し、元の拡張子を維持する。
func (s *TempPreviewStore) Create(fileName string, data []byte) (*model.Preview, error) {
	name := uuid.New().String() + filepath.Ext(fileName)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write preview file: %w", err)
	}

	return &model.Preview{
		URL:       "/previews/" + name,
		LocalPath: path,
	}, nil
}

// Release はプレビューファイルを削除する。
// すでに存在しない場合はエラーにしない（冪等）。
func (s *TempPreviewStore) Release(p *model.Preview) error {
	if p == nil || p.LocalPath == "" {
		return nil
	}
	if err := os.Remove(p.LocalPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove preview file: %w", err)
	}
	return nil
}

// Close はディレクトリごとプレビューを破棄する。プロセス終了時に呼ぶ。
func (s *TempPreviewStore) Close() error {
	return os.RemoveAll(s.dir)
}
