// Package cleanup はプレビュー一時ファイルの自動削除ジョブを提供する。
// ドラフトの破棄漏れやプロセス異常終了で残留した古いプレビューファイルを
// 定期バッチで削除する。稼働中のドラフトが参照するファイルはTTL内に
// 収まるため削除対象にならない。
package cleanup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupJob は保持期間を超過したプレビューファイルの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	dir    string
	logger *slog.Logger
	TTL    time.Duration // プレビューファイルの保持期間（デフォルト: 24時間）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持期間は24時間。
func NewCleanupJob(dir string, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		dir:    dir,
		logger: logger,
		TTL:    24 * time.Hour,
	}
}

// Run は保持期間を超過したプレビューファイルを削除する。
// 更新時刻がTTLより古いファイルを削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()
	cutoff := start.Add(-j.TTL)

	entries, err := os.ReadDir(j.dir)
	if err != nil {
		j.logger.Error("プレビュークリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.String("dir", j.dir),
		)
		return err
	}

	var deletedCount int64
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue // 列挙と削除の競合は無視する
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		path := filepath.Join(j.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				j.logger.Warn("プレビューファイルの削除に失敗しました",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		deletedCount++
	}

	duration := time.Since(start)
	j.logger.Info("プレビュークリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Duration("ttl", j.TTL),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunPeriodic はintervalごとにRunを繰り返し実行する。
// コンテキストのキャンセルで停止する。サーバー起動時に
// バックグラウンドゴルーチンとして起動されることを想定する。
func (j *CleanupJob) RunPeriodic(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("プレビュークリーンアップの定期実行でエラーが発生しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
