package cleanup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFileWithModTime(t *testing.T, dir, name string, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("preview-bytes"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	return path
}

// TestCleanupJob_Run は保持期間を超過したファイルのみが削除される
// ことを検証する。
func TestCleanupJob_Run(t *testing.T) {
	dir := t.TempDir()
	old := writeFileWithModTime(t, dir, "old.jpg", time.Now().Add(-48*time.Hour))
	fresh := writeFileWithModTime(t, dir, "fresh.jpg", time.Now())

	job := NewCleanupJob(dir, testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("expired preview should be deleted")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh preview should be kept: %v", err)
	}
}

// TestCleanupJob_Run_CustomTTL はTTLの上書きが削除判定に反映される
// ことを検証する。
func TestCleanupJob_Run_CustomTTL(t *testing.T) {
	dir := t.TempDir()
	path := writeFileWithModTime(t, dir, "a.jpg", time.Now().Add(-2*time.Hour))

	job := NewCleanupJob(dir, testLogger())
	job.TTL = time.Hour

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file older than custom TTL should be deleted")
	}
}

// TestCleanupJob_Run_EmptyDir は削除対象がない場合でもエラーに
// ならないことを検証する（冪等性）。
func TestCleanupJob_Run_EmptyDir(t *testing.T) {
	job := NewCleanupJob(t.TempDir(), testLogger())

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() on empty dir error = %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("second Run() error = %v", err)
	}
}

// TestCleanupJob_Run_MissingDir は配信ディレクトリ自体が存在しない
// 場合にエラーを返すことを検証する。
func TestCleanupJob_Run_MissingDir(t *testing.T) {
	job := NewCleanupJob(filepath.Join(t.TempDir(), "nonexistent"), testLogger())

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error for missing directory")
	}
}

// TestCleanupJob_Run_SkipsSubdirectories はサブディレクトリが削除
// されないことを検証する。
func TestCleanupJob_Run_SkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(sub, past, past); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}

	job := NewCleanupJob(dir, testLogger())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if _, err := os.Stat(sub); err != nil {
		t.Errorf("subdirectory should be kept: %v", err)
	}
}

// TestCleanupJob_Run_CancelledContext はキャンセル済みコンテキストで
// 中断されることを検証する。
func TestCleanupJob_Run_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	path := writeFileWithModTime(t, dir, "old.jpg", time.Now().Add(-48*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := NewCleanupJob(dir, testLogger())
	if err := job.Run(ctx); err == nil {
		t.Error("expected context error")
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("file should be kept when run is cancelled: %v", err)
	}
}

// TestCleanupJob_RunPeriodic は定期実行がコンテキストのキャンセルで
// 停止することを検証する。
func TestCleanupJob_RunPeriodic(t *testing.T) {
	dir := t.TempDir()
	old := writeFileWithModTime(t, dir, "old.jpg", time.Now().Add(-48*time.Hour))

	job := NewCleanupJob(dir, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.RunPeriodic(ctx, 10*time.Millisecond)
		close(done)
	}()

	// 最初の実行が走るまで待つ
	deadline := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(old); os.IsNotExist(err) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("periodic run did not delete the expired preview")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunPeriodic did not stop after cancellation")
	}
}
