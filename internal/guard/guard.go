// Package guard は保護ビューの描画を制御するルートガードを提供する。
// セッション状態が判明するまで描画を保留し、不在ならサインインへ
// リダイレクトする。クライアント側の利便性のための仕組みであり、
// 行レベルのアクセス制御はバックエンドサービス側が独立に担保する。
package guard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/lumina/internal/model"
)

// State はガードの状態を表す。ナビゲーションごとに
// Checking → {Authorized, Redirecting} と遷移する。
type State string

const (
	// StateChecking はセッション照会中を示す。保護コンテンツは描画しない。
	StateChecking State = "checking"
	// StateAuthorized はセッション確認済みで子要素を描画できる状態を示す。
	StateAuthorized State = "authorized"
	// StateRedirecting はサインインへのリダイレクト中を示す。
	// アンマウントされるまでこの状態に留まる。
	StateRedirecting State = "redirecting"
)

// SessionSource はガードが必要とするセッションストアのインターフェース。
type SessionSource interface {
	// GetSession は一回限りのセッション照会を行う。不在は(nil, nil)。
	GetSession(ctx context.Context) (*model.Session, error)
	// Subscribe はセッション変化の購読を登録し、解除関数を返す。
	Subscribe(fn func(*model.Session)) func()
}

// Guard は保護ビュー1つ分のガード状態機械。
// マウント時にセッションを照会し、以後のアイデンティティイベント
// （別ビューでのサインアウト等）にも即座に反応して再リダイレクトする。
type Guard struct {
	source     SessionSource
	onRedirect func()

	mu          sync.Mutex
	state       State
	unsubscribe func()
}

// NewGuard はGuardを生成する。onRedirectはサインイン画面への
// 遷移を起こすコールバックで、Redirecting遷移のたびに呼ばれる。
func NewGuard(source SessionSource, onRedirect func()) *Guard {
	return &Guard{
		source:     source,
		onRedirect: onRedirect,
		state:      StateChecking,
	}
}

// Mount はガードを起動する。先にイベント購読を開始してから一回限りの
// 照会を発行するため、照会中に届いたイベントを取りこぼさない。
// 照会の失敗は不在と同じ扱いでリダイレクトする（fail closed）。
func (g *Guard) Mount(ctx context.Context) {
	g.mu.Lock()
	g.state = StateChecking
	g.mu.Unlock()

	// 購読元はロックを保持したまま通知することがあるため、
	// ガード自身のロックの外で購読を開始する。
	unsub := g.source.Subscribe(func(session *model.Session) {
		g.apply(session)
	})

	g.mu.Lock()
	g.unsubscribe = unsub
	g.mu.Unlock()

	session, err := g.source.GetSession(ctx)
	if err != nil {
		slog.Warn("guard session query failed, treating as absent",
			slog.String("error", err.Error()),
		)
		session = nil
	}

	g.apply(session)
}

// State は現在のガード状態を返す。
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Unmount は購読を解除する。あらゆる離脱経路で必ず呼び出すこと。
// 複数回呼んでも安全。
func (g *Guard) Unmount() {
	g.mu.Lock()
	unsub := g.unsubscribe
	g.unsubscribe = nil
	g.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// apply は照会結果とイベントの両方が通る単一の状態適用経路。
// セッション在: Authorized。不在: Redirecting（Authorized到達後でも即座に
// 再リダイレクトする）。Redirecting到達後はアンマウントまで遷移しない。
func (g *Guard) apply(session *model.Session) {
	g.mu.Lock()

	if g.state == StateRedirecting {
		g.mu.Unlock()
		return
	}

	if session != nil {
		g.state = StateAuthorized
		g.mu.Unlock()
		return
	}

	g.state = StateRedirecting
	redirect := g.onRedirect
	g.mu.Unlock()

	if redirect != nil {
		redirect()
	}
}
