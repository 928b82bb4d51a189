// Package session はプロセス全体で共有するセッションストアを提供する。
// 「現在誰がサインインしているか」の唯一の権威ある状態を保持し、
// アイデンティティイベントと初期照会の両方が単一の書き込み経路を通る。
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/lumina/internal/model"
)

// Querier は初期ハイドレーション用の一回限りのセッション照会インターフェース。
// identity.Clientの部分集合として定義する。
type Querier interface {
	GetSession(ctx context.Context) (*model.Session, error)
}

// Store は現在のセッション状態を保持する。
// nilは「サインインしていない」を意味する有効な状態。
// 書き込みはSetのみが行い、イベント到着順に適用される（last-write-wins）。
type Store struct {
	mu          sync.Mutex
	current     *model.Session
	subscribers map[int]func(*model.Session)
	nextID      int
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore() *Store {
	return &Store{
		subscribers: make(map[int]func(*model.Session)),
	}
}

// Set はセッション状態を無条件に丸ごと置き換える（マージしない）。
// 同一値の再適用は冪等で、登録済みの全コンシューマに同一更新サイクル内で
// 同期的に通知する。コールバック内からStoreのメソッドを呼び出してはならない。
func (s *Store) Set(session *model.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = session

	for _, fn := range s.subscribers {
		fn(session)
	}
}

// Current は最新のセッション状態を返す。nilは不在を意味する。
func (s *Store) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Subscribe は状態変化の購読を登録し、解除関数を返す。
// 解除関数は冪等で、コンポーネント破棄時のあらゆる経路で必ず呼び出すこと。
// 呼び忘れるとリスナーが再マウントをまたいでリークする。
func (s *Store) Subscribe(fn func(*model.Session)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// Hydrate は一回限りのセッション照会で初期状態を取り込む。
// 照会結果もイベントと同一のSet経路で書き込むため、照会とイベントが
// 競合しても後着のイベントが単純に上書きし、表示のちらつきは起きない。
// 照会失敗時は状態を変更せずエラーを返す（fail closed）。
func (s *Store) Hydrate(ctx context.Context, q Querier) error {
	session, err := q.GetSession(ctx)
	if err != nil {
		slog.Warn("session hydration failed", slog.String("error", err.Error()))
		return err
	}

	s.Set(session)
	return nil
}
