package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"gardenbot/internal/domain"
)

// sessionEntry は、セッション状態と最終操作時刻の組です
type sessionEntry struct {
	state     domain.SessionState
	touchedAt time.Time
}

// SessionRepository は、セッション状態をメモリ上に保持するリポジトリの実装です
// プロセスが終了すると状態は失われます
type SessionRepository struct {
	sessions map[string]sessionEntry
	mutex    sync.RWMutex
	now      func() time.Time
}

// NewSessionRepository は新しいSessionRepositoryインスタンスを作成します
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]sessionEntry),
		now:      time.Now,
	}
}

// Get は、指定されたキーのセッションを取得します。存在しない場合は初期状態を返します
func (r *SessionRepository) Get(ctx context.Context, key string) (domain.SessionState, error) {
	if ctx.Err() != nil {
		return domain.SessionState{}, ctx.Err()
	}
	if key == "" {
		return domain.SessionState{}, fmt.Errorf("セッションキーが空です")
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	entry, exists := r.sessions[key]
	if !exists {
		return domain.NewSessionState(), nil
	}
	return entry.state, nil
}

// Update は、指定されたキーのセッションを排他的に読み取り・変更・書き込みします
// 更新後の状態が初期状態であれば、エントリ自体を削除します
func (r *SessionRepository) Update(ctx context.Context, key string, fn func(domain.SessionState) (domain.SessionState, error)) (domain.SessionState, error) {
	if ctx.Err() != nil {
		return domain.SessionState{}, ctx.Err()
	}
	if key == "" {
		return domain.SessionState{}, fmt.Errorf("セッションキーが空です")
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	current := domain.NewSessionState()
	if entry, exists := r.sessions[key]; exists {
		current = entry.state
	}

	next, err := fn(current)
	if err != nil {
		return current, err
	}

	if next.IsInitial() {
		delete(r.sessions, key)
		return next, nil
	}

	r.sessions[key] = sessionEntry{state: next, touchedAt: r.now()}
	return next, nil
}

// Keys は、保持しているセッションのキー一覧を昇順で返します
func (r *SessionRepository) Keys(ctx context.Context) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	r.mutex.RLock()
	defer r.mutex.RUnlock()

	keys := make([]string, 0, len(r.sessions))
	for key := range r.sessions {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// EvictIdle は、最終操作から idleFor 以上経過したセッションを破棄し、破棄した件数を返します
// 生成・編集の実行中のセッションは対象外です
func (r *SessionRepository) EvictIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	cutoff := r.now().Add(-idleFor)
	evicted := 0
	for key, entry := range r.sessions {
		if entry.state.IsLoading || entry.touchedAt.After(cutoff) {
			continue
		}
		delete(r.sessions, key)
		evicted++
	}
	return evicted, nil
}

// RunEviction は、ctx が終了するまで interval ごとに EvictIdle を実行します
func (r *SessionRepository) RunEviction(ctx context.Context, interval, idleFor time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted, err := r.EvictIdle(ctx, idleFor)
			if err != nil {
				return
			}
			if evicted > 0 {
				log.Printf("期限切れのセッションを破棄: %d件", evicted)
			}
		}
	}
}
