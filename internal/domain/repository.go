package domain

import "context"

// SessionRepository は、セッション状態を保持するためのインターフェースです
type SessionRepository interface {
	// Get は、指定されたキーのセッションを取得します。存在しない場合は初期状態を返します
	Get(ctx context.Context, key string) (SessionState, error)

	// Update は、指定されたキーのセッションを読み取り・変更・書き込みを不可分に行います
	// fn がエラーを返した場合は書き込まず、そのエラーと元の状態を返します
	// fn が初期状態を返した場合、実装はそのセッションを破棄してかまいません
	Update(ctx context.Context, key string, fn func(SessionState) (SessionState, error)) (SessionState, error)

	// Keys は、保持しているセッションのキー一覧を返します
	Keys(ctx context.Context) ([]string, error)
}
