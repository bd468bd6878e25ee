package domain

import "fmt"

// SessionStatus は、セッションの表示上の状態です
type SessionStatus string

const (
	SessionStatusIdle    SessionStatus = "idle"
	SessionStatusLoading SessionStatus = "loading"
	SessionStatusSuccess SessionStatus = "success"
	SessionStatusError   SessionStatus = "error"
)

// SessionState は、1つのデザインセッションの状態を表す値オブジェクトです
// 状態遷移はすべて新しいSessionStateを返し、レシーバを変更しません
type SessionState struct {
	CurrentImage ImageReference
	IsLoading    bool
	Error        string
	History      History
}

// NewSessionState は、初期状態のセッションを返します
func NewSessionState() SessionState {
	return SessionState{}
}

// HasCurrentImage は、表示中の画像があるかどうかを返します
func (s SessionState) HasCurrentImage() bool {
	return !s.CurrentImage.IsZero()
}

// Status は、現在の状態を idle / loading / success / error で返します
func (s SessionState) Status() SessionStatus {
	switch {
	case s.IsLoading:
		return SessionStatusLoading
	case s.Error != "":
		return SessionStatusError
	case s.HasCurrentImage():
		return SessionStatusSuccess
	default:
		return SessionStatusIdle
	}
}

// BeginOperation は、生成・編集の開始を表します
// 実行中の場合は ErrOperationInProgress を返し、状態は変わりません
func (s SessionState) BeginOperation() (SessionState, error) {
	if s.IsLoading {
		return s, ErrOperationInProgress
	}
	next := s
	next.IsLoading = true
	next.Error = ""
	return next, nil
}

// CompleteWithImage は、生成・編集の成功を反映します
func (s SessionState) CompleteWithImage(item HistoryItem) SessionState {
	next := s
	next.IsLoading = false
	next.Error = ""
	next.CurrentImage = item.ImageURL
	next.History = s.History.Push(item)
	return next
}

// FailOperation は、生成・編集の失敗を反映します。表示中の画像は維持されます
func (s SessionState) FailOperation(message string) SessionState {
	next := s
	next.IsLoading = false
	next.Error = message
	return next
}

// ApplyUpload は、アップロード画像を表示中の画像にします
// 読み込み中フラグとエラーには触れません
func (s SessionState) ApplyUpload(item HistoryItem) SessionState {
	next := s
	next.CurrentImage = item.ImageURL
	next.History = s.History.Push(item)
	return next
}

// SelectHistoryItem は、履歴の画像を表示中の画像にします
// 存在しないIDの場合は ErrHistoryItemNotFound を返し、状態は変わりません
func (s SessionState) SelectHistoryItem(id string) (SessionState, error) {
	item, ok := s.History.Find(id)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrHistoryItemNotFound, id)
	}
	next := s
	next.CurrentImage = item.ImageURL
	return next, nil
}

// Reset は、セッションを初期状態に戻します
// 生成・編集の実行中は ErrOperationInProgress を返し、状態は変わりません
func (s SessionState) Reset() (SessionState, error) {
	if s.IsLoading {
		return s, ErrOperationInProgress
	}
	return NewSessionState(), nil
}

// IsInitial は、初期状態から何も変わっていないかどうかを返します
func (s SessionState) IsInitial() bool {
	return !s.IsLoading && s.Error == "" && !s.HasCurrentImage() && s.History.IsEmpty()
}
