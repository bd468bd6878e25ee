package domain

import "errors"

// ドメイン固有のエラー型を定義
var (
	// ErrNoImageReturned は、サービスが応答したが画像データが含まれていなかった場合のエラーです
	ErrNoImageReturned = errors.New("AIから画像データを受け取れませんでした")

	// ErrNoCurrentImage は、編集対象の画像がない状態で編集しようとした場合のエラーです
	ErrNoCurrentImage = errors.New("編集対象の画像がありません")

	// ErrOperationInProgress は、別の生成・編集が実行中の場合のエラーです
	ErrOperationInProgress = errors.New("別の処理が実行中です")

	// ErrHistoryItemNotFound は、指定された履歴が存在しない場合のエラーです
	ErrHistoryItemNotFound = errors.New("指定された履歴が見つかりません")

	// ErrInvalidPreferences は、ガーデンの希望条件が不正な場合のエラーです
	ErrInvalidPreferences = errors.New("無効なガーデン設定です")

	// ErrEmptyInstruction は、編集指示が空の場合のエラーです
	ErrEmptyInstruction = errors.New("編集指示が空です")

	// ErrUnsupportedImage は、画像データを解釈できない場合のエラーです
	ErrUnsupportedImage = errors.New("サポートされていない画像データです")
)

// ServiceError は、外部の画像生成サービス呼び出しそのものが失敗したことを表します
// メッセージは元のエラーをそのまま利用者に伝えます
type ServiceError struct {
	Err error
}

// NewServiceError は、新しいServiceErrorを作成します
func NewServiceError(err error) *ServiceError {
	return &ServiceError{Err: err}
}

func (e *ServiceError) Error() string {
	if e.Err == nil {
		return "画像生成サービスの呼び出しに失敗しました"
	}
	return e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
