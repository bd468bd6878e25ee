package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gardenbot/internal/domain"

	"github.com/google/uuid"
)

const (
	// generateFallbackMessage は、生成失敗時にエラー文言が得られない場合の表示です
	generateFallbackMessage = "ガーデンの生成に失敗しました。APIキーを確認してください。"

	// editFallbackMessage は、編集失敗時にエラー文言が得られない場合の表示です
	editFallbackMessage = "画像の編集に失敗しました。"
)

// GardenSessionService は、生成・編集・アップロード・履歴選択の流れを管理するサービスです
// 表示中の画像と履歴はセッションごとにSessionRepositoryで保持します
type GardenSessionService struct {
	generator ImageGenerator
	repo      domain.SessionRepository
	decoder   ImageDecoder
	newID     func() string
	now       func() time.Time
}

// Option は、GardenSessionServiceの生成時オプションです
type Option func(*GardenSessionService)

// WithIDGenerator は、履歴IDの生成方法を差し替えます
func WithIDGenerator(newID func() string) Option {
	return func(s *GardenSessionService) {
		s.newID = newID
	}
}

// WithClock は、時刻の取得方法を差し替えます
func WithClock(now func() time.Time) Option {
	return func(s *GardenSessionService) {
		s.now = now
	}
}

// NewGardenSessionService は新しいGardenSessionServiceインスタンスを作成します
func NewGardenSessionService(
	generator ImageGenerator,
	repo domain.SessionRepository,
	decoder ImageDecoder,
	opts ...Option,
) *GardenSessionService {
	s := &GardenSessionService{
		generator: generator,
		repo:      repo,
		decoder:   decoder,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session は、指定されたセッションの現在の状態を返します
func (s *GardenSessionService) Session(ctx context.Context, key string) (domain.SessionState, error) {
	return s.repo.Get(ctx, key)
}

// ResetSession は、セッションを初期状態に戻して最初からやり直せるようにします
// 生成・編集の実行中は ErrOperationInProgress を返し、状態は変えません
func (s *GardenSessionService) ResetSession(ctx context.Context, key string) error {
	if _, err := s.repo.Update(ctx, key, domain.SessionState.Reset); err != nil {
		if errors.Is(err, domain.ErrOperationInProgress) {
			log.Printf("処理中のためリセットを拒否: セッション=%s", key)
		}
		return err
	}
	log.Printf("セッションをリセット: %s", key)
	return nil
}

// SubmitGenerate は、ガーデンの条件から新しいデザインを生成します
// 実行中の処理がある場合は ErrOperationInProgress を返し、状態は変えません
func (s *GardenSessionService) SubmitGenerate(ctx context.Context, key string, prefs domain.GardenPreferences) (domain.SessionState, error) {
	if err := prefs.Validate(); err != nil {
		state, _ := s.repo.Get(ctx, key)
		return state, err
	}

	if _, err := s.begin(ctx, key); err != nil {
		return s.currentOnError(ctx, key, err)
	}

	log.Printf("ガーデン生成を開始: セッション=%s, スタイル=%s", key, prefs.Style)
	ref, genErr := s.generator.Generate(ctx, prefs)

	return s.finish(ctx, key, ref, genErr, domain.NewDesignLabel(prefs.Style), generateFallbackMessage)
}

// SubmitEdit は、表示中の画像を指示に従って編集します
// 表示中の画像がない場合は ErrNoCurrentImage を返し、状態は変えません
func (s *GardenSessionService) SubmitEdit(ctx context.Context, key string, instruction string) (domain.SessionState, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		state, _ := s.repo.Get(ctx, key)
		return state, domain.ErrEmptyInstruction
	}

	var current domain.ImageReference
	if _, err := s.repo.Update(ctx, key, func(state domain.SessionState) (domain.SessionState, error) {
		if !state.HasCurrentImage() {
			return state, domain.ErrNoCurrentImage
		}
		current = state.CurrentImage
		return state.BeginOperation()
	}); err != nil {
		return s.currentOnError(ctx, key, err)
	}

	log.Printf("ガーデン編集を開始: セッション=%s, 指示=%s", key, instruction)
	ref, editErr := s.generator.Edit(ctx, current, instruction)

	return s.finish(ctx, key, ref, editErr, domain.EditLabel(instruction), editFallbackMessage)
}

// UploadImage は、手元の画像ファイルを表示中の画像として取り込みます
// 外部サービスは呼び出さず、読み込み中フラグにも影響しません
func (s *GardenSessionService) UploadImage(ctx context.Context, key string, data []byte) (domain.SessionState, error) {
	ref, err := s.decoder.Decode(data)
	if err != nil {
		state, _ := s.repo.Get(ctx, key)
		return state, fmt.Errorf("アップロード画像の読み込みに失敗: %w", err)
	}

	item := domain.NewHistoryItem(s.newID(), ref, domain.UploadedLabel, s.now())
	state, err := s.repo.Update(ctx, key, func(state domain.SessionState) (domain.SessionState, error) {
		return state.ApplyUpload(item), nil
	})
	if err != nil {
		return state, err
	}

	log.Printf("画像をアップロード: セッション=%s, 履歴ID=%s", key, item.ID)
	return state, nil
}

// SelectHistoryItem は、履歴の画像を表示中の画像に戻します
func (s *GardenSessionService) SelectHistoryItem(ctx context.Context, key string, id string) (domain.SessionState, error) {
	return s.repo.Update(ctx, key, func(state domain.SessionState) (domain.SessionState, error) {
		return state.SelectHistoryItem(id)
	})
}

// begin は、再入防止フラグを立てて処理を開始します
func (s *GardenSessionService) begin(ctx context.Context, key string) (domain.SessionState, error) {
	return s.repo.Update(ctx, key, func(state domain.SessionState) (domain.SessionState, error) {
		return state.BeginOperation()
	})
}

// finish は、生成・編集の結果をセッションに反映します
func (s *GardenSessionService) finish(
	ctx context.Context,
	key string,
	ref domain.ImageReference,
	opErr error,
	label string,
	fallback string,
) (domain.SessionState, error) {
	// 呼び出し元のコンテキストが取り消されても読み込み中のまま残さない
	ctx = context.WithoutCancel(ctx)

	if opErr == nil && ref.IsZero() {
		opErr = domain.ErrNoImageReturned
	}

	if opErr != nil {
		log.Printf("画像処理に失敗: セッション=%s, エラー=%v", key, opErr)
		message := userMessage(opErr, fallback)
		state, err := s.repo.Update(ctx, key, func(state domain.SessionState) (domain.SessionState, error) {
			return state.FailOperation(message), nil
		})
		if err != nil {
			return state, err
		}
		return state, opErr
	}

	item := domain.NewHistoryItem(s.newID(), ref, label, s.now())
	state, err := s.repo.Update(ctx, key, func(state domain.SessionState) (domain.SessionState, error) {
		return state.CompleteWithImage(item), nil
	})
	if err != nil {
		return state, err
	}

	log.Printf("画像処理が完了: セッション=%s, 履歴ID=%s, ラベル=%s", key, item.ID, label)
	return state, nil
}

// currentOnError は、開始できなかった場合に現在の状態とエラーを返します
func (s *GardenSessionService) currentOnError(ctx context.Context, key string, err error) (domain.SessionState, error) {
	if errors.Is(err, domain.ErrOperationInProgress) {
		log.Printf("処理中のため要求を破棄: セッション=%s", key)
	}
	state, getErr := s.repo.Get(ctx, key)
	if getErr != nil {
		return state, errors.Join(err, getErr)
	}
	return state, err
}

// userMessage は、利用者に表示するエラー文言を決定します
func userMessage(err error, fallback string) string {
	if errors.Is(err, domain.ErrNoImageReturned) {
		return domain.ErrNoImageReturned.Error()
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}

// SupportedStyles は、選択可能なスタイルの一覧を返します
func (s *GardenSessionService) SupportedStyles() []string {
	styles := domain.AllGardenStyles()
	result := make([]string, len(styles))
	for i, style := range styles {
		result[i] = style.String()
	}
	return result
}

// SupportedSunlightLevels は、選択可能な日当たりの一覧を返します
func (s *GardenSessionService) SupportedSunlightLevels() []string {
	levels := domain.AllSunlightLevels()
	result := make([]string, len(levels))
	for i, level := range levels {
		result[i] = level.String()
	}
	return result
}

// SupportedSizes は、選択可能な広さの一覧を返します
func (s *GardenSessionService) SupportedSizes() []string {
	sizes := domain.AllGardenSizes()
	result := make([]string, len(sizes))
	for i, size := range sizes {
		result[i] = size.Label
	}
	return result
}

// SupportedFeatures は、選択可能な設備の一覧を返します
func (s *GardenSessionService) SupportedFeatures() []string {
	return domain.AvailableFeatures()
}

// EditSuggestions は、編集指示の候補一覧を返します
func (s *GardenSessionService) EditSuggestions() []string {
	return domain.EditSuggestions()
}
