package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"gardenbot/internal/domain"
	"gardenbot/internal/infrastructure/memory"
)

// fakeGenerator は、テスト用のImageGeneratorです
type fakeGenerator struct {
	ref      domain.ImageReference
	err      error
	started  chan struct{}
	release  chan struct{}
	prefs    []domain.GardenPreferences
	edits    []string
	editFrom []domain.ImageReference
}

func (f *fakeGenerator) wait() {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, prefs domain.GardenPreferences) (domain.ImageReference, error) {
	f.prefs = append(f.prefs, prefs)
	f.wait()
	return f.ref, f.err
}

func (f *fakeGenerator) Edit(ctx context.Context, current domain.ImageReference, instruction string) (domain.ImageReference, error) {
	f.editFrom = append(f.editFrom, current)
	f.edits = append(f.edits, instruction)
	f.wait()
	return f.ref, f.err
}

// fakeDecoder は、テスト用のImageDecoderです
type fakeDecoder struct {
	err error
}

func (f fakeDecoder) Decode(data []byte) (domain.ImageReference, error) {
	if f.err != nil {
		return "", f.err
	}
	return domain.NewDataURI("image/png", data), nil
}

var fixedTime = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(generator *fakeGenerator) *GardenSessionService {
	counter := 0
	return NewGardenSessionService(
		generator,
		memory.NewSessionRepository(),
		fakeDecoder{},
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("item-%d", counter)
		}),
		WithClock(func() time.Time { return fixedTime }),
	)
}

const sessionKey = "channel:user"

func TestSubmitGenerate_Success(t *testing.T) {
	generated := domain.NewDataURI("image/png", []byte("zen"))
	generator := &fakeGenerator{ref: generated}
	service := newTestService(generator)

	prefs := domain.GardenPreferences{
		Style:    domain.GardenStyleJapaneseZen,
		Size:     "Medium Backyard (20-100m²)",
		Sunlight: domain.SunlightPartialShade,
		Features: []string{"Koi Pond"},
	}

	state, err := service.SubmitGenerate(context.Background(), sessionKey, prefs)
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if state.CurrentImage != generated {
		t.Errorf("表示中の画像が生成結果ではありません: %s", state.CurrentImage)
	}
	if state.IsLoading {
		t.Error("完了後は読み込み中であるべきではありません")
	}
	if state.Error != "" {
		t.Errorf("エラーは空であるべきですが: %s", state.Error)
	}
	if state.History.Len() != 1 {
		t.Fatalf("履歴は1件であるべきですが: %d", state.History.Len())
	}

	item := state.History.Items()[0]
	if item.Prompt != "New Design: Japanese Zen Garden" {
		t.Errorf("期待されるラベル: New Design: Japanese Zen Garden, 実際: %s", item.Prompt)
	}
	if item.ID != "item-1" || !item.Timestamp.Equal(fixedTime) {
		t.Errorf("IDまたは時刻が一致しません: %+v", item)
	}
	if len(generator.prefs) != 1 || generator.prefs[0].Style != domain.GardenStyleJapaneseZen {
		t.Errorf("条件がそのまま渡されていません: %+v", generator.prefs)
	}

	stored, _ := service.Session(context.Background(), sessionKey)
	if stored.CurrentImage != generated {
		t.Error("セッションに結果が保存されていません")
	}
}

func TestSubmitGenerate_FailureKeepsImage(t *testing.T) {
	generator := &fakeGenerator{ref: domain.NewDataURI("image/png", []byte("first"))}
	service := newTestService(generator)
	ctx := context.Background()

	first, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences())
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	generator.ref = ""
	generator.err = domain.NewServiceError(errors.New("quota exceeded"))

	state, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences())
	var serviceErr *domain.ServiceError
	if !errors.As(err, &serviceErr) {
		t.Fatalf("ServiceError が期待されましたが: %v", err)
	}

	if state.CurrentImage != first.CurrentImage {
		t.Error("失敗時は表示中の画像を維持するべきです")
	}
	if state.Error != "quota exceeded" {
		t.Errorf("期待されるエラー: quota exceeded, 実際: %s", state.Error)
	}
	if state.IsLoading {
		t.Error("失敗後は読み込み中であるべきではありません")
	}
	if state.History.Len() != 1 {
		t.Errorf("失敗時は履歴を追加するべきではありません: %d", state.History.Len())
	}
	if state.Status() != domain.SessionStatusError {
		t.Errorf("期待される状態: error, 実際: %s", state.Status())
	}
}

func TestSubmitGenerate_NoImageReturned(t *testing.T) {
	service := newTestService(&fakeGenerator{})

	state, err := service.SubmitGenerate(context.Background(), sessionKey, domain.DefaultGardenPreferences())
	if !errors.Is(err, domain.ErrNoImageReturned) {
		t.Fatalf("ErrNoImageReturned が期待されましたが: %v", err)
	}
	if state.Error != domain.ErrNoImageReturned.Error() {
		t.Errorf("期待されるエラー: %s, 実際: %s", domain.ErrNoImageReturned.Error(), state.Error)
	}
	if state.HasCurrentImage() {
		t.Error("画像は設定されるべきではありません")
	}
}

func TestSubmitGenerate_InvalidPreferences(t *testing.T) {
	generator := &fakeGenerator{ref: domain.NewDataURI("image/png", []byte("x"))}
	service := newTestService(generator)

	prefs := domain.DefaultGardenPreferences()
	prefs.Size = "  "

	state, err := service.SubmitGenerate(context.Background(), sessionKey, prefs)
	if !errors.Is(err, domain.ErrInvalidPreferences) {
		t.Fatalf("ErrInvalidPreferences が期待されましたが: %v", err)
	}
	if state.IsLoading || state.Error != "" {
		t.Errorf("状態は変わるべきではありません: %+v", state)
	}
	if len(generator.prefs) != 0 {
		t.Error("不正な条件では生成を呼び出すべきではありません")
	}
}

func TestSubmitGenerate_DropsConcurrentSubmission(t *testing.T) {
	generator := &fakeGenerator{
		ref:     domain.NewDataURI("image/png", []byte("slow")),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := newTestService(generator)
	ctx := context.Background()

	type result struct {
		state domain.SessionState
		err   error
	}
	done := make(chan result, 1)
	go func() {
		state, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences())
		done <- result{state, err}
	}()

	<-generator.started

	loading, _ := service.Session(ctx, sessionKey)
	if !loading.IsLoading {
		t.Error("処理中は読み込み中であるべきです")
	}

	if _, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences()); !errors.Is(err, domain.ErrOperationInProgress) {
		t.Errorf("ErrOperationInProgress が期待されましたが: %v", err)
	}
	close(generator.release)
	first := <-done
	if first.err != nil {
		t.Fatalf("予期しないエラー: %v", first.err)
	}
	if first.state.History.Len() != 1 {
		t.Errorf("履歴は1件であるべきですが: %d", first.state.History.Len())
	}
	if len(generator.prefs) != 1 {
		t.Errorf("生成は1回だけ呼び出されるべきですが: %d", len(generator.prefs))
	}
}

func TestSubmitEdit_DropsWhileLoading(t *testing.T) {
	generator := &fakeGenerator{ref: domain.NewDataURI("image/png", []byte("edited"))}
	service := newTestService(generator)
	ctx := context.Background()

	if _, err := service.UploadImage(ctx, sessionKey, []byte("photo")); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	generator.started = make(chan struct{})
	generator.release = make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := service.SubmitEdit(ctx, sessionKey, "Add a pond")
		done <- err
	}()
	<-generator.started

	before, _ := service.Session(ctx, sessionKey)

	dropped, err := service.SubmitEdit(ctx, sessionKey, "Add a bench")
	if !errors.Is(err, domain.ErrOperationInProgress) {
		t.Fatalf("ErrOperationInProgress が期待されましたが: %v", err)
	}

	after, _ := service.Session(ctx, sessionKey)
	for _, state := range []domain.SessionState{dropped, after} {
		if state.CurrentImage != before.CurrentImage {
			t.Error("破棄された編集で表示中の画像が変わりました")
		}
		if !reflect.DeepEqual(state.History, before.History) {
			t.Error("破棄された編集で履歴が変わりました")
		}
		if state.Error != before.Error || !state.IsLoading {
			t.Errorf("破棄された編集でエラーまたは読み込み中フラグが変わりました: %+v", state)
		}
	}

	close(generator.release)
	if err := <-done; err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(generator.edits) != 1 || generator.edits[0] != "Add a pond" {
		t.Errorf("編集は最初の指示で1回だけ呼び出されるべきです: %v", generator.edits)
	}
}

func TestResetSession_RejectedWhileLoading(t *testing.T) {
	generator := &fakeGenerator{
		ref:     domain.NewDataURI("image/png", []byte("slow")),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	service := newTestService(generator)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences())
		done <- err
	}()
	<-generator.started

	if err := service.ResetSession(ctx, sessionKey); !errors.Is(err, domain.ErrOperationInProgress) {
		t.Fatalf("ErrOperationInProgress が期待されましたが: %v", err)
	}
	if _, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences()); !errors.Is(err, domain.ErrOperationInProgress) {
		t.Errorf("リセット拒否後の生成も ErrOperationInProgress であるべきですが: %v", err)
	}

	close(generator.release)
	if err := <-done; err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if len(generator.prefs) != 1 {
		t.Errorf("生成は1回だけ呼び出されるべきですが: %d", len(generator.prefs))
	}

	state, _ := service.Session(ctx, sessionKey)
	if state.History.Len() != 1 || state.IsLoading {
		t.Errorf("最初の生成結果だけが反映されるべきです: %+v", state)
	}

	if err := service.ResetSession(ctx, sessionKey); err != nil {
		t.Fatalf("完了後のリセットで予期しないエラー: %v", err)
	}
}

func TestSubmitGenerate_CanceledContextStillFinishes(t *testing.T) {
	generator := &fakeGenerator{err: context.Canceled}
	service := newTestService(generator)

	ctx, cancel := context.WithCancel(context.Background())
	generator.started = make(chan struct{}, 1)
	go func() {
		<-generator.started
		cancel()
	}()

	_, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("context.Canceled が期待されましたが: %v", err)
	}

	state, _ := service.Session(context.Background(), sessionKey)
	if state.IsLoading {
		t.Error("取り消し後に読み込み中のまま残るべきではありません")
	}
}

func TestSubmitEdit(t *testing.T) {
	generator := &fakeGenerator{ref: domain.NewDataURI("image/png", []byte("base"))}
	service := newTestService(generator)
	ctx := context.Background()

	base, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences())
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	edited := domain.NewDataURI("image/png", []byte("edited"))
	generator.ref = edited

	state, err := service.SubmitEdit(ctx, sessionKey, "  Add a koi pond  ")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if generator.editFrom[0] != base.CurrentImage {
		t.Error("表示中の画像を編集対象にするべきです")
	}
	if generator.edits[0] != "Add a koi pond" {
		t.Errorf("前後の空白を除いた指示が期待されました: %q", generator.edits[0])
	}
	if state.CurrentImage != edited {
		t.Error("編集結果が表示中の画像になっていません")
	}
	items := state.History.Items()
	if len(items) != 2 || items[0].Prompt != "Edit: Add a koi pond" {
		t.Errorf("編集の履歴が先頭にありません: %+v", items)
	}
}

func TestSubmitEdit_WithoutImage(t *testing.T) {
	generator := &fakeGenerator{ref: domain.NewDataURI("image/png", []byte("x"))}
	service := newTestService(generator)

	state, err := service.SubmitEdit(context.Background(), sessionKey, "Add trees")
	if !errors.Is(err, domain.ErrNoCurrentImage) {
		t.Fatalf("ErrNoCurrentImage が期待されましたが: %v", err)
	}
	if state.IsLoading || state.Error != "" || !state.History.IsEmpty() {
		t.Errorf("状態は変わるべきではありません: %+v", state)
	}
	if len(generator.edits) != 0 {
		t.Error("画像がない場合は編集を呼び出すべきではありません")
	}
}

func TestSubmitEdit_EmptyInstruction(t *testing.T) {
	service := newTestService(&fakeGenerator{})

	if _, err := service.SubmitEdit(context.Background(), sessionKey, "   "); !errors.Is(err, domain.ErrEmptyInstruction) {
		t.Errorf("ErrEmptyInstruction が期待されましたが: %v", err)
	}
}

func TestSubmitEdit_FailureMessage(t *testing.T) {
	generator := &fakeGenerator{ref: domain.NewDataURI("image/png", []byte("base"))}
	service := newTestService(generator)
	ctx := context.Background()

	if _, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences()); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	generator.ref = ""
	generator.err = errors.New(" ")

	state, err := service.SubmitEdit(ctx, sessionKey, "Add lights")
	if err == nil {
		t.Fatal("エラーが期待されました")
	}
	if state.Error != editFallbackMessage {
		t.Errorf("期待されるエラー: %s, 実際: %s", editFallbackMessage, state.Error)
	}
	if state.History.Len() != 1 {
		t.Errorf("失敗時は履歴を追加するべきではありません: %d", state.History.Len())
	}
}

func TestUploadImage(t *testing.T) {
	service := newTestService(&fakeGenerator{})
	ctx := context.Background()

	state, err := service.UploadImage(ctx, sessionKey, []byte("photo"))
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	if state.CurrentImage != domain.NewDataURI("image/png", []byte("photo")) {
		t.Errorf("アップロード画像が表示中の画像になっていません: %s", state.CurrentImage)
	}
	items := state.History.Items()
	if len(items) != 1 || items[0].Prompt != domain.UploadedLabel {
		t.Errorf("アップロードの履歴が期待されました: %+v", items)
	}
	if state.IsLoading {
		t.Error("アップロードは読み込み中にするべきではありません")
	}
}

func TestUploadImage_DecodeError(t *testing.T) {
	service := NewGardenSessionService(&fakeGenerator{}, memory.NewSessionRepository(), fakeDecoder{err: domain.ErrUnsupportedImage})

	state, err := service.UploadImage(context.Background(), sessionKey, []byte("junk"))
	if !errors.Is(err, domain.ErrUnsupportedImage) {
		t.Fatalf("ErrUnsupportedImage が期待されましたが: %v", err)
	}
	if state.HasCurrentImage() || !state.History.IsEmpty() {
		t.Errorf("状態は変わるべきではありません: %+v", state)
	}
}

func TestSelectHistoryItem(t *testing.T) {
	service := newTestService(&fakeGenerator{})
	ctx := context.Background()

	first, _ := service.UploadImage(ctx, sessionKey, []byte("one"))
	second, _ := service.UploadImage(ctx, sessionKey, []byte("two"))
	if second.CurrentImage == first.CurrentImage {
		t.Fatal("テストの前提が不正です")
	}

	state, err := service.SelectHistoryItem(ctx, sessionKey, "item-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if state.CurrentImage != first.CurrentImage {
		t.Error("選択した履歴の画像が表示されていません")
	}
	if state.History.Len() != 2 {
		t.Errorf("選択で履歴は変わるべきではありません: %d", state.History.Len())
	}

	if _, err := service.SelectHistoryItem(ctx, sessionKey, "missing"); !errors.Is(err, domain.ErrHistoryItemNotFound) {
		t.Errorf("ErrHistoryItemNotFound が期待されましたが: %v", err)
	}
	after, _ := service.Session(ctx, sessionKey)
	if after.CurrentImage != first.CurrentImage {
		t.Error("存在しない履歴の選択で状態が変わっています")
	}
}

func TestHistoryCapacity(t *testing.T) {
	generator := &fakeGenerator{}
	service := newTestService(generator)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		generator.ref = domain.NewDataURI("image/png", []byte(fmt.Sprintf("design-%d", i)))
		if _, err := service.SubmitGenerate(ctx, sessionKey, domain.DefaultGardenPreferences()); err != nil {
			t.Fatalf("予期しないエラー: %v", err)
		}
	}

	state, _ := service.Session(ctx, sessionKey)
	items := state.History.Items()
	if len(items) != domain.MaxHistoryItems {
		t.Fatalf("履歴は%d件であるべきですが: %d", domain.MaxHistoryItems, len(items))
	}
	if items[0].ID != "item-7" || items[len(items)-1].ID != "item-3" {
		t.Errorf("新しい順の5件が期待されました: 先頭=%s, 末尾=%s", items[0].ID, items[len(items)-1].ID)
	}
}

func TestResetSession(t *testing.T) {
	service := newTestService(&fakeGenerator{})
	ctx := context.Background()

	if _, err := service.UploadImage(ctx, sessionKey, []byte("photo")); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if err := service.ResetSession(ctx, sessionKey); err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}

	state, _ := service.Session(ctx, sessionKey)
	if state.HasCurrentImage() || !state.History.IsEmpty() {
		t.Errorf("リセット後は初期状態であるべきです: %+v", state)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "通常のエラー", err: errors.New("API key not valid"), expected: "API key not valid"},
		{name: "空のメッセージ", err: errors.New(""), expected: generateFallbackMessage},
		{name: "画像なし", err: fmt.Errorf("%w: 詳細", domain.ErrNoImageReturned), expected: domain.ErrNoImageReturned.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := userMessage(tt.err, generateFallbackMessage); got != tt.expected {
				t.Errorf("期待される結果: %s, 実際: %s", tt.expected, got)
			}
		})
	}
}

func TestSupportedOptions(t *testing.T) {
	service := newTestService(&fakeGenerator{})

	if got := len(service.SupportedStyles()); got != 6 {
		t.Errorf("スタイルは6件であるべきですが: %d", got)
	}
	if got := len(service.SupportedSunlightLevels()); got != 3 {
		t.Errorf("日当たりは3件であるべきですが: %d", got)
	}
	if got := len(service.SupportedSizes()); got != 4 {
		t.Errorf("広さは4件であるべきですが: %d", got)
	}
	if len(service.SupportedFeatures()) == 0 || len(service.EditSuggestions()) == 0 {
		t.Error("設備と編集候補は空であるべきではありません")
	}
}
