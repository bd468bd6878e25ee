package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestSessionState_InitialStatus(t *testing.T) {
	state := NewSessionState()

	if state.Status() != SessionStatusIdle {
		t.Errorf("期待される状態: idle, 実際: %s", state.Status())
	}
	if state.HasCurrentImage() {
		t.Error("初期状態では画像はないはずです")
	}
}

func TestSessionState_BeginOperation(t *testing.T) {
	state := NewSessionState().FailOperation("前回のエラー")

	loading, err := state.BeginOperation()
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !loading.IsLoading {
		t.Error("IsLoading が true になっていません")
	}
	if loading.Error != "" {
		t.Errorf("開始時にエラーがクリアされていません: %s", loading.Error)
	}
	if loading.Status() != SessionStatusLoading {
		t.Errorf("期待される状態: loading, 実際: %s", loading.Status())
	}

	// 元の値は変わらない
	if state.IsLoading || state.Error == "" {
		t.Error("BeginOperation がレシーバを変更しました")
	}
}

func TestSessionState_BeginOperationWhileLoading(t *testing.T) {
	loading, _ := NewSessionState().ApplyUpload(newTestItem(1)).BeginOperation()

	again, err := loading.BeginOperation()
	if !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("ErrOperationInProgress が期待されましたが: %v", err)
	}
	if !reflect.DeepEqual(again, loading) {
		t.Error("実行中の開始要求で状態が変わりました")
	}
}

func TestSessionState_CompleteWithImage(t *testing.T) {
	loading, _ := NewSessionState().BeginOperation()
	item := newTestItem(1)

	done := loading.CompleteWithImage(item)

	if done.IsLoading {
		t.Error("完了後も IsLoading が true です")
	}
	if done.Error != "" {
		t.Errorf("完了後にエラーが残っています: %s", done.Error)
	}
	if done.CurrentImage != item.ImageURL {
		t.Errorf("期待される画像: %s, 実際: %s", item.ImageURL, done.CurrentImage)
	}
	if done.History.Len() != 1 {
		t.Errorf("期待される履歴件数: 1, 実際: %d", done.History.Len())
	}
	if done.Status() != SessionStatusSuccess {
		t.Errorf("期待される状態: success, 実際: %s", done.Status())
	}
}

func TestSessionState_FailOperationKeepsImage(t *testing.T) {
	base := NewSessionState().ApplyUpload(newTestItem(1))
	loading, _ := base.BeginOperation()

	failed := loading.FailOperation("サービスエラー")

	if failed.IsLoading {
		t.Error("失敗後も IsLoading が true です")
	}
	if failed.Error != "サービスエラー" {
		t.Errorf("期待されるエラー: サービスエラー, 実際: %s", failed.Error)
	}
	if failed.CurrentImage != base.CurrentImage {
		t.Error("失敗時に表示中の画像が変わりました")
	}
	if failed.History.Len() != base.History.Len() {
		t.Error("失敗時に履歴が変わりました")
	}
	if failed.Status() != SessionStatusError {
		t.Errorf("期待される状態: error, 実際: %s", failed.Status())
	}
}

func TestSessionState_ApplyUploadLeavesFlags(t *testing.T) {
	failed := NewSessionState().FailOperation("前回のエラー")
	item := NewHistoryItem("up", "data:image/jpeg;base64,AAAA", UploadedLabel, newTestItem(1).Timestamp)

	uploaded := failed.ApplyUpload(item)

	if uploaded.CurrentImage != item.ImageURL {
		t.Errorf("期待される画像: %s, 実際: %s", item.ImageURL, uploaded.CurrentImage)
	}
	if uploaded.Error != "前回のエラー" || uploaded.IsLoading {
		t.Error("アップロードで IsLoading または Error が変更されました")
	}
	if top := uploaded.History.Items()[0]; top.Prompt != UploadedLabel {
		t.Errorf("期待されるラベル: %s, 実際: %s", UploadedLabel, top.Prompt)
	}
}

func TestSessionState_SelectHistoryItem(t *testing.T) {
	state := NewSessionState().
		ApplyUpload(newTestItem(1)).
		ApplyUpload(newTestItem(2))

	selected, err := state.SelectHistoryItem("id-1")
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if selected.CurrentImage != newTestItem(1).ImageURL {
		t.Errorf("期待される画像: %s, 実際: %s", newTestItem(1).ImageURL, selected.CurrentImage)
	}
	if !reflect.DeepEqual(selected.History, state.History) {
		t.Error("履歴の選択で履歴が変わりました")
	}

	unchanged, err := state.SelectHistoryItem("missing")
	if !errors.Is(err, ErrHistoryItemNotFound) {
		t.Fatalf("ErrHistoryItemNotFound が期待されましたが: %v", err)
	}
	if !reflect.DeepEqual(unchanged, state) {
		t.Error("存在しないIDの選択で状態が変わりました")
	}
}

func TestSessionState_Reset(t *testing.T) {
	state := NewSessionState().ApplyUpload(newTestItem(1)).FailOperation("失敗")

	reset, err := state.Reset()
	if err != nil {
		t.Fatalf("予期しないエラー: %v", err)
	}
	if !reset.IsInitial() {
		t.Errorf("リセット後は初期状態であるべきです: %+v", reset)
	}
	if state.IsInitial() {
		t.Error("リセットで元の状態が変更されました")
	}
}

func TestSessionState_ResetWhileLoading(t *testing.T) {
	loading, _ := NewSessionState().ApplyUpload(newTestItem(1)).BeginOperation()

	unchanged, err := loading.Reset()
	if !errors.Is(err, ErrOperationInProgress) {
		t.Fatalf("ErrOperationInProgress が期待されましたが: %v", err)
	}
	if !reflect.DeepEqual(unchanged, loading) {
		t.Error("実行中のリセットで状態が変わりました")
	}
}
