package domain

import (
	"fmt"
	"time"
)

// MaxHistoryItems は、保持する履歴の最大件数です
const MaxHistoryItems = 5

// UploadedLabel は、アップロード画像の履歴ラベルです
const UploadedLabel = "Uploaded Base Image"

// HistoryItem は、生成・編集・アップロードされた画像の履歴1件を表します
// 作成後に変更されることはありません
type HistoryItem struct {
	ID        string         `json:"id"`
	ImageURL  ImageReference `json:"image_url"`
	Prompt    string         `json:"prompt"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewHistoryItem は新しいHistoryItemを作成します
func NewHistoryItem(id string, imageURL ImageReference, prompt string, timestamp time.Time) HistoryItem {
	return HistoryItem{
		ID:        id,
		ImageURL:  imageURL,
		Prompt:    prompt,
		Timestamp: timestamp,
	}
}

// NewDesignLabel は、新規デザインの履歴ラベルを返します
func NewDesignLabel(style GardenStyle) string {
	return fmt.Sprintf("New Design: %s Garden", style)
}

// EditLabel は、編集の履歴ラベルを返します
func EditLabel(instruction string) string {
	return fmt.Sprintf("Edit: %s", instruction)
}

// History は、新しい順に並んだ上限付きの履歴です
// 値として扱い、変更操作は新しいHistoryを返します
type History struct {
	items []HistoryItem
}

// NewHistory は、与えられた項目（新しい順）から履歴を作成します
func NewHistory(items ...HistoryItem) History {
	if len(items) > MaxHistoryItems {
		items = items[:MaxHistoryItems]
	}
	return History{items: append([]HistoryItem(nil), items...)}
}

// Push は、先頭に項目を追加し、上限を超えた古い項目を捨てた新しい履歴を返します
func (h History) Push(item HistoryItem) History {
	n := len(h.items) + 1
	if n > MaxHistoryItems {
		n = MaxHistoryItems
	}

	items := make([]HistoryItem, 0, n)
	items = append(items, item)
	items = append(items, h.items[:n-1]...)
	return History{items: items}
}

// Find は、IDで履歴を検索します
func (h History) Find(id string) (HistoryItem, bool) {
	for _, item := range h.items {
		if item.ID == id {
			return item, true
		}
	}
	return HistoryItem{}, false
}

// Items は、履歴のコピーを新しい順に返します
func (h History) Items() []HistoryItem {
	return append([]HistoryItem(nil), h.items...)
}

// Len は、履歴の件数を返します
func (h History) Len() int {
	return len(h.items)
}

// IsEmpty は、履歴が空かどうかを返します
func (h History) IsEmpty() bool {
	return len(h.items) == 0
}
