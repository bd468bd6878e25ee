package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gardenbot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// ResponseHandler は、Discordのレスポンスのフォーマット処理を担当するハンドラーです
type ResponseHandler struct{}

// DiscordMessageLimit は、Discordのメッセージ文字数制限です
const DiscordMessageLimit = 2000

// NewResponseHandler は新しいResponseHandlerインスタンスを作成します
func NewResponseHandler() *ResponseHandler {
	return &ResponseHandler{}
}

// imageFile は、画像参照をDiscordに添付できるファイルに変換します
func (h *ResponseHandler) imageFile(ref domain.ImageReference, basename string) (*discordgo.File, error) {
	mimeType, data, err := ref.Decode()
	if err != nil {
		return nil, err
	}

	return &discordgo.File{
		Name:        basename + fileExtension(mimeType),
		ContentType: mimeType,
		Reader:      bytes.NewReader(data),
	}, nil
}

// fileExtension は、メディアタイプに対応する拡張子を返します
func fileExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// formatResult は、処理結果を表示するメッセージを作成します
func (h *ResponseHandler) formatResult(state domain.SessionState) string {
	items := state.History.Items()
	if len(items) == 0 {
		return "🎨 **デザインを更新しました**"
	}

	// 表示中の画像に対応する履歴を探す
	label := items[0].Prompt
	for _, item := range items {
		if item.ImageURL == state.CurrentImage {
			label = item.Prompt
			break
		}
	}

	return fmt.Sprintf("🎨 **%s**\n履歴: %d/%d件", label, len(items), domain.MaxHistoryItems)
}

// formatStatus は、セッションの状態を表示するメッセージを作成します
func (h *ResponseHandler) formatStatus(state domain.SessionState) string {
	var b strings.Builder
	b.WriteString("📊 **デザインセッションの状態**\n\n")

	switch state.Status() {
	case domain.SessionStatusLoading:
		b.WriteString("⏳ **状態**: 処理中\n")
	case domain.SessionStatusError:
		b.WriteString("❌ **状態**: エラー\n")
	case domain.SessionStatusSuccess:
		b.WriteString("✅ **状態**: 表示中の画像あり\n")
	default:
		b.WriteString("💤 **状態**: 画像なし\n")
	}

	if state.Error != "" {
		fmt.Fprintf(&b, "⚠️ **直近のエラー**: %s\n", state.Error)
	}
	fmt.Fprintf(&b, "🗂️ **履歴**: %d/%d件", state.History.Len(), domain.MaxHistoryItems)

	return b.String()
}

// formatHistory は、履歴の一覧を表示するメッセージを作成します
func (h *ResponseHandler) formatHistory(state domain.SessionState) string {
	if state.History.IsEmpty() {
		return "🗂️ **履歴はまだありません**\n/garden で生成するか、/upload で画像をアップロードしてください。"
	}

	var b strings.Builder
	b.WriteString("🗂️ **デザイン履歴**（新しい順）\n")
	for i, item := range state.History.Items() {
		marker := ""
		if item.ImageURL == state.CurrentImage {
			marker = " 👈 表示中"
		}
		fmt.Fprintf(&b, "\n**%d.** %s `%s` (%s)%s", i+1, item.Prompt, item.ID, item.Timestamp.Format("15:04:05"), marker)
	}
	b.WriteString("\n\n/select で番号を指定すると、その画像に戻せます。")

	return b.String()
}

// truncate は、Discordの制限を超えるメッセージを切り詰めます
func (h *ResponseHandler) truncate(message string) string {
	chunks := h.splitMessage(message)
	if len(chunks) <= 1 {
		return message
	}
	return chunks[0]
}

// splitMessage は、長いメッセージをDiscordの制限に合わせて分割します
// 制限は文字数で数え、マルチバイト文字の途中では分割しません
func (h *ResponseHandler) splitMessage(message string) []string {
	if utf8.RuneCountInString(message) <= DiscordMessageLimit {
		return []string{message}
	}

	var chunks []string
	remaining := message

	for len(remaining) > 0 {
		limit := limitIndex(remaining)
		if limit == len(remaining) {
			chunks = append(chunks, remaining)
			break
		}
		window := remaining[:limit]

		// 2000文字以内で最も近い改行位置を探す
		splitIndex := strings.LastIndex(window, "\n") + 1

		// 改行が見つからない場合は、単語の境界で分割
		if splitIndex <= 0 {
			splitIndex = strings.LastIndex(window, " ") + 1
		}

		// それでも見つからない場合は強制的に分割
		if splitIndex <= 0 {
			splitIndex = limit
		}

		chunks = append(chunks, remaining[:splitIndex])

		// 先頭の空白を除去
		remaining = strings.TrimLeft(remaining[splitIndex:], " \n")
	}

	return chunks
}

// limitIndex は、先頭からDiscordMessageLimit文字分のバイト位置を返します
func limitIndex(s string) int {
	count := 0
	for i := range s {
		if count == DiscordMessageLimit {
			return i
		}
		count++
	}
	return len(s)
}

// isTimeoutError は、エラーがタイムアウトエラーかどうかを判定します
func (h *ResponseHandler) isTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	// タイムアウト関連のエラーメッセージを検出
	errorMsg := strings.ToLower(err.Error())
	timeoutKeywords := []string{
		"timeout",
		"タイムアウト",
		"deadline exceeded",
	}

	for _, keyword := range timeoutKeywords {
		if strings.Contains(errorMsg, keyword) {
			return true
		}
	}

	return false
}

// formatError は、エラーを適切なメッセージにフォーマットします
func (h *ResponseHandler) formatError(err error) string {
	if err == nil {
		return "❌ **不明なエラーが発生しました**"
	}

	switch {
	case errors.Is(err, domain.ErrOperationInProgress):
		return "⏳ **処理中です**\n前の生成・編集が終わるまでお待ちください。"
	case errors.Is(err, domain.ErrNoCurrentImage):
		return "🖼️ **編集する画像がありません**\n先に /garden で生成するか、/upload で画像をアップロードしてください。"
	case errors.Is(err, domain.ErrEmptyInstruction):
		return "✏️ **編集指示を入力してください**\n例: 噴水を追加して"
	case errors.Is(err, domain.ErrHistoryItemNotFound):
		return "🔍 **指定された履歴が見つかりません**\n/history で番号を確認してください。"
	case errors.Is(err, domain.ErrInvalidPreferences):
		return fmt.Sprintf("⚠️ **ガーデン設定が正しくありません**\n%s", err.Error())
	case errors.Is(err, domain.ErrUnsupportedImage):
		return "🚫 **画像を読み込めませんでした**\nPNG・JPEG・GIF・WebP形式の画像を添付してください。"
	}

	// タイムアウトエラーの場合
	if h.isTimeoutError(err) {
		return "⏰ **画像生成がタイムアウトしました**\n\n" +
			"処理に時間がかかりすぎました。以下の対処法をお試しください：\n\n" +
			"- 指示を短くしてみる\n" +
			"- しばらく待ってから再度お試しください\n\n" +
			"ご不便をおかけして申し訳ございません。"
	}

	if errors.Is(err, domain.ErrNoImageReturned) {
		// 安全フィルターエラーの場合
		if strings.Contains(err.Error(), "安全フィルター") {
			return "🚫 **安全フィルターにより画像生成がブロックされました**\n\n" +
				"指示に不適切な内容が含まれている可能性があります。\n" +
				"より適切な表現で再度お試しください。"
		}
		return fmt.Sprintf("🎨 **画像が返されませんでした**\n%s", domain.ErrNoImageReturned.Error())
	}

	var serviceErr *domain.ServiceError
	if errors.As(err, &serviceErr) {
		return fmt.Sprintf("❌ **画像生成エラー**\n%s", err.Error())
	}

	return fmt.Sprintf("❌ **エラーが発生しました**\n%s", err.Error())
}
