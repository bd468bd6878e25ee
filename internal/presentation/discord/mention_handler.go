package discord

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"gardenbot/internal/application"
	"gardenbot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// MentionHandler は、Discordのメンション処理を担当するハンドラーです
// 画像が添付されていればアップロード、テキストだけなら編集指示として扱います
type MentionHandler struct {
	session         *discordgo.Session
	gardenService   *application.GardenSessionService
	botID           string
	botUsername     string
	usernameMutex   sync.RWMutex
	responseHandler *ResponseHandler
	fetcher         *AttachmentFetcher
}

// NewMentionHandler は新しいMentionHandlerインスタンスを作成します
func NewMentionHandler(
	session *discordgo.Session,
	gardenService *application.GardenSessionService,
	botID string,
	responseHandler *ResponseHandler,
	fetcher *AttachmentFetcher,
) *MentionHandler {
	return &MentionHandler{
		session:         session,
		gardenService:   gardenService,
		botID:           botID,
		responseHandler: responseHandler,
		fetcher:         fetcher,
	}
}

// SetupHandlers は、メンション関連のイベントハンドラを設定します
func (h *MentionHandler) SetupHandlers() {
	h.session.AddHandler(h.handleMessageCreate)
	h.session.AddHandler(h.handleReady)
}

// handleReady は、Botが準備完了した際のイベントを処理します
func (h *MentionHandler) handleReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Botが準備完了しました: %s#%s", event.User.Username, event.User.Discriminator)
	h.usernameMutex.Lock()
	h.botUsername = event.User.Username
	h.usernameMutex.Unlock()
}

// username は、Ready時に取得したBotのユーザー名を返します
func (h *MentionHandler) username() string {
	h.usernameMutex.RLock()
	defer h.usernameMutex.RUnlock()
	return h.botUsername
}

// handleMessageCreate は、メッセージ作成イベントを処理します
func (h *MentionHandler) handleMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Bot自身のメッセージは無視
	if m.Author == nil || m.Author.ID == h.botID || m.Author.Bot {
		return
	}

	if !h.isMentioned(m) {
		return
	}

	key := sessionKey(m.ChannelID, m.Author.ID)
	log.Printf("メンションを受信: セッション=%s", key)

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		log.Printf("入力中表示の送信に失敗: %v", err)
	}

	ctx := context.Background()

	if attachment := firstImageAttachment(m.Attachments); attachment != nil {
		h.handleUpload(ctx, s, m, key, attachment)
		return
	}

	instruction := h.extractUserContent(m)
	if instruction == "" {
		h.reply(s, m, mentionHelpMessage, nil)
		return
	}

	state, err := h.gardenService.SubmitEdit(ctx, key, instruction)
	h.replyWithState(s, m, state, err)
}

// handleUpload は、添付された画像を表示中の画像として取り込みます
func (h *MentionHandler) handleUpload(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate, key string, attachment *discordgo.MessageAttachment) {
	data, err := h.fetcher.Fetch(ctx, attachment)
	if err != nil {
		log.Printf("添付ファイルの取得に失敗: %v", err)
		h.reply(s, m, h.responseHandler.formatError(err), nil)
		return
	}

	state, err := h.gardenService.UploadImage(ctx, key, data)
	h.replyWithState(s, m, state, err)
}

// mentionHelpMessage は、本文のないメンションへの案内です
const mentionHelpMessage = "🌿 **ガーデンデザインBot**\n\n" +
	"- /garden で新しいデザインを生成\n" +
	"- 画像を添付してメンションすると編集のベース画像として取り込み\n" +
	"- テキストでメンションすると表示中のデザインを編集"

// replyWithState は、処理結果に応じて返信します
func (h *MentionHandler) replyWithState(s *discordgo.Session, m *discordgo.MessageCreate, state domain.SessionState, err error) {
	if err != nil {
		h.reply(s, m, h.responseHandler.formatError(err), nil)
		return
	}

	file, fileErr := h.responseHandler.imageFile(state.CurrentImage, "garden")
	if fileErr != nil {
		log.Printf("画像の添付に失敗: %v", fileErr)
		h.reply(s, m, h.responseHandler.formatError(fileErr), nil)
		return
	}

	h.reply(s, m, h.responseHandler.formatResult(state), []*discordgo.File{file})
}

// reply は、元のメッセージへの返信として送信します
func (h *MentionHandler) reply(s *discordgo.Session, m *discordgo.MessageCreate, content string, files []*discordgo.File) {
	_, err := s.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
		Content:   h.responseHandler.truncate(content),
		Files:     files,
		Reference: m.Reference(),
	})
	if err != nil {
		log.Printf("応答メッセージの送信に失敗: %v", err)
	}
}

// isMentioned は、メッセージがBotへのメンションかどうかを判定します
func (h *MentionHandler) isMentioned(m *discordgo.MessageCreate) bool {
	// メンション配列をチェック
	for _, mention := range m.Mentions {
		if mention.ID == h.botID {
			return true
		}
	}

	// メンション配列が空の場合、コンテンツをチェック
	if botUsername := h.username(); len(m.Mentions) == 0 && botUsername != "" {
		content := strings.ToLower(m.Content)
		botMention := fmt.Sprintf("@%s", strings.ToLower(botUsername))
		return strings.Contains(content, botMention)
	}

	return false
}

// extractUserContent は、メンション部分を除去したユーザーのコンテンツを抽出します
func (h *MentionHandler) extractUserContent(m *discordgo.MessageCreate) string {
	content := m.Content

	// メンション配列がある場合、それらを除去
	for _, mention := range m.Mentions {
		content = strings.ReplaceAll(content, fmt.Sprintf("<@%s>", mention.ID), "")
		content = strings.ReplaceAll(content, fmt.Sprintf("<@!%s>", mention.ID), "")
	}

	if botUsername := h.username(); len(m.Mentions) == 0 && botUsername != "" {
		content = removeFold(content, "@"+botUsername)
	}

	// 先頭と末尾の空白を除去
	return strings.TrimSpace(content)
}

// removeFold は、大文字小文字を区別せずに部分文字列を取り除きます
func removeFold(s, substr string) string {
	lower := strings.ToLower(s)
	target := strings.ToLower(substr)
	if len(lower) != len(s) || target == "" {
		return s
	}
	for {
		idx := strings.Index(lower, target)
		if idx < 0 {
			return s
		}
		s = s[:idx] + s[idx+len(target):]
		lower = lower[:idx] + lower[idx+len(target):]
	}
}
