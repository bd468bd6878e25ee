package discord

import (
	"fmt"

	"gardenbot/internal/application"

	"github.com/bwmarrin/discordgo"
)

// DiscordHandler は、Discordのイベントハンドラです
type DiscordHandler struct {
	session             *discordgo.Session
	gardenService       *application.GardenSessionService
	botID               string
	mentionHandler      *MentionHandler
	slashCommandHandler *SlashCommandHandler
}

// NewDiscordHandler は新しいDiscordHandlerインスタンスを作成します
func NewDiscordHandler(
	session *discordgo.Session,
	gardenService *application.GardenSessionService,
	botID string,
	maxUploadBytes int64,
) *DiscordHandler {
	// ResponseHandlerを作成
	responseHandler := NewResponseHandler()

	// 添付ファイルの取得にはdiscordgoのHTTPクライアントを使用
	fetcher := NewAttachmentFetcher(session.Client, maxUploadBytes)

	return &DiscordHandler{
		session:             session,
		gardenService:       gardenService,
		botID:               botID,
		mentionHandler:      NewMentionHandler(session, gardenService, botID, responseHandler, fetcher),
		slashCommandHandler: NewSlashCommandHandler(session, gardenService, responseHandler, fetcher),
	}
}

// SetupHandlers は、Discordのイベントハンドラを設定します
func (h *DiscordHandler) SetupHandlers() {
	// メンションハンドラーを設定
	h.mentionHandler.SetupHandlers()

	// スラッシュコマンドハンドラーを設定
	h.slashCommandHandler.SetupSlashCommandHandlers()
}

// RegisterCommands は、スラッシュコマンドを登録します。セッション接続後に呼び出してください
func (h *DiscordHandler) RegisterCommands() error {
	return h.slashCommandHandler.SetupSlashCommands(h.botID)
}

// RemoveCommands は、登録したスラッシュコマンドを削除します
func (h *DiscordHandler) RemoveCommands() {
	h.slashCommandHandler.RemoveSlashCommands(h.botID)
}

// sessionKey は、チャンネルとユーザーの組からセッションキーを作成します
// 同じチャンネルでもユーザーごとに別のデザインを扱います
func sessionKey(channelID, userID string) string {
	return fmt.Sprintf("%s:%s", channelID, userID)
}
