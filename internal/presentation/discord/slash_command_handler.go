package discord

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gardenbot/internal/application"
	"gardenbot/internal/domain"

	"github.com/bwmarrin/discordgo"
)

// SlashCommandHandler は、Discordのスラッシュコマンドを処理するハンドラーです
type SlashCommandHandler struct {
	session         *discordgo.Session
	gardenService   *application.GardenSessionService
	responseHandler *ResponseHandler
	fetcher         *AttachmentFetcher
	registered      []*discordgo.ApplicationCommand
}

// NewSlashCommandHandler は新しいSlashCommandHandlerインスタンスを作成します
func NewSlashCommandHandler(
	session *discordgo.Session,
	gardenService *application.GardenSessionService,
	responseHandler *ResponseHandler,
	fetcher *AttachmentFetcher,
) *SlashCommandHandler {
	return &SlashCommandHandler{
		session:         session,
		gardenService:   gardenService,
		responseHandler: responseHandler,
		fetcher:         fetcher,
	}
}

// commandDefinitions は、登録するスラッシュコマンドの定義を返します
func commandDefinitions() []*discordgo.ApplicationCommand {
	styleChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, style := range domain.AllGardenStyles() {
		styleChoices = append(styleChoices, &discordgo.ApplicationCommandOptionChoice{Name: style.String(), Value: style.Key()})
	}

	sizeChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, size := range domain.AllGardenSizes() {
		sizeChoices = append(sizeChoices, &discordgo.ApplicationCommandOptionChoice{Name: size.Label, Value: size.Key})
	}

	sunlightChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, level := range domain.AllSunlightLevels() {
		sunlightChoices = append(sunlightChoices, &discordgo.ApplicationCommandOptionChoice{Name: level.String(), Value: level.Key()})
	}

	suggestionChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, suggestion := range domain.EditSuggestions() {
		suggestionChoices = append(suggestionChoices, &discordgo.ApplicationCommandOptionChoice{Name: suggestion, Value: suggestion})
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "garden",
			Description: "条件を指定して新しいガーデンデザインを生成します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "style",
					Description: "ガーデンのスタイル",
					Required:    true,
					Choices:     styleChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "size",
					Description: "ガーデンの広さ",
					Choices:     sizeChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "sunlight",
					Description: "日当たり",
					Choices:     sunlightChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "features",
					Description: "取り入れたい設備（カンマ区切り）例: Koi Pond, Fire Pit",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "description",
					Description: "自由記述の追加イメージ",
				},
			},
		},
		{
			Name:        "edit",
			Description: "表示中のデザインを指示に従って編集します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "instruction",
					Description: "編集指示（英語推奨）",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "suggestion",
					Description: "よく使う編集指示から選ぶ",
					Choices:     suggestionChoices,
				},
			},
		},
		{
			Name:        "upload",
			Description: "手元の庭の写真を編集のベース画像として取り込みます",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "image",
					Description: "PNG・JPEG・GIF・WebP形式の画像",
					Required:    true,
				},
			},
		},
		{
			Name:        "history",
			Description: "直近のデザイン履歴を表示します",
		},
		{
			Name:        "select",
			Description: "履歴の画像を表示中のデザインに戻します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "item",
					Description: "履歴の番号（1が最新）またはID",
					Required:    true,
				},
			},
		},
		{
			Name:        "reset",
			Description: "デザインセッションを破棄して最初からやり直します",
		},
		{
			Name:        "status",
			Description: "デザインセッションの状態を表示します",
		},
	}
}

// SetupSlashCommands は、スラッシュコマンドを設定します
func (h *SlashCommandHandler) SetupSlashCommands(appID string) error {
	for _, command := range commandDefinitions() {
		// グローバルコマンドとして登録
		created, err := h.session.ApplicationCommandCreate(appID, "", command)
		if err != nil {
			log.Printf("スラッシュコマンド %s の登録に失敗: %v", command.Name, err)
			return err
		}
		h.registered = append(h.registered, created)
		log.Printf("スラッシュコマンド %s を登録しました", command.Name)
	}

	return nil
}

// RemoveSlashCommands は、登録したスラッシュコマンドを削除します
func (h *SlashCommandHandler) RemoveSlashCommands(appID string) {
	for _, command := range h.registered {
		if err := h.session.ApplicationCommandDelete(appID, "", command.ID); err != nil {
			log.Printf("スラッシュコマンド %s の削除に失敗: %v", command.Name, err)
		}
	}
	h.registered = nil
}

// SetupSlashCommandHandlers は、スラッシュコマンドのハンドラーを設定します
func (h *SlashCommandHandler) SetupSlashCommandHandlers() {
	h.session.AddHandler(h.handleInteractionCreate)
}

// handleInteractionCreate は、インタラクション作成イベントを処理します
func (h *SlashCommandHandler) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case "garden":
		h.handleGardenCommand(s, i)
	case "edit":
		h.handleEditCommand(s, i)
	case "upload":
		h.handleUploadCommand(s, i)
	case "history":
		h.handleHistoryCommand(s, i)
	case "select":
		h.handleSelectCommand(s, i)
	case "reset":
		h.handleResetCommand(s, i)
	case "status":
		h.handleStatusCommand(s, i)
	default:
		log.Printf("未知のスラッシュコマンド: %s", i.ApplicationCommandData().Name)
	}
}

// handleGardenCommand は、/gardenコマンドを処理します
func (h *SlashCommandHandler) handleGardenCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	prefs, err := preferencesFromOptions(optionMap(i.ApplicationCommandData().Options))
	if err != nil {
		h.respondToInteraction(s, i, h.responseHandler.formatError(err), true)
		return
	}

	h.deferResponse(s, i)

	key := interactionSessionKey(i)
	state, err := h.gardenService.SubmitGenerate(context.Background(), key, prefs)
	h.editWithState(s, i, state, err)
}

// handleEditCommand は、/editコマンドを処理します
func (h *SlashCommandHandler) handleEditCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	instruction := editInstructionFromOptions(optionMap(i.ApplicationCommandData().Options))
	if instruction == "" {
		h.respondToInteraction(s, i, h.responseHandler.formatError(domain.ErrEmptyInstruction), true)
		return
	}

	h.deferResponse(s, i)

	key := interactionSessionKey(i)
	state, err := h.gardenService.SubmitEdit(context.Background(), key, instruction)
	h.editWithState(s, i, state, err)
}

// handleUploadCommand は、/uploadコマンドを処理します
func (h *SlashCommandHandler) handleUploadCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	options := optionMap(data.Options)

	var attachment *discordgo.MessageAttachment
	if option, ok := options["image"]; ok && data.Resolved != nil {
		if id, ok := option.Value.(string); ok {
			attachment = data.Resolved.Attachments[id]
		}
	}
	if attachment == nil || !isImageAttachment(attachment) {
		h.respondToInteraction(s, i, h.responseHandler.formatError(domain.ErrUnsupportedImage), true)
		return
	}

	h.deferResponse(s, i)

	ctx := context.Background()
	content, err := h.fetcher.Fetch(ctx, attachment)
	if err != nil {
		log.Printf("添付ファイルの取得に失敗: %v", err)
		h.editResponse(s, i, h.responseHandler.formatError(err), nil)
		return
	}

	key := interactionSessionKey(i)
	state, err := h.gardenService.UploadImage(ctx, key, content)
	h.editWithState(s, i, state, err)
}

// handleHistoryCommand は、/historyコマンドを処理します
func (h *SlashCommandHandler) handleHistoryCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	state, err := h.gardenService.Session(context.Background(), interactionSessionKey(i))
	if err != nil {
		log.Printf("セッションの取得に失敗: %v", err)
		h.respondToInteraction(s, i, h.responseHandler.formatError(err), true)
		return
	}

	h.respondToInteraction(s, i, h.responseHandler.truncate(h.responseHandler.formatHistory(state)), true)
}

// handleSelectCommand は、/selectコマンドを処理します
func (h *SlashCommandHandler) handleSelectCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()
	key := interactionSessionKey(i)

	options := optionMap(i.ApplicationCommandData().Options)
	value := ""
	if option, ok := options["item"]; ok {
		value = option.StringValue()
	}

	current, err := h.gardenService.Session(ctx, key)
	if err != nil {
		h.respondToInteraction(s, i, h.responseHandler.formatError(err), true)
		return
	}

	state, err := h.gardenService.SelectHistoryItem(ctx, key, resolveHistoryID(current, value))
	if err != nil {
		h.respondToInteraction(s, i, h.responseHandler.formatError(err), true)
		return
	}

	file, err := h.responseHandler.imageFile(state.CurrentImage, "garden")
	if err != nil {
		h.respondToInteraction(s, i, h.responseHandler.formatError(err), true)
		return
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: h.responseHandler.formatResult(state),
			Files:   []*discordgo.File{file},
		},
	})
	if err != nil {
		log.Printf("インタラクションへの応答に失敗: %v", err)
	}
}

// handleResetCommand は、/resetコマンドを処理します
func (h *SlashCommandHandler) handleResetCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := h.gardenService.ResetSession(context.Background(), interactionSessionKey(i)); err != nil {
		log.Printf("セッションのリセットに失敗: %v", err)
		h.respondToInteraction(s, i, h.responseHandler.formatError(err), true)
		return
	}

	h.respondToInteraction(s, i, "🧹 **デザインセッションをリセットしました**\n/garden で新しいデザインを始めましょう。", true)
}

// handleStatusCommand は、/statusコマンドを処理します
func (h *SlashCommandHandler) handleStatusCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	state, err := h.gardenService.Session(context.Background(), interactionSessionKey(i))
	if err != nil {
		log.Printf("セッションの取得に失敗: %v", err)
		h.respondToInteraction(s, i, "❌ 状態の確認に失敗しました。", true)
		return
	}

	h.respondToInteraction(s, i, h.responseHandler.formatStatus(state), true)
}

// editWithState は、処理結果に応じて遅延応答を更新します
func (h *SlashCommandHandler) editWithState(s *discordgo.Session, i *discordgo.InteractionCreate, state domain.SessionState, err error) {
	if err != nil {
		h.editResponse(s, i, h.responseHandler.formatError(err), nil)
		return
	}

	file, fileErr := h.responseHandler.imageFile(state.CurrentImage, "garden")
	if fileErr != nil {
		log.Printf("画像の添付に失敗: %v", fileErr)
		h.editResponse(s, i, h.responseHandler.formatError(fileErr), nil)
		return
	}

	h.editResponse(s, i, h.responseHandler.formatResult(state), []*discordgo.File{file})
}

// deferResponse は、時間のかかる処理の前に遅延応答を送信します
func (h *SlashCommandHandler) deferResponse(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		log.Printf("遅延応答の送信に失敗: %v", err)
	}
}

// editResponse は、遅延応答の内容を更新します
func (h *SlashCommandHandler) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string, files []*discordgo.File) {
	content = h.responseHandler.truncate(content)
	_, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Files:   files,
	})
	if err != nil {
		log.Printf("応答の更新に失敗: %v", err)
	}
}

// respondToInteraction は、インタラクションに応答します
func (h *SlashCommandHandler) respondToInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}

	if !ephemeral {
		response.Data.Flags = 0
	}

	err := s.InteractionRespond(i.Interaction, response)
	if err != nil {
		log.Printf("インタラクションへの応答に失敗: %v", err)
	}
}

// interactionSessionKey は、インタラクションからセッションキーを作成します
func interactionSessionKey(i *discordgo.InteractionCreate) string {
	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}
	return sessionKey(i.ChannelID, userID)
}

// optionMap は、オプションを名前で引けるようにします
func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	result := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, option := range options {
		result[option.Name] = option
	}
	return result
}

// preferencesFromOptions は、/gardenのオプションからガーデンの条件を組み立てます
// 指定のない項目はデフォルト値を使います
func preferencesFromOptions(options map[string]*discordgo.ApplicationCommandInteractionDataOption) (domain.GardenPreferences, error) {
	prefs := domain.DefaultGardenPreferences()

	if option, ok := options["style"]; ok {
		style, err := domain.ParseGardenStyle(option.StringValue())
		if err != nil {
			return prefs, err
		}
		prefs.Style = style
	}
	if option, ok := options["size"]; ok {
		if size := domain.ResolveGardenSize(option.StringValue()); size != "" {
			prefs.Size = size
		}
	}
	if option, ok := options["sunlight"]; ok {
		level, err := domain.ParseSunlightLevel(option.StringValue())
		if err != nil {
			return prefs, err
		}
		prefs.Sunlight = level
	}
	if option, ok := options["features"]; ok {
		prefs.Features = domain.ParseFeatureList(option.StringValue())
	}
	if option, ok := options["description"]; ok {
		prefs.CustomDescription = strings.TrimSpace(option.StringValue())
	}

	return prefs, prefs.Validate()
}

// editInstructionFromOptions は、/editのオプションから編集指示を取り出します
// 自由記述の指示を候補より優先します
func editInstructionFromOptions(options map[string]*discordgo.ApplicationCommandInteractionDataOption) string {
	if option, ok := options["instruction"]; ok {
		if instruction := strings.TrimSpace(option.StringValue()); instruction != "" {
			return instruction
		}
	}
	if option, ok := options["suggestion"]; ok {
		return strings.TrimSpace(option.StringValue())
	}
	return ""
}

// resolveHistoryID は、履歴の番号（1が最新）またはIDを履歴IDに変換します
func resolveHistoryID(state domain.SessionState, value string) string {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		items := state.History.Items()
		if n >= 1 && n <= len(items) {
			return items[n-1].ID
		}
		return fmt.Sprintf("#%d", n)
	}
	return value
}
