package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gardenbot/configs"
	"gardenbot/internal/application"
	"gardenbot/internal/infrastructure/gemini"
	"gardenbot/internal/infrastructure/imagefile"
	"gardenbot/internal/infrastructure/memory"
	discordPres "gardenbot/internal/presentation/discord"
	"gardenbot/internal/presentation/httpapi"

	"github.com/bwmarrin/discordgo"
)

func main() {
	log.Println("ガーデンデザインBotを起動中...")

	// 設定を読み込み
	config, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	// Gemini APIクライアントを作成
	imageClient, err := gemini.NewGardenImageClient(context.Background(), &config.Gemini)
	if err != nil {
		log.Fatalf("Gemini APIクライアントの作成に失敗: %v", err)
	}

	// アプリケーションサービスを作成
	sessionRepo := memory.NewSessionRepository()
	gardenService := application.NewGardenSessionService(
		imageClient,
		sessionRepo,
		imagefile.NewDecoder(config.Upload.MaxBytes),
	)

	// 放置されたセッションを定期的に破棄
	evictCtx, stopEviction := context.WithCancel(context.Background())
	defer stopEviction()
	if config.Session.IdleTTL > 0 {
		go sessionRepo.RunEviction(evictCtx, config.Session.SweepInterval, config.Session.IdleTTL)
		log.Printf("セッションの保持期間: %v (確認間隔: %v)", config.Session.IdleTTL, config.Session.SweepInterval)
	}

	var session *discordgo.Session
	var discordHandler *discordPres.DiscordHandler
	if config.Discord.Enabled {
		session, discordHandler = startDiscord(config, gardenService)
	}

	var server *http.Server
	if config.HTTP.Enabled {
		server = startHTTP(config, gardenService)
	}

	// シグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// 終了シグナルを待機
	<-stop
	log.Println("終了シグナルを受信しました。Botを停止中...")

	// クリーンアップ
	stopEviction()

	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), config.HTTP.ShutdownTimeout)
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("HTTPサーバーの停止に失敗: %v", err)
		}
		cancel()
	}

	if session != nil {
		discordHandler.RemoveCommands()
		if err := session.Close(); err != nil {
			log.Printf("Discordセッションのクローズに失敗: %v", err)
		}
	}

	if keys, err := sessionRepo.Keys(context.Background()); err == nil {
		log.Printf("破棄されるデザインセッション: %d件", len(keys))
	}

	log.Println("Botが正常に停止しました。")
}

// startDiscord は、Discordに接続してハンドラーとスラッシュコマンドを登録します
func startDiscord(config *configs.Config, gardenService *application.GardenSessionService) (*discordgo.Session, *discordPres.DiscordHandler) {
	// Discordセッションを作成
	session, err := discordgo.New("Bot " + config.Discord.BotToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	// Botの情報を取得
	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}

	log.Printf("Bot情報: %s#%s (ID: %s)", user.Username, user.Discriminator, user.ID)

	// Discordハンドラを作成
	handler := discordPres.NewDiscordHandler(session, gardenService, user.ID, config.Upload.MaxBytes)
	handler.SetupHandlers()

	// Discordに接続
	if err := session.Open(); err != nil {
		log.Fatalf("Discordへの接続に失敗: %v", err)
	}

	// スラッシュコマンドを設定
	if err := handler.RegisterCommands(); err != nil {
		log.Fatalf("スラッシュコマンドの設定に失敗: %v", err)
	}

	log.Println("Discordに接続しました。Botが準備完了しました！")
	log.Println("利用可能なスラッシュコマンド:")
	log.Println("  /garden  - 条件を指定して新しいガーデンデザインを生成")
	log.Println("  /edit    - 表示中のデザインを編集")
	log.Println("  /upload  - 手元の画像を編集のベースとして取り込み")
	log.Println("  /history - デザイン履歴を表示")
	log.Println("  /select  - 履歴の画像に戻す")
	log.Println("  /reset   - セッションをリセット")
	log.Println("  /status  - セッションの状態を表示")

	return session, handler
}

// startHTTP は、ブラウザ向けのHTTP APIを起動します
func startHTTP(config *configs.Config, gardenService *application.GardenSessionService) *http.Server {
	server := &http.Server{
		Addr:              config.HTTP.Addr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(gardenService, config.Upload.MaxBytes), config.HTTP.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP APIを起動しました: %s", config.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTPサーバーの起動に失敗: %v", err)
		}
	}()

	return server
}
