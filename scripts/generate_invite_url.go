package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

// botPermissions は、Botの動作に必要な権限の合計です
const botPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionAttachFiles |
	discordgo.PermissionReadMessageHistory

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("警告: .envファイルの読み込みに失敗しました: %v", err)
	}

	// Bot Tokenを取得
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN が設定されていません")
	}

	// Discordセッションを作成
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}
	defer session.Close()

	// Botの情報を取得
	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}

	fmt.Printf("🤖 Bot情報:\n")
	fmt.Printf("   名前: %s#%s\n", user.Username, user.Discriminator)
	fmt.Printf("   ID: %s\n", user.ID)
	fmt.Println()

	// スラッシュコマンドを使うため applications.commands スコープも要求する
	inviteURL := fmt.Sprintf("https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands", user.ID, botPermissions)

	fmt.Printf("🔗 Bot招待URL:\n")
	fmt.Printf("   %s\n", inviteURL)
	fmt.Println()

	fmt.Printf("📋 必要な権限:\n")
	fmt.Printf("   - View Channels (1024)\n")
	fmt.Printf("   - Send Messages (2048)\n")
	fmt.Printf("   - Attach Files (32768)\n")
	fmt.Printf("   - Read Message History (65536)\n")
	fmt.Printf("   - 合計: %d\n", botPermissions)
	fmt.Println()

	fmt.Printf("🌿 Botの使い方:\n")
	fmt.Printf("   1. /garden でスタイル・広さ・日当たりを選んでデザインを生成\n")
	fmt.Printf("   2. /edit または @%s へのメンションで表示中のデザインを編集\n", user.Username)
	fmt.Printf("   3. 画像を添付してメンションすると、その写真をベースに編集できます\n")
	fmt.Printf("   4. /history と /select で過去5件のデザインに戻せます\n")
}
