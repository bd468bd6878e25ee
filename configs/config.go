package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gardenbot/internal/infrastructure/config"

	"github.com/joho/godotenv"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	Gemini  config.GeminiConfig
	Discord config.DiscordConfig
	HTTP    config.HTTPConfig
	Upload  config.UploadConfig
	Session config.SessionConfig
}

// LoadConfig は、環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		fmt.Printf("警告: .envファイルの読み込みに失敗しました: %v\n", err)
	}

	cfg := loadFromEnv()

	// 必須設定の検証
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromEnv は、現在の環境変数からConfigを組み立てます
func loadFromEnv() *Config {
	defaults := config.DefaultGeminiConfig()
	upload := config.DefaultUploadConfig()
	session := config.DefaultSessionConfig()

	return &Config{
		Gemini: config.GeminiConfig{
			// APIキーはここで一度だけ読み込み、以降は明示的に受け渡す
			APIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
			ImageModelName: getEnvOrDefault("GEMINI_IMAGE_MODEL", defaults.ImageModelName),
			AspectRatio:    getEnvOrDefault("GEMINI_ASPECT_RATIO", defaults.AspectRatio),
			RequestTimeout: getEnvAsDurationOrDefault("GEMINI_REQUEST_TIMEOUT", defaults.RequestTimeout),
		},
		Discord: config.DiscordConfig{
			Enabled:  getEnvAsBoolOrDefault("DISCORD_ENABLED", true),
			BotToken: getEnvOrDefault("DISCORD_BOT_TOKEN", ""),
		},
		HTTP: config.HTTPConfig{
			Enabled:         getEnvAsBoolOrDefault("HTTP_ENABLED", true),
			Addr:            getEnvOrDefault("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDurationOrDefault("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsListOrDefault("HTTP_ALLOWED_ORIGINS", nil),
		},
		Upload: config.UploadConfig{
			MaxBytes: int64(getEnvAsIntOrDefault("MAX_UPLOAD_BYTES", int(upload.MaxBytes))),
		},
		Session: config.SessionConfig{
			IdleTTL:       getEnvAsDurationOrDefault("SESSION_IDLE_TTL", session.IdleTTL),
			SweepInterval: getEnvAsDurationOrDefault("SESSION_SWEEP_INTERVAL", session.SweepInterval),
		},
	}
}

// Validate は、設定の妥当性を検証します
// GEMINI_API_KEY は検証しません。未設定の場合はAPI呼び出し時のエラーとして扱われます
func (c *Config) Validate() error {
	if !c.Discord.Enabled && !c.HTTP.Enabled {
		return fmt.Errorf("DISCORD_ENABLED と HTTP_ENABLED の少なくとも一方を有効にしてください")
	}

	if c.Discord.Enabled && c.Discord.BotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN が設定されていません")
	}

	if c.HTTP.Enabled && c.HTTP.Addr == "" {
		return fmt.Errorf("HTTP_ADDR が設定されていません")
	}

	if c.HTTP.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT は正の値である必要があります")
	}

	if c.Gemini.ImageModelName == "" {
		return fmt.Errorf("GEMINI_IMAGE_MODEL が設定されていません")
	}

	if c.Gemini.AspectRatio == "" {
		return fmt.Errorf("GEMINI_ASPECT_RATIO が設定されていません")
	}

	if c.Gemini.RequestTimeout < 0 {
		return fmt.Errorf("GEMINI_REQUEST_TIMEOUT は0以上である必要があります")
	}

	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES は正の整数である必要があります")
	}

	if c.Session.IdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL は0以上である必要があります")
	}

	if c.Session.IdleTTL > 0 && c.Session.SweepInterval <= 0 {
		return fmt.Errorf("SESSION_SWEEP_INTERVAL は正の値である必要があります")
	}

	return nil
}

// getEnvOrDefault は、環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault は、環境変数を整数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDurationOrDefault は、環境変数を時間として取得し、存在しない場合はデフォルト値を返します
func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は、環境変数を真偽値として取得し、存在しない場合はデフォルト値を返します
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsListOrDefault は、カンマ区切りの環境変数をリストとして取得し、存在しない場合はデフォルト値を返します
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
