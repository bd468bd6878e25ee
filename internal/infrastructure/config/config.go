package config

import "time"

// GeminiConfig は、Gemini API関連の設定を定義します
type GeminiConfig struct {
	APIKey         string
	ImageModelName string        // 画像生成・編集用モデル名
	AspectRatio    string        // 出力画像のアスペクト比
	RequestTimeout time.Duration // 1リクエストあたりの待機上限（0で無制限）
}

// DiscordConfig は、Discord関連の設定を定義します
type DiscordConfig struct {
	Enabled  bool
	BotToken string
}

// HTTPConfig は、ブラウザ向けHTTP API関連の設定を定義します
type HTTPConfig struct {
	Enabled         bool
	Addr            string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string // CORSを許可するオリジン（空の場合はCORSヘッダーを付けない）
}

// UploadConfig は、画像アップロード関連の設定を定義します
type UploadConfig struct {
	MaxBytes int64
}

// SessionConfig は、メモリ上のセッション保持に関する設定を定義します
type SessionConfig struct {
	IdleTTL       time.Duration // 最終操作からこの時間が経過したセッションを破棄（0で無効）
	SweepInterval time.Duration // 期限切れセッションを確認する間隔
}

// DefaultGeminiConfig は、デフォルトのGemini設定を返します
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		ImageModelName: "gemini-2.5-flash-image",
		AspectRatio:    "16:9",
		RequestTimeout: 2 * time.Minute,
	}
}

// DefaultUploadConfig は、デフォルトのアップロード設定を返します
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		MaxBytes: 10 << 20,
	}
}

// DefaultSessionConfig は、デフォルトのセッション設定を返します
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		IdleTTL:       24 * time.Hour,
		SweepInterval: 10 * time.Minute,
	}
}
