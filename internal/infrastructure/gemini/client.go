package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gardenbot/internal/domain"
	"gardenbot/internal/infrastructure/config"

	"google.golang.org/genai"
)

// contentGenerator は、genai.Models のうち本クライアントが利用する部分です
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GardenImageClient は、Gemini APIでガーデン画像の生成・編集を行うクライアントです
// 呼び出しごとの状態は保持せず、リトライも行いません
type GardenImageClient struct {
	models contentGenerator
	config *config.GeminiConfig
}

// NewGardenImageClient は新しいGardenImageClientインスタンスを作成します
// APIキーは起動時に一度だけ読み込んだものを受け取ります
func NewGardenImageClient(ctx context.Context, geminiConfig *config.GeminiConfig) (*GardenImageClient, error) {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}

	if geminiConfig.APIKey == "" {
		log.Printf("警告: GEMINI_API_KEY が設定されていません。画像生成リクエストは失敗します")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}

	return newGardenImageClient(client.Models, geminiConfig), nil
}

// newGardenImageClient は、任意のcontentGeneratorからクライアントを組み立てます
func newGardenImageClient(models contentGenerator, geminiConfig *config.GeminiConfig) *GardenImageClient {
	return &GardenImageClient{
		models: models,
		config: geminiConfig,
	}
}

// Generate は、ガーデンの条件から新しいデザイン画像を生成します
func (g *GardenImageClient) Generate(ctx context.Context, prefs domain.GardenPreferences) (domain.ImageReference, error) {
	prompt := domain.BuildGenerationPrompt(prefs)
	log.Printf("Gemini APIにガーデン画像の生成をリクエスト中: %d文字", len(prompt.Content))

	contents := []*genai.Content{
		genai.NewContentFromText(prompt.Content, genai.RoleUser),
	}

	return g.requestImage(ctx, contents)
}

// Edit は、既存の画像を指示に従って編集します
func (g *GardenImageClient) Edit(ctx context.Context, current domain.ImageReference, instruction string) (domain.ImageReference, error) {
	mimeType, data, err := current.Decode()
	if err != nil {
		return "", fmt.Errorf("編集対象の画像を読み込めません: %w", err)
	}

	prompt := domain.BuildEditPrompt(instruction)
	log.Printf("Gemini APIにガーデン画像の編集をリクエスト中: 画像=%dバイト (%s), 指示=%d文字", len(data), mimeType, len(prompt.Content))

	parts := []*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(prompt.Content),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	return g.requestImage(ctx, contents)
}

// requestImage は、1回だけAPIを呼び出し、最初の画像パートを取り出します
func (g *GardenImageClient) requestImage(ctx context.Context, contents []*genai.Content) (domain.ImageReference, error) {
	if g.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.RequestTimeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(ctx, g.config.ImageModelName, contents, g.createImageConfig())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", domain.NewServiceError(fmt.Errorf("Gemini APIへのリクエストがタイムアウトしました: %w", err))
		}
		return "", domain.NewServiceError(err)
	}

	logResponse(resp)

	return firstInlineImage(resp)
}

// createImageConfig は、画像出力用の生成設定を作成します
func (g *GardenImageClient) createImageConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig: &genai.ImageConfig{
			AspectRatio: g.config.AspectRatio,
		},
		SafetySettings: createSafetySettings(),
	}
}
