package gemini

import (
	"fmt"
	"iter"
	"log"

	"gardenbot/internal/domain"

	"google.golang.org/genai"
)

// responseParts は、最初の候補に含まれるパートを順に返します
func responseParts(resp *genai.GenerateContentResponse) iter.Seq[*genai.Part] {
	return func(yield func(*genai.Part) bool) {
		if resp == nil || len(resp.Candidates) == 0 {
			return
		}
		candidate := resp.Candidates[0]
		if candidate == nil || candidate.Content == nil {
			return
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if !yield(part) {
				return
			}
		}
	}
}

// firstInlineImage は、レスポンスのパートを先頭から調べ、最初の画像データをデータURIとして返します
// 画像パートが見つからない場合は ErrNoImageReturned を返します
func firstInlineImage(resp *genai.GenerateContentResponse) (domain.ImageReference, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: 有効な候補がありません", domain.ErrNoImageReturned)
	}

	candidate := resp.Candidates[0]

	// FinishReasonをチェックして安全フィルターによるブロックを検出
	if candidate != nil && candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: 安全フィルターによってブロックされました (%s)",
			domain.ErrNoImageReturned, formatSafetyRatings(candidate.SafetyRatings))
	}

	for part := range responseParts(resp) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			log.Printf("Gemini APIから画像を取得: %dバイト (%s)", len(part.InlineData.Data), part.InlineData.MIMEType)
			return domain.NewDataURI(part.InlineData.MIMEType, part.InlineData.Data), nil
		}
		if part.Text != "" {
			log.Printf("画像以外のテキストパートを無視: %s", part.Text)
		}
	}

	if candidate != nil && candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("%w: FinishReason=%s", domain.ErrNoImageReturned, candidate.FinishReason)
	}
	return "", domain.ErrNoImageReturned
}

// logResponse は、レスポンスの概要をログ出力します
func logResponse(resp *genai.GenerateContentResponse) {
	if resp == nil {
		log.Printf("Gemini APIレスポンス: 空")
		return
	}

	log.Printf("Gemini APIレスポンス: Candidates数=%d", len(resp.Candidates))
	if len(resp.Candidates) > 0 && resp.Candidates[0] != nil {
		candidate := resp.Candidates[0]
		partCount := 0
		if candidate.Content != nil {
			partCount = len(candidate.Content.Parts)
		}
		log.Printf("Candidate詳細: FinishReason=%s, Parts数=%d", candidate.FinishReason, partCount)
	}
}
