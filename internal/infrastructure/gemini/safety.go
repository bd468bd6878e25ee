package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// blockedCategories は、中程度以上でブロックする有害カテゴリです
var blockedCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

var categoryLabels = map[genai.HarmCategory]string{
	genai.HarmCategoryHarassment:       "ハラスメント",
	genai.HarmCategoryHateSpeech:       "ヘイトスピーチ",
	genai.HarmCategorySexuallyExplicit: "性的表現",
	genai.HarmCategoryDangerousContent: "危険なコンテンツ",
}

var probabilityLabels = map[genai.HarmProbability]string{
	genai.HarmProbabilityNegligible: "無視できるレベル",
	genai.HarmProbabilityLow:        "低レベル",
	genai.HarmProbabilityMedium:     "中レベル",
	genai.HarmProbabilityHigh:       "高レベル",
}

// createSafetySettings は、安全フィルター設定を作成します
func createSafetySettings() []*genai.SafetySetting {
	settings := make([]*genai.SafetySetting, 0, len(blockedCategories))
	for _, category := range blockedCategories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockMediumAndAbove,
		})
	}
	return settings
}

// formatSafetyRatings は、ブロック理由を「カテゴリ: 確率」の一覧にします
func formatSafetyRatings(ratings []*genai.SafetyRating) string {
	var details []string
	for _, rating := range ratings {
		if rating == nil {
			continue
		}
		details = append(details, fmt.Sprintf("%s: %s",
			labelOr(categoryLabels, rating.Category),
			labelOr(probabilityLabels, rating.Probability)))
	}

	if len(details) == 0 {
		return "詳細情報なし"
	}
	return strings.Join(details, ", ")
}

// labelOr は、日本語の表示名を返します。未知の値はそのまま返します
func labelOr[K ~string](labels map[K]string, key K) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return string(key)
}
