package domain

import (
	"fmt"
	"strings"
)

// ImagePrompt は、画像生成サービスに送る指示文を表すドメインオブジェクトです
type ImagePrompt struct {
	Content string `json:"content"`
	Type    string `json:"type"` // "garden_generation", "garden_edit"
}

const (
	PromptTypeGeneration = "garden_generation"
	PromptTypeEdit       = "garden_edit"
)

// BuildGenerationPrompt は、ガーデンの条件から新規デザイン用のプロンプトを組み立てます
// 同じ条件からは常に同じ文字列が得られます
func BuildGenerationPrompt(prefs GardenPreferences) ImagePrompt {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("A professional architectural 3D render of a %s garden. ", prefs.Style))
	builder.WriteString(fmt.Sprintf("Size: %s. Lighting: %s. ", prefs.Size, prefs.Sunlight))

	details := strings.TrimSpace(prefs.CustomDescription)
	if len(prefs.Features) > 0 {
		featuring := "featuring " + strings.Join(prefs.Features, ", ")
		if details == "" {
			details = featuring
		} else {
			details += " " + featuring
		}
	}
	if details != "" {
		builder.WriteString(fmt.Sprintf("Details: %s. ", details))
	}

	builder.WriteString("High-end landscape design, photorealistic, 4k resolution, beautiful composition, ")
	builder.WriteString("wide 16:9 architectural render.")

	return ImagePrompt{
		Content: builder.String(),
		Type:    PromptTypeGeneration,
	}
}

// BuildEditPrompt は、既存画像を編集するためのプロンプトを組み立てます
func BuildEditPrompt(instruction string) ImagePrompt {
	content := fmt.Sprintf(
		"Modify this garden design according to this request: %s. "+
			"Maintain the overall layout but apply the changes seamlessly. "+
			"Photorealistic, professional landscape photography style.",
		strings.TrimSpace(instruction),
	)

	return ImagePrompt{
		Content: content,
		Type:    PromptTypeEdit,
	}
}
