package application

import (
	"context"

	"gardenbot/internal/domain"
)

// ImageGenerator は、画像生成サービスとの通信を行うクライアントのインターフェースです
type ImageGenerator interface {
	// Generate は、ガーデンの条件から新しいデザイン画像を生成します
	Generate(ctx context.Context, prefs domain.GardenPreferences) (domain.ImageReference, error)

	// Edit は、既存の画像を自然言語の指示に従って編集します
	Edit(ctx context.Context, current domain.ImageReference, instruction string) (domain.ImageReference, error)
}

// ImageDecoder は、アップロードされたファイルのバイト列を画像参照に変換するインターフェースです
type ImageDecoder interface {
	Decode(data []byte) (domain.ImageReference, error)
}
