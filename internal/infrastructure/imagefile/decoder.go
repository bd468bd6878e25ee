package imagefile

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"gardenbot/internal/domain"

	_ "golang.org/x/image/webp"
)

// mimeTypes は、image.DecodeConfigが返す形式名とメディアタイプの対応です
var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Decoder は、アップロードされた画像ファイルを検査してデータURIに変換します
type Decoder struct {
	maxBytes int64
}

// NewDecoder は新しいDecoderインスタンスを作成します
func NewDecoder(maxBytes int64) *Decoder {
	return &Decoder{maxBytes: maxBytes}
}

// Decode は、ファイルのバイト列から形式を判別し、データURIを返します
// 画素データは変換せず、そのまま埋め込みます
func (d *Decoder) Decode(data []byte) (domain.ImageReference, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: 画像データが空です", domain.ErrUnsupportedImage)
	}
	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return "", fmt.Errorf("%w: 画像が大きすぎます (%dバイト, 上限%dバイト)", domain.ErrUnsupportedImage, len(data), d.maxBytes)
	}

	mimeType, err := DetectMimeType(data)
	if err != nil {
		return "", err
	}

	return domain.NewDataURI(mimeType, data), nil
}

// DetectMimeType は、画像のヘッダーからメディアタイプを判別します
func DetectMimeType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: 画像形式を判別できません: %v", domain.ErrUnsupportedImage, err)
	}

	mimeType, ok := mimeTypes[format]
	if !ok {
		return "", fmt.Errorf("%w: 未対応の形式です: %s", domain.ErrUnsupportedImage, format)
	}
	return mimeType, nil
}
