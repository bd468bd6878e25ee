package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DefaultImageMimeType は、メディアタイプが分からない画像に用いる既定値です
const DefaultImageMimeType = "image/png"

// ImageReference は、表示可能な画像を一意に指す値です
// 通常は data:<mime>;base64,<payload> 形式のデータURIですが、外部URIも許容します
type ImageReference string

// NewDataURI は、画像のバイト列からデータURIを作成します
func NewDataURI(mimeType string, data []byte) ImageReference {
	if mimeType == "" {
		mimeType = DefaultImageMimeType
	}
	return ImageReference(fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)))
}

// String は参照の文字列表現を返します
func (r ImageReference) String() string {
	return string(r)
}

// IsZero は参照が空かどうかを返します
func (r ImageReference) IsZero() bool {
	return r == ""
}

// IsDataURI はデータURI形式かどうかを返します
func (r ImageReference) IsDataURI() bool {
	return strings.HasPrefix(string(r), "data:") && strings.Contains(string(r), ",")
}

// MimeType はデータURIに含まれるメディアタイプを返します
// 判別できない場合は DefaultImageMimeType を返します
func (r ImageReference) MimeType() string {
	if !r.IsDataURI() {
		return DefaultImageMimeType
	}
	header := strings.TrimPrefix(string(r)[:strings.Index(string(r), ",")], "data:")
	mimeType, _, _ := strings.Cut(header, ";")
	if mimeType == "" {
		return DefaultImageMimeType
	}
	return mimeType
}

// Decode は、参照からメディアタイプと生の画像バイト列を取り出します
func (r ImageReference) Decode() (string, []byte, error) {
	if r.IsZero() {
		return "", nil, fmt.Errorf("%w: 参照が空です", ErrUnsupportedImage)
	}

	payload := StripDataURIPrefix(string(r))
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: base64のデコードに失敗: %v", ErrUnsupportedImage, err)
	}

	return r.MimeType(), data, nil
}

// StripDataURIPrefix は、先頭の "data:<mime>;base64," を取り除いたペイロードを返します
// 接頭辞がない場合は入力をそのまま返すため、二度適用しても結果は変わりません
func StripDataURIPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return s
	}
	_, payload, found := strings.Cut(s, ",")
	if !found {
		return s
	}
	return payload
}
