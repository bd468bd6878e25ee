package discord

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// AttachmentFetcher は、Discordの添付ファイルをダウンロードします
type AttachmentFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewAttachmentFetcher は新しいAttachmentFetcherインスタンスを作成します
func NewAttachmentFetcher(client *http.Client, maxBytes int64) *AttachmentFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &AttachmentFetcher{
		client:   client,
		maxBytes: maxBytes,
	}
}

// Fetch は、添付ファイルの内容を取得します
// 上限を超えるファイルは読み込まずにエラーを返します
func (f *AttachmentFetcher) Fetch(ctx context.Context, attachment *discordgo.MessageAttachment) ([]byte, error) {
	if attachment == nil {
		return nil, fmt.Errorf("添付ファイルがありません")
	}
	if f.maxBytes > 0 && int64(attachment.Size) > f.maxBytes {
		return nil, fmt.Errorf("添付ファイルが大きすぎます (%dバイト, 上限%dバイト)", attachment.Size, f.maxBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("添付ファイルのリクエスト作成に失敗: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("添付ファイルのダウンロードに失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("添付ファイルのダウンロードに失敗: ステータス %d", resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("添付ファイルの読み込みに失敗: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("添付ファイルが大きすぎます (上限%dバイト)", f.maxBytes)
	}

	return data, nil
}

// isImageAttachment は、添付ファイルが画像かどうかを判定します
func isImageAttachment(attachment *discordgo.MessageAttachment) bool {
	if attachment == nil {
		return false
	}
	if strings.HasPrefix(attachment.ContentType, "image/") {
		return true
	}

	// ContentTypeが空の場合は拡張子で判定
	name := strings.ToLower(attachment.Filename)
	for _, ext := range []string{".png", ".jpg", ".jpeg", ".gif", ".webp"} {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// firstImageAttachment は、最初の画像添付ファイルを返します
func firstImageAttachment(attachments []*discordgo.MessageAttachment) *discordgo.MessageAttachment {
	for _, attachment := range attachments {
		if isImageAttachment(attachment) {
			return attachment
		}
	}
	return nil
}
