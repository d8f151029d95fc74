package generator

import (
	"context"
	"fmt"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
)

const (
	// defaultImageMIMEType はプロバイダーが MIME タイプを返さなかった場合に使います。
	defaultImageMIMEType = "image/png"
	// logExcerptLength はログに出す説明文の長さです。
	logExcerptLength = 100
)

// DataURLSink は画像を data: URL に埋め込みます。ストレージが無い場合の既定の ImageSink です。
type DataURLSink struct{}

// Store は画像を data: URL に変換します。
func (DataURLSink) Store(_ context.Context, _ int, img *ai.ImageResult) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("%w: no image data", ai.ErrEmptyResponse)
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = defaultImageMIMEType
	}
	return domain.EncodeDataURL(mimeType, img.Data), nil
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
