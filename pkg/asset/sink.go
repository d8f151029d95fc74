package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/storage"
)

// UploadSink はバイト列で返ってきたパネル画像をストレージに保存します。
// 保存に失敗した場合は data: URL に埋め込みます。
type UploadSink struct {
	uploader storage.Uploader
	prefix   string
	now      func() time.Time
}

// NewUploadSink は UploadSink を初期化します。prefix は保存先のディレクトリです (例: "generated/panels")。
func NewUploadSink(uploader storage.Uploader, prefix string) (*UploadSink, error) {
	if uploader == nil {
		return nil, fmt.Errorf("uploader is required")
	}
	return &UploadSink{uploader: uploader, prefix: prefix, now: time.Now}, nil
}

// Store は画像を保存して公開 URL を返します。
func (s *UploadSink) Store(ctx context.Context, panelNumber int, img *ai.ImageResult) (string, error) {
	if img == nil || len(img.Data) == 0 {
		return "", fmt.Errorf("%w: no image data", ai.ErrEmptyResponse)
	}
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	objectPath := storage.GeneratedPath(s.prefix, panelNumber, domain.ExtensionForMIME(mimeType), s.now())
	publicURL, err := s.uploader.Upload(ctx, img.Data, objectPath, mimeType)
	if err != nil {
		slog.WarnContext(ctx, "Panel image upload failed, embedding as data URL", "panel_number", panelNumber, "error", err)
		return domain.EncodeDataURL(mimeType, img.Data), nil
	}
	return publicURL, nil
}
