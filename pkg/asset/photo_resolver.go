package asset

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/storage"

	"golang.org/x/sync/errgroup"
)

// PhotoResolver は写真をストレージに保存して URL 参照に変換します。
// 保存に失敗した写真は data: URL に埋め込み、それもできない写真は取り除きます。
type PhotoResolver struct {
	uploader    storage.Uploader
	concurrency int
	now         func() time.Time
}

// NewPhotoResolver は PhotoResolver を初期化します。
// uploader が nil の場合はすべての写真を data: URL として扱います。
// concurrency は同時アップロード数で、1 以下なら1枚ずつ順番に処理します。
func NewPhotoResolver(uploader storage.Uploader, concurrency int) *PhotoResolver {
	return &PhotoResolver{
		uploader:    uploader,
		concurrency: max(1, concurrency),
		now:         time.Now,
	}
}

// Resolve は写真を入力順のまま参照可能な形に変換します。
// 返り値の各要素は RemoteURL か InlineData で、取り除かれた写真の分だけ短くなります。
func (r *PhotoResolver) Resolve(ctx context.Context, userID, comicID string, photos []domain.PhotoInput) ([]domain.PhotoInput, error) {
	resolved := make([]*domain.PhotoInput, len(photos))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.concurrency)
	for i, photo := range photos {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			resolved[i] = r.resolveOne(egCtx, userID, comicID, i, photo)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("写真の準備が中断されました: %w", err)
	}

	out := make([]domain.PhotoInput, 0, len(photos))
	for _, p := range resolved {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *PhotoResolver) resolveOne(ctx context.Context, userID, comicID string, index int, photo domain.PhotoInput) *domain.PhotoInput {
	logger := slog.With("photo_index", index+1, "kind", photo.Kind.String(), "filename", photo.Filename)

	if photo.Kind == domain.PhotoKindRemoteURL {
		if photo.URL == "" {
			logger.WarnContext(ctx, "Dropping photo without URL")
			return nil
		}
		return &photo
	}

	if !photo.HasData() {
		logger.WarnContext(ctx, "Dropping photo without data")
		return nil
	}

	if r.uploader != nil {
		objectPath := storage.PhotoPath(userID, comicID, photo.Extension(), r.now())
		publicURL, err := r.uploader.Upload(ctx, photo.Data, objectPath, photo.ContentType)
		if err == nil {
			uploaded := domain.NewURLPhoto(publicURL)
			uploaded.Filename = photo.Filename
			uploaded.ContentType = photo.ContentType
			return &uploaded
		}
		logger.WarnContext(ctx, "Photo upload failed, falling back to data URL", "error", err)
	}

	if photo.Kind == domain.PhotoKindInlineData && photo.URL != "" {
		return &photo
	}

	dataURL := domain.EncodeDataURL(photo.ContentType, photo.Data)
	inline, err := domain.ParsePhotoRef(dataURL)
	if err != nil {
		logger.WarnContext(ctx, "Dropping photo, data URL fallback failed", "error", err)
		return nil
	}
	inline.Filename = photo.Filename
	return &inline
}
