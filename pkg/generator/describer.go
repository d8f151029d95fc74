package generator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/prompts"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
)

// PhotoDescriber は写真をビジョンモデルで説明します。
// 成功した説明だけをキャッシュし、同じ写真への同時リクエストは1回の呼び出しにまとめます。
type PhotoDescriber struct {
	vision    ai.VisionModel
	model     string
	maxTokens int
	cache     *cache.Cache
	group     singleflight.Group
}

var _ PhotosDescriber = (*PhotoDescriber)(nil)

// NewPhotoDescriber は PhotoDescriber を初期化します。ttl が 0 以下の場合はキャッシュしません。
func NewPhotoDescriber(vision ai.VisionModel, model string, maxTokens int, ttl time.Duration) (*PhotoDescriber, error) {
	if vision == nil {
		return nil, fmt.Errorf("vision model is required")
	}
	if model == "" {
		return nil, fmt.Errorf("vision model name is required")
	}

	d := &PhotoDescriber{
		vision:    vision,
		model:     model,
		maxTokens: maxTokens,
	}
	if ttl > 0 {
		d.cache = cache.New(ttl, 2*ttl)
	}
	return d, nil
}

// Describe は写真1枚を説明します。失敗した結果はキャッシュしません。
func (d *PhotoDescriber) Describe(ctx context.Context, photo domain.PhotoInput) (string, error) {
	key, err := cacheKey(photo)
	if err != nil {
		return "", err
	}

	if d.cache != nil {
		if v, ok := d.cache.Get(key); ok {
			if desc, ok := v.(string); ok {
				slog.DebugContext(ctx, "写真の説明をキャッシュから取得しました", "kind", photo.Kind.String())
				return desc, nil
			}
		}
	}

	val, err, _ := d.group.Do(key, func() (interface{}, error) {
		desc, err := d.vision.DescribeImage(ctx, ai.VisionRequest{
			Model:     d.model,
			Prompt:    prompts.PhotoAnalysisPrompt,
			Image:     ai.ImageRefFromPhoto(photo),
			MaxTokens: d.maxTokens,
		})
		if err != nil {
			return nil, err
		}
		if d.cache != nil {
			d.cache.SetDefault(key, desc)
		}
		return desc, nil
	})
	if err != nil {
		return "", err
	}

	desc, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type from singleflight: %T", val)
	}
	return desc, nil
}

// DescribeAll は写真を入力順に1枚ずつ説明します。
// 個々の失敗はログに残して結果に記録し、残りの写真の処理は続けます。
func (d *PhotoDescriber) DescribeAll(ctx context.Context, photos []domain.PhotoInput) []domain.Result[string] {
	results := make([]domain.Result[string], len(photos))
	for i, photo := range photos {
		logger := slog.With("photo_index", i+1, "photo_total", len(photos), "kind", photo.Kind.String())
		logger.InfoContext(ctx, "Starting photo analysis")

		desc, err := d.Describe(ctx, photo)
		results[i] = domain.Result[string]{Index: i, Value: desc, Err: err}
		if err != nil {
			logger.WarnContext(ctx, "Photo analysis failed, continuing without it", "error", err)
			continue
		}
		logger.InfoContext(ctx, "Photo analysis completed", "description", excerpt(desc, logExcerptLength))
	}
	return results
}

// cacheKey は URL 参照なら URL を、データを持つ写真ならその SHA-256 をキーにします。
func cacheKey(photo domain.PhotoInput) (string, error) {
	if photo.Kind == domain.PhotoKindRemoteURL && photo.URL != "" {
		return "url:" + photo.URL, nil
	}
	if photo.HasData() {
		sum := sha256.Sum256(photo.Data)
		return "sha256:" + hex.EncodeToString(sum[:]), nil
	}
	return "", fmt.Errorf("%w: photo has neither URL nor data", domain.ErrUnsupportedPhotoRef)
}
