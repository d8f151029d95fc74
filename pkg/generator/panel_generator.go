package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/prompts"

	"golang.org/x/time/rate"
)

// PanelGenerator は、キャプションごとのパネル画像を1枚ずつ順番に生成します。
// 呼び出し間隔は RateLimiter で制御し、個々のパネルの失敗は他のパネルの生成を止めません。
type PanelGenerator struct {
	imageModel    ai.ImageModel
	promptBuilder prompts.ImagePrompt
	limiter       *rate.Limiter
	sink          ImageSink
	request       ai.ImageRequest
}

var _ PanelsImageGenerator = (*PanelGenerator)(nil)

// NewPanelGenerator は PanelGenerator の新しいインスタンスを初期化します。
// limiter が nil の場合は cfg.RateInterval ごとに1回の呼び出しを許可します。
// sink が nil の場合はバイト列の画像を data: URL に埋め込みます。
func NewPanelGenerator(imageModel ai.ImageModel, pb prompts.ImagePrompt, limiter *rate.Limiter, sink ImageSink, cfg config.Config) (*PanelGenerator, error) {
	if imageModel == nil {
		return nil, fmt.Errorf("image model is required")
	}
	if pb == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	if limiter == nil {
		limiter = NewRateLimiter(cfg.RateInterval)
	}
	if sink == nil {
		sink = DataURLSink{}
	}

	return &PanelGenerator{
		imageModel:    imageModel,
		promptBuilder: pb,
		limiter:       limiter,
		sink:          sink,
		request: ai.ImageRequest{
			Model:   cfg.ImageModel,
			Size:    cfg.ImageSize,
			Quality: cfg.ImageQuality,
			Style:   cfg.ImageStyle,
		},
	}, nil
}

// NewRateLimiter は interval ごとに1回だけ呼び出しを許可するリミッターを返します。
// interval が 0 以下の場合は制限しません。
func NewRateLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// Execute は、キャプションの順にパネルを生成します。
// 返り値の長さは常に len(captions) で、失敗したパネルも error 状態の ComicPanel を Value に持ちます。
func (pg *PanelGenerator) Execute(ctx context.Context, captions []string, style string, photoDescriptions []string) []domain.Result[domain.ComicPanel] {
	panelPrompts := pg.promptBuilder.BuildPanels(captions, style, photoDescriptions)
	slog.InfoContext(ctx, "Panel prompts created",
		"panels", len(panelPrompts),
		"photo_references", len(photoDescriptions),
		"style", style,
	)

	results := make([]domain.Result[domain.ComicPanel], len(captions))
	for i, caption := range captions {
		results[i] = pg.GeneratePanel(ctx, i+1, caption, panelPrompts[i])
		results[i].Index = i
	}
	return results
}

// GeneratePanel は1枚のパネルを生成します。失敗時は error 状態のパネルとエラーを返します。
func (pg *PanelGenerator) GeneratePanel(ctx context.Context, panelNumber int, description, prompt string) domain.Result[domain.ComicPanel] {
	logger := slog.With("panel_number", panelNumber)
	failed := func(err error) domain.Result[domain.ComicPanel] {
		logger.ErrorContext(ctx, "Panel generation failed", "error", err)
		return domain.Result[domain.ComicPanel]{
			Index: panelNumber - 1,
			Value: domain.NewFailedPanel(panelNumber, description),
			Err:   fmt.Errorf("panel %d generation failed: %w", panelNumber, err),
		}
	}

	if err := pg.limiter.Wait(ctx); err != nil {
		return failed(err)
	}

	logger.InfoContext(ctx, "Starting panel generation")
	startTime := time.Now()

	req := pg.request
	req.Prompt = prompt
	img, err := pg.imageModel.GenerateImage(ctx, req)
	if err != nil {
		return failed(err)
	}

	imageURL, err := pg.resolveURL(ctx, panelNumber, img)
	if err != nil {
		return failed(err)
	}

	logger.InfoContext(ctx, "Panel generation completed", "duration", time.Since(startTime).Round(time.Millisecond))
	return domain.Result[domain.ComicPanel]{
		Index: panelNumber - 1,
		Value: domain.NewGeneratedPanel(panelNumber, description, imageURL),
	}
}

// GenerateImageURL はパネル以外の単発の画像生成 (バリエーション等) に使います。
func (pg *PanelGenerator) GenerateImageURL(ctx context.Context, prompt string) (string, error) {
	if err := pg.limiter.Wait(ctx); err != nil {
		return "", err
	}
	req := pg.request
	req.Prompt = prompt
	img, err := pg.imageModel.GenerateImage(ctx, req)
	if err != nil {
		return "", err
	}
	return pg.resolveURL(ctx, 0, img)
}

func (pg *PanelGenerator) resolveURL(ctx context.Context, panelNumber int, img *ai.ImageResult) (string, error) {
	if img == nil {
		return "", fmt.Errorf("%w: nil image result", ai.ErrEmptyResponse)
	}
	if img.URL != "" {
		return img.URL, nil
	}
	return pg.sink.Store(ctx, panelNumber, img)
}
