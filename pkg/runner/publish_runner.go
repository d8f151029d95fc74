package runner

import (
	"context"

	"github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/publisher"
)

// DefaultPublisherRunner は pkg/publisher を利用した標準実装です。
type DefaultPublisherRunner struct {
	cfg       config.Config
	publisher *publisher.ComicPublisher
}

func NewDefaultPublisherRunner(cfg config.Config, pub *publisher.ComicPublisher) *DefaultPublisherRunner {
	return &DefaultPublisherRunner{
		cfg:       cfg,
		publisher: pub,
	}
}

func (pr *DefaultPublisherRunner) Run(ctx context.Context, comic *domain.GeneratedComic, outputDir string) (publisher.PublishResult, error) {
	opts := publisher.Options{
		OutputDir:     outputDir,
		PanelsPerPage: pr.cfg.PanelsPerPage,
	}

	return pr.publisher.Publish(ctx, comic, opts)
}

// BuildMarkdown は保存処理を行わず、Markdown 文字列のみを生成して返却します。
func (pr *DefaultPublisherRunner) BuildMarkdown(comic *domain.GeneratedComic) string {
	return publisher.BuildMarkdown(comic, pr.cfg.PanelsPerPage, nil)
}
