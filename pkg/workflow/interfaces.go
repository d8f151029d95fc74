package workflow

import (
	"context"

	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/publisher"
	"github.com/shouni/go-comico-kit/pkg/runner"
	"github.com/shouni/go-comico-kit/pkg/store"
)

// Workflow は、コミック生成の各工程を担当する Runner を構築するためのインターフェースを定義します。
type Workflow interface {
	BuildStoryRunner() (StoryRunner, error)
	BuildPanelRunner() (PanelRunner, error)
	BuildPublishRunner() PublishRunner
	BuildComicService(s store.ComicStore) (*runner.ComicService, error)
}

// StoryRunner は、本文と写真の説明から物語（タイトル・あらすじ・パネルの説明）を生成する責務を持ちます。
type StoryRunner interface {
	Run(ctx context.Context, storyText string, photoDescriptions []string, requestedPanels int) (domain.StoryContent, error)
}

// PanelRunner は、説明文からパネルを1枚生成する責務を持ちます。
type PanelRunner interface {
	Run(ctx context.Context, panelNumber int, description, style string) (domain.ComicPanel, error)
}

// PublishRunner は、生成したコミックを Markdown と JSON で保存する責務を持ちます。
type PublishRunner interface {
	Run(ctx context.Context, comic *domain.GeneratedComic, outputDir string) (publisher.PublishResult, error)
}

var (
	_ Workflow      = (*Manager)(nil)
	_ StoryRunner   = (*runner.StoryRunner)(nil)
	_ PanelRunner   = (*runner.PanelRunner)(nil)
	_ PublishRunner = (*runner.DefaultPublisherRunner)(nil)
)
