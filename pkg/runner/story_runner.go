package runner

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/director"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/generator"
)

// StoryRunner は画像を生成せずに物語だけを生成します。
type StoryRunner struct {
	writer generator.StoryWriter
}

// NewStoryRunner は依存関係を注入して初期化します。
func NewStoryRunner(writer generator.StoryWriter) (*StoryRunner, error) {
	if writer == nil {
		return nil, fmt.Errorf("StoryWriter は必須です")
	}
	return &StoryRunner{writer: writer}, nil
}

// Run はパネル数を決めてから物語を生成します。
// requestedPanels が 0 の場合は本文中の指定、それも無ければ本文の長さから決めます。
func (sr *StoryRunner) Run(ctx context.Context, storyText string, photoDescriptions []string, requestedPanels int) (domain.StoryContent, error) {
	storyText = strings.TrimSpace(storyText)
	if storyText == "" {
		return domain.StoryContent{}, fmt.Errorf("story text is required")
	}
	if requestedPanels <= 0 {
		requestedPanels = director.ParseRequestedPanels(storyText)
	}
	numPanels := director.ResolvePanelCount(storyText, len(photoDescriptions), requestedPanels)

	slog.InfoContext(ctx, "StoryRunner: Generating story", "panels", numPanels)
	return sr.writer.Synthesize(ctx, storyText, photoDescriptions, numPanels)
}
