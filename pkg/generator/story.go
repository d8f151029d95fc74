package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/parser"
	"github.com/shouni/go-comico-kit/pkg/prompts"
)

// StorySynthesizer は物語本文と写真の説明から、タイトル、物語、パネルごとのキャプションを生成します。
type StorySynthesizer struct {
	chat        ai.ChatModel
	builder     prompts.ScriptPrompt
	model       string
	temperature float32
	maxTokens   int
}

var _ StoryWriter = (*StorySynthesizer)(nil)

// NewStorySynthesizer は StorySynthesizer を初期化します。
func NewStorySynthesizer(chat ai.ChatModel, builder prompts.ScriptPrompt, model string, temperature float32, maxTokens int) (*StorySynthesizer, error) {
	if chat == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	return &StorySynthesizer{
		chat:        chat,
		builder:     builder,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}, nil
}

// Synthesize は1回のチャット呼び出しで物語を生成します。
// 応答が不正な場合は domain.ErrInvalidStory をラップしたエラーを返します。
// キャプション数は numPanels に揃えて返します。
func (s *StorySynthesizer) Synthesize(ctx context.Context, storyText string, photoDescriptions []string, numPanels int) (domain.StoryContent, error) {
	prompt, err := s.builder.Build(prompts.ModeStory, prompts.TemplateData{
		Story:             storyText,
		NumPanels:         numPanels,
		PhotoDescriptions: photoDescriptions,
	})
	if err != nil {
		return domain.StoryContent{}, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	slog.InfoContext(ctx, "StorySynthesizer: Calling chat model",
		"model", s.model,
		"panels", numPanels,
		"photo_descriptions", len(photoDescriptions),
	)
	raw, err := s.chat.Complete(ctx, ai.ChatRequest{
		Model:        s.model,
		SystemPrompt: prompts.StorySystemPrompt,
		Prompt:       prompt,
		Temperature:  s.temperature,
		MaxTokens:    s.maxTokens,
		JSON:         true,
	})
	if err != nil {
		return domain.StoryContent{}, fmt.Errorf("failed to generate story: %w", err)
	}

	story, err := parser.ParseStory(raw)
	if err != nil {
		return domain.StoryContent{}, fmt.Errorf("failed to generate story: %w", err)
	}
	story.PanelCaptions = parser.NormalizeCaptions(story.PanelCaptions, numPanels)

	slog.InfoContext(ctx, "Story content generated", "title", story.Title, "captions", len(story.PanelCaptions))
	return story, nil
}
