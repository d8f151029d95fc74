package generator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/parser"
	"github.com/shouni/go-comico-kit/pkg/prompts"
)

// Assistant は analyze-photo と generate-story エンドポイント向けの軽量な呼び出しをまとめます。
// パイプラインとは独立して、1回のモデル呼び出しの結果をそのまま返します。
type Assistant struct {
	provider  ai.Provider
	builder   prompts.ScriptPrompt
	model     string
	maxTokens int
	temp      float32
}

// NewAssistant は Assistant を初期化します。
func NewAssistant(provider ai.Provider, builder prompts.ScriptPrompt, model string, maxTokens int, temperature float32) (*Assistant, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if builder == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	return &Assistant{provider: provider, builder: builder, model: model, maxTokens: maxTokens, temp: temperature}, nil
}

// AnalyzePhoto は画像 URL (data: URL 可) の説明を返します。
func (a *Assistant) AnalyzePhoto(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", fmt.Errorf("imageUrl is required")
	}
	return a.provider.DescribeImage(ctx, ai.VisionRequest{
		Model:     a.model,
		Prompt:    prompts.ProxyAnalysisPrompt,
		Image:     ai.ImageRef{URL: imageURL},
		MaxTokens: a.maxTokens,
	})
}

// DraftStory は写真1枚につき1パネルの簡易な台本を JSON で返します。
func (a *Assistant) DraftStory(ctx context.Context, story string, photoDescriptions []string) (json.RawMessage, error) {
	prompt, err := a.builder.Build(prompts.ModeStoryProxy, prompts.TemplateData{
		Story:             story,
		NumPanels:         len(photoDescriptions),
		PhotoDescriptions: photoDescriptions,
	})
	if err != nil {
		return nil, fmt.Errorf("プロンプト生成に失敗: %w", err)
	}

	raw, err := a.provider.Complete(ctx, ai.ChatRequest{
		Model:        a.model,
		SystemPrompt: prompts.StoryProxySystemPrompt,
		Prompt:       prompt,
		Temperature:  a.temp,
		JSON:         true,
	})
	if err != nil {
		return nil, err
	}

	out := json.RawMessage(parser.ExtractJSON(raw))
	if !json.Valid(out) {
		return nil, fmt.Errorf("%w: story draft is not valid JSON", ai.ErrEmptyResponse)
	}
	return out, nil
}
