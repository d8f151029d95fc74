package pipeline

import (
	"fmt"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/asset"
	"github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/director"
	"github.com/shouni/go-comico-kit/pkg/generator"
	"github.com/shouni/go-comico-kit/pkg/prompts"
	"github.com/shouni/go-comico-kit/pkg/storage"
)

const (
	panelImagePrefix = "generated/panels"
	// 写真は1枚ずつ順番にアップロードします。
	photoUploadConcurrency = 1
)

// Build は設定とプロバイダーから Pipeline を組み立てます。
// scriptPrompt が nil の場合は組み込みのテンプレートを使います。
// uploader が nil の場合、写真とバイト列で返ったパネル画像は data: URL で扱います。
func Build(cfg config.Config, provider ai.Provider, scriptPrompt prompts.ScriptPrompt, uploader storage.Uploader) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider は必須です")
	}

	describer, err := generator.NewPhotoDescriber(provider, cfg.VisionModel, cfg.VisionMaxTokens, cfg.DescriptionCacheTTL)
	if err != nil {
		return nil, fmt.Errorf("PhotoDescriber の初期化に失敗しました: %w", err)
	}

	if scriptPrompt == nil {
		builtin, err := prompts.NewTextPromptBuilder()
		if err != nil {
			return nil, fmt.Errorf("プロンプトビルダーの初期化に失敗しました: %w", err)
		}
		scriptPrompt = builtin
	}
	writer, err := generator.NewStorySynthesizer(provider, scriptPrompt, cfg.ChatModel, cfg.StoryTemperature, cfg.StoryMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("StorySynthesizer の初期化に失敗しました: %w", err)
	}

	var sink generator.ImageSink
	if uploader != nil {
		uploadSink, err := asset.NewUploadSink(uploader, panelImagePrefix)
		if err != nil {
			return nil, err
		}
		sink = uploadSink
	}

	imagePrompt := prompts.NewPanelPromptBuilder(cfg.MaxPromptLength)
	// リミッターは Pipeline ごとに1つで、同じ API キーを使う同時リクエストの間でも呼び出し間隔を共有します。
	panels, err := generator.NewPanelGenerator(provider, imagePrompt, nil, sink, cfg)
	if err != nil {
		return nil, fmt.Errorf("PanelGenerator の初期化に失敗しました: %w", err)
	}

	return NewPipeline(Components{
		Preparer:       asset.NewPhotoResolver(uploader, photoUploadConcurrency),
		Describer:      describer,
		Writer:         writer,
		Panels:         panels,
		PromptBuilder:  imagePrompt,
		Layout:         director.NewLayoutManager(cfg.PanelsPerPage),
		ProviderName:   provider.Name(),
		RequestTimeout: cfg.RequestTimeout,
	})
}
