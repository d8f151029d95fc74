package workflow

import (
	"fmt"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/generator"
	"github.com/shouni/go-comico-kit/pkg/pipeline"
	"github.com/shouni/go-comico-kit/pkg/prompts"
	"github.com/shouni/go-comico-kit/pkg/publisher"
	"github.com/shouni/go-comico-kit/pkg/runner"
	"github.com/shouni/go-comico-kit/pkg/storage"
	"github.com/shouni/go-comico-kit/pkg/store"
)

// ManagerArgs は Manager の初期化に必要な依存関係です。
type ManagerArgs struct {
	Config   config.Config
	Provider ai.Provider
	// Uploader は写真とパネル画像の保存先です。nil の場合は data: URL で扱います。
	Uploader storage.Uploader
	// Writer は PublishRunner の出力先です。nil の場合はローカルファイルに書き込みます。
	Writer publisher.OutputWriter
	// ScriptPrompt は物語生成のプロンプトです。nil の場合は組み込みのテンプレートを使います。
	ScriptPrompt prompts.ScriptPrompt
}

// Manager は、ワークフローの各工程を担う Runner 群を構築・管理します。
type Manager struct {
	cfg          config.Config
	provider     ai.Provider
	uploader     storage.Uploader
	writer       publisher.OutputWriter
	scriptPrompt prompts.ScriptPrompt
	pipeline     *pipeline.Pipeline
}

// New は、設定とプロバイダーを基に新しい Manager を初期化します。
func New(args ManagerArgs) (*Manager, error) {
	if args.Provider == nil {
		return nil, fmt.Errorf("Provider は必須です")
	}

	sPrompt, err := initializeScriptPrompt(args.ScriptPrompt)
	if err != nil {
		return nil, err
	}

	writer := args.Writer
	if writer == nil {
		writer = publisher.LocalWriter{}
	}

	pl, err := pipeline.Build(args.Config, args.Provider, sPrompt, args.Uploader)
	if err != nil {
		return nil, fmt.Errorf("パイプラインの初期化に失敗しました: %w", err)
	}

	return &Manager{
		cfg:          args.Config,
		provider:     args.Provider,
		uploader:     args.Uploader,
		writer:       writer,
		scriptPrompt: sPrompt,
		pipeline:     pl,
	}, nil
}

// initializeScriptPrompt は ScriptPrompt ビルダーを初期化します。
// 引数として既存のビルダーが渡された場合はそれを返し、nil の場合は新規作成します。
func initializeScriptPrompt(scriptPrompt prompts.ScriptPrompt) (prompts.ScriptPrompt, error) {
	if scriptPrompt != nil {
		return scriptPrompt, nil
	}

	pb, err := prompts.NewTextPromptBuilder()
	if err != nil {
		return nil, fmt.Errorf("TextPromptBuilder の新規作成に失敗しました: %w", err)
	}
	return pb, nil
}

// Pipeline は Manager が保持するパイプラインを返します。
func (m *Manager) Pipeline() *pipeline.Pipeline {
	return m.pipeline
}

// BuildStoryRunner は物語生成を担当する Runner を作成します。
func (m *Manager) BuildStoryRunner() (StoryRunner, error) {
	writer, err := generator.NewStorySynthesizer(m.provider, m.scriptPrompt, m.cfg.ChatModel, m.cfg.StoryTemperature, m.cfg.StoryMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("StorySynthesizer の初期化に失敗しました: %w", err)
	}
	return runner.NewStoryRunner(writer)
}

// BuildPanelRunner はパネル1枚の生成を担当する Runner を作成します。
func (m *Manager) BuildPanelRunner() (PanelRunner, error) {
	return runner.NewPanelRunner(m.pipeline)
}

// BuildPublishRunner は成果物の保存を担当する Runner を作成します。
func (m *Manager) BuildPublishRunner() PublishRunner {
	return runner.NewDefaultPublisherRunner(m.cfg, publisher.NewComicPublisher(m.writer))
}

// BuildComicService はコミックレコードのライフサイクルを管理する ComicService を作成します。
// 写真は下書き作成時に保存し、生成時には保存済みの参照を使います。
func (m *Manager) BuildComicService(s store.ComicStore) (*runner.ComicService, error) {
	return runner.NewComicService(s, m.pipeline, m.pipeline.Preparer(), m.uploader)
}

// BuildAssistant は analyze-photo / generate-story 用の Assistant を作成します。
func (m *Manager) BuildAssistant() (*generator.Assistant, error) {
	return generator.NewAssistant(m.provider, m.scriptPrompt, m.cfg.ProxyModel, m.cfg.ProxyMaxTokens, m.cfg.StoryTemperature)
}
