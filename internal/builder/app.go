package builder

import (
	"errors"

	"github.com/shouni/go-comico-kit/internal/config"
	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/generator"
	"github.com/shouni/go-comico-kit/pkg/pipeline"
	"github.com/shouni/go-comico-kit/pkg/runner"
	"github.com/shouni/go-comico-kit/pkg/storage"
	"github.com/shouni/go-comico-kit/pkg/store"
	"github.com/shouni/go-comico-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各Build関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config     *config.Config          // Configは、環境変数から読み込まれたグローバルな設定です（APIキー、保存先など）。
	Options    config.GenerateOptions  // Optionsは、コマンドラインから渡された実行時の設定です（パネル数、画風など）。
	Provider   ai.Provider             // Providerは、写真解析・物語生成・画像生成に使う AI プロバイダーです。
	Store      store.ComicStore        // Storeは、コミックと注文の保存先です。
	Uploader   storage.Uploader        // Uploaderは、写真とパネル画像の保存先です。未設定なら nil です。
	Workflow   *workflow.Manager       // Workflowは、各工程の Runner を構築します。
	Pipeline   *pipeline.Pipeline      // Pipelineは、写真からコミックを生成するパイプラインです。
	Service    *runner.ComicService    // Serviceは、コミックレコードのライフサイクルを管理します。
	Assistant  *generator.Assistant    // Assistantは、analyze-photo / generate-story 用の軽量な呼び出しです。
	httpClient httpkit.ClientInterface // httpClient は外部APIとの通信に使う共通クライアント
	closers    []func() error
}

// Configured は AI プロバイダーの API キーが設定されているかを返します。
func (a *AppContext) Configured() bool {
	_, unconfigured := a.Provider.(ai.Unconfigured)
	return !unconfigured
}

// Close は保持している接続を閉じます。
func (a *AppContext) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
