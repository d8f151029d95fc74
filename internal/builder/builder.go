package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shouni/go-comico-kit/internal/config"
	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/ai/gemini"
	"github.com/shouni/go-comico-kit/pkg/ai/openai"
	"github.com/shouni/go-comico-kit/pkg/asset"
	pkgconfig "github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/storage"
	"github.com/shouni/go-comico-kit/pkg/store"
	"github.com/shouni/go-comico-kit/pkg/workflow"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// NewAppContext は設定から共有コンポーネントを初期化して AppContext を返します。
// API キーが未設定の場合は ai.Unconfigured を使い、生成系の呼び出しだけが失敗するようにします。
func NewAppContext(ctx context.Context, cfg *config.Config) (*AppContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config は必須です")
	}
	timeout := httpTimeout(cfg)
	httpClient := httpkit.New(timeout)

	provider, err := InitializeProvider(ctx, cfg.Comic, httpClient, timeout)
	if err != nil {
		return nil, err
	}

	appCtx := &AppContext{
		Config:     cfg,
		Options:    cfg.Options,
		Provider:   provider,
		httpClient: httpClient,
	}

	comicStore, closer, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	appCtx.Store = comicStore
	if closer != nil {
		appCtx.closers = append(appCtx.closers, closer)
	}

	uploader, err := InitializeUploader(cfg)
	if err != nil {
		return nil, errors.Join(err, appCtx.Close())
	}
	appCtx.Uploader = uploader

	manager, err := workflow.New(workflow.ManagerArgs{
		Config:   cfg.Comic,
		Provider: provider,
		Uploader: uploader,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("ワークフローの初期化に失敗しました: %w", err), appCtx.Close())
	}
	appCtx.Workflow = manager
	appCtx.Pipeline = manager.Pipeline()

	svc, err := manager.BuildComicService(comicStore)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("ComicService の初期化に失敗しました: %w", err), appCtx.Close())
	}
	appCtx.Service = svc

	assistant, err := manager.BuildAssistant()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("Assistant の初期化に失敗しました: %w", err), appCtx.Close())
	}
	appCtx.Assistant = assistant

	slog.InfoContext(ctx, "AppContext initialized",
		"provider", provider.Name(),
		"store", string(cfg.StoreBackend),
		"uploader", uploader != nil)
	return appCtx, nil
}

// InitializeProvider は設定されたプロバイダーのクライアントを初期化します。
// Gemini は httpClient で参照画像を取得し、OpenAI は timeout 付きの http.Client を SDK に渡します。
func InitializeProvider(ctx context.Context, cfg pkgconfig.Config, httpClient httpkit.ClientInterface, timeout time.Duration) (ai.Provider, error) {
	label := providerLabel(cfg.Provider)
	if cfg.APIKey() == "" {
		slog.WarnContext(ctx, "API key is not configured, generation requests will fail", "provider", cfg.Provider)
		return ai.Unconfigured{Label: label}, nil
	}

	switch cfg.Provider {
	case pkgconfig.ProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.ClientArgs{
			APIKey:      cfg.GeminiAPIKey,
			Temperature: cfg.StoryTemperature,
			ImageModel:  cfg.ImageModel,
			HTTPClient:  httpClient,
			Fetcher:     asset.NewHTTPFetcher(httpClient),
		})
		if err != nil {
			return nil, fmt.Errorf("Gemini クライアントの初期化に失敗しました: %w", err)
		}
		return client, nil
	case pkgconfig.ProviderOpenAI:
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, &http.Client{Timeout: timeout})
		if err != nil {
			return nil, fmt.Errorf("OpenAI クライアントの初期化に失敗しました: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("未対応のプロバイダーです: %s", cfg.Provider)
	}
}

// InitializeStore は STORE_BACKEND に応じた ComicStore を初期化します。
// 返り値の closer は接続を持つ保存先の場合だけ non-nil です。
func InitializeStore(ctx context.Context, cfg *config.Config) (store.ComicStore, func() error, error) {
	switch cfg.StoreBackend {
	case config.StoreRedis:
		client, err := store.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("Redis への接続に失敗しました: %w", err)
		}
		s, err := store.NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return s, client.Close, nil
	case config.StoreSupabase:
		s, err := store.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, nil, fmt.Errorf("Supabase クライアントの初期化に失敗しました: %w", err)
		}
		return s, nil, nil
	default:
		return store.NewMemoryStore(), nil, nil
	}
}

// InitializeUploader は Supabase Storage が設定されていれば Uploader を返します。未設定なら nil です。
func InitializeUploader(cfg *config.Config) (storage.Uploader, error) {
	if !cfg.HasStorage() {
		return nil, nil
	}
	up, err := storage.NewSupabaseUploader(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
	if err != nil {
		return nil, fmt.Errorf("Uploader の初期化に失敗しました: %w", err)
	}
	return up, nil
}

func providerLabel(p pkgconfig.Provider) string {
	if p == pkgconfig.ProviderGemini {
		return "Gemini"
	}
	return "OpenAI"
}

func httpTimeout(cfg *config.Config) time.Duration {
	if cfg.Options.HTTPTimeout > 0 {
		return cfg.Options.HTTPTimeout
	}
	return config.DefaultHTTPTimeout
}
