package builder

import (
	"context"
	"testing"

	"github.com/shouni/go-comico-kit/internal/config"
	"github.com/shouni/go-comico-kit/pkg/ai"
	pkgconfig "github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig() *config.Config {
	return &config.Config{
		Comic:        pkgconfig.DefaultConfig(),
		StoreBackend: config.StoreMemory,
		Port:         config.DefaultPort,
	}
}

func TestNewAppContext(t *testing.T) {
	ctx := context.Background()

	t.Run("API キーが無くてもメモリ保存で起動できる", func(t *testing.T) {
		appCtx, err := NewAppContext(ctx, newTestConfig())
		require.NoError(t, err)
		defer appCtx.Close()

		assert.False(t, appCtx.Configured())
		assert.IsType(t, &store.MemoryStore{}, appCtx.Store)
		assert.Nil(t, appCtx.Uploader)
		assert.NotNil(t, appCtx.Service)
		assert.NotNil(t, appCtx.Assistant)

		_, err = appCtx.Assistant.AnalyzePhoto(ctx, "https://example.com/a.jpg")
		assert.ErrorIs(t, err, ai.ErrNotConfigured)
	})

	t.Run("OpenAI のキーがあればクライアントを使う", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Comic.OpenAIAPIKey = "sk-test"
		appCtx, err := NewAppContext(ctx, cfg)
		require.NoError(t, err)
		defer appCtx.Close()

		assert.True(t, appCtx.Configured())
		assert.Equal(t, "openai", appCtx.Provider.Name())
	})

	t.Run("Gemini のキーがあれば共有の HTTP クライアントで初期化する", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Comic = pkgconfig.DefaultGeminiConfig()
		cfg.Comic.GeminiAPIKey = "g-test"
		appCtx, err := NewAppContext(ctx, cfg)
		require.NoError(t, err)
		defer appCtx.Close()

		assert.True(t, appCtx.Configured())
		assert.Equal(t, "gemini", appCtx.Provider.Name())
		assert.NotNil(t, appCtx.httpClient)
	})

	t.Run("Supabase の設定があれば Uploader を作る", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.SupabaseURL = "https://x.supabase.co"
		cfg.SupabaseServiceKey = "service"
		cfg.SupabaseBucket = "photos"
		appCtx, err := NewAppContext(ctx, cfg)
		require.NoError(t, err)
		defer appCtx.Close()

		assert.NotNil(t, appCtx.Uploader)
	})

	t.Run("nil 設定はエラー", func(t *testing.T) {
		_, err := NewAppContext(ctx, nil)
		assert.Error(t, err)
	})
}

func TestInitializeStore(t *testing.T) {
	ctx := context.Background()

	t.Run("redis を選ぶと RedisStore になり Close で接続を閉じる", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := newTestConfig()
		cfg.StoreBackend = config.StoreRedis
		cfg.RedisURL = "redis://" + mr.Addr()

		s, closer, err := InitializeStore(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &store.RedisStore{}, s)
		require.NotNil(t, closer)
		assert.NoError(t, closer())
	})

	t.Run("接続できない redis はエラー", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.StoreBackend = config.StoreRedis
		cfg.RedisURL = "redis://127.0.0.1:1"

		_, _, err := InitializeStore(ctx, cfg)
		assert.Error(t, err)
	})

	t.Run("supabase を選ぶと SupabaseStore になる", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.StoreBackend = config.StoreSupabase
		cfg.SupabaseURL = "https://x.supabase.co"
		cfg.SupabaseServiceKey = "service"

		s, closer, err := InitializeStore(ctx, cfg)
		require.NoError(t, err)
		assert.IsType(t, &store.SupabaseStore{}, s)
		assert.Nil(t, closer)
	})
}

func TestBuildRunners(t *testing.T) {
	appCtx, err := NewAppContext(context.Background(), newTestConfig())
	require.NoError(t, err)

	_, err = appCtx.Workflow.BuildStoryRunner()
	assert.NoError(t, err)
	_, err = appCtx.Workflow.BuildPanelRunner()
	assert.NoError(t, err)
	assert.NotNil(t, appCtx.Workflow.BuildPublishRunner())
}
