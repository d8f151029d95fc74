package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/ai/aitest"
	"github.com/shouni/go-comico-kit/pkg/config"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/prompts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.RateInterval = 0
	return cfg
}

func TestPhotoDescriber_DescribeAll(t *testing.T) {
	t.Run("入力順に1枚ずつ処理し、失敗は結果に記録して続行する", func(t *testing.T) {
		fake := &aitest.FakeProvider{
			DescribeFunc: func(req ai.VisionRequest) (string, error) {
				if strings.Contains(req.Image.URL, "broken") {
					return "", errors.New("vision outage")
				}
				return "desc of " + req.Image.URL, nil
			},
		}
		d, err := NewPhotoDescriber(fake, "gpt-4o", 400, time.Minute)
		require.NoError(t, err)

		photos := []domain.PhotoInput{
			domain.NewURLPhoto("https://example.com/a.jpg"),
			domain.NewURLPhoto("https://example.com/broken.jpg"),
			domain.NewURLPhoto("https://example.com/c.jpg"),
		}
		results := d.DescribeAll(context.Background(), photos)

		require.Len(t, results, 3)
		assert.True(t, results[0].OK())
		assert.False(t, results[1].OK())
		assert.Equal(t, "desc of https://example.com/c.jpg", results[2].Value)
		assert.Equal(t, []string{"desc of https://example.com/a.jpg", "desc of https://example.com/c.jpg"}, domain.Values(results))

		require.Len(t, fake.VisionRequests, 3)
		assert.Equal(t, "https://example.com/a.jpg", fake.VisionRequests[0].Image.URL)
		assert.Equal(t, 400, fake.VisionRequests[0].MaxTokens)
		assert.Equal(t, prompts.PhotoAnalysisPrompt, fake.VisionRequests[0].Prompt)
	})

	t.Run("失敗はキャッシュせず、再試行で成功すればその結果を返す", func(t *testing.T) {
		calls := 0
		fake := &aitest.FakeProvider{
			DescribeFunc: func(req ai.VisionRequest) (string, error) {
				calls++
				if calls == 1 {
					return "", errors.New("transient outage")
				}
				return "a dog", nil
			},
		}
		d, err := NewPhotoDescriber(fake, "gpt-4o", 400, time.Minute)
		require.NoError(t, err)
		photo := domain.NewRawPhoto("dog.png", []byte("\x89PNG\r\n\x1a\nfake"))

		_, err = d.Describe(context.Background(), photo)
		require.Error(t, err)

		desc, err := d.Describe(context.Background(), photo)
		require.NoError(t, err)
		assert.Equal(t, "a dog", desc)

		desc, err = d.Describe(context.Background(), photo)
		require.NoError(t, err)
		assert.Equal(t, "a dog", desc)
		assert.Equal(t, 2, calls, "成功後はキャッシュから返す")
	})

	t.Run("URL もデータも無い写真はエラー", func(t *testing.T) {
		d, err := NewPhotoDescriber(&aitest.FakeProvider{}, "gpt-4o", 400, 0)
		require.NoError(t, err)
		_, err = d.Describe(context.Background(), domain.PhotoInput{Kind: domain.PhotoKindRawBytes})
		assert.ErrorIs(t, err, domain.ErrUnsupportedPhotoRef)
	})

	t.Run("必須の依存が無ければエラー", func(t *testing.T) {
		_, err := NewPhotoDescriber(nil, "gpt-4o", 400, 0)
		assert.Error(t, err)
	})
}

func TestStorySynthesizer_Synthesize(t *testing.T) {
	builder, err := prompts.NewTextPromptBuilder()
	require.NoError(t, err)

	t.Run("JSON モードで1回だけ呼び出す", func(t *testing.T) {
		fake := &aitest.FakeProvider{}
		s, err := NewStorySynthesizer(fake, builder, "gpt-4-turbo-preview", 0.8, 1500)
		require.NoError(t, err)

		story, err := s.Synthesize(context.Background(), "A dog finds a key in the garden.", []string{"A brown dog."}, 4)
		require.NoError(t, err)
		assert.Equal(t, "The Key", story.Title)
		assert.Len(t, story.PanelCaptions, 4)

		require.Len(t, fake.ChatRequests, 1)
		req := fake.ChatRequests[0]
		assert.True(t, req.JSON)
		assert.Equal(t, float32(0.8), req.Temperature)
		assert.Equal(t, 1500, req.MaxTokens)
		assert.Equal(t, prompts.StorySystemPrompt, req.SystemPrompt)
		assert.Contains(t, req.Prompt, "PHOTO 1:\nA brown dog.")
	})

	t.Run("キャプションが足りなければ最後を繰り返して揃える", func(t *testing.T) {
		fake := &aitest.FakeProvider{CompleteFunc: func(ai.ChatRequest) (string, error) {
			return `{"title":"T","narrative":"N","panelCaptions":["a","b"]}`, nil
		}}
		s, err := NewStorySynthesizer(fake, builder, "m", 0.8, 1500)
		require.NoError(t, err)

		story, err := s.Synthesize(context.Background(), "story", nil, 4)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "b", "b"}, story.PanelCaptions)
	})

	t.Run("必須項目が欠けていれば ErrInvalidStory", func(t *testing.T) {
		fake := &aitest.FakeProvider{CompleteFunc: func(ai.ChatRequest) (string, error) {
			return `{"title":"T","panelCaptions":["a"]}`, nil
		}}
		s, err := NewStorySynthesizer(fake, builder, "m", 0.8, 1500)
		require.NoError(t, err)

		_, err = s.Synthesize(context.Background(), "story", nil, 4)
		assert.ErrorIs(t, err, domain.ErrInvalidStory)
	})

	t.Run("プロバイダーのエラーは分類を保ったまま返す", func(t *testing.T) {
		fake := &aitest.FakeProvider{CompleteFunc: func(ai.ChatRequest) (string, error) {
			return "", ai.ErrBillingLimit
		}}
		s, err := NewStorySynthesizer(fake, builder, "m", 0.8, 1500)
		require.NoError(t, err)

		_, err = s.Synthesize(context.Background(), "story", nil, 4)
		assert.True(t, ai.IsBillingLimit(err))
	})
}

func TestPanelGenerator_Execute(t *testing.T) {
	captions := []string{"one", "two", "three", "four"}

	t.Run("失敗したパネルも error 状態で保持し、残りの生成を続ける", func(t *testing.T) {
		fake := &aitest.FakeProvider{}
		fake.ImageFunc = func(req ai.ImageRequest) (*ai.ImageResult, error) {
			if strings.Contains(req.Prompt, "Story scene: two") {
				return nil, errors.New("content policy")
			}
			return &ai.ImageResult{URL: "https://img.example.com/ok.png"}, nil
		}
		pg, err := NewPanelGenerator(fake, prompts.NewPanelPromptBuilder(3900), nil, nil, testConfig())
		require.NoError(t, err)

		results := pg.Execute(context.Background(), captions, "comic", []string{"A brown dog."})
		require.Len(t, results, 4)

		for i, r := range results {
			assert.Equal(t, i+1, r.Value.PanelNumber, "パネル番号は1始まりで連続する")
			assert.Equal(t, captions[i], r.Value.Description)
		}
		assert.Equal(t, domain.PanelStatusError, results[1].Value.Status)
		assert.Empty(t, results[1].Value.ImageURL)
		assert.Error(t, results[1].Err)
		assert.Equal(t, domain.PanelStatusGenerated, results[3].Value.Status)
		assert.Equal(t, 1, domain.CountFailures(results))

		require.Len(t, fake.ImageRequests, 4)
		assert.Contains(t, fake.ImageRequests[0].Prompt, "Opening scene: one")
		assert.Contains(t, fake.ImageRequests[3].Prompt, "Climactic scene: four")
		assert.Contains(t, fake.ImageRequests[0].Prompt, "Reference Photo 1: A brown dog.")
		assert.Equal(t, "dall-e-3", fake.ImageRequests[0].Model)
		assert.Equal(t, "hd", fake.ImageRequests[0].Quality)
		assert.Equal(t, "vivid", fake.ImageRequests[0].Style)
	})

	t.Run("バイト列の画像は sink で URL に変換する", func(t *testing.T) {
		fake := &aitest.FakeProvider{ImageFunc: func(ai.ImageRequest) (*ai.ImageResult, error) {
			return &ai.ImageResult{Data: []byte("png"), MIMEType: "image/png"}, nil
		}}
		pg, err := NewPanelGenerator(fake, prompts.NewPanelPromptBuilder(3900), nil, nil, testConfig())
		require.NoError(t, err)

		results := pg.Execute(context.Background(), captions[:1], "comic", nil)
		require.True(t, results[0].OK())
		assert.Equal(t, "data:image/png;base64,cG5n", results[0].Value.ImageURL)
	})

	t.Run("呼び出し間隔をリミッターで空ける", func(t *testing.T) {
		fake := &aitest.FakeProvider{}
		cfg := testConfig()
		cfg.RateInterval = 50 * time.Millisecond
		pg, err := NewPanelGenerator(fake, prompts.NewPanelPromptBuilder(3900), nil, nil, cfg)
		require.NoError(t, err)

		start := time.Now()
		results := pg.Execute(context.Background(), captions[:3], "comic", nil)
		assert.Len(t, results, 3)
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("同時に実行しても呼び出し間隔を共有する", func(t *testing.T) {
		fake := &aitest.FakeProvider{}
		cfg := testConfig()
		cfg.RateInterval = 40 * time.Millisecond
		pg, err := NewPanelGenerator(fake, prompts.NewPanelPromptBuilder(3900), nil, nil, cfg)
		require.NoError(t, err)

		start := time.Now()
		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pg.Execute(context.Background(), captions[:2], "comic", nil)
			}()
		}
		wg.Wait()

		_, _, images := fake.Calls()
		assert.Equal(t, 4, images)
		assert.GreaterOrEqual(t, time.Since(start), 110*time.Millisecond)
	})

	t.Run("キャンセル済みのコンテキストでも全パネル分の結果を返す", func(t *testing.T) {
		fake := &aitest.FakeProvider{}
		pg, err := NewPanelGenerator(fake, prompts.NewPanelPromptBuilder(3900), nil, nil, testConfig())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		results := pg.Execute(ctx, captions, "comic", nil)
		require.Len(t, results, 4)
		assert.Equal(t, 4, domain.CountFailures(results))
		_, _, images := fake.Calls()
		assert.Zero(t, images)
	})
}

func TestAssistant(t *testing.T) {
	builder, err := prompts.NewTextPromptBuilder()
	require.NoError(t, err)

	t.Run("写真の説明を返す", func(t *testing.T) {
		fake := &aitest.FakeProvider{}
		a, err := NewAssistant(fake, builder, "gpt-4o-mini", 300, 0.8)
		require.NoError(t, err)

		desc, err := a.AnalyzePhoto(context.Background(), "https://example.com/a.jpg")
		require.NoError(t, err)
		assert.NotEmpty(t, desc)
		assert.Equal(t, prompts.ProxyAnalysisPrompt, fake.VisionRequests[0].Prompt)
		assert.Equal(t, 300, fake.VisionRequests[0].MaxTokens)
	})

	t.Run("台本の JSON をそのまま返す", func(t *testing.T) {
		fake := &aitest.FakeProvider{CompleteFunc: func(ai.ChatRequest) (string, error) {
			return "```json\n{\"title\":\"Beach\",\"panels\":[]}\n```", nil
		}}
		a, err := NewAssistant(fake, builder, "gpt-4o-mini", 300, 0.8)
		require.NoError(t, err)

		out, err := a.DraftStory(context.Background(), "beach day", []string{"sand"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"Beach","panels":[]}`, string(out))
	})

	t.Run("JSON でなければエラー", func(t *testing.T) {
		fake := &aitest.FakeProvider{CompleteFunc: func(ai.ChatRequest) (string, error) {
			return "sorry", nil
		}}
		a, err := NewAssistant(fake, builder, "gpt-4o-mini", 300, 0.8)
		require.NoError(t, err)

		_, err = a.DraftStory(context.Background(), "beach day", nil)
		assert.Error(t, err)
	})
}
