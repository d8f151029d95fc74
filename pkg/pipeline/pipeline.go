package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shouni/go-comico-kit/pkg/director"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/generator"
	"github.com/shouni/go-comico-kit/pkg/prompts"
)

// ErrEmptyStory は物語の本文が空の場合のエラーです。
var ErrEmptyStory = errors.New("story text is required")

// Request は1回のコミック生成リクエストです。処理中の状態はすべてこの中に閉じます。
type Request struct {
	StoryText string
	Photos    []domain.PhotoInput
	// RequestedPanels が 0 の場合は本文中の "6 panels" のような指定、それも無ければ本文の長さから決めます。
	RequestedPanels int
	Style           string
	UserID          string
	ComicID         string
	// PhotosResolved が true の場合、Photos は保存済みの参照とみなし、写真の準備 (アップロード) を行いません。
	PhotosResolved bool
}

// Components は Pipeline を構成する部品です。Preparer は省略できます。
type Components struct {
	Preparer      PhotoPreparer
	Describer     generator.PhotosDescriber
	Writer        generator.StoryWriter
	Panels        PanelRenderer
	PromptBuilder prompts.ImagePrompt
	Layout        *director.LayoutManager
	ProviderName  string
	// RequestTimeout は1作品の生成全体にかける時間の上限です。0 以下の場合は制限しません。
	RequestTimeout time.Duration
}

// Pipeline は 写真の準備 → 写真の説明 → 物語生成 → パネル画像生成 を順番に実行する司令塔です。
type Pipeline struct {
	preparer     PhotoPreparer
	describer    generator.PhotosDescriber
	writer       generator.StoryWriter
	panels       PanelRenderer
	prompts      prompts.ImagePrompt
	layout       *director.LayoutManager
	providerName string
	timeout      time.Duration
	now          func() time.Time
}

// NewPipeline は各コンポーネントを受け取り、Pipeline インスタンスを生成します。
func NewPipeline(c Components) (*Pipeline, error) {
	if c.Describer == nil {
		return nil, fmt.Errorf("Describer は必須です")
	}
	if c.Writer == nil {
		return nil, fmt.Errorf("Writer は必須です")
	}
	if c.Panels == nil {
		return nil, fmt.Errorf("Panels は必須です")
	}
	if c.PromptBuilder == nil {
		return nil, fmt.Errorf("PromptBuilder は必須です")
	}
	layout := c.Layout
	if layout == nil {
		layout = director.NewLayoutManager(0)
	}

	return &Pipeline{
		preparer:     c.Preparer,
		describer:    c.Describer,
		writer:       c.Writer,
		panels:       c.Panels,
		prompts:      c.PromptBuilder,
		layout:       layout,
		providerName: c.ProviderName,
		timeout:      c.RequestTimeout,
		now:          time.Now,
	}, nil
}

// Generate は1作品分のコミックを生成します。
// 物語生成に失敗した場合は画像生成を行わずにエラーを返します。
// パネル単位の失敗はエラーにせず、error 状態のパネルとして返します。
func (pl *Pipeline) Generate(ctx context.Context, req Request) (*domain.GeneratedComic, domain.Outcome, error) {
	storyText := strings.TrimSpace(req.StoryText)
	if storyText == "" {
		return nil, domain.OutcomeFailed, ErrEmptyStory
	}

	ctx, cancel := pl.withTimeout(ctx)
	defer cancel()

	requested := req.RequestedPanels
	if requested <= 0 {
		requested = director.ParseRequestedPanels(storyText)
	}
	numPanels := director.ResolvePanelCount(storyText, len(req.Photos), requested)
	style := string(director.ResolveStyle(req.Style))

	logger := slog.With("comic_id", req.ComicID, "user_id", req.UserID)
	logger.InfoContext(ctx, "Comic generation started",
		"photos", len(req.Photos),
		"panels", numPanels,
		"style", style,
	)
	startTime := time.Now()

	// 1. 写真の準備 (アップロード、失敗時は data: URL)
	photos := req.Photos
	if pl.preparer != nil && !req.PhotosResolved && len(photos) > 0 {
		prepared, err := pl.preparer.Resolve(ctx, req.UserID, req.ComicID, photos)
		if err != nil {
			return nil, domain.OutcomeFailed, fmt.Errorf("pipeline: 写真の準備に失敗しました: %w", err)
		}
		photos = prepared
	}

	// 2. 写真の説明 (1枚ずつ順番に、失敗は読み飛ばす)
	descResults := pl.describer.DescribeAll(ctx, photos)
	descriptions := domain.Values(descResults)
	if failed := domain.CountFailures(descResults); failed > 0 {
		logger.WarnContext(ctx, "Some photo descriptions failed", "failed", failed, "described", len(descriptions))
	}

	// 3. 物語生成 (1回だけ、失敗は致命的)
	story, err := pl.writer.Synthesize(ctx, storyText, descriptions, numPanels)
	if err != nil {
		logger.ErrorContext(ctx, "Story synthesis failed", "error", err)
		return nil, domain.OutcomeFailed, fmt.Errorf("pipeline: %w", err)
	}

	// 4. パネル画像生成 (1枚ずつ順番に、失敗はパネル単位)
	results := pl.panels.Execute(ctx, story.PanelCaptions, style, descriptions)
	comic := pl.assemble(story, results, style)
	outcome := comic.Outcome()

	logger.InfoContext(ctx, "Comic generation finished",
		"outcome", outcome,
		"panels", len(comic.Panels),
		"failed_panels", comic.FailedPanels(),
		"total_pages", comic.TotalPages,
		"duration", time.Since(startTime).Round(time.Millisecond),
	)
	return comic, outcome, nil
}

// GenerateFromText は物語生成を行わず、本文を文単位に分割したキャプションでパネルを生成します。
func (pl *Pipeline) GenerateFromText(ctx context.Context, storyText string, numPanels int, style string) (*domain.GeneratedComic, domain.Outcome, error) {
	storyText = strings.TrimSpace(storyText)
	if storyText == "" {
		return nil, domain.OutcomeFailed, ErrEmptyStory
	}
	numPanels = director.ResolvePanelCount(storyText, 0, numPanels)
	resolvedStyle := string(director.ResolveStyle(style))

	ctx, cancel := pl.withTimeout(ctx)
	defer cancel()

	captions := director.SplitStoryIntoPanels(storyText, numPanels)
	story := domain.StoryContent{
		Title:         titleFromCaptions(captions),
		Narrative:     storyText,
		PanelCaptions: captions,
	}

	results := pl.panels.Execute(ctx, captions, resolvedStyle, nil)
	comic := pl.assemble(story, results, resolvedStyle)
	return comic, comic.Outcome(), nil
}

// RegeneratePanel は1枚のパネルだけを作り直します。写真の情報は使いません。
// 失敗した場合も error 状態のパネルを返します。
func (pl *Pipeline) RegeneratePanel(ctx context.Context, panelNumber int, description, style string) (domain.ComicPanel, error) {
	if panelNumber < 1 {
		return domain.ComicPanel{}, fmt.Errorf("panel number must be positive: %d", panelNumber)
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return domain.ComicPanel{}, fmt.Errorf("panel description is required")
	}

	prompt := pl.prompts.BuildPanels([]string{description}, string(director.ResolveStyle(style)), nil)[0]
	result := pl.panels.GeneratePanel(ctx, panelNumber, description, prompt)
	return result.Value, result.Err
}

// CreateVariation は変更指示から画像を1枚生成し、その URL を返します。
func (pl *Pipeline) CreateVariation(ctx context.Context, modifications string) (string, error) {
	modifications = strings.TrimSpace(modifications)
	if modifications == "" {
		return "", fmt.Errorf("modifications are required")
	}
	imageURL, err := pl.panels.GenerateImageURL(ctx, pl.prompts.BuildVariation(modifications))
	if err != nil {
		return "", fmt.Errorf("failed to create variation: %w", err)
	}
	return imageURL, nil
}

// Preparer は写真の準備に使う PhotoPreparer を返します。未設定なら nil です。
func (pl *Pipeline) Preparer() PhotoPreparer {
	return pl.preparer
}

func (pl *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if pl.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, pl.timeout)
}

func (pl *Pipeline) assemble(story domain.StoryContent, results []domain.Result[domain.ComicPanel], style string) *domain.GeneratedComic {
	panels := make([]domain.ComicPanel, len(results))
	for i, r := range results {
		panels[i] = r.Value
	}
	comic := domain.NewGeneratedComic(story, panels, pl.layout.PanelsPerPage, pl.now())
	comic.Style = style
	comic.GeneratedWith = pl.providerName
	return comic
}

func titleFromCaptions(captions []string) string {
	const maxTitle = 60
	if len(captions) == 0 {
		return "Untitled"
	}
	title := []rune(captions[0])
	if len(title) > maxTitle {
		return string(title[:maxTitle]) + "..."
	}
	return string(title)
}
