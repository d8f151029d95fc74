package generator

import (
	"context"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"
)

// PhotosDescriber は写真を入力順に1枚ずつ説明し、写真ごとの結果を返します。
type PhotosDescriber interface {
	DescribeAll(ctx context.Context, photos []domain.PhotoInput) []domain.Result[string]
}

// StoryWriter は物語本文と写真の説明から StoryContent を1回の呼び出しで生成します。
type StoryWriter interface {
	Synthesize(ctx context.Context, storyText string, photoDescriptions []string, numPanels int) (domain.StoryContent, error)
}

// PanelsImageGenerator は、キャプション群からパネル画像を順番に生成し、パネルごとの結果を返します。
type PanelsImageGenerator interface {
	Execute(ctx context.Context, captions []string, style string, photoDescriptions []string) []domain.Result[domain.ComicPanel]
}

// ImageSink はバイト列で返ってきた画像を参照可能な URL に変換します。
type ImageSink interface {
	Store(ctx context.Context, panelNumber int, img *ai.ImageResult) (string, error)
}
