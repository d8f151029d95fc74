package pipeline

import (
	"context"

	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/generator"
)

// PhotoPreparer は写真を保存し、モデルへ渡せる参照に変換します。
type PhotoPreparer interface {
	Resolve(ctx context.Context, userID, comicID string, photos []domain.PhotoInput) ([]domain.PhotoInput, error)
}

// PanelRenderer はパネル画像を生成します。
type PanelRenderer interface {
	generator.PanelsImageGenerator
	GeneratePanel(ctx context.Context, panelNumber int, description, prompt string) domain.Result[domain.ComicPanel]
	GenerateImageURL(ctx context.Context, prompt string) (string, error)
}
