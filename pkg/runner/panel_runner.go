package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comico-kit/pkg/domain"
)

// PanelRegenerator は1枚のパネルを作り直します。
type PanelRegenerator interface {
	RegeneratePanel(ctx context.Context, panelNumber int, description, style string) (domain.ComicPanel, error)
}

// PanelRunner は保存済みのコミックを介さずにパネルを1枚生成します。
type PanelRunner struct {
	regenerator PanelRegenerator
}

// NewPanelRunner は依存関係を注入して初期化します。
func NewPanelRunner(regenerator PanelRegenerator) (*PanelRunner, error) {
	if regenerator == nil {
		return nil, fmt.Errorf("PanelRegenerator は必須です")
	}
	return &PanelRunner{regenerator: regenerator}, nil
}

// Run は1枚のパネルを生成します。失敗したパネルも返り値に含めます。
func (pr *PanelRunner) Run(ctx context.Context, panelNumber int, description, style string) (domain.ComicPanel, error) {
	slog.InfoContext(ctx, "PanelRunner: Generating panel", "panel_number", panelNumber, "style", style)
	panel, err := pr.regenerator.RegeneratePanel(ctx, panelNumber, description, style)
	if err != nil {
		return panel, fmt.Errorf("panel %d の生成に失敗しました: %w", panelNumber, err)
	}
	return panel, nil
}
