package director

import "github.com/shouni/go-comico-kit/pkg/domain"

// LayoutManager はパネルをページに割り付けます。
type LayoutManager struct {
	PanelsPerPage int
}

// NewLayoutManager は1ページあたりのパネル数を指定して LayoutManager を作ります。
// 2 と 4 以外が渡された場合は 2 を使います。
func NewLayoutManager(panelsPerPage int) *LayoutManager {
	if panelsPerPage != 2 && panelsPerPage != 4 {
		panelsPerPage = 2
	}
	return &LayoutManager{PanelsPerPage: panelsPerPage}
}

// TotalPages はパネル数から必要なページ数を返します。
func (l *LayoutManager) TotalPages(panelCount int) int {
	return domain.TotalPages(panelCount, l.PanelsPerPage)
}

// Paginate はパネルを順序を保ったままページごとに分割します。
func (l *LayoutManager) Paginate(panels []domain.ComicPanel) [][]domain.ComicPanel {
	var pages [][]domain.ComicPanel
	for start := 0; start < len(panels); start += l.PanelsPerPage {
		end := min(start+l.PanelsPerPage, len(panels))
		pages = append(pages, panels[start:end])
	}
	return pages
}
