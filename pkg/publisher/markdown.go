package publisher

import (
	"fmt"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/director"
	"github.com/shouni/go-comico-kit/pkg/domain"
)

// BuildMarkdown はコミックを Markdown に変換します。
// imagePaths はパネル番号から画像パスへの置き換えで、無いパネルは ImageURL をそのまま使います。
// 失敗したパネルはプレースホルダーの文を出力します。
func BuildMarkdown(comic *domain.GeneratedComic, panelsPerPage int, imagePaths map[int]string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", comic.Title))
	if narrative := strings.TrimSpace(comic.Story.Narrative); narrative != "" {
		sb.WriteString(narrative)
		sb.WriteString("\n\n")
	}

	pages := director.NewLayoutManager(panelsPerPage).Paginate(comic.Panels)
	for pageIdx, page := range pages {
		sb.WriteString("---\n\n")
		sb.WriteString(fmt.Sprintf("## Page %d\n\n", pageIdx+1))

		for _, panel := range page {
			sb.WriteString(fmt.Sprintf("### Panel %d\n\n", panel.PanelNumber))

			img := panel.ImageURL
			if p, ok := imagePaths[panel.PanelNumber]; ok {
				img = p
			}
			if panel.Status == domain.PanelStatusError || img == "" {
				sb.WriteString(fmt.Sprintf("*Panel %d could not be generated.*\n\n", panel.PanelNumber))
			} else {
				sb.WriteString(fmt.Sprintf("![Panel %d](%s)\n\n", panel.PanelNumber, img))
			}

			if caption := strings.TrimSpace(panel.Description); caption != "" {
				sb.WriteString(fmt.Sprintf("> %s\n\n", caption))
			}
		}
	}
	return sb.String()
}
