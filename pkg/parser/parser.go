package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/domain"
)

const errorExcerptLength = 200

// ExtractJSON は AI の応答から JSON 部分を取り出します。
// コードブロックを優先し、無ければ最も外側の {...} を使い、それも無ければ応答全体を返します。
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		return matches[1]
	}

	firstBracket := strings.Index(raw, "{")
	lastBracket := strings.LastIndex(raw, "}")
	if firstBracket != -1 && lastBracket != -1 && lastBracket > firstBracket {
		return raw[firstBracket : lastBracket+1]
	}
	return raw
}

// ParseStory は物語生成の応答を StoryContent に変換し、必須項目を検証します。
// JSON として解釈できない場合や必須項目が欠けている場合は domain.ErrInvalidStory を返します。
func ParseStory(raw string) (domain.StoryContent, error) {
	rawJSON := ExtractJSON(raw)

	var story domain.StoryContent
	if err := json.Unmarshal([]byte(rawJSON), &story); err != nil {
		return domain.StoryContent{}, fmt.Errorf("%w: AIからの応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %v",
			domain.ErrInvalidStory, truncateString(strings.TrimSpace(raw), errorExcerptLength), err)
	}

	story.Title = strings.TrimSpace(story.Title)
	story.Narrative = strings.TrimSpace(story.Narrative)
	captions := story.PanelCaptions[:0]
	for _, c := range story.PanelCaptions {
		if c = strings.TrimSpace(c); c != "" {
			captions = append(captions, c)
		}
	}
	story.PanelCaptions = captions

	if err := story.Validate(); err != nil {
		return domain.StoryContent{}, err
	}
	return story, nil
}

// NormalizeCaptions はキャプション数を n に揃えます。
// 多い場合は切り詰め、少ない場合は最後のキャプションを繰り返して補います。
// 元のスライスは変更しません。
func NormalizeCaptions(captions []string, n int) []string {
	if n <= 0 || len(captions) == 0 {
		return nil
	}
	if len(captions) != n {
		slog.Warn("キャプション数がパネル数と一致しないため調整します", "captions", len(captions), "panels", n)
	}

	out := make([]string, n)
	for i := range out {
		if i < len(captions) {
			out[i] = captions[i]
		} else {
			out[i] = captions[len(captions)-1]
		}
	}
	return out
}
