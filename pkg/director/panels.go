package director

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// MinPanels と MaxPanels は1作品あたりのパネル数の範囲です。
	MinPanels = 4
	MaxPanels = 8

	shortStoryLength  = 200
	mediumStoryLength = 500
	mediumPanels      = 6

	// minSentenceLength 以下の断片は文として扱いません。
	minSentenceLength = 10
	fallbackExcerpt   = 100
)

var (
	sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)
	// requestedPanelsRegex は "3 panels" や "in 6 panel" のような指定を拾います。
	requestedPanelsRegex = regexp.MustCompile(`(?i)\b(\d{1,2})[\s-]*panels?\b`)
)

// ResolvePanelCount はパネル数を決定します。
// requested が 1 以上なら [MinPanels, MaxPanels] に丸めます。
// 指定が無ければ物語の長さから 4 / 6 / 8 を選び、写真枚数 (最大 MaxPanels) を下回らないよう引き上げます。
func ResolvePanelCount(storyText string, photoCount, requested int) int {
	if requested > 0 {
		return clamp(requested, MinPanels, MaxPanels)
	}

	n := MaxPanels
	switch length := utf8.RuneCountInString(strings.TrimSpace(storyText)); {
	case length < shortStoryLength:
		n = MinPanels
	case length < mediumStoryLength:
		n = mediumPanels
	}

	return max(n, min(photoCount, MaxPanels))
}

// ParseRequestedPanels は物語の本文に含まれるパネル数の指定を返します。見つからなければ 0 です。
func ParseRequestedPanels(storyText string) int {
	m := requestedPanelsRegex.FindStringSubmatch(storyText)
	if len(m) < 2 {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// SplitStoryIntoPanels は物語を文単位で n 個のパネル説明に分割します。
// 文が足りなくなった場合は直前の説明を再利用し、文が1つも無い場合は冒頭の抜粋を使います。
func SplitStoryIntoPanels(story string, n int) []string {
	if n <= 0 {
		return nil
	}

	var sentences []string
	for _, s := range sentenceSplitRegex.Split(story, -1) {
		if utf8.RuneCountInString(strings.TrimSpace(s)) > minSentenceLength {
			sentences = append(sentences, s)
		}
	}

	panels := make([]string, 0, n)
	if len(sentences) == 0 {
		excerpt := truncateRunes(story, fallbackExcerpt)
		for i := range n {
			panels = append(panels, fmt.Sprintf("Panel %d: %s", i+1, excerpt))
		}
		return panels
	}

	perPanel := max(1, len(sentences)/n)
	for i := range n {
		start := min(i*perPanel, len(sentences))
		end := min(start+perPanel, len(sentences))
		chunk := sentences[start:end]

		if len(chunk) == 0 && i > 0 {
			panels = append(panels, panels[len(panels)-1])
			continue
		}

		text := strings.TrimSpace(strings.Join(chunk, ". "))
		if text == "" {
			text = truncateRunes(story, fallbackExcerpt)
		}
		panels = append(panels, text)
	}
	return panels
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
