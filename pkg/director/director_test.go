package director

import (
	"strings"
	"testing"

	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePanelCount(t *testing.T) {
	tests := []struct {
		name       string
		length     int
		photoCount int
		requested  int
		want       int
	}{
		{"150文字・写真1枚は4コマ", 150, 1, 0, 4},
		{"199文字は4コマ", 199, 0, 0, 4},
		{"200文字は6コマ", 200, 0, 0, 6},
		{"499文字は6コマ", 499, 0, 0, 6},
		{"600文字は8コマ", 600, 0, 0, 8},
		{"写真5枚なら短くても5コマ", 50, 5, 0, 5},
		{"写真が多くても8コマまで", 50, 12, 0, 8},
		{"指定3は4に丸める", 50, 0, 3, 4},
		{"指定12は8に丸める", 50, 0, 12, 8},
		{"指定6はそのまま", 900, 8, 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story := strings.Repeat("a", tt.length)
			assert.Equal(t, tt.want, ResolvePanelCount(story, tt.photoCount, tt.requested))
		})
	}

	t.Run("前後の空白は長さに含めない", func(t *testing.T) {
		story := "   " + strings.Repeat("a", 199) + "   "
		assert.Equal(t, 4, ResolvePanelCount(story, 0, 0))
	})

	t.Run("マルチバイト文字は1文字として数える", func(t *testing.T) {
		story := strings.Repeat("猫", 199)
		assert.Equal(t, 4, ResolvePanelCount(story, 0, 0))
	})
}

func TestParseRequestedPanels(t *testing.T) {
	assert.Equal(t, 3, ParseRequestedPanels("Make a 3 panels comic about my cat"))
	assert.Equal(t, 6, ParseRequestedPanels("Tell it in 6-panel form."))
	assert.Equal(t, 0, ParseRequestedPanels("A dog finds a key in the garden."))

	t.Run("本文の指定はクランプ後に4コマになる", func(t *testing.T) {
		story := "Please draw 3 panels. A dog finds a key."
		assert.Equal(t, 4, ResolvePanelCount(story, 0, ParseRequestedPanels(story)))
	})
}

func TestSplitStoryIntoPanels(t *testing.T) {
	t.Run("文をパネル数で分配する", func(t *testing.T) {
		story := "The dog woke up early. It ran into the garden! Something shiny was buried there. It dug until it found a key?"
		panels := SplitStoryIntoPanels(story, 4)
		require.Len(t, panels, 4)
		assert.Equal(t, "The dog woke up early", panels[0])
		assert.Equal(t, "It ran into the garden", panels[1])
	})

	t.Run("文が足りない場合は直前の説明を再利用する", func(t *testing.T) {
		story := "The dog woke up early. It ran into the garden."
		panels := SplitStoryIntoPanels(story, 4)
		require.Len(t, panels, 4)
		assert.Equal(t, panels[1], panels[2])
		assert.Equal(t, panels[1], panels[3])
	})

	t.Run("文が無い場合は冒頭の抜粋を使う", func(t *testing.T) {
		panels := SplitStoryIntoPanels("Hi. Yo!", 4)
		require.Len(t, panels, 4)
		assert.Equal(t, "Panel 1: Hi. Yo!", panels[0])
		assert.Equal(t, "Panel 4: Hi. Yo!", panels[3])
	})

	t.Run("n が 0 以下なら nil", func(t *testing.T) {
		assert.Nil(t, SplitStoryIntoPanels("story", 0))
	})
}

func TestLayoutManager(t *testing.T) {
	panels := make([]domain.ComicPanel, 5)
	for i := range panels {
		panels[i] = domain.NewGeneratedPanel(i+1, "d", "u")
	}

	t.Run("2コマずつ割り付ける", func(t *testing.T) {
		l := NewLayoutManager(2)
		pages := l.Paginate(panels)
		require.Len(t, pages, 3)
		assert.Len(t, pages[2], 1)
		assert.Equal(t, 3, l.TotalPages(len(panels)))
	})

	t.Run("不正な値は2に戻す", func(t *testing.T) {
		assert.Equal(t, 2, NewLayoutManager(3).PanelsPerPage)
		assert.Equal(t, 4, NewLayoutManager(4).PanelsPerPage)
	})
}

func TestResolveStyle(t *testing.T) {
	assert.Equal(t, StyleGraphicNovel, ResolveStyle("Graphic Novel"))
	assert.Equal(t, StyleGraphicNovel, ResolveStyle("graphic-novel"))
	assert.Equal(t, StyleManga, ResolveStyle("manga"))
	assert.Equal(t, StyleComic, ResolveStyle(""))
	assert.Equal(t, StyleComic, ResolveStyle("oil painting"))
	assert.True(t, IsKnownStyle("watercolor"))
	assert.False(t, IsKnownStyle("oil"))
}
