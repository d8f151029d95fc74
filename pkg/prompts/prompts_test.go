package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPromptBuilder_Build(t *testing.T) {
	b, err := NewTextPromptBuilder()
	require.NoError(t, err)

	t.Run("写真が無い場合は写真コンテキストを含まない", func(t *testing.T) {
		out, err := b.Build(ModeStory, TemplateData{Story: "A dog finds a key.", NumPanels: 4})
		require.NoError(t, err)
		assert.Contains(t, out, `"A dog finds a key."`)
		assert.Contains(t, out, "Exactly 4 short")
		assert.NotContains(t, out, "REFERENCE PHOTOS")
		assert.NotContains(t, out, "EACH CAPTION MUST MENTION")
	})

	t.Run("写真の説明を番号付きで埋め込む", func(t *testing.T) {
		out, err := b.Build(ModeStory, TemplateData{
			Story:             "A dog finds a key.",
			NumPanels:         6,
			PhotoDescriptions: []string{"A brown dog.", "A red key."},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "uploaded 2 reference photo(s)")
		assert.Contains(t, out, "PHOTO 1:\nA brown dog.\n\nPHOTO 2:\nA red key.")
		assert.Contains(t, out, "Exactly 6 short")
	})

	t.Run("プロキシ用は写真ごとに1行", func(t *testing.T) {
		out, err := b.Build(ModeStoryProxy, TemplateData{
			Story:             "Beach day",
			NumPanels:         2,
			PhotoDescriptions: []string{"sand", "waves"},
		})
		require.NoError(t, err)
		assert.Contains(t, out, "Photo 1: sand\nPhoto 2: waves")
		assert.Contains(t, out, "Create a comic with 2 panels")
	})

	t.Run("不明なモードはエラー", func(t *testing.T) {
		_, err := b.Build("unknown", TemplateData{})
		assert.Error(t, err)
	})
}

func TestPanelPromptBuilder_BuildPanels(t *testing.T) {
	pb := NewPanelPromptBuilder(3900)
	captions := []string{"The dog wakes.", "The dog digs.", "The dog finds a key."}

	t.Run("位置に応じてショットの枠組みが変わる", func(t *testing.T) {
		out := pb.BuildPanels(captions, "manga", nil)
		require.Len(t, out, 3)
		assert.True(t, strings.HasPrefix(out[0], "Establishing shot - Japanese manga style"))
		assert.Contains(t, out[0], "Opening scene: The dog wakes.")
		assert.True(t, strings.HasPrefix(out[1], "Action panel"))
		assert.Contains(t, out[1], "Story scene: The dog digs.")
		assert.True(t, strings.HasPrefix(out[2], "Final resolution panel"))
		assert.Contains(t, out[2], "Climactic scene: The dog finds a key.")
		for _, p := range out {
			assert.Contains(t, p, NoTextInstruction)
			assert.True(t, strings.HasSuffix(p, QualityFooter))
			assert.NotContains(t, p, "CRITICAL CHARACTER REQUIREMENT")
		}
	})

	t.Run("写真の説明を必須の被写体として全パネルに含める", func(t *testing.T) {
		out := pb.BuildPanels(captions, "comic", []string{"A brown dog with a red collar."})
		for _, p := range out {
			assert.Contains(t, p, "- Reference Photo 1: A brown dog with a red collar.")
		}
	})

	t.Run("長い説明は250文字で切り詰める", func(t *testing.T) {
		long := strings.Repeat("d", 300)
		out := pb.BuildPanels(captions[:1], "comic", []string{long})
		assert.Contains(t, out[0], strings.Repeat("d", 250)+"...")
		assert.NotContains(t, out[0], strings.Repeat("d", 251))
	})

	t.Run("プロンプトは最大長で切り詰める", func(t *testing.T) {
		short := NewPanelPromptBuilder(100)
		out := short.BuildPanels([]string{strings.Repeat("x", 500)}, "comic", nil)
		assert.Len(t, []rune(out[0]), 100)
	})

	t.Run("1コマだけの場合は導入ショット", func(t *testing.T) {
		out := pb.BuildPanels([]string{"solo"}, "", nil)
		assert.True(t, strings.HasPrefix(out[0], "Establishing shot - vibrant comic book style"))
	})
}

func TestPanelPromptBuilder_BuildVariation(t *testing.T) {
	pb := NewPanelPromptBuilder(3900)
	assert.Equal(t, "Make it night. High quality, detailed artwork, comic book style.", pb.BuildVariation(" Make it night "))
}

func TestStyleDescriptor(t *testing.T) {
	assert.Contains(t, StyleDescriptor("watercolor"), "watercolor illustration")
	assert.Equal(t, StyleDescriptor("comic"), StyleDescriptor("unknown"))
}
