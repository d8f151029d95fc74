package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryWriter struct {
	mu    sync.Mutex
	files map[string][]byte
	fail  bool
}

func (w *memoryWriter) Write(_ context.Context, path string, r io.Reader, _ string) error {
	if w.fail {
		return errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.files == nil {
		w.files = map[string][]byte{}
	}
	w.files[path] = data
	return nil
}

func sampleComic() *domain.GeneratedComic {
	story := domain.StoryContent{
		Title:         "Max and the Key",
		Narrative:     "Max found a key.",
		PanelCaptions: []string{"Max wakes up.", "Max runs.", "Max digs."},
	}
	panels := []domain.ComicPanel{
		domain.NewGeneratedPanel(1, "Max wakes up.", "https://img.example.com/1.png"),
		domain.NewFailedPanel(2, "Max runs."),
		domain.NewGeneratedPanel(3, "Max digs.", domain.EncodeDataURL("image/png", []byte("png-bytes"))),
	}
	return domain.NewGeneratedComic(story, panels, 2, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestBuildMarkdown(t *testing.T) {
	md := BuildMarkdown(sampleComic(), 2, map[int]string{3: "images/panel_3.png"})

	assert.True(t, strings.HasPrefix(md, "# Max and the Key\n\nMax found a key.\n\n"))
	assert.Contains(t, md, "## Page 1")
	assert.Contains(t, md, "## Page 2")
	assert.Contains(t, md, "![Panel 1](https://img.example.com/1.png)")
	assert.Contains(t, md, "*Panel 2 could not be generated.*")
	assert.Contains(t, md, "![Panel 3](images/panel_3.png)")
	assert.Contains(t, md, "> Max runs.")
	assert.NotContains(t, md, "data:image")
}

func TestComicPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("Markdown と JSON と data URL の画像を書き出す", func(t *testing.T) {
		w := &memoryWriter{}
		res, err := NewComicPublisher(w).Publish(ctx, sampleComic(), Options{OutputDir: "out", PanelsPerPage: 2})
		require.NoError(t, err)

		assert.Equal(t, filepath.Join("out", "comic.md"), res.MarkdownPath)
		assert.Equal(t, filepath.Join("out", "comic.json"), res.JSONPath)
		require.Len(t, res.ImagePaths, 1)
		assert.Equal(t, []byte("png-bytes"), w.files[res.ImagePaths[0]])

		var decoded domain.GeneratedComic
		require.NoError(t, json.Unmarshal(w.files[res.JSONPath], &decoded))
		assert.Equal(t, "Max and the Key", decoded.Title)
		assert.Len(t, decoded.Panels, 3)
	})

	t.Run("書き込みに失敗したらエラー", func(t *testing.T) {
		_, err := NewComicPublisher(&memoryWriter{fail: true}).Publish(ctx, sampleComic(), Options{OutputDir: "out"})
		assert.Error(t, err)
	})

	t.Run("nil はエラー", func(t *testing.T) {
		_, err := NewComicPublisher(&memoryWriter{}).Publish(ctx, nil, Options{})
		assert.Error(t, err)
	})
}

func TestLocalWriter(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "comic.md")

	require.NoError(t, LocalWriter{}.Write(context.Background(), target, strings.NewReader("# hi"), "text/markdown"))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "# hi", string(data))
}
