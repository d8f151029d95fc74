package asset

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockUploader struct {
	mu      sync.Mutex
	fail    func(objectPath string) bool
	paths   []string
	deleted []string
}

func (m *mockUploader) Upload(_ context.Context, _ []byte, objectPath, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil && m.fail(objectPath) {
		return "", errors.New("storage unavailable")
	}
	m.paths = append(m.paths, objectPath)
	return "https://cdn.example.com/" + objectPath, nil
}

func (m *mockUploader) Delete(_ context.Context, publicURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, publicURL)
	return nil
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")

func TestPhotoResolver_Resolve(t *testing.T) {
	photos := []domain.PhotoInput{
		domain.NewRawPhoto("a.png", pngBytes),
		domain.NewURLPhoto("https://example.com/b.jpg"),
		domain.NewRawPhoto("c.png", pngBytes),
	}

	t.Run("アップロードに成功した写真は公開 URL になる", func(t *testing.T) {
		up := &mockUploader{}
		r := NewPhotoResolver(up, 1)

		out, err := r.Resolve(context.Background(), "u1", "c1", photos)
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, domain.PhotoKindRemoteURL, out[0].Kind)
		assert.True(t, strings.HasPrefix(out[0].URL, "https://cdn.example.com/comics/u1/c1/photo-"))
		assert.True(t, strings.HasSuffix(out[0].URL, ".png"))
		assert.Equal(t, "https://example.com/b.jpg", out[1].URL, "URL の写真はそのまま")
		assert.Len(t, up.paths, 2)
	})

	t.Run("アップロードに失敗した写真は data URL にフォールバックする", func(t *testing.T) {
		up := &mockUploader{fail: func(string) bool { return true }}
		r := NewPhotoResolver(up, 2)

		out, err := r.Resolve(context.Background(), "u1", "c1", photos)
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, domain.PhotoKindInlineData, out[0].Kind)
		assert.True(t, strings.HasPrefix(out[0].URL, "data:image/png;base64,"))
		assert.Equal(t, pngBytes, out[0].Data)
		assert.Equal(t, domain.PhotoKindRemoteURL, out[1].Kind, "並列でも入力順を保つ")
	})

	t.Run("ストレージが無ければ data URL にする", func(t *testing.T) {
		r := NewPhotoResolver(nil, 1)
		out, err := r.Resolve(context.Background(), "u1", "c1", photos[:1])
		require.NoError(t, err)
		assert.Equal(t, domain.PhotoKindInlineData, out[0].Kind)
	})

	t.Run("データも URL も無い写真は取り除く", func(t *testing.T) {
		r := NewPhotoResolver(nil, 1)
		out, err := r.Resolve(context.Background(), "u1", "c1", []domain.PhotoInput{
			{Kind: domain.PhotoKindRawBytes, Filename: "empty.png"},
			photos[1],
		})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, "https://example.com/b.jpg", out[0].URL)
	})

	t.Run("キャンセルされたらエラー", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewPhotoResolver(nil, 1).Resolve(ctx, "u1", "c1", photos)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestUploadSink_Store(t *testing.T) {
	t.Run("保存して公開 URL を返す", func(t *testing.T) {
		up := &mockUploader{}
		s, err := NewUploadSink(up, "generated/panels")
		require.NoError(t, err)

		u, err := s.Store(context.Background(), 2, &ai.ImageResult{Data: []byte("x"), MIMEType: "image/png"})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(u, "https://cdn.example.com/generated/panels/panel-2-"))
	})

	t.Run("保存に失敗したら data URL を返す", func(t *testing.T) {
		up := &mockUploader{fail: func(string) bool { return true }}
		s, err := NewUploadSink(up, "generated/panels")
		require.NoError(t, err)

		u, err := s.Store(context.Background(), 1, &ai.ImageResult{Data: []byte("x"), MIMEType: "image/png"})
		require.NoError(t, err)
		assert.Equal(t, "data:image/png;base64,eA==", u)
	})

	t.Run("画像データが無ければエラー", func(t *testing.T) {
		s, err := NewUploadSink(&mockUploader{}, "p")
		require.NoError(t, err)
		_, err = s.Store(context.Background(), 1, &ai.ImageResult{})
		assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	})
}

// mockHTTPClient は FetchBytes だけを持つ httpkit クライアントの代わりです。
type mockHTTPClient struct {
	data []byte
	err  error
	urls []string
}

func (m *mockHTTPClient) FetchBytes(_ context.Context, url string) ([]byte, error) {
	m.urls = append(m.urls, url)
	return m.data, m.err
}

func TestHTTPFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("ローカルアドレスは既定で拒否し、クライアントを呼ばない", func(t *testing.T) {
		client := &mockHTTPClient{data: pngBytes}
		_, err := NewHTTPFetcher(client).FetchBytes(ctx, "http://127.0.0.1/a.png")
		assert.ErrorContains(t, err, "安全ではないURL")
		assert.Empty(t, client.urls)
	})

	t.Run("許可すればクライアントで取得する", func(t *testing.T) {
		client := &mockHTTPClient{data: pngBytes}
		data, err := NewHTTPFetcher(client).AllowPrivateNetworks().FetchBytes(ctx, "http://127.0.0.1/a.png")
		require.NoError(t, err)
		assert.Equal(t, pngBytes, data)
		assert.Equal(t, []string{"http://127.0.0.1/a.png"}, client.urls)
	})

	t.Run("クライアントのエラーは URL 付きで返す", func(t *testing.T) {
		client := &mockHTTPClient{err: errors.New("status 404")}
		_, err := NewHTTPFetcher(client).AllowPrivateNetworks().FetchBytes(ctx, "http://127.0.0.1/missing")
		assert.ErrorContains(t, err, "status 404")
		assert.ErrorContains(t, err, "/missing")
	})

	t.Run("nil なら httpkit のクライアントを使う", func(t *testing.T) {
		f := NewHTTPFetcher(nil)
		assert.NotNil(t, f.client)
	})
}

func TestIsSafeURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"不許可スキーム", "ftp://example.com/a.png"},
		{"ループバック", "http://127.0.0.1/a.png"},
		{"プライベート", "http://10.0.0.1/a.png"},
		{"パース不可", "::not a url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := IsSafeURL(tt.url)
			assert.False(t, ok)
			assert.Error(t, err)
		})
	}
}

func TestGenerateIndexedPath(t *testing.T) {
	p, err := GenerateIndexedPath("out/"+DefaultPanelFileName, 3)
	require.NoError(t, err)
	assert.Equal(t, "out/panel_3.png", p)
	assert.True(t, PanelFileRegex.MatchString("panel_12.png"))
	assert.False(t, PanelFileRegex.MatchString("panel.png"))
}
