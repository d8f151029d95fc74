package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupabaseUploader(t *testing.T) {
	type call struct {
		method, path, auth, contentType string
		body                            []byte
	}
	var calls []call
	status := http.StatusOK

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, r.Header.Get("Authorization"), r.Header.Get("Content-Type"), body})
		w.WriteHeader(status)
		switch {
		case status >= http.StatusBadRequest:
			_, _ = io.WriteString(w, `{"message":"forbidden"}`)
		case r.Method == http.MethodDelete:
			_, _ = io.WriteString(w, `[]`)
		default:
			_, _ = io.WriteString(w, `{"Key":"ok"}`)
		}
	}))
	t.Cleanup(srv.Close)

	u, err := NewSupabaseUploader(srv.URL+"/", "service-key", "comics")
	require.NoError(t, err)

	t.Run("アップロードすると公開 URL を返す", func(t *testing.T) {
		publicURL, err := u.Upload(context.Background(), []byte("img"), "comics/u1/c1/photo-1-abc.jpg", "image/jpeg")
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/storage/v1/object/public/comics/comics/u1/c1/photo-1-abc.jpg", publicURL)

		last := calls[len(calls)-1]
		assert.Equal(t, http.MethodPost, last.method)
		assert.Equal(t, "/storage/v1/object/comics/comics/u1/c1/photo-1-abc.jpg", last.path)
		assert.Equal(t, "Bearer service-key", last.auth)
		assert.Equal(t, "image/jpeg", last.contentType)
		assert.Equal(t, []byte("img"), last.body)
	})

	t.Run("公開 URL から削除できる", func(t *testing.T) {
		err := u.Delete(context.Background(), u.PublicURL("comics/u1/c1/photo-1-abc.jpg"))
		require.NoError(t, err)
		last := calls[len(calls)-1]
		assert.Equal(t, http.MethodDelete, last.method)
		assert.Equal(t, "/storage/v1/object/comics", last.path)
		assert.JSONEq(t, `{"prefixes":["comics/u1/c1/photo-1-abc.jpg"]}`, string(last.body))
		assert.Equal(t, "application/json", last.contentType)
	})

	t.Run("管理外の URL は削除しない", func(t *testing.T) {
		before := len(calls)
		err := u.Delete(context.Background(), "https://elsewhere.example.com/a.jpg")
		assert.ErrorIs(t, err, ErrNotManaged)
		assert.Len(t, calls, before)
	})

	t.Run("エラーステータスはエラーになる", func(t *testing.T) {
		status = http.StatusForbidden
		defer func() { status = http.StatusOK }()
		_, err := u.Upload(context.Background(), []byte("img"), "x.jpg", "image/jpeg")
		assert.ErrorContains(t, err, "forbidden")
	})

	t.Run("キャンセル済みの context では送信しない", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		before := len(calls)
		_, err := u.Upload(ctx, []byte("img"), "x.jpg", "image/jpeg")
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, calls, before)
	})
}

func TestNewSupabaseUploader(t *testing.T) {
	_, err := NewSupabaseUploader("", "k", "b")
	assert.Error(t, err)
	_, err = NewSupabaseUploader("https://x.supabase.co", "k", "")
	assert.Error(t, err)
}

func TestPhotoPath(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	p := PhotoPath("u1", "c1", ".png", now)
	assert.Regexp(t, regexp.MustCompile(`^comics/u1/c1/photo-1700000000000-[a-z0-9]{7}\.png$`), p)
	assert.Regexp(t, regexp.MustCompile(`^generated/panel-3-1700000000000-[a-z0-9]{7}\.png$`), GeneratedPath("generated", 3, ".png", now))
}
