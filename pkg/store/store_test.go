package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newComic(id, userID string, createdAt time.Time) *domain.ComicRecord {
	return &domain.ComicRecord{
		ID:           id,
		UserID:       userID,
		Story:        "My dog loves the beach.",
		Photos:       []string{"https://example.com/a.jpg"},
		SelectedPlan: domain.DefaultPlan,
		Status:       domain.ComicStatusDraft,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

// runStoreContract は ComicStore 実装が共通で満たすべき振る舞いを検証します。
func runStoreContract(t *testing.T, s ComicStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("作成したコミックを取得できる", func(t *testing.T) {
		require.NoError(t, s.CreateComic(ctx, newComic("c1", "u1", baseTime)))

		got, err := s.GetComic(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, []string{"https://example.com/a.jpg"}, got.Photos)
		assert.Equal(t, domain.ComicStatusDraft, got.Status)
	})

	t.Run("同じ ID は二重に作成できない", func(t *testing.T) {
		assert.Error(t, s.CreateComic(ctx, newComic("c1", "u1", baseTime)))
	})

	t.Run("存在しないコミックは ErrNotFound", func(t *testing.T) {
		_, err := s.GetComic(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.UpdateComic(ctx, "missing", domain.ComicUpdate{}), ErrNotFound)
		assert.ErrorIs(t, s.DeleteComic(ctx, "missing"), ErrNotFound)
	})

	t.Run("一覧は新しい順でユーザーごとに分かれる", func(t *testing.T) {
		require.NoError(t, s.CreateComic(ctx, newComic("c2", "u1", baseTime.Add(time.Hour))))
		require.NoError(t, s.CreateComic(ctx, newComic("c3", "u2", baseTime.Add(2*time.Hour))))

		list, err := s.ListComics(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "c2", list[0].ID)
		assert.Equal(t, "c1", list[1].ID)

		empty, err := s.ListComics(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("部分更新は指定したフィールドだけを変える", func(t *testing.T) {
		status := domain.ComicStatusGenerated
		title := "Beach Day"
		require.NoError(t, s.UpdateComic(ctx, "c1", domain.ComicUpdate{Status: &status, Title: &title}))

		got, err := s.GetComic(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, domain.ComicStatusGenerated, got.Status)
		assert.Equal(t, "Beach Day", got.Title)
		assert.Equal(t, "My dog loves the beach.", got.Story)
		assert.True(t, got.UpdatedAt.After(baseTime))
	})

	t.Run("取得した値を書き換えても保存値は変わらない", func(t *testing.T) {
		got, err := s.GetComic(ctx, "c1")
		require.NoError(t, err)
		got.Photos[0] = "changed"

		again, err := s.GetComic(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/a.jpg", again.Photos[0])
	})

	t.Run("削除したコミックは一覧からも消える", func(t *testing.T) {
		require.NoError(t, s.DeleteComic(ctx, "c2"))
		_, err := s.GetComic(ctx, "c2")
		assert.ErrorIs(t, err, ErrNotFound)

		list, err := s.ListComics(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "c1", list[0].ID)
	})

	t.Run("注文を作成して一覧できる", func(t *testing.T) {
		for i, id := range []string{"o1", "o2"} {
			created := baseTime.Add(time.Duration(i) * time.Minute)
			require.NoError(t, s.CreateOrder(ctx, &domain.Order{
				ID:                id,
				UserID:            "u1",
				ComicID:           "c1",
				Plan:              domain.DefaultPlan,
				Amount:            29.99,
				PaymentStatus:     domain.PaymentStatusCompleted,
				CreatedAt:         created,
				EstimatedDelivery: created.Add(domain.DeliveryLeadTime),
			}))
		}

		got, err := s.GetOrder(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, "c1", got.ComicID)
		assert.Equal(t, 29.99, got.Amount)

		orders, err := s.ListOrders(ctx, "u1")
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "o2", orders[0].ID)

		_, err = s.GetOrder(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	s.now = func() time.Time { return baseTime.Add(24 * time.Hour) }
	runStoreContract(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s, err := NewRedisStore(client)
	require.NoError(t, err)
	s.now = func() time.Time { return baseTime.Add(24 * time.Hour) }
	runStoreContract(t, s)

	t.Run("JSON で保存される", func(t *testing.T) {
		raw, err := mr.Get(comicKey("c1"))
		require.NoError(t, err)
		assert.Contains(t, raw, `"userId":"u1"`)
	})
}

func TestNewRedisClient(t *testing.T) {
	t.Run("疎通できれば接続済みクライアントを返す", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
		require.NoError(t, err)
		_ = client.Close()
	})

	t.Run("不正な URL はエラー", func(t *testing.T) {
		_, err := NewRedisClient(context.Background(), "not-a-url://x")
		assert.Error(t, err)
	})

	t.Run("nil クライアントでストアは作れない", func(t *testing.T) {
		_, err := NewRedisStore(nil)
		assert.Error(t, err)
	})
}

func TestSupabaseStore(t *testing.T) {
	rec := newComic("c1", "u1", baseTime)
	var lastQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/rest/v1/"), r.URL.Path)
		lastQuery = map[string]string{}
		for k, v := range r.URL.Query() {
			lastQuery[k] = v[0]
		}
		w.Header().Set("Content-Type", "application/json")

		switch {
		case r.Method == http.MethodGet && lastQuery["id"] == "eq.c1":
			_ = json.NewEncoder(w).Encode([]*domain.ComicRecord{rec})
		case r.Method == http.MethodGet && lastQuery["userId"] == "eq.u1":
			_ = json.NewEncoder(w).Encode([]*domain.ComicRecord{rec})
		case r.Method == http.MethodPatch && lastQuery["id"] == "eq.c1":
			_ = json.NewEncoder(w).Encode([]*domain.ComicRecord{rec})
		default:
			_, _ = w.Write([]byte("[]"))
		}
	}))
	t.Cleanup(srv.Close)

	s, err := NewSupabaseStore(srv.URL, "service-key")
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("ID で取得できる", func(t *testing.T) {
		got, err := s.GetComic(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
	})

	t.Run("行が無ければ ErrNotFound", func(t *testing.T) {
		_, err := s.GetComic(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.UpdateComic(ctx, "missing", domain.ComicUpdate{}), ErrNotFound)
	})

	t.Run("一覧は createdAt の降順で問い合わせる", func(t *testing.T) {
		list, err := s.ListComics(ctx, "u1")
		require.NoError(t, err)
		assert.Len(t, list, 1)
		assert.True(t, strings.HasPrefix(lastQuery["order"], "createdAt.desc"), lastQuery["order"])
	})

	t.Run("更新できる", func(t *testing.T) {
		status := domain.ComicStatusGenerating
		assert.NoError(t, s.UpdateComic(ctx, "c1", domain.ComicUpdate{Status: &status}))
	})

	t.Run("URL とキーは必須", func(t *testing.T) {
		_, err := NewSupabaseStore("", "")
		assert.Error(t, err)
	})
}
