package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
)

const (
	comicsTable = "comics"
	ordersTable = "orders"
)

// SupabaseStore は Supabase (PostgREST) の comics / orders テーブルにレコードを保存します。
// カラム名はレコードの JSON キー (id, userId, createdAt など) と同じです。
type SupabaseStore struct {
	client *supabase.Client
	now    func() time.Time
}

var _ ComicStore = (*SupabaseStore)(nil)

// NewSupabaseStore は Supabase クライアントを初期化します。
func NewSupabaseStore(url, serviceKey string) (*SupabaseStore, error) {
	if url == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}
	client, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client, now: time.Now}, nil
}

func (s *SupabaseStore) CreateComic(_ context.Context, rec *domain.ComicRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("comic id is required")
	}
	if _, _, err := s.client.From(comicsTable).Insert(rec, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to create comic record: %w", err)
	}
	return nil
}

func (s *SupabaseStore) GetComic(_ context.Context, id string) (*domain.ComicRecord, error) {
	data, _, err := s.client.From(comicsTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch comic %s: %w", id, err)
	}

	var recs []*domain.ComicRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to parse comic data: %w", err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("comic %s: %w", id, ErrNotFound)
	}
	return recs[0], nil
}

func (s *SupabaseStore) ListComics(_ context.Context, userID string) ([]*domain.ComicRecord, error) {
	data, _, err := s.client.From(comicsTable).
		Select("*", "", false).
		Eq("userId", userID).
		Order("createdAt", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list comics: %w", err)
	}

	var recs []*domain.ComicRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("failed to parse comic list: %w", err)
	}
	return recs, nil
}

func (s *SupabaseStore) UpdateComic(_ context.Context, id string, update domain.ComicUpdate) error {
	data, _, err := s.client.From(comicsTable).
		Update(update.Fields(s.now()), "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update comic %s: %w", id, err)
	}
	return expectRows(data, "comic", id)
}

func (s *SupabaseStore) DeleteComic(_ context.Context, id string) error {
	data, _, err := s.client.From(comicsTable).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete comic %s: %w", id, err)
	}
	return expectRows(data, "comic", id)
}

func (s *SupabaseStore) CreateOrder(_ context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if _, _, err := s.client.From(ordersTable).Insert(order, false, "", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to create order record: %w", err)
	}
	return nil
}

func (s *SupabaseStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	data, _, err := s.client.From(ordersTable).
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}

	var orders []*domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse order data: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return orders[0], nil
}

func (s *SupabaseStore) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	data, _, err := s.client.From(ordersTable).
		Select("*", "", false).
		Eq("userId", userID).
		Order("createdAt", &postgrest.OrderOpts{Ascending: false}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	var orders []*domain.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse order list: %w", err)
	}
	return orders, nil
}

// expectRows は更新・削除の応答 (representation) が空なら ErrNotFound を返します。
func expectRows(data []byte, kind, id string) error {
	var rows []json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", kind, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
