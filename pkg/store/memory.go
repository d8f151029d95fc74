package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shouni/go-comico-kit/pkg/domain"

	"github.com/patrickmn/go-cache"
)

const (
	comicKeyPrefix = "comic:"
	orderKeyPrefix = "order:"
)

// MemoryStore はプロセス内に保持する ComicStore です。開発用とテスト用です。
type MemoryStore struct {
	items *cache.Cache
	mu    sync.Mutex
	now   func() time.Time
}

var _ ComicStore = (*MemoryStore)(nil)

// NewMemoryStore は期限切れの無い MemoryStore を作成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: cache.New(cache.NoExpiration, 0),
		now:   time.Now,
	}
}

func (s *MemoryStore) CreateComic(_ context.Context, rec *domain.ComicRecord) error {
	if rec == nil || rec.ID == "" {
		return fmt.Errorf("comic id is required")
	}
	if err := s.items.Add(comicKeyPrefix+rec.ID, cloneComic(rec), cache.NoExpiration); err != nil {
		return fmt.Errorf("comic %s already exists: %w", rec.ID, err)
	}
	return nil
}

func (s *MemoryStore) GetComic(_ context.Context, id string) (*domain.ComicRecord, error) {
	v, ok := s.items.Get(comicKeyPrefix + id)
	if !ok {
		return nil, fmt.Errorf("comic %s: %w", id, ErrNotFound)
	}
	return cloneComic(v.(*domain.ComicRecord)), nil
}

func (s *MemoryStore) ListComics(_ context.Context, userID string) ([]*domain.ComicRecord, error) {
	var out []*domain.ComicRecord
	for key, item := range s.items.Items() {
		if !strings.HasPrefix(key, comicKeyPrefix) {
			continue
		}
		if rec := item.Object.(*domain.ComicRecord); rec.UserID == userID {
			out = append(out, cloneComic(rec))
		}
	}
	sortComicsNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) UpdateComic(_ context.Context, id string, update domain.ComicUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items.Get(comicKeyPrefix + id)
	if !ok {
		return fmt.Errorf("comic %s: %w", id, ErrNotFound)
	}
	rec := cloneComic(v.(*domain.ComicRecord))
	update.Apply(rec, s.now())
	s.items.SetDefault(comicKeyPrefix+id, rec)
	return nil
}

func (s *MemoryStore) DeleteComic(_ context.Context, id string) error {
	if _, ok := s.items.Get(comicKeyPrefix + id); !ok {
		return fmt.Errorf("comic %s: %w", id, ErrNotFound)
	}
	s.items.Delete(comicKeyPrefix + id)
	return nil
}

func (s *MemoryStore) CreateOrder(_ context.Context, order *domain.Order) error {
	if order == nil || order.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if err := s.items.Add(orderKeyPrefix+order.ID, cloneOrder(order), cache.NoExpiration); err != nil {
		return fmt.Errorf("order %s already exists: %w", order.ID, err)
	}
	return nil
}

func (s *MemoryStore) GetOrder(_ context.Context, id string) (*domain.Order, error) {
	v, ok := s.items.Get(orderKeyPrefix + id)
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return cloneOrder(v.(*domain.Order)), nil
}

func (s *MemoryStore) ListOrders(_ context.Context, userID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for key, item := range s.items.Items() {
		if !strings.HasPrefix(key, orderKeyPrefix) {
			continue
		}
		if o := item.Object.(*domain.Order); o.UserID == userID {
			out = append(out, cloneOrder(o))
		}
	}
	sortOrdersNewestFirst(out)
	return out, nil
}
