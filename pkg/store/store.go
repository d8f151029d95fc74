package store

import (
	"context"
	"errors"
	"slices"

	"github.com/shouni/go-comico-kit/pkg/domain"
)

// ErrNotFound は対象のレコードが存在しない場合のエラーです。
var ErrNotFound = errors.New("record not found")

// ComicStore はコミックと注文のレコードを保存します。
// 同じレコードへの同時更新は後勝ちです。
type ComicStore interface {
	CreateComic(ctx context.Context, rec *domain.ComicRecord) error
	GetComic(ctx context.Context, id string) (*domain.ComicRecord, error)
	// ListComics はユーザーのコミックを作成日時の新しい順に返します。
	ListComics(ctx context.Context, userID string) ([]*domain.ComicRecord, error)
	UpdateComic(ctx context.Context, id string, update domain.ComicUpdate) error
	DeleteComic(ctx context.Context, id string) error

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// ListOrders はユーザーの注文を作成日時の新しい順に返します。
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
}

func sortComicsNewestFirst(recs []*domain.ComicRecord) {
	slices.SortStableFunc(recs, func(a, b *domain.ComicRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func sortOrdersNewestFirst(orders []*domain.Order) {
	slices.SortStableFunc(orders, func(a, b *domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func cloneComic(rec *domain.ComicRecord) *domain.ComicRecord {
	c := *rec
	c.Photos = slices.Clone(rec.Photos)
	return &c
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	return &c
}
