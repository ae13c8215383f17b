// Package cache decorates repositories with a Redis read-through cache.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	"github.com/honeynil/BookStoreTochka/internal/models"
	"github.com/honeynil/BookStoreTochka/internal/repository"
)

// cachedBook mirrors models.Book including the content location, which the
// public JSON form omits.
type cachedBook struct {
	ID              int32     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           int64     `json:"price"`
	DiscountPercent *int32    `json:"discount_percent,omitempty"`
	ContentURL      string    `json:"content_url"`
	CreatedAt       time.Time `json:"created_at"`
}

type BookRepository struct {
	next  repository.BookRepository
	redis redis.RedisClient
	ttl   time.Duration
}

func NewBookRepository(next repository.BookRepository, redisClient redis.RedisClient, ttl time.Duration) *BookRepository {
	return &BookRepository{next: next, redis: redisClient, ttl: ttl}
}

func bookKey(id int32) string {
	return fmt.Sprintf("book:%d", id)
}

// GetByID serves the book from Redis when present. Cache failures are logged
// and fall through to the underlying repository.
func (r *BookRepository) GetByID(ctx context.Context, id int32) (*models.Book, error) {
	key := bookKey(id)

	raw, err := r.redis.Get(ctx, key)
	switch {
	case err == nil:
		var cb cachedBook
		if err := json.Unmarshal([]byte(raw), &cb); err == nil {
			return cb.book(), nil
		}
		slog.Warn("corrupt cached book, reloading", "method", "GetByID", "book_id", id)
	case !stderrors.Is(err, redis.ErrKeyNotFound):
		slog.Warn("failed to read book cache", "method", "GetByID", "book_id", id, "error", err)
	}

	book, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(newCachedBook(book))
	if err != nil {
		slog.Warn("failed to encode book for cache", "method", "GetByID", "book_id", id, "error", err)
		return book, nil
	}
	if err := r.redis.Set(ctx, key, data, r.ttl); err != nil {
		slog.Warn("failed to cache book", "method", "GetByID", "book_id", id, "error", err)
	}
	return book, nil
}

func (r *BookRepository) List(ctx context.Context) ([]models.Book, error) {
	return r.next.List(ctx)
}

func newCachedBook(b *models.Book) cachedBook {
	return cachedBook{
		ID:              b.ID,
		Title:           b.Title,
		Description:     b.Description,
		Price:           b.Price,
		DiscountPercent: b.DiscountPercent,
		ContentURL:      b.ContentURL,
		CreatedAt:       b.CreatedAt,
	}
}

func (cb cachedBook) book() *models.Book {
	return &models.Book{
		ID:              cb.ID,
		Title:           cb.Title,
		Description:     cb.Description,
		Price:           cb.Price,
		DiscountPercent: cb.DiscountPercent,
		ContentURL:      cb.ContentURL,
		CreatedAt:       cb.CreatedAt,
	}
}
