package cache_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	redismocks "github.com/honeynil/BookStoreTochka/internal/infrastructure/redis/mocks"
	"github.com/honeynil/BookStoreTochka/internal/models"
	"github.com/honeynil/BookStoreTochka/internal/repository/cache"
	repositorymocks "github.com/honeynil/BookStoreTochka/internal/repository/mocks"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestBookRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	discount := int32(25)
	book := &models.Book{
		ID:              7,
		Title:           "Go in Action",
		Price:           1000,
		DiscountPercent: &discount,
		ContentURL:      "s3://books/7.epub",
		CreatedAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("MissLoadsAndCaches", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		next := repositorymocks.NewMockBookRepository(ctrl)
		repo := cache.NewBookRepository(next, redisMock, time.Hour)

		redisMock.EXPECT().Get(gomock.Any(), "book:7").Return("", redis.ErrKeyNotFound)
		next.EXPECT().GetByID(gomock.Any(), int32(7)).Return(book, nil)
		redisMock.EXPECT().Set(gomock.Any(), "book:7", gomock.Any(), time.Hour).Return(nil)

		got, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, book, got)
	})

	t.Run("HitKeepsContentURL", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		next := repositorymocks.NewMockBookRepository(ctrl)
		repo := cache.NewBookRepository(next, redisMock, time.Hour)

		raw, err := json.Marshal(map[string]any{
			"id":               7,
			"title":            "Go in Action",
			"price":            1000,
			"discount_percent": 25,
			"content_url":      "s3://books/7.epub",
			"created_at":       book.CreatedAt,
		})
		require.NoError(t, err)
		redisMock.EXPECT().Get(gomock.Any(), "book:7").Return(string(raw), nil)

		got, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, book, got)
	})

	t.Run("RedisDownFallsThrough", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		next := repositorymocks.NewMockBookRepository(ctrl)
		repo := cache.NewBookRepository(next, redisMock, time.Hour)

		redisMock.EXPECT().Get(gomock.Any(), "book:7").Return("", fmt.Errorf("connection refused"))
		next.EXPECT().GetByID(gomock.Any(), int32(7)).Return(book, nil)
		redisMock.EXPECT().Set(gomock.Any(), "book:7", gomock.Any(), time.Hour).Return(fmt.Errorf("connection refused"))

		got, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, book, got)
	})

	t.Run("NotFoundIsNotCached", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		next := repositorymocks.NewMockBookRepository(ctrl)
		repo := cache.NewBookRepository(next, redisMock, time.Hour)

		redisMock.EXPECT().Get(gomock.Any(), "book:9").Return("", redis.ErrKeyNotFound)
		next.EXPECT().GetByID(gomock.Any(), int32(9)).Return(nil, pkgerrors.ErrBookNotFound)

		got, err := repo.GetByID(ctx, 9)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, pkgerrors.ErrBookNotFound)
	})
}
