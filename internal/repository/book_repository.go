package repository

import (
	"context"

	"github.com/honeynil/BookStoreTochka/internal/models"
)

type BookRepository interface {
	GetByID(ctx context.Context, id int32) (*models.Book, error)
	List(ctx context.Context) ([]models.Book, error)
}
