package repository

import (
	"context"

	"github.com/honeynil/BookStoreTochka/internal/models"
)

type UsageRepository interface {
	// Record stores e once; a repeated event id is ignored.
	Record(ctx context.Context, e *models.UsageEvent) (bool, error)
}
