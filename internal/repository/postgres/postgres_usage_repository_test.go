package repository_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/honeynil/BookStoreTochka/internal/models"
	repository "github.com/honeynil/BookStoreTochka/internal/repository/postgres"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresUsageRepository_Record(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresUsageRepository(db)
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO usage_events (event_id, type, buyer_id, book_id, amount, session_ref, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (event_id) DO NOTHING`)
	event := &models.UsageEvent{
		EventID:    "3f0b6a64-8f5e-4a4e-9d55-5b4f2c8e1a10",
		Type:       models.UsagePurchaseCompleted,
		BuyerID:    1,
		BookID:     7,
		Amount:     750,
		SessionRef: "cs_1",
		OccurredAt: time.Now().UTC(),
	}

	t.Run("NilEvent", func(t *testing.T) {
		stored, err := repo.Record(ctx, nil)
		assert.False(t, stored)
		assert.ErrorIs(t, err, pkgerrors.ErrNilEvent)
	})

	t.Run("Stored", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(event.EventID, event.Type, event.BuyerID, event.BookID, event.Amount, event.SessionRef, event.OccurredAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		stored, err := repo.Record(ctx, event)
		assert.NoError(t, err)
		assert.True(t, stored)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(event.EventID, event.Type, event.BuyerID, event.BookID, event.Amount, event.SessionRef, event.OccurredAt).
			WillReturnResult(sqlmock.NewResult(0, 0))

		stored, err := repo.Record(ctx, event)
		assert.NoError(t, err)
		assert.False(t, stored)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectExec(query).WillReturnError(fmt.Errorf("database error"))

		stored, err := repo.Record(ctx, event)
		assert.False(t, stored)
		assert.Contains(t, err.Error(), "failed to record usage event")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
