package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/honeynil/BookStoreTochka/internal/models"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

type PostgresUsageRepository struct {
	db *sql.DB
}

func NewPostgresUsageRepository(db *sql.DB) *PostgresUsageRepository {
	return &PostgresUsageRepository{db: db}
}

func (r *PostgresUsageRepository) Record(ctx context.Context, e *models.UsageEvent) (stored bool, err error) {
	ctx, span, finish := startCall(ctx, "usage-repository", "RecordUsageEvent")
	defer finish(&err)

	if e == nil {
		err = pkgerrors.ErrNilEvent
		return false, err
	}
	span.SetAttributes(attribute.String("event_id", e.EventID), attribute.String("type", string(e.Type)))

	query := `INSERT INTO usage_events (event_id, type, buyer_id, book_id, amount, session_ref, occurred_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (event_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, e.EventID, e.Type, e.BuyerID, e.BookID, e.Amount, nullString(e.SessionRef), e.OccurredAt)
	if err != nil {
		slog.Error("failed to record usage event", "method", "Record", "event_id", e.EventID, "error", err)
		return false, fmt.Errorf("failed to record usage event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to record usage event: %w", err)
	}
	if n == 0 {
		slog.Info("duplicate usage event skipped", "method", "Record", "event_id", e.EventID)
		return false, nil
	}
	return true, nil
}

