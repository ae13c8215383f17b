package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/honeynil/BookStoreTochka/internal/models"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	purchaseTracer = "purchase-repository"

	// activePairIndex guards at most one pending or completed purchase per
	// (buyer, book).
	activePairIndex = "purchases_active_pair_idx"

	purchaseColumns = `id, buyer_id, book_id, status, amount_paid, session_ref, created_at, updated_at`
)

type PostgresPurchaseRepository struct {
	db *sql.DB
}

func NewPostgresPurchaseRepository(db *sql.DB) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{db: db}
}

func scanPurchase(row rowScanner) (*models.Purchase, error) {
	var p models.Purchase
	var ref sql.NullString
	if err := row.Scan(&p.ID, &p.BuyerID, &p.BookID, &p.Status, &p.AmountPaid, &ref, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.SessionRef = ref.String
	return &p, nil
}

func (r *PostgresPurchaseRepository) SavePending(ctx context.Context, p *models.Purchase) (err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, "SavePendingPurchase")
	defer finish(&err)

	if p == nil {
		err = pkgerrors.ErrNilPurchase
		slog.Error("failed to save purchase", "method", "SavePending", "error", err)
		return err
	}
	span.SetAttributes(
		attribute.Int("buyer_id", int(p.BuyerID)),
		attribute.Int("book_id", int(p.BookID)),
		attribute.Int64("amount_paid", p.AmountPaid),
		attribute.String("session_ref", p.SessionRef),
	)

	err = r.savePending(ctx, p)
	if constraint, ok := uniqueViolation(err); ok && constraint == activePairIndex {
		// A concurrent writer inserted the pair first; the second attempt
		// finds its row and updates it.
		slog.Warn("concurrent purchase insert, retrying as update", "method", "SavePending", "buyer_id", p.BuyerID, "book_id", p.BookID)
		err = r.savePending(ctx, p)
	}
	if err != nil {
		if !stderrors.Is(err, pkgerrors.ErrAlreadyPurchased) {
			slog.Error("failed to save pending purchase", "method", "SavePending", "buyer_id", p.BuyerID, "book_id", p.BookID, "error", err)
		}
		return err
	}

	slog.Info("pending purchase saved", "method", "SavePending", "id", p.ID, "buyer_id", p.BuyerID, "book_id", p.BookID, "session_ref", p.SessionRef)
	return nil
}

func (r *PostgresPurchaseRepository) savePending(ctx context.Context, p *models.Purchase) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	existing, err := selectActiveForUpdate(ctx, dbTx, p.BuyerID, p.BookID)
	if err != nil {
		return rollback(dbTx, fmt.Errorf("failed to lock purchase: %w", err))
	}

	switch {
	case existing == nil:
		query := `INSERT INTO purchases (buyer_id, book_id, status, amount_paid, session_ref) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
		err = dbTx.QueryRowContext(ctx, query, p.BuyerID, p.BookID, models.StatusPending, p.AmountPaid, nullString(p.SessionRef)).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return rollback(dbTx, fmt.Errorf("failed to insert purchase: %w", err))
		}
	case existing.Status == models.StatusCompleted:
		return rollback(dbTx, pkgerrors.ErrAlreadyPurchased)
	default:
		query := `UPDATE purchases SET amount_paid = $1, session_ref = $2, updated_at = NOW() WHERE id = $3 RETURNING created_at, updated_at`
		err = dbTx.QueryRowContext(ctx, query, p.AmountPaid, nullString(p.SessionRef), existing.ID).
			Scan(&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return rollback(dbTx, fmt.Errorf("failed to update purchase: %w", err))
		}
		p.ID = existing.ID
	}

	if err = dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.Status = models.StatusPending
	return nil
}

func (r *PostgresPurchaseRepository) SaveCompleted(ctx context.Context, p *models.Purchase) (transitioned bool, err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, "SaveCompletedPurchase")
	defer finish(&err)

	if p == nil {
		err = pkgerrors.ErrNilPurchase
		slog.Error("failed to save purchase", "method", "SaveCompleted", "error", err)
		return false, err
	}
	span.SetAttributes(
		attribute.Int("buyer_id", int(p.BuyerID)),
		attribute.Int("book_id", int(p.BookID)),
	)

	transitioned, err = r.saveCompleted(ctx, p)
	if constraint, ok := uniqueViolation(err); ok && constraint == activePairIndex {
		slog.Warn("concurrent purchase insert, retrying as update", "method", "SaveCompleted", "buyer_id", p.BuyerID, "book_id", p.BookID)
		transitioned, err = r.saveCompleted(ctx, p)
	}
	if err != nil {
		slog.Error("failed to save completed purchase", "method", "SaveCompleted", "buyer_id", p.BuyerID, "book_id", p.BookID, "error", err)
		return false, err
	}

	slog.Info("completed purchase saved", "method", "SaveCompleted", "id", p.ID, "buyer_id", p.BuyerID, "book_id", p.BookID, "transitioned", transitioned)
	return transitioned, nil
}

func (r *PostgresPurchaseRepository) saveCompleted(ctx context.Context, p *models.Purchase) (bool, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}

	existing, err := selectActiveForUpdate(ctx, dbTx, p.BuyerID, p.BookID)
	if err != nil {
		return false, rollback(dbTx, fmt.Errorf("failed to lock purchase: %w", err))
	}

	if existing != nil && existing.Status == models.StatusCompleted {
		if err = dbTx.Commit(); err != nil {
			return false, fmt.Errorf("failed to commit transaction: %w", err)
		}
		*p = *existing
		return false, nil
	}

	if existing == nil {
		query := `INSERT INTO purchases (buyer_id, book_id, status, amount_paid, session_ref) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`
		err = dbTx.QueryRowContext(ctx, query, p.BuyerID, p.BookID, models.StatusCompleted, p.AmountPaid, nullString(p.SessionRef)).
			Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return false, rollback(dbTx, fmt.Errorf("failed to insert purchase: %w", err))
		}
	} else {
		// The pending row keeps its session ref so a late notification for
		// it resolves to this purchase.
		var ref sql.NullString
		query := `UPDATE purchases SET status = $1, amount_paid = $2, updated_at = NOW() WHERE id = $3 RETURNING session_ref, created_at, updated_at`
		err = dbTx.QueryRowContext(ctx, query, models.StatusCompleted, p.AmountPaid, existing.ID).
			Scan(&ref, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return false, rollback(dbTx, fmt.Errorf("failed to update purchase: %w", err))
		}
		p.ID = existing.ID
		p.SessionRef = ref.String
	}

	if err = dbTx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.Status = models.StatusCompleted
	return true, nil
}

func selectActiveForUpdate(ctx context.Context, dbTx *sql.Tx, buyerID, bookID int32) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE buyer_id = $1 AND book_id = $2 AND status IN ('pending', 'completed') FOR UPDATE`
	p, err := scanPurchase(dbTx.QueryRowContext(ctx, query, buyerID, bookID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *PostgresPurchaseRepository) MarkCompleted(ctx context.Context, sessionRef string) (*models.Purchase, bool, error) {
	return r.transition(ctx, "MarkPurchaseCompleted", sessionRef, models.StatusCompleted)
}

func (r *PostgresPurchaseRepository) MarkFailed(ctx context.Context, sessionRef string) (*models.Purchase, bool, error) {
	return r.transition(ctx, "MarkPurchaseFailed", sessionRef, models.StatusFailed)
}

// transition is a compare-and-set from pending to the given status. When the
// row is not pending it returns the current row unchanged.
func (r *PostgresPurchaseRepository) transition(ctx context.Context, method, sessionRef string, to models.StatusType) (p *models.Purchase, changed bool, err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, method)
	defer finish(&err)
	span.SetAttributes(attribute.String("session_ref", sessionRef), attribute.String("to", string(to)))

	query := `UPDATE purchases SET status = $1, updated_at = NOW() WHERE session_ref = $2 AND status = $3 RETURNING ` + purchaseColumns
	p, err = scanPurchase(r.db.QueryRowContext(ctx, query, to, sessionRef, models.StatusPending))
	if err == nil {
		slog.Info("purchase status changed", "method", method, "id", p.ID, "session_ref", sessionRef, "status", to)
		return p, true, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		slog.Error("failed to update purchase status", "method", method, "session_ref", sessionRef, "error", err)
		return nil, false, fmt.Errorf("failed to update purchase status: %w", err)
	}

	p, err = r.getByReference(ctx, sessionRef)
	if err != nil {
		return nil, false, err
	}
	slog.Info("purchase status unchanged", "method", method, "id", p.ID, "session_ref", sessionRef, "status", p.Status)
	return p, false, nil
}

func (r *PostgresPurchaseRepository) GetByReference(ctx context.Context, sessionRef string) (p *models.Purchase, err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, "GetPurchaseByReference")
	defer finish(&err)
	span.SetAttributes(attribute.String("session_ref", sessionRef))

	return r.getByReference(ctx, sessionRef)
}

func (r *PostgresPurchaseRepository) getByReference(ctx context.Context, sessionRef string) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE session_ref = $1`
	p, err := scanPurchase(r.db.QueryRowContext(ctx, query, sessionRef))
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Warn("purchase not found", "method", "GetByReference", "session_ref", sessionRef)
		return nil, pkgerrors.ErrPurchaseNotFound
	}
	if err != nil {
		slog.Error("failed to get purchase by reference", "method", "GetByReference", "session_ref", sessionRef, "error", err)
		return nil, fmt.Errorf("failed to get purchase by reference: %w", err)
	}
	return p, nil
}

func (r *PostgresPurchaseRepository) GetActiveByPair(ctx context.Context, buyerID, bookID int32) (p *models.Purchase, err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, "GetActivePurchase")
	defer finish(&err)
	span.SetAttributes(attribute.Int("buyer_id", int(buyerID)), attribute.Int("book_id", int(bookID)))

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE buyer_id = $1 AND book_id = $2 AND status IN ('pending', 'completed')`
	p, err = scanPurchase(r.db.QueryRowContext(ctx, query, buyerID, bookID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrPurchaseNotFound
	}
	if err != nil {
		slog.Error("failed to get active purchase", "method", "GetActiveByPair", "buyer_id", buyerID, "book_id", bookID, "error", err)
		return nil, fmt.Errorf("failed to get active purchase: %w", err)
	}
	return p, nil
}

func (r *PostgresPurchaseRepository) IsCompleted(ctx context.Context, buyerID, bookID int32) (completed bool, err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, "IsPurchaseCompleted")
	defer finish(&err)
	span.SetAttributes(attribute.Int("buyer_id", int(buyerID)), attribute.Int("book_id", int(bookID)))

	query := `SELECT EXISTS(SELECT 1 FROM purchases WHERE buyer_id = $1 AND book_id = $2 AND status = 'completed')`
	if err = r.db.QueryRowContext(ctx, query, buyerID, bookID).Scan(&completed); err != nil {
		slog.Error("failed to check purchase", "method", "IsCompleted", "buyer_id", buyerID, "book_id", bookID, "error", err)
		return false, fmt.Errorf("failed to check purchase: %w", err)
	}
	return completed, nil
}

func (r *PostgresPurchaseRepository) ListByBuyer(ctx context.Context, buyerID int32) (purchases []models.Purchase, err error) {
	ctx, span, finish := startCall(ctx, purchaseTracer, "ListPurchasesByBuyer")
	defer finish(&err)
	span.SetAttributes(attribute.Int("buyer_id", int(buyerID)))

	query := `SELECT ` + purchaseColumns + ` FROM purchases WHERE buyer_id = $1 ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, buyerID)
	if err != nil {
		slog.Error("failed to list purchases", "method", "ListByBuyer", "buyer_id", buyerID, "error", err)
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	purchases = []models.Purchase{}
	for rows.Next() {
		p, scanErr := scanPurchase(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan purchase: %w", scanErr)
			return nil, err
		}
		purchases = append(purchases, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	slog.Info("purchases listed", "method", "ListByBuyer", "buyer_id", buyerID, "count", len(purchases))
	return purchases, nil
}
