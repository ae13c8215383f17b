package repository

import (
	"context"

	"github.com/honeynil/BookStoreTochka/internal/models"
)

// PurchaseRepository persists the purchase ledger.
//
// Active means pending or completed; at most one active purchase exists per
// (buyer, book) pair.
type PurchaseRepository interface {
	// SavePending stores p as the pair's pending purchase, inserting a new
	// row or updating the pending one with p's amount and session ref.
	// Returns ErrAlreadyPurchased if the pair is already completed.
	SavePending(ctx context.Context, p *models.Purchase) error
	// SaveCompleted stores p as the pair's completed purchase. The bool is
	// true if this call performed the transition to completed.
	SaveCompleted(ctx context.Context, p *models.Purchase) (bool, error)
	// MarkCompleted moves the purchase with sessionRef from pending to
	// completed. The bool is true if this call performed the transition.
	MarkCompleted(ctx context.Context, sessionRef string) (*models.Purchase, bool, error)
	// MarkFailed moves the purchase with sessionRef from pending to failed.
	MarkFailed(ctx context.Context, sessionRef string) (*models.Purchase, bool, error)
	GetByReference(ctx context.Context, sessionRef string) (*models.Purchase, error)
	GetActiveByPair(ctx context.Context, buyerID, bookID int32) (*models.Purchase, error)
	IsCompleted(ctx context.Context, buyerID, bookID int32) (bool, error)
	ListByBuyer(ctx context.Context, buyerID int32) ([]models.Purchase, error)
}
