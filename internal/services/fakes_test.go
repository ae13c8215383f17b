package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/honeynil/BookStoreTochka/internal/models"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
)

// memPurchaseRepo keeps the ledger in memory with the same rules as the
// Postgres schema: one active row per pair, unique session refs and
// compare-and-set transitions.
type memPurchaseRepo struct {
	mu     sync.Mutex
	rows   []*models.Purchase
	nextID int32
}

func (r *memPurchaseRepo) active(buyerID, bookID int32) *models.Purchase {
	for _, p := range r.rows {
		if p.BuyerID == buyerID && p.BookID == bookID && (p.Status == models.StatusPending || p.Status == models.StatusCompleted) {
			return p
		}
	}
	return nil
}

func (r *memPurchaseRepo) byRef(ref string) *models.Purchase {
	for _, p := range r.rows {
		if p.SessionRef == ref {
			return p
		}
	}
	return nil
}

func (r *memPurchaseRepo) insert(p *models.Purchase, status models.StatusType) error {
	if r.byRef(p.SessionRef) != nil {
		return fmt.Errorf("duplicate session ref %s", p.SessionRef)
	}
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.Status = status
	p.CreatedAt, p.UpdatedAt = now, now
	row := *p
	r.rows = append(r.rows, &row)
	return nil
}

func (r *memPurchaseRepo) SavePending(_ context.Context, p *models.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.active(p.BuyerID, p.BookID)
	switch {
	case existing == nil:
		return r.insert(p, models.StatusPending)
	case existing.Status == models.StatusCompleted:
		return pkgerrors.ErrAlreadyPurchased
	}
	if other := r.byRef(p.SessionRef); other != nil && other != existing {
		return fmt.Errorf("duplicate session ref %s", p.SessionRef)
	}
	existing.AmountPaid = p.AmountPaid
	existing.SessionRef = p.SessionRef
	existing.UpdatedAt = time.Now().UTC()
	*p = *existing
	return nil
}

func (r *memPurchaseRepo) SaveCompleted(_ context.Context, p *models.Purchase) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.active(p.BuyerID, p.BookID)
	switch {
	case existing == nil:
		return true, r.insert(p, models.StatusCompleted)
	case existing.Status == models.StatusCompleted:
		*p = *existing
		return false, nil
	}
	existing.Status = models.StatusCompleted
	existing.AmountPaid = p.AmountPaid
	existing.UpdatedAt = time.Now().UTC()
	*p = *existing
	return true, nil
}

func (r *memPurchaseRepo) transition(ref string, to models.StatusType) (*models.Purchase, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.byRef(ref)
	if p == nil {
		return nil, false, pkgerrors.ErrPurchaseNotFound
	}
	if p.Status != models.StatusPending {
		row := *p
		return &row, false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now().UTC()
	row := *p
	return &row, true, nil
}

func (r *memPurchaseRepo) MarkCompleted(_ context.Context, ref string) (*models.Purchase, bool, error) {
	return r.transition(ref, models.StatusCompleted)
}

func (r *memPurchaseRepo) MarkFailed(_ context.Context, ref string) (*models.Purchase, bool, error) {
	return r.transition(ref, models.StatusFailed)
}

func (r *memPurchaseRepo) GetByReference(_ context.Context, ref string) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.byRef(ref)
	if p == nil {
		return nil, pkgerrors.ErrPurchaseNotFound
	}
	row := *p
	return &row, nil
}

func (r *memPurchaseRepo) GetActiveByPair(_ context.Context, buyerID, bookID int32) (*models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.active(buyerID, bookID)
	if p == nil {
		return nil, pkgerrors.ErrPurchaseNotFound
	}
	row := *p
	return &row, nil
}

func (r *memPurchaseRepo) IsCompleted(_ context.Context, buyerID, bookID int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.active(buyerID, bookID)
	return p != nil && p.Status == models.StatusCompleted, nil
}

func (r *memPurchaseRepo) ListByBuyer(_ context.Context, buyerID int32) ([]models.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Purchase{}
	for _, p := range r.rows {
		if p.BuyerID == buyerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memPurchaseRepo) countActive(buyerID, bookID int32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, p := range r.rows {
		if p.BuyerID == buyerID && p.BookID == bookID && (p.Status == models.StatusPending || p.Status == models.StatusCompleted) {
			n++
		}
	}
	return n
}

// memLocker is an in-process PairLocker.
type memLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]chan struct{})}
}

func (l *memLocker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			l.held[key] = make(chan struct{})
			l.mu.Unlock()
			return func() { l.release(key) }, nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (l *memLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	close(l.held[key])
	delete(l.held, key)
}

type lockerFunc func(ctx context.Context, key string) (func(), error)

func (f lockerFunc) Lock(ctx context.Context, key string) (func(), error) {
	return f(ctx, key)
}

// recordingProducer keeps every published usage event.
type recordingProducer struct {
	mu     sync.Mutex
	events map[string][]models.UsageEvent
}

func newRecordingProducer() *recordingProducer {
	return &recordingProducer{events: make(map[string][]models.UsageEvent)}
}

func (p *recordingProducer) Send(_ context.Context, topic string, _ int64, value []byte) error {
	var e models.UsageEvent
	if err := json.Unmarshal(value, &e); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[topic] = append(p.events[topic], e)
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func (p *recordingProducer) count(topic string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events[topic])
}
