package redis

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
)

// Locker hands out short-lived exclusive leases keyed by name. A lease
// expires after ttl even if the holder never releases it.
type Locker struct {
	client RedisClient
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func NewLocker(client RedisClient, ttl, wait time.Duration) *Locker {
	return &Locker{
		client: client,
		ttl:    ttl,
		wait:   wait,
		retry:  50 * time.Millisecond,
	}
}

var errLeaseHeld = stderrors.New("lease held by another holder")

// Lock blocks until the lease for key is acquired, the wait budget runs out
// (ErrPurchaseLocked) or ctx is done. The returned func releases the lease.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()

	acquire := func() (func(), error) {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			slog.Error("failed to acquire lock", "lock_key", key, "error", err)
			return nil, backoff.Permanent(fmt.Errorf("failed to acquire lock %s: %w", key, err))
		}
		if !ok {
			return nil, errLeaseHeld
		}
		return func() { l.release(key, token) }, nil
	}

	// A zero wait budget means a single attempt.
	var b backoff.BackOff = &backoff.StopBackOff{}
	if l.wait > 0 {
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = l.retry
		eb.MaxInterval = l.wait
		eb.MaxElapsedTime = l.wait
		b = eb
	}

	unlock, err := backoff.RetryWithData(acquire, backoff.WithContext(b, ctx))
	if stderrors.Is(err, errLeaseHeld) {
		slog.Warn("lock wait exceeded", "lock_key", key, "wait", l.wait)
		return nil, pkgerrors.ErrPurchaseLocked
	}
	if err != nil {
		return nil, err
	}
	return unlock, nil
}

func (l *Locker) release(key, token string) {
	// Released with a fresh context so a cancelled request still frees the lease.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	released, err := l.client.DelIfEqual(ctx, key, token)
	if err != nil {
		slog.Error("failed to release lock", "lock_key", key, "error", err)
		return
	}
	if !released {
		slog.Warn("lock expired before release", "lock_key", key)
	}
}
