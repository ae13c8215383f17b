package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	stderrors "errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/kafka"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/observability"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/payment"
	"github.com/honeynil/BookStoreTochka/internal/models"
	"github.com/honeynil/BookStoreTochka/internal/pricing"
	"github.com/honeynil/BookStoreTochka/internal/repository"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	purchaseTracer = "purchase-service"

	freeRefPrefix = "free_"

	channelPush = "push"
	channelPull = "pull"
	channelFree = "free"

	defaultVerifyPollInterval = 200 * time.Millisecond
)

type PurchaseService interface {
	// Initiate starts a purchase and returns the processor's redirect URL.
	// An empty URL means the book was free and is already owned.
	Initiate(ctx context.Context, buyerID, bookID int32) (string, error)
	IsCompleted(ctx context.Context, buyerID, bookID int32) (bool, error)
	// CompleteByReference settles the pending purchase behind sessionRef.
	// Repeated calls are no-ops.
	CompleteByReference(ctx context.Context, sessionRef string) error
	FailByReference(ctx context.Context, sessionRef string) error
	// VerifyAndCompleteIfNeeded reports whether the purchase behind
	// sessionRef is completed, asking the processor if the notification has
	// not arrived in time.
	VerifyAndCompleteIfNeeded(ctx context.Context, sessionRef string) (bool, error)
	ListPurchases(ctx context.Context, buyerID int32) ([]models.Purchase, error)
	// OpenContent returns the content location of an owned book and records
	// the download.
	OpenContent(ctx context.Context, buyerID, bookID int32) (string, error)
}

// PairLocker serializes work on one (buyer, book) pair across instances.
type PairLocker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

type PurchaseConfig struct {
	Currency           string
	PublicBaseURL      string
	PurchasesTopic     string
	DownloadsTopic     string
	PaymentTimeout     time.Duration
	VerifyWait         time.Duration
	VerifyPollInterval time.Duration
}

type purchaseService struct {
	userRepo     repository.UserRepository
	bookRepo     repository.BookRepository
	purchaseRepo repository.PurchaseRepository
	processor    payment.Processor
	locker       PairLocker
	producer     kafka.KafkaProducer
	cfg          PurchaseConfig
}

func NewPurchaseService(
	userRepo repository.UserRepository,
	bookRepo repository.BookRepository,
	purchaseRepo repository.PurchaseRepository,
	processor payment.Processor,
	locker PairLocker,
	producer kafka.KafkaProducer,
	cfg PurchaseConfig,
) *purchaseService {
	return &purchaseService{
		userRepo:     userRepo,
		bookRepo:     bookRepo,
		purchaseRepo: purchaseRepo,
		processor:    processor,
		locker:       locker,
		producer:     producer,
		cfg:          cfg,
	}
}

func pairLockKey(buyerID, bookID int32) string {
	return fmt.Sprintf("purchase:lock:%d:%d", buyerID, bookID)
}

func spanError(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

func (s *purchaseService) Initiate(ctx context.Context, buyerID, bookID int32) (string, error) {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "Initiate")
	defer span.End()
	span.SetAttributes(attribute.Int("buyer_id", int(buyerID)), attribute.Int("book_id", int(bookID)))

	if buyerID <= 0 || bookID <= 0 {
		return "", spanError(span, pkgerrors.ErrInvalidInput, "invalid ids")
	}

	if _, err := s.userRepo.GetByID(ctx, buyerID); err != nil {
		slog.Error("buyer lookup failed", "buyer_id", buyerID, "error", err)
		return "", spanError(span, err, "buyer lookup failed")
	}
	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		slog.Error("book lookup failed", "book_id", bookID, "error", err)
		return "", spanError(span, err, "book lookup failed")
	}

	if err := s.ensureNotOwned(ctx, buyerID, bookID); err != nil {
		return "", spanError(span, err, "ownership check failed")
	}

	payable := pricing.FinalPrice(book.Price, book.Discount())
	span.SetAttributes(attribute.Int64("payable", payable))

	unlock, err := s.locker.Lock(ctx, pairLockKey(buyerID, bookID))
	if err != nil {
		return "", spanError(span, err, "pair lock failed")
	}
	defer unlock()

	// Another request for the pair may have finished while we waited.
	if err := s.checkActive(ctx, buyerID, bookID); err != nil {
		return "", spanError(span, err, "ownership check failed")
	}

	if payable == 0 {
		if err := s.grantFree(ctx, buyerID, bookID); err != nil {
			return "", spanError(span, err, "free purchase failed")
		}
		return "", nil
	}

	redirectURL, err := s.startCheckout(ctx, buyerID, book, payable)
	if err != nil {
		return "", spanError(span, err, "checkout failed")
	}
	return redirectURL, nil
}

func (s *purchaseService) ensureNotOwned(ctx context.Context, buyerID, bookID int32) error {
	completed, err := s.purchaseRepo.IsCompleted(ctx, buyerID, bookID)
	if err != nil {
		return err
	}
	if completed {
		slog.Info("book already purchased", "buyer_id", buyerID, "book_id", bookID)
		return pkgerrors.ErrAlreadyPurchased
	}
	return nil
}

// checkActive rejects an owned pair and reports a pending checkout that the
// new attempt will supersede.
func (s *purchaseService) checkActive(ctx context.Context, buyerID, bookID int32) error {
	active, err := s.purchaseRepo.GetActiveByPair(ctx, buyerID, bookID)
	if stderrors.Is(err, pkgerrors.ErrPurchaseNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if active.Status == models.StatusCompleted {
		slog.Info("book purchased while waiting for lock", "buyer_id", buyerID, "book_id", bookID, "purchase_id", active.ID)
		return pkgerrors.ErrAlreadyPurchased
	}
	slog.Info("superseding pending checkout", "buyer_id", buyerID, "book_id", bookID, "purchase_id", active.ID, "session_ref", active.SessionRef)
	return nil
}

func (s *purchaseService) grantFree(ctx context.Context, buyerID, bookID int32) error {
	p := &models.Purchase{
		BuyerID:    buyerID,
		BookID:     bookID,
		AmountPaid: 0,
		SessionRef: freeRefPrefix + uuid.NewString(),
	}
	transitioned, err := s.purchaseRepo.SaveCompleted(ctx, p)
	if err != nil {
		slog.Error("failed to grant free book", "buyer_id", buyerID, "book_id", bookID, "error", err)
		return err
	}
	if transitioned {
		observability.PurchaseTransitions.WithLabelValues(string(models.StatusCompleted), channelFree).Inc()
		s.publishCompleted(ctx, p)
	}

	slog.Info("free book granted", "buyer_id", buyerID, "book_id", bookID, "purchase_id", p.ID, "transitioned", transitioned)
	return nil
}

func (s *purchaseService) startCheckout(ctx context.Context, buyerID int32, book *models.Book, payable int64) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()

	session, err := s.processor.CreateSession(callCtx, payment.SessionRequest{
		Amount:      payable,
		Currency:    s.cfg.Currency,
		Name:        book.Title,
		Description: book.Description,
		SuccessURL:  s.callbackURL("/checkout/success", buyerID, book.ID),
		CancelURL:   s.callbackURL("/checkout/cancel", buyerID, book.ID),
		Metadata: map[string]string{
			"buyer_id": strconv.Itoa(int(buyerID)),
			"book_id":  strconv.Itoa(int(book.ID)),
		},
		IdempotencyKey: uuid.NewString(),
	})
	if err != nil {
		slog.Error("failed to create checkout session", "buyer_id", buyerID, "book_id", book.ID, "error", err)
		return "", err
	}

	p := &models.Purchase{
		BuyerID:    buyerID,
		BookID:     book.ID,
		AmountPaid: payable,
		SessionRef: session.ID,
	}
	if err := s.purchaseRepo.SavePending(ctx, p); err != nil {
		slog.Error("failed to record pending purchase", "buyer_id", buyerID, "book_id", book.ID, "session_ref", session.ID, "error", err)
		return "", err
	}

	slog.Info("checkout started", "buyer_id", buyerID, "book_id", book.ID, "purchase_id", p.ID, "session_ref", session.ID, "amount", payable)
	return session.URL, nil
}

// callbackURL builds a return URL; the processor substitutes the session id
// placeholder on redirect.
func (s *purchaseService) callbackURL(path string, buyerID, bookID int32) string {
	q := url.Values{}
	q.Set("buyer_id", strconv.Itoa(int(buyerID)))
	q.Set("book_id", strconv.Itoa(int(bookID)))
	return s.cfg.PublicBaseURL + path + "?session_id={CHECKOUT_SESSION_ID}&" + q.Encode()
}

func (s *purchaseService) IsCompleted(ctx context.Context, buyerID, bookID int32) (bool, error) {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "IsCompleted")
	defer span.End()

	completed, err := s.purchaseRepo.IsCompleted(ctx, buyerID, bookID)
	if err != nil {
		return false, spanError(span, err, "completion check failed")
	}
	return completed, nil
}

func (s *purchaseService) CompleteByReference(ctx context.Context, sessionRef string) error {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "CompleteByReference")
	defer span.End()
	span.SetAttributes(attribute.String("session_ref", sessionRef))

	if _, err := s.complete(ctx, sessionRef, channelPush); err != nil {
		return spanError(span, err, "completion failed")
	}
	return nil
}

// complete performs the pending to completed transition and emits the
// completion event when this call made it. It returns the stored purchase.
func (s *purchaseService) complete(ctx context.Context, sessionRef, channel string) (*models.Purchase, error) {
	p, changed, err := s.purchaseRepo.MarkCompleted(ctx, sessionRef)
	if stderrors.Is(err, pkgerrors.ErrPurchaseNotFound) {
		slog.Error("completion for unknown session reference", "session_ref", sessionRef, "channel", channel)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if !changed {
		if p.Status == models.StatusFailed {
			slog.Warn("completion ignored for failed purchase", "purchase_id", p.ID, "session_ref", sessionRef, "channel", channel)
		} else {
			slog.Info("purchase already completed", "purchase_id", p.ID, "session_ref", sessionRef, "channel", channel)
		}
		return p, nil
	}

	observability.PurchaseTransitions.WithLabelValues(string(models.StatusCompleted), channel).Inc()
	slog.Info("purchase completed", "purchase_id", p.ID, "buyer_id", p.BuyerID, "book_id", p.BookID, "session_ref", sessionRef, "channel", channel)
	s.publishCompleted(ctx, p)
	return p, nil
}

func (s *purchaseService) FailByReference(ctx context.Context, sessionRef string) error {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "FailByReference")
	defer span.End()
	span.SetAttributes(attribute.String("session_ref", sessionRef))

	p, changed, err := s.purchaseRepo.MarkFailed(ctx, sessionRef)
	if stderrors.Is(err, pkgerrors.ErrPurchaseNotFound) {
		slog.Warn("failure for unknown session reference", "session_ref", sessionRef)
		return nil
	}
	if err != nil {
		return spanError(span, err, "fail transition failed")
	}
	if !changed {
		slog.Info("purchase not pending, failure ignored", "purchase_id", p.ID, "session_ref", sessionRef, "status", p.Status)
		return nil
	}

	observability.PurchaseTransitions.WithLabelValues(string(models.StatusFailed), channelPush).Inc()
	slog.Info("purchase failed", "purchase_id", p.ID, "buyer_id", p.BuyerID, "book_id", p.BookID, "session_ref", sessionRef)
	return nil
}

var errStillPending = stderrors.New("purchase still pending")

func (s *purchaseService) VerifyAndCompleteIfNeeded(ctx context.Context, sessionRef string) (bool, error) {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "VerifyAndCompleteIfNeeded")
	defer span.End()
	span.SetAttributes(attribute.String("session_ref", sessionRef))

	status, err := s.awaitSettlement(ctx, sessionRef)
	switch {
	case err == nil && status == models.StatusCompleted:
		observability.PurchaseVerifications.WithLabelValues("local").Inc()
		return true, nil
	case err == nil && status == models.StatusFailed:
		observability.PurchaseVerifications.WithLabelValues("failed").Inc()
		return false, nil
	case !stderrors.Is(err, errStillPending):
		return false, spanError(span, err, "local state read failed")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.PaymentTimeout)
	defer cancel()
	paymentStatus, err := s.processor.GetSessionStatus(callCtx, sessionRef)
	if err != nil {
		observability.PurchaseVerifications.WithLabelValues("error").Inc()
		slog.Error("payment verification failed", "session_ref", sessionRef, "error", err)
		return false, spanError(span, fmt.Errorf("%w: %w", pkgerrors.ErrVerificationFailed, err), "processor query failed")
	}
	if !paymentStatus.Paid() {
		observability.PurchaseVerifications.WithLabelValues("unpaid").Inc()
		slog.Info("payment not settled yet", "session_ref", sessionRef, "payment_status", paymentStatus)
		return false, nil
	}

	p, err := s.complete(ctx, sessionRef, channelPull)
	if err != nil {
		return false, spanError(span, err, "completion failed")
	}
	observability.PurchaseVerifications.WithLabelValues("processor").Inc()
	return p.Status == models.StatusCompleted, nil
}

// awaitSettlement re-reads the purchase with exponential backoff until it
// leaves pending or VerifyWait elapses. The first read happens immediately.
// It returns errStillPending if the purchase is still pending at the end.
func (s *purchaseService) awaitSettlement(ctx context.Context, sessionRef string) (models.StatusType, error) {
	read := func() (models.StatusType, error) {
		p, err := s.purchaseRepo.GetByReference(ctx, sessionRef)
		if err != nil {
			return "", err
		}
		if p.Status == models.StatusPending {
			return p.Status, errStillPending
		}
		return p.Status, nil
	}

	if s.cfg.VerifyWait <= 0 {
		return read()
	}

	poll := func() (models.StatusType, error) {
		status, err := read()
		if err != nil && !stderrors.Is(err, errStillPending) {
			return status, backoff.Permanent(err)
		}
		return status, err
	}

	interval := s.cfg.VerifyPollInterval
	if interval <= 0 {
		interval = defaultVerifyPollInterval
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.MaxInterval = s.cfg.VerifyWait
	b.MaxElapsedTime = s.cfg.VerifyWait

	return backoff.RetryWithData(poll, backoff.WithContext(b, ctx))
}

func (s *purchaseService) ListPurchases(ctx context.Context, buyerID int32) ([]models.Purchase, error) {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "ListPurchases")
	defer span.End()

	purchases, err := s.purchaseRepo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, spanError(span, err, "list purchases failed")
	}
	return purchases, nil
}

func (s *purchaseService) OpenContent(ctx context.Context, buyerID, bookID int32) (string, error) {
	ctx, span := otel.Tracer(purchaseTracer).Start(ctx, "OpenContent")
	defer span.End()
	span.SetAttributes(attribute.Int("buyer_id", int(buyerID)), attribute.Int("book_id", int(bookID)))

	completed, err := s.purchaseRepo.IsCompleted(ctx, buyerID, bookID)
	if err != nil {
		return "", spanError(span, err, "completion check failed")
	}
	if !completed {
		slog.Warn("download of unpurchased book", "buyer_id", buyerID, "book_id", bookID)
		return "", spanError(span, pkgerrors.ErrNotPurchased, "not purchased")
	}

	book, err := s.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return "", spanError(span, err, "book lookup failed")
	}

	s.publish(ctx, s.cfg.DownloadsTopic, &models.UsageEvent{
		EventID:    uuid.NewString(),
		Type:       models.UsageDownload,
		BuyerID:    buyerID,
		BookID:     bookID,
		OccurredAt: time.Now().UTC(),
	})
	return book.ContentURL, nil
}

func (s *purchaseService) publishCompleted(ctx context.Context, p *models.Purchase) {
	s.publish(ctx, s.cfg.PurchasesTopic, &models.UsageEvent{
		EventID:    uuid.NewString(),
		Type:       models.UsagePurchaseCompleted,
		BuyerID:    p.BuyerID,
		BookID:     p.BookID,
		Amount:     p.AmountPaid,
		SessionRef: p.SessionRef,
		OccurredAt: time.Now().UTC(),
	})
}

// publish is best-effort: a lost event never undoes the state change that
// produced it.
func (s *purchaseService) publish(ctx context.Context, topic string, event *models.UsageEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal usage event", "type", event.Type, "error", err)
		return
	}
	if err := s.producer.Send(ctx, topic, int64(event.BuyerID), payload); err != nil {
		slog.Error("failed to publish usage event", "type", event.Type, "buyer_id", event.BuyerID, "book_id", event.BookID, "error", err)
		return
	}
	slog.Info("usage event published", "type", event.Type, "event_id", event.EventID, "topic", topic)
}
