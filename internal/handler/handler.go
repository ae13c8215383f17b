package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/auth"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/payment"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	service "github.com/honeynil/BookStoreTochka/internal/services"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
)

const (
	maxWebhookBody     = 64 << 10
	webhookDedupeTTL   = 72 * time.Hour
	webhookEventPrefix = "webhook:event:"
)

// NotificationParser authenticates and decodes processor notifications.
type NotificationParser interface {
	Parse(payload []byte, header string) (*payment.Notification, error)
}

type Handler struct {
	auth      service.AuthService
	catalog   service.CatalogService
	purchases service.PurchaseService
	verifier  NotificationParser
	redis     redis.RedisClient
	validate  *validator.Validate
}

func NewHandler(
	authService service.AuthService,
	catalog service.CatalogService,
	purchases service.PurchaseService,
	verifier NotificationParser,
	redisClient redis.RedisClient,
) *Handler {
	return &Handler{
		auth:      authService,
		catalog:   catalog,
		purchases: purchases,
		verifier:  verifier,
		redis:     redisClient,
		validate:  validator.New(),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// statusFor maps service errors to HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pkgerrors.ErrBookNotFound),
		errors.Is(err, pkgerrors.ErrPurchaseNotFound),
		errors.Is(err, pkgerrors.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkgerrors.ErrAlreadyPurchased),
		errors.Is(err, pkgerrors.ErrUsernameExists):
		return http.StatusConflict
	case errors.Is(err, pkgerrors.ErrInvalidInput),
		errors.Is(err, pkgerrors.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, pkgerrors.ErrNotPurchased):
		return http.StatusForbidden
	case errors.Is(err, pkgerrors.ErrPurchaseLocked):
		return http.StatusTooManyRequests
	case errors.Is(err, pkgerrors.ErrProcessorTransient),
		errors.Is(err, pkgerrors.ErrVerificationFailed),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		// Internal details stay in the logs.
		h.writeError(w, status, pkgerrors.ErrInternal)
		return
	}
	h.writeError(w, status, err)
}

func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/books", h.ListBooks).Methods("GET")
	r.HandleFunc("/books/{id:[0-9]+}", h.GetBook).Methods("GET")
	r.HandleFunc("/checkout/success", h.CheckoutSuccess).Methods("GET")
	r.HandleFunc("/checkout/cancel", h.CheckoutCancel).Methods("GET")
	r.HandleFunc("/webhooks/payment", h.PaymentWebhook).Methods("POST")
}

func (h *Handler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/books/{id:[0-9]+}/checkout", h.Checkout).Methods("POST")
	r.HandleFunc("/books/{id:[0-9]+}/download", h.Download).Methods("GET")
	r.HandleFunc("/purchases", h.ListPurchases).Methods("GET")
}

func (h *Handler) decodeCredentials(r *http.Request) (*credentials, error) {
	var req credentials
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, err
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCredentials(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCredentials(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	userID, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int32{"user_id": userID})
}

func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.catalog.ListBooks(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, books)
}

func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.bookID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	book, err := h.catalog.GetBook(r.Context(), bookID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, book)
}

func (h *Handler) bookID(r *http.Request) (int32, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, pkgerrors.ErrInvalidInput
	}
	if err := h.validate.Var(id, "gt=0"); err != nil {
		return 0, pkgerrors.ErrInvalidInput
	}
	return int32(id), nil
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	bookID, err := h.bookID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	redirectURL, err := h.purchases.Initiate(r.Context(), userID, bookID)
	if err != nil {
		slog.Error("checkout failed", "user_id", userID, "book_id", bookID, "error", err)
		h.writeServiceError(w, err)
		return
	}

	if redirectURL == "" {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "pending", "redirect_url": redirectURL})
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	bookID, err := h.bookID(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	contentURL, err := h.purchases.OpenContent(r.Context(), userID, bookID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"content_url": contentURL})
}

func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	purchases, err := h.purchases.ListPurchases(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, purchases)
}

// CheckoutSuccess is where the processor sends the buyer back. It settles
// the purchase if the notification has not done so yet.
func (h *Handler) CheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	sessionRef := r.URL.Query().Get("session_id")
	if err := h.validate.Var(sessionRef, "required,max=255"); err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("session_id is required"))
		return
	}

	completed, err := h.purchases.VerifyAndCompleteIfNeeded(r.Context(), sessionRef)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusServiceUnavailable {
			// The buyer may retry; the purchase is still pending.
			slog.Warn("verification deferred", "session_ref", sessionRef, "error", err)
			h.writeJSON(w, status, map[string]string{"status": "pending", "session_id": sessionRef})
			return
		}
		h.writeServiceError(w, err)
		return
	}

	state := "pending"
	if completed {
		state = "completed"
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": state, "session_id": sessionRef})
}

// CheckoutCancel acknowledges an abandoned checkout. The purchase stays
// pending until the processor reports the session expired.
func (h *Handler) CheckoutCancel(w http.ResponseWriter, r *http.Request) {
	sessionRef := r.URL.Query().Get("session_id")
	slog.Info("checkout cancelled by buyer", "session_ref", sessionRef)
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled", "session_id": sessionRef})
}

// PaymentWebhook receives the processor's signed notifications. Non-2xx
// responses make the processor redeliver.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := h.verifier.Parse(payload, r.Header.Get(payment.SignatureHeader))
	if err != nil {
		slog.Warn("rejected payment notification", "error", err)
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	dedupeKey := webhookEventPrefix + n.EventID
	if _, err := h.redis.Get(ctx, dedupeKey); err == nil {
		slog.Info("duplicate payment notification", "event_id", n.EventID, "type", n.Type)
		h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	} else if !errors.Is(err, redis.ErrKeyNotFound) {
		slog.Warn("failed to check notification dedupe", "event_id", n.EventID, "error", err)
	}

	switch n.Action() {
	case payment.ActionComplete:
		err = h.purchases.CompleteByReference(ctx, n.SessionRef)
	case payment.ActionFail:
		err = h.purchases.FailByReference(ctx, n.SessionRef)
	default:
		slog.Info("ignored payment notification", "event_id", n.EventID, "type", n.Type, "payment_status", n.PaymentStatus)
	}
	if err != nil {
		slog.Error("failed to process payment notification", "event_id", n.EventID, "type", n.Type, "session_ref", n.SessionRef, "error", err)
		h.writeServiceError(w, err)
		return
	}

	if err := h.redis.Set(ctx, dedupeKey, n.Type, webhookDedupeTTL); err != nil {
		slog.Warn("failed to record processed notification", "event_id", n.EventID, "error", err)
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
