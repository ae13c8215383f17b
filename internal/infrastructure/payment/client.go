// Package payment talks to the external payment processor: it opens hosted
// checkout sessions, queries their payment status and authenticates the
// processor's signed notifications.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
)

type SessionStatus string

const (
	SessionPaid              SessionStatus = "paid"
	SessionUnpaid            SessionStatus = "unpaid"
	SessionNoPaymentRequired SessionStatus = "no_payment_required"
)

// Paid reports whether the processor considers the session settled.
func (s SessionStatus) Paid() bool {
	return s == SessionPaid || s == SessionNoPaymentRequired
}

type SessionRequest struct {
	Amount         int64
	Currency       string
	Name           string
	Description    string
	SuccessURL     string
	CancelURL      string
	Metadata       map[string]string
	IdempotencyKey string
}

type Session struct {
	ID  string
	URL string
}

// Processor is the subset of the processor API the store depends on.
type Processor interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error)
}

type sessionResponse struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client is a Processor backed by a Stripe-compatible checkout API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration, retries int) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError)
		})
	return &Client{http: httpClient}
}

// CreateSession opens a checkout session for a single item. The idempotency
// key makes retried requests return the same session.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	form := map[string]string{
		"mode":                                   "payment",
		"success_url":                            req.SuccessURL,
		"cancel_url":                             req.CancelURL,
		"line_items[0][quantity]":                "1",
		"line_items[0][price_data][currency]":    req.Currency,
		"line_items[0][price_data][unit_amount]": strconv.FormatInt(req.Amount, 10),
		"line_items[0][price_data][product_data][name]": req.Name,
	}
	if req.Description != "" {
		form["line_items[0][price_data][product_data][description]"] = req.Description
	}
	for k, v := range req.Metadata {
		form["metadata["+k+"]"] = v
	}

	var out sessionResponse
	var apiErr errorResponse
	r := c.http.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&out).
		SetError(&apiErr)
	if req.IdempotencyKey != "" {
		r.SetHeader("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := r.Post("/v1/checkout/sessions")
	if err := classify("create session", resp, err, &apiErr); err != nil {
		slog.Error("failed to create checkout session", "amount", req.Amount, "error", err)
		return nil, err
	}
	if out.ID == "" || out.URL == "" {
		return nil, fmt.Errorf("%w: create session: response missing id or url", pkgerrors.ErrProcessorTransient)
	}

	slog.Info("checkout session created", "session_id", out.ID, "amount", req.Amount)
	return &Session{ID: out.ID, URL: out.URL}, nil
}

func (c *Client) GetSessionStatus(ctx context.Context, sessionID string) (SessionStatus, error) {
	var out sessionResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", sessionID).
		SetResult(&out).
		SetError(&apiErr).
		Get("/v1/checkout/sessions/{id}")
	if err := classify("get session", resp, err, &apiErr); err != nil {
		slog.Error("failed to get checkout session", "session_id", sessionID, "error", err)
		return "", err
	}

	slog.Info("checkout session status", "session_id", sessionID, "status", out.Status, "payment_status", out.PaymentStatus)
	return SessionStatus(out.PaymentStatus), nil
}

// classify maps transport failures, 429 and 5xx to ErrProcessorTransient and
// other error statuses to ErrProcessorRejected.
func classify(op string, resp *resty.Response, err error, apiErr *errorResponse) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", pkgerrors.ErrProcessorTransient, op, err)
	}
	if !resp.IsError() {
		return nil
	}
	status := resp.StatusCode()
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s: status %d", pkgerrors.ErrProcessorTransient, op, status)
	}
	return fmt.Errorf("%w: %s: status %d: %s", pkgerrors.ErrProcessorRejected, op, status, apiErr.Error.Message)
}
