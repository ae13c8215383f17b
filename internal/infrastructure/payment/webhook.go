package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrMissingWebhookSecret = errors.New("webhook signing secret is not configured")

const (
	SignatureHeader = "Stripe-Signature"

	EventSessionCompleted          = "checkout.session.completed"
	EventSessionAsyncPaymentPassed = "checkout.session.async_payment_succeeded"
	EventSessionExpired            = "checkout.session.expired"
	EventSessionAsyncPaymentFailed = "checkout.session.async_payment_failed"

	defaultTolerance = 5 * time.Minute
)

type Action int

const (
	ActionIgnore Action = iota
	ActionComplete
	ActionFail
)

// Notification is an authenticated push notification about a session.
type Notification struct {
	EventID       string
	Type          string
	SessionRef    string
	PaymentStatus SessionStatus
}

// Action tells the caller what the notification means for the purchase.
func (n *Notification) Action() Action {
	switch n.Type {
	case EventSessionCompleted:
		// Delayed payment methods complete the session before funds arrive;
		// those settle via the async succeeded event.
		if n.PaymentStatus.Paid() {
			return ActionComplete
		}
		return ActionIgnore
	case EventSessionAsyncPaymentPassed:
		return ActionComplete
	case EventSessionExpired, EventSessionAsyncPaymentFailed:
		return ActionFail
	}
	return ActionIgnore
}

type event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID            string `json:"id"`
			PaymentStatus string `json:"payment_status"`
		} `json:"object"`
	} `json:"data"`
}

// WebhookVerifier authenticates notifications signed with a shared secret.
type WebhookVerifier struct {
	secret    string
	tolerance time.Duration
}

// NewWebhookVerifier refuses an empty secret: anyone can sign with an empty
// HMAC key.
func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, ErrMissingWebhookSecret
	}
	return &WebhookVerifier{
		secret:    secret,
		tolerance: defaultTolerance,
	}, nil
}

// Parse checks the signature header ("t=<unix>,v1=<hex>") against payload
// and decodes the notification. Any authentication problem is reported as
// ErrInvalidSignature.
func (v *WebhookVerifier) Parse(payload []byte, header string) (*Notification, error) {
	if v.secret == "" {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidSignature, ErrMissingWebhookSecret)
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, header, v.secret, v.tolerance); err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidSignature, err)
	}

	var e event
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, fmt.Errorf("%w: malformed notification: %v", pkgerrors.ErrInvalidInput, err)
	}
	if e.ID == "" || e.Data.Object.ID == "" {
		return nil, fmt.Errorf("%w: notification missing event or session id", pkgerrors.ErrInvalidInput)
	}

	return &Notification{
		EventID:       e.ID,
		Type:          e.Type,
		SessionRef:    e.Data.Object.ID,
		PaymentStatus: SessionStatus(e.Data.Object.PaymentStatus),
	}, nil
}

// Sign builds a signature header for payload, as the processor does.
func Sign(secret string, payload []byte, at time.Time) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: at,
	})
	return signed.Header
}
