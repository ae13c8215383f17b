package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/honeynil/BookStoreTochka/internal/handler"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/auth"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/payment"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	redismocks "github.com/honeynil/BookStoreTochka/internal/infrastructure/redis/mocks"
	"github.com/honeynil/BookStoreTochka/internal/models"
	servicemocks "github.com/honeynil/BookStoreTochka/internal/services/mocks"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const webhookSecret = "whsec_test"

type fixture struct {
	router    *mux.Router
	auth      *servicemocks.MockAuthService
	catalog   *servicemocks.MockCatalogService
	purchases *servicemocks.MockPurchaseService
	redis     *redismocks.MockRedisClient
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		auth:      servicemocks.NewMockAuthService(ctrl),
		catalog:   servicemocks.NewMockCatalogService(ctrl),
		purchases: servicemocks.NewMockPurchaseService(ctrl),
		redis:     redismocks.NewMockRedisClient(ctrl),
	}
	verifier, err := payment.NewWebhookVerifier(webhookSecret)
	require.NoError(t, err)
	h := handler.NewHandler(f.auth, f.catalog, f.purchases, verifier, f.redis)

	f.router = mux.NewRouter()
	h.RegisterPublicRoutes(f.router)
	protected := f.router.NewRoute().Subrouter()
	protected.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), 1)))
		})
	})
	h.RegisterProtectedRoutes(protected)
	return f
}

func (f *fixture) do(method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandler_Register(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().Register(gomock.Any(), "reader", "secret1").Return(int32(5), nil)

		rec := f.do(http.MethodPost, "/register", `{"username":"reader","password":"secret1"}`, nil)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, float64(5), decode(t, rec)["user_id"])
	})

	t.Run("ShortPassword", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodPost, "/register", `{"username":"reader","password":"123"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		f := newFixture(t)
		f.auth.EXPECT().Register(gomock.Any(), "reader", "secret1").Return(int32(0), pkgerrors.ErrUsernameExists)

		rec := f.do(http.MethodPost, "/register", `{"username":"reader","password":"secret1"}`, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandler_Login(t *testing.T) {
	f := newFixture(t)
	f.auth.EXPECT().Login(gomock.Any(), "reader", "wrongpass").Return("", pkgerrors.ErrInvalidCredentials)

	rec := f.do(http.MethodPost, "/login", `{"username":"reader","password":"wrongpass"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_GetBook(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.EXPECT().GetBook(gomock.Any(), int32(7)).
			Return(&models.BookOffer{Book: models.Book{ID: 7, Title: "Go in Action", Price: 999, ContentURL: "s3://secret"}, FinalPrice: 899}, nil)

		rec := f.do(http.MethodGet, "/books/7", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, float64(899), body["final_price"])
		assert.NotContains(t, rec.Body.String(), "s3://secret")
	})

	t.Run("NotFound", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.EXPECT().GetBook(gomock.Any(), int32(9)).Return(nil, pkgerrors.ErrBookNotFound)

		rec := f.do(http.MethodGet, "/books/9", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Checkout(t *testing.T) {
	t.Run("Redirect", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().Initiate(gomock.Any(), int32(1), int32(7)).Return("https://pay.test/cs_1", nil)

		rec := f.do(http.MethodPost, "/books/7/checkout", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "https://pay.test/cs_1", body["redirect_url"])
		assert.Equal(t, "pending", body["status"])
	})

	t.Run("Free", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().Initiate(gomock.Any(), int32(1), int32(8)).Return("", nil)

		rec := f.do(http.MethodPost, "/books/8/checkout", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "completed", decode(t, rec)["status"])
	})

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"AlreadyPurchased", pkgerrors.ErrAlreadyPurchased, http.StatusConflict},
		{"Locked", pkgerrors.ErrPurchaseLocked, http.StatusTooManyRequests},
		{"ProcessorDown", pkgerrors.ErrProcessorTransient, http.StatusServiceUnavailable},
		{"BookMissing", pkgerrors.ErrBookNotFound, http.StatusNotFound},
		{"Unexpected", pkgerrors.ErrProcessorRejected, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.purchases.EXPECT().Initiate(gomock.Any(), int32(1), int32(7)).Return("", tt.err)

			rec := f.do(http.MethodPost, "/books/7/checkout", "", nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandler_Download(t *testing.T) {
	t.Run("Owned", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().OpenContent(gomock.Any(), int32(1), int32(7)).Return("s3://books/7.epub", nil)

		rec := f.do(http.MethodGet, "/books/7/download", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "s3://books/7.epub", decode(t, rec)["content_url"])
	})

	t.Run("NotPurchased", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().OpenContent(gomock.Any(), int32(1), int32(7)).Return("", pkgerrors.ErrNotPurchased)

		rec := f.do(http.MethodGet, "/books/7/download", "", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_CheckoutSuccess(t *testing.T) {
	t.Run("Completed", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().VerifyAndCompleteIfNeeded(gomock.Any(), "cs_1").Return(true, nil)

		rec := f.do(http.MethodGet, "/checkout/success?session_id=cs_1&buyer_id=1&book_id=7", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "completed", decode(t, rec)["status"])
	})

	t.Run("StillPending", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().VerifyAndCompleteIfNeeded(gomock.Any(), "cs_1").Return(false, nil)

		rec := f.do(http.MethodGet, "/checkout/success?session_id=cs_1", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pending", decode(t, rec)["status"])
	})

	t.Run("VerificationFailed", func(t *testing.T) {
		f := newFixture(t)
		f.purchases.EXPECT().VerifyAndCompleteIfNeeded(gomock.Any(), "cs_1").Return(false, pkgerrors.ErrVerificationFailed)

		rec := f.do(http.MethodGet, "/checkout/success?session_id=cs_1", "", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "pending", decode(t, rec)["status"])
	})

	t.Run("MissingSession", func(t *testing.T) {
		f := newFixture(t)

		rec := f.do(http.MethodGet, "/checkout/success", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func signed(payload string) map[string]string {
	return map[string]string{payment.SignatureHeader: payment.Sign(webhookSecret, []byte(payload), time.Now())}
}

func TestHandler_PaymentWebhook(t *testing.T) {
	completedEvent := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"paid"}}}`
	expiredEvent := `{"id":"evt_2","type":"checkout.session.expired","data":{"object":{"id":"cs_1","payment_status":"unpaid"}}}`

	t.Run("CompletesPurchase", func(t *testing.T) {
		f := newFixture(t)
		f.redis.EXPECT().Get(gomock.Any(), "webhook:event:evt_1").Return("", redis.ErrKeyNotFound)
		f.purchases.EXPECT().CompleteByReference(gomock.Any(), "cs_1").Return(nil)
		f.redis.EXPECT().Set(gomock.Any(), "webhook:event:evt_1", payment.EventSessionCompleted, 72*time.Hour).Return(nil)

		rec := f.do(http.MethodPost, "/webhooks/payment", completedEvent, signed(completedEvent))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Duplicate", func(t *testing.T) {
		f := newFixture(t)
		f.redis.EXPECT().Get(gomock.Any(), "webhook:event:evt_1").Return(payment.EventSessionCompleted, nil)

		rec := f.do(http.MethodPost, "/webhooks/payment", completedEvent, signed(completedEvent))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("FailsPurchase", func(t *testing.T) {
		f := newFixture(t)
		f.redis.EXPECT().Get(gomock.Any(), "webhook:event:evt_2").Return("", redis.ErrKeyNotFound)
		f.purchases.EXPECT().FailByReference(gomock.Any(), "cs_1").Return(nil)
		f.redis.EXPECT().Set(gomock.Any(), "webhook:event:evt_2", payment.EventSessionExpired, 72*time.Hour).Return(nil)

		rec := f.do(http.MethodPost, "/webhooks/payment", expiredEvent, signed(expiredEvent))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("BadSignature", func(t *testing.T) {
		f := newFixture(t)
		headers := map[string]string{payment.SignatureHeader: payment.Sign("other", []byte(completedEvent), time.Now())}

		rec := f.do(http.MethodPost, "/webhooks/payment", completedEvent, headers)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("EmptyKeySignature", func(t *testing.T) {
		f := newFixture(t)
		headers := map[string]string{payment.SignatureHeader: payment.Sign("", []byte(completedEvent), time.Now())}

		rec := f.do(http.MethodPost, "/webhooks/payment", completedEvent, headers)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnknownReferenceIsRedelivered", func(t *testing.T) {
		f := newFixture(t)
		f.redis.EXPECT().Get(gomock.Any(), "webhook:event:evt_1").Return("", redis.ErrKeyNotFound)
		f.purchases.EXPECT().CompleteByReference(gomock.Any(), "cs_1").Return(pkgerrors.ErrPurchaseNotFound)

		rec := f.do(http.MethodPost, "/webhooks/payment", completedEvent, signed(completedEvent))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("UnpaidCompletionIgnored", func(t *testing.T) {
		f := newFixture(t)
		event := `{"id":"evt_3","type":"checkout.session.completed","data":{"object":{"id":"cs_1","payment_status":"unpaid"}}}`
		f.redis.EXPECT().Get(gomock.Any(), "webhook:event:evt_3").Return("", redis.ErrKeyNotFound)
		f.redis.EXPECT().Set(gomock.Any(), "webhook:event:evt_3", payment.EventSessionCompleted, 72*time.Hour).Return(nil)

		rec := f.do(http.MethodPost, "/webhooks/payment", event, signed(event))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
