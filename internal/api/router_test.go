package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/honeynil/BookStoreTochka/internal/api"
	"github.com/honeynil/BookStoreTochka/internal/handler"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/auth"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/payment"
	redismocks "github.com/honeynil/BookStoreTochka/internal/infrastructure/redis/mocks"
	"github.com/honeynil/BookStoreTochka/internal/models"
	servicemocks "github.com/honeynil/BookStoreTochka/internal/services/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestSetupRouter(t *testing.T) {
	ctrl := gomock.NewController(t)
	authService := servicemocks.NewMockAuthService(ctrl)
	catalog := servicemocks.NewMockCatalogService(ctrl)
	purchases := servicemocks.NewMockPurchaseService(ctrl)
	redisClient := redismocks.NewMockRedisClient(ctrl)
	tokens := auth.NewTokenManager("secret", time.Hour)

	verifier, err := payment.NewWebhookVerifier("whsec")
	require.NoError(t, err)
	h := handler.NewHandler(authService, catalog, purchases, verifier, redisClient)
	router := api.SetupRouter(h, redisClient, tokens)

	t.Run("public catalog", func(t *testing.T) {
		catalog.EXPECT().ListBooks(gomock.Any()).Return([]models.BookOffer{}, nil)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/books", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("protected route requires token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("protected route with token", func(t *testing.T) {
		token, err := tokens.GenerateJWT(3)
		require.NoError(t, err)
		redisClient.EXPECT().Get(gomock.Any(), "user:3:token").Return(token, nil)
		purchases.EXPECT().ListPurchases(gomock.Any(), int32(3)).Return([]models.Purchase{}, nil)

		req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "http_requests_total")
	})
}
