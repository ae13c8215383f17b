package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/auth"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	redismocks "github.com/honeynil/BookStoreTochka/internal/infrastructure/redis/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func protected(t *testing.T, redisClient redis.RedisClient, tokens *auth.TokenManager) http.Handler {
	return auth.AuthMiddleware(redisClient, tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, int32(42), userID)
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	token, err := tokens.GenerateJWT(42)
	require.NoError(t, err)

	t.Run("ValidToken", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		redisMock.EXPECT().Get(gomock.Any(), "user:42:token").Return(token, nil)

		req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(t, redisMock, tokens).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)

		rec := httptest.NewRecorder()
		protected(t, redisMock, tokens).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchases", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("RevokedToken", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		redisMock.EXPECT().Get(gomock.Any(), "user:42:token").Return("", redis.ErrKeyNotFound)

		req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(t, redisMock, tokens).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		redisMock := redismocks.NewMockRedisClient(ctrl)
		forged, err := auth.NewTokenManager("other", time.Hour).GenerateJWT(42)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()
		protected(t, redisMock, tokens).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestTokenManager_ValidateJWT(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)

	t.Run("RoundTrip", func(t *testing.T) {
		token, err := tokens.GenerateJWT(7)
		require.NoError(t, err)

		claims, err := tokens.ValidateJWT(token)
		require.NoError(t, err)
		assert.Equal(t, int32(7), claims.UserID)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := auth.NewTokenManager("secret", -time.Minute).GenerateJWT(7)
		require.NoError(t, err)

		_, err = tokens.ValidateJWT(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("EmptySecret", func(t *testing.T) {
		_, err := auth.NewTokenManager("", time.Hour).GenerateJWT(7)
		assert.Error(t, err)
	})
}
