package service

import (
	"context"
	"fmt"
	"log/slog"

	stderrors "errors"

	"github.com/honeynil/BookStoreTochka/internal/infrastructure/auth"
	"github.com/honeynil/BookStoreTochka/internal/infrastructure/redis"
	"github.com/honeynil/BookStoreTochka/internal/models"
	"github.com/honeynil/BookStoreTochka/internal/repository"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	Register(ctx context.Context, username, password string) (int32, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type authService struct {
	userRepo    repository.UserRepository
	redisClient redis.RedisClient
	tokens      *auth.TokenManager
}

func NewAuthService(userRepo repository.UserRepository, redisClient redis.RedisClient, tokens *auth.TokenManager) *authService {
	return &authService{
		userRepo:    userRepo,
		redisClient: redisClient,
		tokens:      tokens,
	}
}

func (s *authService) Register(ctx context.Context, username, password string) (int32, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	if username == "" || password == "" {
		span.SetStatus(codes.Error, "empty username or password")
		return 0, pkgerrors.ErrInvalidInput
	}

	existingUser, err := s.userRepo.GetByUsername(ctx, username)
	if existingUser != nil {
		span.SetStatus(codes.Error, "username already exists")
		slog.Warn("username already exists",
			"username", username,
			"existing_id", existingUser.ID)
		return 0, pkgerrors.ErrUsernameExists
	}
	if err != nil && !stderrors.Is(err, pkgerrors.ErrUserNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user check failed")
		slog.Error("failed to check user existence",
			"username", username,
			"error", err)
		return 0, fmt.Errorf("%w: failed to check user existence", pkgerrors.ErrInternal)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password",
			"username", username,
			"error", err)
		return 0, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		if stderrors.Is(err, pkgerrors.ErrUserAlreadyExists) {
			return 0, pkgerrors.ErrUsernameExists
		}
		slog.Error("failed to create user in DB",
			"username", username,
			"error", err)
		return 0, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	slog.Info("user registered successfully",
		"user_id", user.ID,
		"username", username)
	return user.ID, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		slog.Error("failed to login", "username", username, "error", err)
		return "", pkgerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		slog.Error("invalid password", "username", username)
		return "", pkgerrors.ErrInvalidCredentials
	}

	tokenString, err := s.tokens.GenerateJWT(user.ID)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err)
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if err := s.redisClient.Set(ctx, auth.TokenKey(user.ID), tokenString, s.tokens.TTL()); err != nil {
		slog.Error("failed to cache JWT", "user_id", user.ID, "error", err)
	}

	slog.Info("user logged in", "username", username, "user_id", user.ID)
	return tokenString, nil
}
