package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/honeynil/BookStoreTochka/internal/models"
	pkgerrors "github.com/honeynil/BookStoreTochka/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

const (
	userTracer        = "user-repository"
	maxUsernameLength = 50
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, span, finish := startCall(ctx, userTracer, "CreateUser")
	defer finish(&err)

	if user == nil {
		err = pkgerrors.ErrNilUser
		return err
	}
	switch {
	case user.Username == "":
		err = fmt.Errorf("username is required")
	case len(user.Username) > maxUsernameLength:
		err = fmt.Errorf("username too long")
	case user.PasswordHash == "":
		err = fmt.Errorf("password_hash is required")
	}
	if err != nil {
		slog.Error("invalid user", "method", "Create", "error", err)
		return err
	}
	span.SetAttributes(attribute.String("username", user.Username))

	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if _, ok := uniqueViolation(err); ok {
		err = pkgerrors.ErrUserAlreadyExists
		return err
	}
	if err != nil {
		slog.Error("failed to create user", "method", "Create", "username", user.Username, "error", err)
		return fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created", "method", "Create", "user_id", user.ID, "username", user.Username)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int32) (user *models.User, err error) {
	ctx, span, finish := startCall(ctx, userTracer, "GetUserByID")
	defer finish(&err)
	span.SetAttributes(attribute.Int("user_id", int(id)))

	var u models.User
	query := `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`
	err = r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrUserNotFound
	}
	if err != nil {
		slog.Error("failed to get user by id", "method", "GetByID", "user_id", id, "error", err)
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (user *models.User, err error) {
	ctx, _, finish := startCall(ctx, userTracer, "GetUserByUsername")
	defer finish(&err)

	if username == "" {
		err = fmt.Errorf("username cannot be empty")
		return nil, err
	}

	var u models.User
	query := `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`
	err = r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
		return nil, pkgerrors.ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return &u, nil
}
