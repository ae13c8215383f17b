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
	bookTracer  = "book-repository"
	bookColumns = `id, title, description, price, discount_percent, content_url, created_at`
)

type PostgresBookRepository struct {
	db *sql.DB
}

func NewPostgresBookRepository(db *sql.DB) *PostgresBookRepository {
	return &PostgresBookRepository{db: db}
}

func scanBook(row rowScanner) (*models.Book, error) {
	var b models.Book
	var discount sql.NullInt32
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Price, &discount, &b.ContentURL, &b.CreatedAt); err != nil {
		return nil, err
	}
	if discount.Valid {
		b.DiscountPercent = &discount.Int32
	}
	return &b, nil
}

func (r *PostgresBookRepository) GetByID(ctx context.Context, id int32) (b *models.Book, err error) {
	ctx, span, finish := startCall(ctx, bookTracer, "GetBookByID")
	defer finish(&err)
	span.SetAttributes(attribute.Int("book_id", int(id)))

	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`
	b, err = scanBook(r.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		slog.Warn("book not found", "method", "GetByID", "book_id", id)
		return nil, pkgerrors.ErrBookNotFound
	}
	if err != nil {
		slog.Error("failed to get book", "method", "GetByID", "book_id", id, "error", err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return b, nil
}

func (r *PostgresBookRepository) List(ctx context.Context) (books []models.Book, err error) {
	ctx, _, finish := startCall(ctx, bookTracer, "ListBooks")
	defer finish(&err)

	rows, err := r.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	if err != nil {
		slog.Error("failed to list books", "method", "List", "error", err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books = []models.Book{}
	for rows.Next() {
		b, scanErr := scanBook(rows)
		if scanErr != nil {
			err = fmt.Errorf("failed to scan book: %w", scanErr)
			return nil, err
		}
		books = append(books, *b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}
