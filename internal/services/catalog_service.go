package service

import (
	"context"

	"github.com/honeynil/BookStoreTochka/internal/models"
	"github.com/honeynil/BookStoreTochka/internal/pricing"
	"github.com/honeynil/BookStoreTochka/internal/repository"
	"go.opentelemetry.io/otel"
)

// CatalogService exposes books with the price a buyer would pay now.
type CatalogService interface {
	ListBooks(ctx context.Context) ([]models.BookOffer, error)
	GetBook(ctx context.Context, id int32) (*models.BookOffer, error)
}

type catalogService struct {
	bookRepo repository.BookRepository
}

func NewCatalogService(bookRepo repository.BookRepository) *catalogService {
	return &catalogService{bookRepo: bookRepo}
}

func offer(b models.Book) models.BookOffer {
	return models.BookOffer{Book: b, FinalPrice: pricing.FinalPrice(b.Price, b.Discount())}
}

func (s *catalogService) ListBooks(ctx context.Context) ([]models.BookOffer, error) {
	ctx, span := otel.Tracer("catalog-service").Start(ctx, "ListBooks")
	defer span.End()

	books, err := s.bookRepo.List(ctx)
	if err != nil {
		return nil, spanError(span, err, "list books failed")
	}
	offers := make([]models.BookOffer, 0, len(books))
	for _, b := range books {
		offers = append(offers, offer(b))
	}
	return offers, nil
}

func (s *catalogService) GetBook(ctx context.Context, id int32) (*models.BookOffer, error) {
	ctx, span := otel.Tracer("catalog-service").Start(ctx, "GetBook")
	defer span.End()

	b, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, spanError(span, err, "get book failed")
	}
	o := offer(*b)
	return &o, nil
}
