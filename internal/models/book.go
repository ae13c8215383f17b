package models

import "time"

type Book struct {
	ID              int32     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Price           int64     `json:"price"`
	DiscountPercent *int32    `json:"discount_percent,omitempty"`
	ContentURL      string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// Discount returns the discount percentage, treating a missing one as zero.
func (b *Book) Discount() int32 {
	if b.DiscountPercent == nil {
		return 0
	}
	return *b.DiscountPercent
}

// BookOffer is a catalog entry together with the price a buyer pays today.
type BookOffer struct {
	Book
	FinalPrice int64 `json:"final_price"`
}
