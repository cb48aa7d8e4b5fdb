package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxTitleLength is the longest product title accepted, in characters.
const MaxTitleLength = 4000

// MaxQuantity is the largest stock count the products table can hold
const MaxQuantity = 2147483647

func init() {
	// Prices travel as JSON numbers in responses and audit documents.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product represents a stocked item
type Product struct {
	ID        int64           `json:"id" db:"id"`
	Title     string          `json:"title" db:"title"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Version   int64           `json:"-" db:"version"`
	CreatedAt time.Time       `json:"-" db:"created_at"`
	UpdatedAt time.Time       `json:"-" db:"updated_at"`
}

// ProductInput carries the caller-supplied fields of a product
type ProductInput struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title" validate:"notblank,max=4000"`
	Quantity int             `json:"quantity" validate:"gte=0,lte=2147483647"`
	Price    decimal.Decimal `json:"price" validate:"decimal_positive"`
}

// ProductView is the priced projection returned to API callers
type ProductView struct {
	ItemName          string          `json:"itemName"`
	Quantity          int             `json:"quantity"`
	Price             decimal.Decimal `json:"price"`
	TotalPriceWithVat decimal.Decimal `json:"totalPriceWithVat"`
}

// ProductSnapshot is the serialized form of a product stored in audit entries
type ProductSnapshot struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Snapshot captures the audited fields of p
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:       p.ID,
		Title:    p.Title,
		Quantity: p.Quantity,
		Price:    p.Price,
	}
}
