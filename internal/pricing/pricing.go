// Package pricing derives VAT-inclusive totals for stocked products.
package pricing

import (
	"errors"
	"fmt"

	"inventory-api/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrInvalidVATRate is returned for rates that are unparseable or negative
var ErrInvalidVATRate = errors.New("invalid VAT rate")

// Calculator applies a fixed VAT rate. It is safe for concurrent use.
type Calculator struct {
	rate       decimal.Decimal
	multiplier decimal.Decimal
}

// NewCalculator creates a Calculator for rate (e.g. 0.20 for 20%)
func NewCalculator(rate decimal.Decimal) (*Calculator, error) {
	if rate.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidVATRate, rate)
	}
	return &Calculator{
		rate:       rate,
		multiplier: decimal.NewFromInt(1).Add(rate),
	}, nil
}

// ParseRate parses a configured VAT rate such as "0.20"
func ParseRate(s string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidVATRate, s)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidVATRate, s)
	}
	return rate, nil
}

// Rate returns the configured VAT rate
func (c *Calculator) Rate() decimal.Decimal {
	return c.rate
}

// Total returns quantity * unitPrice * (1 + rate) without rounding
func (c *Calculator) Total(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity)).Mul(unitPrice).Mul(c.multiplier)
}

// View projects p into its priced display form
func (c *Calculator) View(p *domain.Product) domain.ProductView {
	return domain.ProductView{
		ItemName:          p.Title,
		Quantity:          p.Quantity,
		Price:             p.Price,
		TotalPriceWithVat: c.Total(p.Quantity, p.Price),
	}
}

// Views projects every product in ps
func (c *Calculator) Views(ps []*domain.Product) []domain.ProductView {
	views := make([]domain.ProductView, 0, len(ps))
	for _, p := range ps {
		views = append(views, c.View(p))
	}
	return views
}
