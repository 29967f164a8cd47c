package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	CurrencyUSDT Currency = "USDT"
	CurrencyRUB  Currency = "RUB"
)

var (
	ErrInvalidFormat = errors.New("sale: format must be 1/24 or 1/48")
	ErrInvalidRow    = errors.New("sale: malformed row")
)

// Sale is one ad-sales transaction as recorded in the books.
type Sale struct {
	Manager          string          `json:"manager"`
	Date             string          `json:"date"`
	Time             string          `json:"time"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         Currency        `json:"currency"`
	PaymentType      string          `json:"payment_type"`
	Format           string          `json:"format"`
	InternalExternal string          `json:"internal_external"`
	Channel          string          `json:"channel"`
	Comment          string          `json:"comment"`
}

type SaleRepository interface {
	Store(ctx context.Context, sale *Sale) error
	List(ctx context.Context) ([]Sale, error)
}
