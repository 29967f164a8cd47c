package domain

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var ValidFormats = []string{"1/24", "1/48"}

// SheetHeaders names the columns of Row in order.
var SheetHeaders = []string{
	"Покупатель",
	"Дата",
	"Время",
	"Сумма",
	"Валюта",
	"Тип оплаты",
	"Формат",
	"Внешняя/Внутренняя",
	"Канал где была публикация",
	"Комментарий",
}

// ValidateFormat accepts an empty format or one of ValidFormats.
func ValidateFormat(format string) bool {
	return format == "" || lo.Contains(ValidFormats, format)
}

func (s Sale) Validate() error {
	if !ValidateFormat(s.Format) {
		return fmt.Errorf("%w: got %q", ErrInvalidFormat, s.Format)
	}
	return nil
}

// Unit returns the amount suffix that parses back to the sale currency.
func (c Currency) Unit() string {
	if c == CurrencyUSDT {
		return "usdt"
	}
	return "р"
}

// Row is the persistence layout. The manager is kept verbatim, including
// its leading @ when the message had one.
func (s Sale) Row() []interface{} {
	amount, _ := s.Amount.Float64()
	return []interface{}{
		strings.TrimSpace(s.Manager),
		s.Date,
		s.Time,
		amount,
		string(s.Currency),
		strings.TrimSpace(s.PaymentType),
		strings.TrimSpace(s.Format),
		strings.TrimSpace(s.InternalExternal),
		strings.TrimSpace(s.Channel),
		strings.TrimSpace(s.Comment),
	}
}

// SaleFromRow reverses Row. Cells may come back as strings or numbers
// depending on how the sheet renders them; missing trailing cells are empty.
func SaleFromRow(row []interface{}) (Sale, error) {
	if len(row) < 5 {
		return Sale{}, fmt.Errorf("%w: %d cells", ErrInvalidRow, len(row))
	}
	cell := func(i int) string {
		if i >= len(row) || row[i] == nil {
			return ""
		}
		return strings.TrimSpace(fmt.Sprint(row[i]))
	}

	var amount decimal.Decimal
	switch v := row[3].(type) {
	case float64:
		amount = decimal.NewFromFloat(v)
	case int:
		amount = decimal.NewFromInt(int64(v))
	case int64:
		amount = decimal.NewFromInt(v)
	case decimal.Decimal:
		amount = v
	default:
		a, err := decimal.NewFromString(strings.ReplaceAll(cell(3), ",", "."))
		if err != nil {
			return Sale{}, fmt.Errorf("%w: amount %q: %v", ErrInvalidRow, cell(3), err)
		}
		amount = a
	}

	currency := Currency(strings.ToUpper(cell(4)))
	if currency != CurrencyUSDT && currency != CurrencyRUB {
		return Sale{}, fmt.Errorf("%w: currency %q", ErrInvalidRow, cell(4))
	}

	return Sale{
		Manager:          cell(0),
		Date:             cell(1),
		Time:             cell(2),
		Amount:           amount,
		Currency:         currency,
		PaymentType:      cell(5),
		Format:           cell(6),
		InternalExternal: cell(7),
		Channel:          cell(8),
		Comment:          cell(9),
	}, nil
}

// Canonical renders the sale back into message form. The result parses
// to an equal sale within the same calendar year.
func (s Sale) Canonical() string {
	parts := []string{s.Manager}
	if len(s.Date) >= 5 {
		parts = append(parts, s.Date[:5])
	}
	parts = append(parts, s.Time, s.Amount.String()+s.Currency.Unit())
	for _, v := range []string{s.PaymentType, s.Format, s.InternalExternal, s.Channel} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	out := strings.Join(parts, " ")
	if s.Comment != "" {
		out += " / " + s.Comment
	}
	return out
}
