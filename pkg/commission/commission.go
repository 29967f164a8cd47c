// Package commission computes the sales commission withheld from a sale,
// keyed by the handle of whoever recorded it.
package commission

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/ftomza/go-adsales-bot/domain"
)

// DefaultRates is the historical table: one manager pays 5%.
var DefaultRates = map[string]decimal.Decimal{
	"mqwou": decimal.NewFromFloat(0.05),
}

type Result struct {
	Rate       decimal.Decimal
	Gross      decimal.Decimal
	Commission decimal.Decimal
	Net        decimal.Decimal
}

func (r Result) Applies() bool {
	return r.Rate.IsPositive()
}

// Percent renders the rate as a whole-ish percentage, e.g. "5".
func (r Result) Percent() string {
	return r.Rate.Mul(decimal.NewFromInt(100)).String()
}

type Calculator struct {
	rates map[string]decimal.Decimal
}

func NewCalculator(rates map[string]decimal.Decimal) *Calculator {
	return &Calculator{
		rates: lo.MapKeys(rates, func(_ decimal.Decimal, k string) string {
			return handleKey(k)
		}),
	}
}

// Rate returns the rate for handle, or zero for unknown handles.
func (c *Calculator) Rate(handle string) decimal.Decimal {
	if r, ok := c.rates[handleKey(handle)]; ok {
		return r
	}
	return decimal.Zero
}

func (c *Calculator) Calculate(sale domain.Sale, handle string) Result {
	rate := c.Rate(handle)
	commission := sale.Amount.Mul(rate)
	return Result{
		Rate:       rate,
		Gross:      sale.Amount,
		Commission: commission,
		Net:        sale.Amount.Sub(commission),
	}
}

func handleKey(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// ParseRates reads "handle=rate" pairs separated by commas, e.g.
// "mqwou=0.05,anna=0.1".
func ParseRates(s string) (map[string]decimal.Decimal, error) {
	rates := map[string]decimal.Decimal{}
	pairs := lo.Filter(strings.Split(s, ","), func(p string, _ int) bool {
		return strings.TrimSpace(p) != ""
	})
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" {
			return nil, fmt.Errorf("commission: bad rate %q", pair)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			return nil, fmt.Errorf("commission: bad rate %q: %w", pair, err)
		}
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("commission: rate %q out of range", pair)
		}
		rates[handleKey(kv[0])] = rate
	}
	return rates, nil
}
