// Package stats keeps running sales totals for the bot's /stats and /money
// commands.
package stats

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/commission"
)

const UnknownPaymentType = "Не указан"

type Money struct {
	Revenue    decimal.Decimal
	Net        decimal.Decimal
	Commission decimal.Decimal
}

type Snapshot struct {
	Sales      int
	ByCurrency map[domain.Currency]Money
	ByPayment  map[string]int
}

func (s Snapshot) Total(c domain.Currency) Money {
	if m, ok := s.ByCurrency[c]; ok {
		return m
	}
	return Money{Revenue: decimal.Zero, Net: decimal.Zero, Commission: decimal.Zero}
}

// PaymentTypes lists payment types seen, most used first.
func (s Snapshot) PaymentTypes() []string {
	out := make([]string, 0, len(s.ByPayment))
	for k := range s.ByPayment {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if s.ByPayment[out[i]] != s.ByPayment[out[j]] {
			return s.ByPayment[out[i]] > s.ByPayment[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

// Accumulator is safe for concurrent use.
type Accumulator struct {
	mu         sync.Mutex
	sales      int
	byCurrency map[domain.Currency]Money
	byPayment  map[string]int
}

func NewAccumulator() *Accumulator {
	a := &Accumulator{}
	a.reset()
	return a
}

func (a *Accumulator) Add(sale domain.Sale, res commission.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.sales++

	m, ok := a.byCurrency[sale.Currency]
	if !ok {
		m = Money{Revenue: decimal.Zero, Net: decimal.Zero, Commission: decimal.Zero}
	}
	m.Revenue = m.Revenue.Add(sale.Amount)
	m.Commission = m.Commission.Add(res.Commission)
	m.Net = m.Net.Add(sale.Amount.Sub(res.Commission))
	a.byCurrency[sale.Currency] = m

	pt := sale.PaymentType
	if pt == "" {
		pt = UnknownPaymentType
	}
	a.byPayment[pt]++
}

func (a *Accumulator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		Sales:      a.sales,
		ByCurrency: make(map[domain.Currency]Money, len(a.byCurrency)),
		ByPayment:  make(map[string]int, len(a.byPayment)),
	}
	for k, v := range a.byCurrency {
		s.ByCurrency[k] = v
	}
	for k, v := range a.byPayment {
		s.ByPayment[k] = v
	}
	return s
}

func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Accumulator) reset() {
	a.sales = 0
	a.byCurrency = map[domain.Currency]Money{}
	a.byPayment = map[string]int{}
}
