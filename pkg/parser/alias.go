package parser

import (
	"regexp"
	"sort"
	"strings"
)

var compactRe = regexp.MustCompile(`[\s-]+`)

// Aliases maps free-text variants to canonical labels. Keys are lower case.
// An Aliases value is read-only after construction.
type Aliases struct {
	channels         map[string]string
	paymentTypes     map[string]string
	internalExternal map[string]string

	// canonical channel labels, longest first
	channelLabels []string
}

func NewAliases(channels, paymentTypes, internalExternal map[string]string) *Aliases {
	a := &Aliases{
		channels:         lowerKeys(channels),
		paymentTypes:     lowerKeys(paymentTypes),
		internalExternal: lowerKeys(internalExternal),
	}
	seen := map[string]bool{}
	for _, v := range a.channels {
		if !seen[v] {
			seen[v] = true
			a.channelLabels = append(a.channelLabels, v)
		}
	}
	sort.Slice(a.channelLabels, func(i, j int) bool {
		if len(a.channelLabels[i]) != len(a.channelLabels[j]) {
			return len(a.channelLabels[i]) > len(a.channelLabels[j])
		}
		return a.channelLabels[i] < a.channelLabels[j]
	})
	return a
}

func DefaultAliases() *Aliases {
	const rb = "Русский Бизнес | Экономика"
	return NewAliases(
		map[string]string{
			"русский бизнес": rb,
			"русский-бизнес": rb,
			"рб":             rb,
			"rb":             rb,
			"русбизнес":      rb,
		},
		map[string]string{
			"сбп":          "СБП",
			"карта":        "Карта",
			"крипта":       "Криптовалюта",
			"криптовалюта": "Криптовалюта",
			"ип":           "ИП",
		},
		map[string]string{
			"внешка":     "Внешняя",
			"внешняя":    "Внешняя",
			"внутренняя": "Внутренняя",
			"внутреняя":  "Внутренняя",
			"внутренний": "Внутренняя",
			"внутрянка":  "Внутренняя",
		},
	)
}

func lowerKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

// Channel tries the exact key first, then a key with whitespace and
// hyphen runs collapsed to one space.
func (a *Aliases) Channel(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if v, ok := a.channels[key]; ok {
		return v
	}
	compact := strings.TrimSpace(compactRe.ReplaceAllString(key, " "))
	if v, ok := a.channels[compact]; ok {
		return v
	}
	return name
}

func (a *Aliases) PaymentType(name string) string {
	return lookup(a.paymentTypes, name)
}

func (a *Aliases) InternalExternal(name string) string {
	return lookup(a.internalExternal, name)
}

func (a *Aliases) IsPaymentType(name string) bool {
	return known(a.paymentTypes, name)
}

func (a *Aliases) IsInternalExternal(name string) bool {
	return known(a.internalExternal, name)
}

func known(table map[string]string, name string) bool {
	_, ok := table[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func lookup(table map[string]string, name string) string {
	if name == "" {
		return ""
	}
	if v, ok := table[strings.ToLower(strings.TrimSpace(name))]; ok {
		return v
	}
	return name
}
