package parser

import (
	"regexp"
	"strings"
)

type field int

const (
	fieldManager field = iota
	fieldDate
	fieldTime
	fieldAmount
	fieldUnit
	fieldPayment
	fieldFormat
	fieldInternal
	fieldRest
)

// piece is one whitespace-separated slot of a template and the fields its
// capture groups fill, in group order.
type piece struct {
	expr   string
	fields []field
}

const word = `[\p{L}\p{N}_]+`

var (
	handle   = piece{`@(` + word + `)`, []field{fieldManager}}
	fullName = piece{`@?(` + word + `\s+` + word + `)`, []field{fieldManager}}

	dotDate   = piece{`(\d{1,2}\.\d{1,2})`, []field{fieldDate}}
	slashDate = piece{`(\d{1,2}/\d{1,2})`, []field{fieldDate}}
	dashDate  = piece{`(\d{1,2}-\d{1,2})`, []field{fieldDate}}
	wordDate  = piece{`(\d{1,2}\s+\p{L}+)`, []field{fieldDate}}

	colonTime = piece{`(\d{1,2}:\d{2})`, []field{fieldTime}}
	bareTime  = piece{`(\d{3,4})`, []field{fieldTime}}
	anyTime   = piece{`(\d{1,2}:\d{2}|\d{3,4})`, []field{fieldTime}}

	// The catch-all slots take either a date or a time; the token with a
	// colon ends up as the time.
	anyDate  = piece{`(\d{1,2}[./-]\d{1,2}|\d{1,2}\s+\p{L}+|\d{1,2}:\d{2})`, []field{fieldDate}}
	anyClock = piece{`(\d{1,2}:\d{2}|\d{3,4}|\d{1,2}[./-]\d{1,2})`, []field{fieldTime}}

	money        = piece{`(\d+(?:\.\d+)?)(usdt|руб|р|\$|₽|юсдт)`, []field{fieldAmount, fieldUnit}}
	moneyAnyUnit = piece{`(\d+(?:\.\d+)?)(usdt|руб|р|\$|₽|юсдт)?`, []field{fieldAmount, fieldUnit}}

	payType   = piece{`(` + word + `)`, []field{fieldPayment}}
	placement = piece{`(` + word + `)`, []field{fieldInternal}}
	adFormat  = piece{`(\d+/\d+)`, []field{fieldFormat}}
	tail      = piece{`(.+)`, []field{fieldRest}}
)

type template struct {
	name   string
	re     *regexp.Regexp
	fields []field
}

func newTemplate(name string, pieces ...piece) template {
	exprs := make([]string, 0, len(pieces))
	var fields []field
	for _, p := range pieces {
		exprs = append(exprs, p.expr)
		fields = append(fields, p.fields...)
	}
	return template{
		name:   name,
		re:     regexp.MustCompile(`(?is)^` + strings.Join(exprs, `\s+`)),
		fields: fields,
	}
}

// Order matters: specific shapes come before the permissive ones that
// would also accept them.
var defaultTemplates = []template{
	newTemplate("handle-payment-format-internal", handle, dotDate, colonTime, money, payType, adFormat, placement, tail),
	newTemplate("name-payment-format-internal", fullName, dotDate, anyTime, money, payType, adFormat, placement, tail),
	newTemplate("name-payment-internal-format", fullName, dotDate, anyTime, money, payType, placement, adFormat, tail),
	newTemplate("name-monthname-format", fullName, wordDate, colonTime, money, adFormat, tail),
	newTemplate("name-dotdate-format", fullName, dotDate, colonTime, money, adFormat, tail),
	newTemplate("handle-monthname-format", handle, wordDate, colonTime, money, adFormat, tail),
	newTemplate("handle-dotdate-format", handle, dotDate, colonTime, money, adFormat, tail),
	newTemplate("name-baretime-first-format", fullName, bareTime, dotDate, money, adFormat, tail),
	newTemplate("name-colontime-first-format", fullName, colonTime, dotDate, money, adFormat, tail),
	newTemplate("handle-dotdate-baretime-format", handle, dotDate, bareTime, money, adFormat, tail),
	newTemplate("handle-monthname", handle, wordDate, colonTime, money, tail),
	newTemplate("handle-dotdate", handle, dotDate, colonTime, money, tail),
	newTemplate("handle-slashdate", handle, slashDate, colonTime, money, tail),
	newTemplate("handle-dashdate", handle, dashDate, colonTime, money, tail),
	newTemplate("handle-monthname-baretime", handle, wordDate, bareTime, money, tail),
	newTemplate("handle-dotdate-baretime", handle, dotDate, bareTime, money, tail),
	newTemplate("handle-slashdate-baretime", handle, slashDate, bareTime, money, tail),
	newTemplate("handle-any", handle, anyDate, anyClock, moneyAnyUnit, tail),
	newTemplate("name-any", fullName, anyDate, anyClock, moneyAnyUnit, tail),
}
