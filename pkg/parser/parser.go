// Package parser turns free-form ad-sales chat messages into domain.Sale
// records.
//
// A Parser holds an ordered list of templates. Each template is tried in
// turn; the first one that both matches the shape of the message and yields
// a valid sale wins. A template that matches but cannot be built (bad
// calendar date, zero amount) does not stop the search.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/ftomza/go-adsales-bot/domain"
)

var ErrNoMatch = errors.New("parser: message does not look like a sale")

var formatToken = regexp.MustCompile(`^\d+/\d+$`)

type status int

const (
	statusMismatch status = iota
	statusRejected
	statusMatched
)

type result struct {
	status status
	sale   domain.Sale
	err    error
}

type Option func(p *Parser)

// WithClock sets the source of the current year for dates.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) {
		p.now = now
	}
}

func WithAliases(aliases *Aliases) Option {
	return func(p *Parser) {
		p.aliases = aliases
	}
}

// Parser is immutable after New and safe for concurrent use.
type Parser struct {
	templates []template
	aliases   *Aliases
	splitter  *Splitter
	now       func() time.Time
}

func New(opts ...Option) *Parser {
	p := &Parser{
		templates: defaultTemplates,
		aliases:   DefaultAliases(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.splitter = NewSplitter(p.aliases)
	return p
}

func (p *Parser) Aliases() *Aliases {
	return p.aliases
}

// Parse returns the sale described by text. When no template produces a
// sale the error wraps ErrNoMatch.
func (p *Parser) Parse(text string) (domain.Sale, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\u00a0", " "))
	now := p.now()

	var rejected error
	for _, t := range p.templates {
		res := p.apply(t, text, now)
		switch res.status {
		case statusMatched:
			return res.sale, nil
		case statusRejected:
			if rejected == nil {
				rejected = fmt.Errorf("%s: %w", t.name, res.err)
			}
		}
	}
	if rejected != nil {
		return domain.Sale{}, fmt.Errorf("%w: %v", ErrNoMatch, rejected)
	}
	return domain.Sale{}, ErrNoMatch
}

type tag struct {
	kind  field
	value string
}

type captured struct {
	manager, date, clock, amount, unit, rest string
	tags                                     []tag
}

func (p *Parser) apply(t template, text string, now time.Time) result {
	groups := t.re.FindStringSubmatch(text)
	if groups == nil {
		return result{status: statusMismatch}
	}

	var c captured
	for i, f := range t.fields {
		v := groups[i+1]
		switch f {
		case fieldManager:
			c.manager = v
		case fieldDate:
			c.date = v
		case fieldTime:
			c.clock = v
		case fieldAmount:
			c.amount = v
		case fieldUnit:
			c.unit = v
		case fieldPayment, fieldFormat, fieldInternal:
			c.tags = append(c.tags, tag{kind: f, value: v})
		case fieldRest:
			c.rest = v
		}
	}

	sale, err := p.build(c, text, now)
	if err != nil {
		return result{status: statusRejected, err: err}
	}
	return result{status: statusMatched, sale: sale}
}

func (p *Parser) build(c captured, text string, now time.Time) (domain.Sale, error) {
	date, clock := c.date, c.clock
	if strings.Contains(date, ":") && !strings.Contains(clock, ":") {
		date, clock = clock, date
	}

	normDate, err := NormalizeDate(date, now)
	if err != nil {
		return domain.Sale{}, err
	}
	normTime, err := NormalizeTime(clock)
	if err != nil {
		return domain.Sale{}, err
	}

	amount, err := decimal.NewFromString(c.amount)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("amount %q: %w", c.amount, err)
	}
	if !amount.IsPositive() {
		return domain.Sale{}, fmt.Errorf("amount %q must be positive", c.amount)
	}

	rest, tags := p.leadingTags(c.rest, c.tags)

	channel, comment := p.splitter.Split(rest)
	if channel == "" {
		return domain.Sale{}, errors.New("empty channel")
	}

	paymentType, format, internalExternal := classifyTags(tags)

	return domain.Sale{
		Manager:          manager(c.manager, text),
		Date:             normDate,
		Time:             normTime,
		Amount:           amount,
		Currency:         currency(c.unit, text),
		PaymentType:      p.aliases.PaymentType(paymentType),
		Format:           format,
		InternalExternal: p.aliases.InternalExternal(internalExternal),
		Channel:          channel,
		Comment:          comment,
	}, nil
}

// leadingTags moves tag tokens at the head of rest into tags when the
// template had no slot for them: any format token, and known payment or
// placement words as long as something is left for the channel.
func (p *Parser) leadingTags(rest string, tags []tag) (string, []tag) {
	var hasFormat, hasPayment, hasInternal bool
	for _, t := range tags {
		switch {
		case formatToken.MatchString(t.value):
			hasFormat = true
		case t.kind == fieldPayment:
			hasPayment = true
		case t.kind == fieldInternal:
			hasInternal = true
		}
	}

	out := append([]tag(nil), tags...)
	for {
		token, remaining := cutToken(rest)
		switch {
		case token == "":
			return rest, out
		case !hasFormat && formatToken.MatchString(token):
			hasFormat = true
			out = append(out, tag{kind: fieldFormat, value: token})
		case remaining == "":
			return rest, out
		case !hasPayment && p.aliases.IsPaymentType(token):
			hasPayment = true
			out = append(out, tag{kind: fieldPayment, value: token})
		case !hasInternal && p.aliases.IsInternalExternal(token):
			hasInternal = true
			out = append(out, tag{kind: fieldInternal, value: token})
		default:
			return rest, out
		}
		rest = remaining
	}
}

// cutToken splits off the first whitespace-separated token. remaining keeps
// its inner spacing, which the comment splitter relies on.
func cutToken(s string) (token, remaining string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

// manager carries an @ only when the message itself started with one.
func manager(name, text string) string {
	name = strings.Join(strings.Fields(name), " ")
	if strings.HasPrefix(text, "@") && !strings.HasPrefix(name, "@") {
		return "@" + name
	}
	return name
}

// currency maps the unit suffix; without one the whole message is
// searched for a USDT marker, and RUB is the fallback.
func currency(unit, text string) domain.Currency {
	switch strings.ToLower(unit) {
	case "р", "руб", "₽":
		return domain.CurrencyRUB
	case "usdt", "$", "юсдт":
		return domain.CurrencyUSDT
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "usdt") || strings.Contains(lower, "$") || strings.Contains(lower, "юсдт") {
		return domain.CurrencyUSDT
	}
	return domain.CurrencyRUB
}

// classifyTags picks the format by content; the other tags keep the
// relative order the template declared for them.
func classifyTags(tags []tag) (paymentType, format, internalExternal string) {
	assign := func(kind field, v string) {
		switch kind {
		case fieldPayment:
			paymentType = v
		case fieldFormat:
			format = v
		case fieldInternal:
			internalExternal = v
		}
	}

	formatAt := -1
	for i, t := range tags {
		if formatToken.MatchString(t.value) {
			formatAt = i
			break
		}
	}
	if formatAt < 0 {
		for _, t := range tags {
			assign(t.kind, t.value)
		}
		return
	}

	format = tags[formatAt].value
	var kinds []field
	var values []string
	for i, t := range tags {
		if t.kind != fieldFormat {
			kinds = append(kinds, t.kind)
		}
		if i != formatAt {
			values = append(values, t.value)
		}
	}
	for i, kind := range kinds {
		if i < len(values) {
			assign(kind, values[i])
		}
	}
	return
}
