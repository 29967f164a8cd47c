package parser

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ftomza/go-adsales-bot/domain"
)

func newTestParser() *Parser {
	return New(WithClock(func() time.Time { return testNow }))
}

func assertSale(t *testing.T, want, got domain.Sale) {
	t.Helper()
	assert.True(t, want.Amount.Equal(got.Amount), "amount: want %s, got %s", want.Amount, got.Amount)
	want.Amount, got.Amount = decimal.Zero, decimal.Zero
	assert.Equal(t, want, got)
}

func TestParser_Parse(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		in   string
		want domain.Sale
	}{
		{
			name: "full name with payment, format and placement",
			in:   "Максим Шариков 12.06 1215 500р сбп 1/48 внешка русский бизнес / вероятно купят еще",
			want: domain.Sale{
				Manager:          "Максим Шариков",
				Date:             "12.06.2026",
				Time:             "12:15",
				Amount:           decimal.NewFromInt(500),
				Currency:         domain.CurrencyRUB,
				PaymentType:      "СБП",
				Format:           "1/48",
				InternalExternal: "Внешняя",
				Channel:          "Русский Бизнес | Экономика",
				Comment:          "вероятно купят еще",
			},
		},
		{
			name: "handle with month name",
			in:   "@maxim 12 декабря 11:11 1489usdt 1/24 BusinessChannel",
			want: domain.Sale{
				Manager:  "@maxim",
				Date:     "12.12.2026",
				Time:     "11:11",
				Amount:   decimal.NewFromInt(1489),
				Currency: domain.CurrencyUSDT,
				Format:   "1/24",
				Channel:  "BusinessChannel",
			},
		},
		{
			name: "handle with payment, format and placement",
			in:   "@ads_busine 17.09 17:00 148usdt криптовалюта 1/24 внутренняя русский бизнес",
			want: domain.Sale{
				Manager:          "@ads_busine",
				Date:             "17.09.2026",
				Time:             "17:00",
				Amount:           decimal.NewFromInt(148),
				Currency:         domain.CurrencyUSDT,
				PaymentType:      "Криптовалюта",
				Format:           "1/24",
				InternalExternal: "Внутренняя",
				Channel:          "Русский Бизнес | Экономика",
			},
		},
		{
			name: "placement before format",
			in:   "Максим Шариков 12.06 1215 500р крипта внешка 1/48 русский бизнес / вероятно купят еще",
			want: domain.Sale{
				Manager:          "Максим Шариков",
				Date:             "12.06.2026",
				Time:             "12:15",
				Amount:           decimal.NewFromInt(500),
				Currency:         domain.CurrencyRUB,
				PaymentType:      "Криптовалюта",
				Format:           "1/48",
				InternalExternal: "Внешняя",
				Channel:          "Русский Бизнес | Экономика",
				Comment:          "вероятно купят еще",
			},
		},
		{
			name: "bare time before date",
			in:   "Ксения Вантрип 1230 16.04 501юсдт 1/24 БиБ",
			want: domain.Sale{
				Manager:  "Ксения Вантрип",
				Date:     "16.04.2026",
				Time:     "12:30",
				Amount:   decimal.NewFromInt(501),
				Currency: domain.CurrencyUSDT,
				Format:   "1/24",
				Channel:  "БиБ",
			},
		},
		{
			name: "colon time before date",
			in:   "Ксения Вантрип 12:30 16.04 501юсдт 1/24 БиБ",
			want: domain.Sale{
				Manager:  "Ксения Вантрип",
				Date:     "16.04.2026",
				Time:     "12:30",
				Amount:   decimal.NewFromInt(501),
				Currency: domain.CurrencyUSDT,
				Format:   "1/24",
				Channel:  "БиБ",
			},
		},
		{
			name: "handle without format",
			in:   "@anna 14.05 11:11 500р каналбизнес",
			want: domain.Sale{
				Manager:  "@anna",
				Date:     "14.05.2026",
				Time:     "11:11",
				Amount:   decimal.NewFromInt(500),
				Currency: domain.CurrencyRUB,
				Channel:  "каналбизнес",
			},
		},
		{
			name: "dash date",
			in:   "@maxim 12-12 11:11 500руб каналбизнес",
			want: domain.Sale{
				Manager:  "@maxim",
				Date:     "12.12.2026",
				Time:     "11:11",
				Amount:   decimal.NewFromInt(500),
				Currency: domain.CurrencyRUB,
				Channel:  "каналбизнес",
			},
		},
		{
			name: "abbreviated month and bare time",
			in:   "@bob 12 янв 1634 888юсдт СОсалово",
			want: domain.Sale{
				Manager:  "@bob",
				Date:     "12.01.2026",
				Time:     "16:34",
				Amount:   decimal.NewFromInt(888),
				Currency: domain.CurrencyUSDT,
				Channel:  "СОсалово",
			},
		},
		{
			name: "slash date and three digit time",
			in:   "@charlie 10/03 915 2000юсдт НовыйКанал",
			want: domain.Sale{
				Manager:  "@charlie",
				Date:     "10.03.2026",
				Time:     "09:15",
				Amount:   decimal.NewFromInt(2000),
				Currency: domain.CurrencyUSDT,
				Channel:  "НовыйКанал",
			},
		},
		{
			name: "dollar sign and fractional amount",
			in:   "@maxim 12.12 11:11 99.5$ 1/48 рб",
			want: domain.Sale{
				Manager:  "@maxim",
				Date:     "12.12.2026",
				Time:     "11:11",
				Amount:   decimal.RequireFromString("99.5"),
				Currency: domain.CurrencyUSDT,
				Format:   "1/48",
				Channel:  "Русский Бизнес | Экономика",
			},
		},
		{
			name: "full name with leading at",
			in:   "@Иван Петров 01.02 10:00 700р 1/24 Канал",
			want: domain.Sale{
				Manager:  "@Иван Петров",
				Date:     "01.02.2026",
				Time:     "10:00",
				Amount:   decimal.NewFromInt(700),
				Currency: domain.CurrencyRUB,
				Format:   "1/24",
				Channel:  "Канал",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.in)
			require.NoError(t, err)
			assertSale(t, tt.want, got)
		})
	}
}

func TestParser_Parse_Currency(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		in   string
		want domain.Currency
	}{
		{name: "rouble suffix", in: "@maxim 12.12 11:11 500р канал", want: domain.CurrencyRUB},
		{name: "rouble sign", in: "@maxim 12.12 11:11 500₽ канал", want: domain.CurrencyRUB},
		{name: "usdt suffix", in: "@maxim 12.12 11:11 148usdt канал", want: domain.CurrencyUSDT},
		{name: "upper case usdt", in: "@maxim 12.12 11:11 148USDT канал", want: domain.CurrencyUSDT},
		{name: "no unit, dollar elsewhere", in: "@maxim 12.12 11:11 500 канал оплата в $", want: domain.CurrencyUSDT},
		{name: "no unit, usdt elsewhere", in: "Иван Петров 12.12 11:11 500 канал usdt", want: domain.CurrencyUSDT},
		{name: "no unit defaults to rub", in: "@maxim 12.12 11:11 500 канал", want: domain.CurrencyRUB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Currency)
			assert.True(t, decimal.NewFromInt(got.Amount.IntPart()).Equal(got.Amount))
			assert.True(t, got.Amount.IsPositive())
		})
	}
}

func TestParser_Parse_NoMatch(t *testing.T) {
	p := newTestParser()

	for _, in := range []string{
		"random unrelated text",
		"",
		"@maxim 31.02 11:11 500р канал",
		"@maxim 12 мартобря 11:11 500р канал",
		"@maxim 12.12 11:11 0р канал",
		"@maxim 12.12 25:11 500р канал",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := p.Parse(in)
			assert.True(t, errors.Is(err, ErrNoMatch), "got %v", err)
		})
	}
}

func TestParser_Parse_InvalidFormatStillParses(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name    string
		in      string
		channel string
		payment string
	}{
		{name: "format slot", in: "@maxim 12.12 11:11 1489usdt 1/36 BusinessChannel", channel: "BusinessChannel"},
		{name: "no unit", in: "@maxim 12.12 11:11 500 1/36 канал", channel: "канал"},
		{name: "payment without format slot", in: "Иван Петров 12.12 11:11 500р сбп 1/36 рб", channel: "Русский Бизнес | Экономика", payment: "СБП"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale, err := p.Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, "1/36", sale.Format)
			assert.Equal(t, tt.channel, sale.Channel)
			assert.Equal(t, tt.payment, sale.PaymentType)
			assert.ErrorIs(t, sale.Validate(), domain.ErrInvalidFormat)
		})
	}
}

func TestParser_Parse_LeadingTagsInTail(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		in   string
		want domain.Sale
	}{
		{
			name: "payment and placement before channel",
			in:   "@maxim 12.12 11:11 500р сбп внешка канал / купят еще",
			want: domain.Sale{
				Manager:          "@maxim",
				Date:             "12.12.2026",
				Time:             "11:11",
				Amount:           decimal.NewFromInt(500),
				Currency:         domain.CurrencyRUB,
				PaymentType:      "СБП",
				InternalExternal: "Внешняя",
				Channel:          "канал",
				Comment:          "купят еще",
			},
		},
		{
			name: "valid format without unit",
			in:   "@maxim 12.12 11:11 500 1/24 рб",
			want: domain.Sale{
				Manager:  "@maxim",
				Date:     "12.12.2026",
				Time:     "11:11",
				Amount:   decimal.NewFromInt(500),
				Currency: domain.CurrencyRUB,
				Format:   "1/24",
				Channel:  "Русский Бизнес | Экономика",
			},
		},
		{
			name: "payment word alone is the channel",
			in:   "@maxim 12.12 11:11 500р карта",
			want: domain.Sale{
				Manager:  "@maxim",
				Date:     "12.12.2026",
				Time:     "11:11",
				Amount:   decimal.NewFromInt(500),
				Currency: domain.CurrencyRUB,
				Channel:  "карта",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.in)
			require.NoError(t, err)
			assertSale(t, tt.want, got)
		})
	}
}

func TestParser_Parse_TimeBeforeDateWithoutFormat(t *testing.T) {
	p := newTestParser()

	sale, err := p.Parse("Иван Петров 12:30 16.04 501юсдт БиБ")
	require.NoError(t, err)
	assert.Equal(t, "Иван Петров", sale.Manager)
	assert.Equal(t, "16.04.2026", sale.Date)
	assert.Equal(t, "12:30", sale.Time)
	assert.Equal(t, domain.CurrencyUSDT, sale.Currency)
	assert.Equal(t, "БиБ", sale.Channel)

	sale, err = p.Parse("@maxim 11:11 12.12 500р канал")
	require.NoError(t, err)
	assert.Equal(t, "12.12.2026", sale.Date)
	assert.Equal(t, "11:11", sale.Time)
}

func TestParser_Parse_Canonical(t *testing.T) {
	p := newTestParser()

	for _, in := range []string{
		"Максим Шариков 12.06 1215 500р сбп 1/48 внешка русский бизнес / вероятно купят еще",
		"Максим Шариков 12.06 1215 500р крипта внешка 1/48 рб",
		"@maxim 12 декабря 11:11 1489usdt 1/24 BusinessChannel",
		"@anna 14.05 11:11 500р каналбизнес",
		"@charlie 10/03 915 2000юсдт НовыйКанал / позже",
		"Тарас Лобков 25.06 11:11 1489usdt 1/24 BusinessChannel",
		"@maxim 12.12 11:11 500р сбп внешка канал / купят еще",
	} {
		t.Run(in, func(t *testing.T) {
			first, err := p.Parse(in)
			require.NoError(t, err)

			second, err := p.Parse(first.Canonical())
			require.NoError(t, err, first.Canonical())
			assertSale(t, first, second)
		})
	}
}

func TestParser_FallsThroughOnRejectedTemplate(t *testing.T) {
	token := func(f field) piece { return piece{`(\S+)`, []field{f}} }

	p := newTestParser()
	p.templates = []template{
		newTemplate("date-first", handle, token(fieldDate), token(fieldTime), money, tail),
		newTemplate("time-first", handle, token(fieldTime), token(fieldDate), money, tail),
	}

	text := "@maxim 1215 12.06 500р канал"
	assert.Equal(t, statusRejected, p.apply(p.templates[0], text, testNow).status)
	assert.Equal(t, statusMismatch, p.apply(p.templates[0], "hello", testNow).status)

	sale, err := p.Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "12.06.2026", sale.Date)
	assert.Equal(t, "12:15", sale.Time)
}

func TestParser_ColonDecidesTime(t *testing.T) {
	p := newTestParser()
	token := func(f field) piece { return piece{`(\S+)`, []field{f}} }
	p.templates = []template{
		newTemplate("declared-date-first", handle, token(fieldDate), token(fieldTime), money, tail),
	}

	sale, err := p.Parse("@maxim 12:15 12.06 500р канал")
	require.NoError(t, err)
	assert.Equal(t, "12.06.2026", sale.Date)
	assert.Equal(t, "12:15", sale.Time)
}

func TestParser_ConcurrentUse(t *testing.T) {
	p := newTestParser()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sale, err := p.Parse("@maxim 12 декабря 11:11 1489usdt 1/24 BusinessChannel")
			assert.NoError(t, err)
			assert.Equal(t, "@maxim", sale.Manager)
		}()
	}
	wg.Wait()
}

func TestClassifyTags(t *testing.T) {
	payment, format, internal := classifyTags([]tag{
		{kind: fieldPayment, value: "крипта"},
		{kind: fieldFormat, value: "внешка"},
		{kind: fieldInternal, value: "1/48"},
	})
	assert.Equal(t, "крипта", payment)
	assert.Equal(t, "1/48", format)
	assert.Equal(t, "внешка", internal)
}
