package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout = "02.01.2006"
	TimeLayout = "15:04"
)

var (
	errDateHasTime   = errors.New("date token contains a time")
	errBadDate       = errors.New("invalid date")
	errUnknownMonth  = errors.New("unknown month name")
	errBadTimeLength = errors.New("time token must have 3 or 4 digits")
	errBadTime       = errors.New("invalid time")
)

var monthNames = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,

	"янв": time.January,
	"фев": time.February,
	"мар": time.March,
	"апр": time.April,
	"май": time.May,
	"июн": time.June,
	"июл": time.July,
	"авг": time.August,
	"сен": time.September,
	"окт": time.October,
	"ноя": time.November,
	"дек": time.December,
}

// NormalizeDate turns dd.mm, dd/mm, dd-mm or "dd <month>" into dd.mm.YYYY
// using the year of now.
func NormalizeDate(token string, now time.Time) (string, error) {
	token = strings.TrimSpace(token)
	if strings.Contains(token, ":") {
		return "", fmt.Errorf("%w: %q", errDateHasTime, token)
	}

	var dayStr, monthStr string
	if sep := strings.IndexAny(token, "./-"); sep >= 0 {
		parts := strings.Split(token, token[sep:sep+1])
		if len(parts) != 2 {
			return "", fmt.Errorf("%w: %q", errBadDate, token)
		}
		dayStr, monthStr = parts[0], parts[1]
	} else {
		parts := strings.Fields(token)
		if len(parts) != 2 {
			return "", fmt.Errorf("%w: %q", errBadDate, token)
		}
		m, ok := monthNames[strings.ToLower(parts[1])]
		if !ok {
			return "", fmt.Errorf("%w: %q", errUnknownMonth, parts[1])
		}
		dayStr, monthStr = parts[0], strconv.Itoa(int(m))
	}

	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errBadDate, token)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errBadDate, token)
	}

	d := time.Date(now.Year(), time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || int(d.Month()) != month {
		return "", fmt.Errorf("%w: %q", errBadDate, token)
	}
	return d.Format(DateLayout), nil
}

// NormalizeTime turns HH:MM, H:MM, HHMM or HMM into HH:MM.
func NormalizeTime(token string) (string, error) {
	token = strings.TrimSpace(token)
	if !strings.Contains(token, ":") {
		switch len(token) {
		case 4:
			token = token[:2] + ":" + token[2:]
		case 3:
			token = "0" + token[:1] + ":" + token[1:]
		default:
			return "", fmt.Errorf("%w: %q", errBadTimeLength, token)
		}
	}
	t, err := time.Parse(TimeLayout, token)
	if err != nil {
		return "", fmt.Errorf("%w: %q", errBadTime, token)
	}
	return t.Format(TimeLayout), nil
}
