package syncer

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrDateRangeRequired = errors.New("date_range is required for bills and expenses")
	ErrInvalidDateRange  = errors.New("unknown date range")
)

// DateRange is an inclusive [From, To] day range. Both nil means everything.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func (r DateRange) IsAll() bool {
	return r.From == nil && r.To == nil
}

func monthStart(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func span(from, toExclusive time.Time) DateRange {
	to := toExclusive.AddDate(0, 0, -1)
	return DateRange{From: &from, To: &to}
}

// fiscalYearStart is April 1 of the fiscal year containing t.
func fiscalYearStart(t time.Time) time.Time {
	y := t.Year()
	if t.Month() < time.April {
		y--
	}
	return monthStart(y, time.April)
}

func quarterStart(t time.Time) time.Time {
	m := time.Month((int(t.Month())-1)/3*3 + 1)
	return monthStart(t.Year(), m)
}

// ParseDateRange resolves a range token relative to now. Quarters are calendar quarters;
// the fiscal year runs April 1 to March 31.
func ParseDateRange(token string, now time.Time) (DateRange, error) {
	now = now.UTC()
	token = strings.ToLower(strings.TrimSpace(token))
	thisMonth := monthStart(now.Year(), now.Month())
	switch token {
	case "":
		return DateRange{}, ErrDateRangeRequired
	case "all":
		return DateRange{}, nil
	case "last_month":
		return span(thisMonth.AddDate(0, -1, 0), thisMonth), nil
	case "this_quarter":
		q := quarterStart(now)
		return span(q, q.AddDate(0, 3, 0)), nil
	case "last_quarter":
		q := quarterStart(now)
		return span(q.AddDate(0, -3, 0), q), nil
	case "this_fiscal_year":
		fy := fiscalYearStart(now)
		return span(fy, fy.AddDate(1, 0, 0)), nil
	case "last_fiscal_year":
		fy := fiscalYearStart(now)
		return span(fy.AddDate(-1, 0, 0), fy), nil
	case "last_year":
		y := monthStart(now.Year(), time.January)
		return span(y.AddDate(-1, 0, 0), y), nil
	}
	if t, err := time.Parse("2006-01", token); err == nil {
		m := monthStart(t.Year(), t.Month())
		return span(m, m.AddDate(0, 1, 0)), nil
	}
	return DateRange{}, fmt.Errorf("%w %q", ErrInvalidDateRange, token)
}
