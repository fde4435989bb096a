package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrRange is returned when a period range has start after end.
var ErrRange = eris.New("period: start after end")

// FiscalPeriod identifies a company reporting period by calendar year and quarter.
// The zero value is not a valid period.
type FiscalPeriod struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"` // 1..4
}

// NewFiscalPeriod builds a FiscalPeriod, validating the quarter.
func NewFiscalPeriod(year, quarter int) (FiscalPeriod, error) {
	if quarter < 1 || quarter > 4 {
		return FiscalPeriod{}, eris.Errorf("period: quarter must be 1..4, got %d", quarter)
	}
	if year < 1900 || year > 2200 {
		return FiscalPeriod{}, eris.Errorf("period: implausible year %d", year)
	}
	return FiscalPeriod{Year: year, Quarter: quarter}, nil
}

// ParsePeriod parses "2025Q1" or "2025-Q1" into a FiscalPeriod.
func ParsePeriod(s string) (FiscalPeriod, error) {
	norm := strings.ToUpper(strings.ReplaceAll(s, "-", ""))
	i := strings.Index(norm, "Q")
	if i < 1 || i != len(norm)-2 {
		return FiscalPeriod{}, eris.Errorf("period: cannot parse %q (want e.g. 2025Q1)", s)
	}
	year, err := strconv.Atoi(norm[:i])
	if err != nil {
		return FiscalPeriod{}, eris.Errorf("period: bad year in %q", s)
	}
	q, err := strconv.Atoi(norm[i+1:])
	if err != nil {
		return FiscalPeriod{}, eris.Errorf("period: bad quarter in %q", s)
	}
	return NewFiscalPeriod(year, q)
}

// ParseQuarter converts "Q1".."Q4" to its number.
func ParseQuarter(s string) (int, error) {
	q := strings.ToUpper(strings.TrimSpace(s))
	switch q {
	case "Q1", "Q2", "Q3", "Q4":
		return int(q[1] - '0'), nil
	default:
		return 0, eris.Errorf("period: bad quarter %q (want Q1..Q4)", s)
	}
}

// QuarterString returns "Q1".."Q4".
func (p FiscalPeriod) QuarterString() string {
	return fmt.Sprintf("Q%d", p.Quarter)
}

// String returns "2025Q1".
func (p FiscalPeriod) String() string {
	return fmt.Sprintf("%d%s", p.Year, p.QuarterString())
}

// index maps the period onto a total order: year*4 + (quarter-1).
func (p FiscalPeriod) index() int {
	return p.Year*4 + p.Quarter - 1
}

// Compare returns -1, 0 or 1 ordering by (year, quarter).
func (p FiscalPeriod) Compare(o FiscalPeriod) int {
	switch {
	case p.index() < o.index():
		return -1
	case p.index() > o.index():
		return 1
	default:
		return 0
	}
}

// Next returns the following quarter, rolling Q4 into Q1 of the next year.
func (p FiscalPeriod) Next() FiscalPeriod {
	if p.Quarter == 4 {
		return FiscalPeriod{Year: p.Year + 1, Quarter: 1}
	}
	return FiscalPeriod{Year: p.Year, Quarter: p.Quarter + 1}
}

// Enumerate expands [start, end] into an ascending inclusive sequence of
// fiscal periods. Returns ErrRange when start is after end.
func Enumerate(start, end FiscalPeriod) ([]FiscalPeriod, error) {
	if start.Compare(end) > 0 {
		return nil, eris.Wrapf(ErrRange, "enumerate %s..%s", start, end)
	}
	periods := make([]FiscalPeriod, 0, end.index()-start.index()+1)
	for p := start; p.Compare(end) <= 0; p = p.Next() {
		periods = append(periods, p)
	}
	return periods, nil
}
