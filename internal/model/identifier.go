package model

import (
	"strings"
	"time"
)

// Identifier names one logical series: a plain symbol such as "AAPL", or a
// compound pair such as "EUR/USD" where both components identify the series.
type Identifier struct {
	Symbol string
	Target string // set only for compound identifiers
}

// NewIdentifier builds a simple single-symbol identifier.
func NewIdentifier(symbol string) Identifier {
	return Identifier{Symbol: symbol}
}

// NewPair builds a compound identifier from a base and target component.
func NewPair(base, target string) Identifier {
	return Identifier{Symbol: base, Target: target}
}

// ParseIdentifier reads "SYM" or "BASE/TARGET".
func ParseIdentifier(s string) Identifier {
	if base, target, ok := strings.Cut(s, "/"); ok {
		return Identifier{Symbol: base, Target: target}
	}
	return Identifier{Symbol: s}
}

func (id Identifier) IsCompound() bool {
	return id.Target != ""
}

// Values returns the identifier components in id-column order.
func (id Identifier) Values() []string {
	if id.IsCompound() {
		return []string{id.Symbol, id.Target}
	}
	return []string{id.Symbol}
}

func (id Identifier) String() string {
	if id.IsCompound() {
		return id.Symbol + "/" + id.Target
	}
	return id.Symbol
}

// Directive asks for one logical series to be fetched, optionally bounded by
// an inclusive date window. A nil From means the full available history.
type Directive struct {
	ID   Identifier
	From *time.Time
	To   *time.Time
}

// Bounded reports whether the directive carries a lower date bound.
func (d Directive) Bounded() bool {
	return d.From != nil
}

func (d Directive) String() string {
	var b strings.Builder
	b.WriteString(d.ID.String())
	if d.From != nil {
		b.WriteString(" from " + d.From.Format(DateLayout))
	}
	if d.To != nil {
		b.WriteString(" to " + d.To.Format(DateLayout))
	}
	return b.String()
}

// Day builds a UTC midnight date value.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// LastBusinessDay returns the most recent Monday through Friday day that is
// not after the given instant, at UTC midnight. Data providers publish
// nothing on weekends, so freshness is judged against this day rather than
// the calendar day.
func LastBusinessDay(now time.Time) time.Time {
	d := DateOf(now)
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, -2)
	default:
		return d
	}
}
