// Package format renders numbers for the dashboard: compact counts such as
// 12.3K, compact money such as $1.23M and fixed two-decimal averages.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var suffixes = []string{"", "K", "M", "B", "T"}

type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
	symbol  string
}

// New builds a formatter for an ISO 4217 currency code and a BCP 47 or POSIX
// style locale ("pt-BR", "en_US.UTF-8").
func New(code, locale string) (*Formatter, error) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	tag, err := language.Parse(normalizeLocale(locale))
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}

	p := message.NewPrinter(tag)
	return &Formatter{
		tag:     tag,
		unit:    unit,
		printer: p,
		symbol:  p.Sprint(currency.Symbol(unit)),
	}, nil
}

func normalizeLocale(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "" || locale == "C" || locale == "POSIX" {
		return "en-US"
	}
	return strings.ReplaceAll(locale, "_", "-")
}

func (f *Formatter) Locale() string { return f.tag.String() }
func (f *Formatter) Code() string { return f.unit.String() }
func (f *Formatter) Symbol() string { return f.symbol }

// Compact scales v to the largest unit below 1000 and keeps at most two
// fraction digits. A value that rounds up to 1000 moves to the next unit.
func (f *Formatter) Compact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	sign := 1.0
	if v < 0 {
		sign = -1
		v = -v
	}

	unit := 0
	for v >= 1000 && unit < len(suffixes)-1 {
		v /= 1000
		unit++
	}
	v = math.Round(v*100) / 100
	if v >= 1000 && unit < len(suffixes)-1 {
		v /= 1000
		unit++
	}

	return f.printer.Sprint(number.Decimal(sign*v, number.MaxFractionDigits(2))) + suffixes[unit]
}

// Currency is Compact with the currency symbol in front.
func (f *Formatter) Currency(v float64) string {
	s := f.Compact(v)
	if strings.HasPrefix(s, "-") {
		return "-" + f.symbol + s[1:]
	}
	return f.symbol + s
}

// Fixed renders v with exactly two fraction digits and grouping, prefixed by
// the currency symbol.
func (f *Formatter) Fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	s := f.printer.Sprint(number.Decimal(math.Abs(v),
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
	if v < 0 {
		return "-" + f.symbol + s
	}
	return f.symbol + s
}

// Count renders an integer with locale grouping.
func (f *Formatter) Count(n int64) string {
	return f.printer.Sprint(number.Decimal(n))
}
