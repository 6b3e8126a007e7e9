// Package report renders cashback entries as chat messages.
package report

import (
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Proton-105/cashback-bot/internal/domain"
	"github.com/Proton-105/cashback-bot/internal/i18n"
	"github.com/Proton-105/cashback-bot/internal/period"
)

const separator = "------------------------"

// Formatter renders report text using a translator for fixed phrases and
// month names.
type Formatter struct {
	t i18n.Translator
}

// NewFormatter creates a Formatter.
func NewFormatter(t i18n.Translator) *Formatter {
	return &Formatter{t: t}
}

// Format groups rows by period and bank. Periods are ordered ascending, banks
// keep the order in which they first appear within a period.
func (f *Formatter) Format(rows []domain.CashbackRow) string {
	if len(rows) == 0 {
		return f.t.T("report.empty")
	}

	type bankGroup struct {
		name  string
		lines []string
	}

	groups := make(map[string][]*bankGroup)
	periods := make([]string, 0)

	for _, row := range rows {
		banks, ok := groups[row.Period]
		if !ok {
			periods = append(periods, row.Period)
		}

		idx := slices.IndexFunc(banks, func(b *bankGroup) bool { return b.name == row.BankName })
		if idx < 0 {
			banks = append(banks, &bankGroup{name: row.BankName})
			idx = len(banks) - 1
		}
		banks[idx].lines = append(banks[idx].lines, row.CategoryName+": "+FormatPercent(row.Percent))
		groups[row.Period] = banks
	}

	slices.Sort(periods)

	var lines []string
	for _, p := range periods {
		lines = append(lines, i18n.Tf(f.t, "report.header", f.MonthName(p))+"\n")
		for _, bank := range groups[p] {
			lines = append(lines, "🏦 "+bank.name, separator)
			lines = append(lines, bank.lines...)
			lines = append(lines, "")
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// MonthName returns the localized month of a period. Unknown months are
// rendered as their number.
func (f *Formatter) MonthName(p string) string {
	m := period.Month(p)
	if m == 0 {
		if _, after, ok := strings.Cut(p, "-"); ok {
			if n, err := strconv.Atoi(after); err == nil {
				return strconv.Itoa(n)
			}
			return after
		}
		return p
	}

	key := "months." + strconv.Itoa(m)
	if name := f.t.T(key); name != key {
		return name
	}
	return strconv.Itoa(m)
}

// FormatPercent renders whole values without decimals and fractional values
// with exactly one decimal place.
func FormatPercent(p float64) string {
	d := decimal.NewFromFloat(p)
	if d.IsInteger() {
		return d.String() + "%"
	}
	return d.StringFixed(1) + "%"
}
