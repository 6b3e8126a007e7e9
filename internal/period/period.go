// Package period computes the calendar period a new cashback entry belongs to.
package period

import (
	"slices"
	"time"
)

// Layout is the textual form of a period.
const Layout = "2006-01"

// Decision is the result of Determine. When Ambiguous is set both candidate
// periods are already taken and the caller has to ask the user which one to
// write; Period is empty in that case.
type Decision struct {
	Period    string
	Ambiguous bool
	Current   string
	Next      string
}

// Candidates returns the periods the user may choose between.
func (d Decision) Candidates() []string {
	return []string{d.Current, d.Next}
}

// NextTwo returns the period containing now and the one after it.
func NextTwo(now time.Time) (current, next string) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.Format(Layout), first.AddDate(0, 1, 0).Format(Layout)
}

// Determine picks the period for a new entry given the periods that already
// hold an entry for the same bank and category.
func Determine(existing []string, now time.Time) Decision {
	current, next := NextTwo(now)
	d := Decision{Current: current, Next: next}

	hasCurrent := slices.Contains(existing, current)
	hasNext := slices.Contains(existing, next)

	switch {
	case hasCurrent && hasNext:
		d.Ambiguous = true
	case hasCurrent:
		d.Period = next
	default:
		d.Period = current
	}
	return d
}

// Valid reports whether p is a well formed period.
func Valid(p string) bool {
	if len(p) != len(Layout) {
		return false
	}
	_, err := time.Parse(Layout, p)
	return err == nil
}

// Month returns the month number of a well formed period, or 0.
func Month(p string) int {
	t, err := time.Parse(Layout, p)
	if err != nil {
		return 0
	}
	return int(t.Month())
}
