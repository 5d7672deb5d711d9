package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ConvertFunc returns an entry's amount in the currency the walk reports in.
type ConvertFunc func(e *Entry) (decimal.Decimal, error)

// SortEntries orders entries by date, with valuations after transactions on
// the same day so the valuation closes the day.
func SortEntries(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return !a.IsValuation() && b.IsValuation()
	})
}

// BalanceOn returns the balance at the end of date.
func BalanceOn(entries []*Entry, date time.Time, convert ConvertFunc) (decimal.Decimal, error) {
	balances, err := BalancesOver(entries, []time.Time{date}, convert)
	if err != nil {
		return decimal.Zero, err
	}
	return balances[0], nil
}

// BalancesOver walks the ledger once and returns the end-of-day balance for
// each requested day. days must be ascending.
//
// A valuation sets the balance for its day; transactions on the same day are
// already reflected in it.
func BalancesOver(entries []*Entry, days []time.Time, convert ConvertFunc) ([]decimal.Decimal, error) {
	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	SortEntries(sorted)

	out := make([]decimal.Decimal, len(days))
	balance := decimal.Zero
	i := 0

	for n, day := range days {
		day = Day(day)

		for i < len(sorted) && !sorted[i].Date.After(day) {
			date := sorted[i].Date

			var dayTx decimal.Decimal
			var valuation *Entry
			for i < len(sorted) && sorted[i].Date.Equal(date) {
				e := sorted[i]
				if e.IsValuation() {
					valuation = e
				} else {
					amt, err := convert(e)
					if err != nil {
						return nil, err
					}
					dayTx = dayTx.Add(amt)
				}
				i++
			}

			if valuation != nil {
				amt, err := convert(valuation)
				if err != nil {
					return nil, err
				}
				balance = amt
			} else {
				balance = balance.Add(dayTx)
			}
		}

		out[n] = balance
	}

	return out, nil
}
