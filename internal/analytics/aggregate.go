// Package analytics derives chart series, summaries and insights from
// transaction lists.
//
// The functions here assume input already passed the service-layer validation;
// they never return errors.
package analytics

import (
	"sort"
	"time"

	"finboard/internal/core"
)

// MonthTotal is the summed amount for one calendar month ("YYYY-MM").
type MonthTotal struct {
	Month string     `json:"month"`
	Total core.Money `json:"total"`
}

// CategoryTotal is the summed amount for one category.
type CategoryTotal struct {
	Name  string     `json:"name"`
	Value core.Money `json:"value"`
}

// Summary is the payload of the analytics endpoint.
type Summary struct {
	TotalTransactions int        `json:"totalTransactions"`
	TotalSpent        core.Money `json:"totalSpent"`
	AvgPerTransaction core.Money `json:"avgPerTransaction"`
	MonthlyIncome     core.Money `json:"monthlyIncome"`
	MonthlyExpenses   core.Money `json:"monthlyExpenses"`
}

// orderedSums accumulates totals keeping first-seen key order.
type orderedSums struct {
	keys []string
	sums map[string]int64
}

func newOrderedSums() *orderedSums {
	return &orderedSums{sums: make(map[string]int64)}
}

func (o *orderedSums) add(key string, cents int64) {
	if _, ok := o.sums[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.sums[key] += cents
}

// GroupByMonth sums non-pending amounts per calendar month. Amounts are not
// signed by type. Months are returned in chronological order.
func GroupByMonth(txs []core.Transaction) []MonthTotal {
	acc := newOrderedSums()
	for _, tx := range txs {
		if tx.IsPending() {
			continue
		}
		acc.add(tx.Date.MonthKey(), tx.Amount.Cents)
	}
	out := make([]MonthTotal, 0, len(acc.keys))
	for _, k := range acc.keys {
		out = append(out, MonthTotal{Month: k, Total: core.Money{Cents: acc.sums[k]}})
	}
	// "YYYY-MM" sorts lexically in calendar order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// GroupByCategory sums non-pending amounts per category in first-seen order.
func GroupByCategory(txs []core.Transaction) []CategoryTotal {
	acc := newOrderedSums()
	for _, tx := range txs {
		if tx.IsPending() {
			continue
		}
		acc.add(tx.Category, tx.Amount.Cents)
	}
	out := make([]CategoryTotal, 0, len(acc.keys))
	for _, k := range acc.keys {
		out = append(out, CategoryTotal{Name: k, Value: core.Money{Cents: acc.sums[k]}})
	}
	return out
}

// Summarize computes the analytics summary. Monthly figures cover the
// calendar month containing now.
func Summarize(txs []core.Transaction, now time.Time) Summary {
	var s Summary
	var all int64
	month := now.UTC().Format("2006-01")
	for _, tx := range txs {
		all += tx.Amount.Cents
		if tx.Type == core.Expense {
			s.TotalSpent.Cents += tx.Amount.Cents
		}
		if tx.IsPending() || tx.Date.MonthKey() != month {
			continue
		}
		switch tx.Type {
		case core.Income:
			s.MonthlyIncome.Cents += tx.Amount.Cents
		case core.Expense:
			s.MonthlyExpenses.Cents += tx.Amount.Cents
		}
	}
	s.TotalTransactions = len(txs)
	if s.TotalTransactions > 0 {
		s.AvgPerTransaction = core.FromUnits(float64(all) / float64(s.TotalTransactions) / 100)
	}
	return s
}
