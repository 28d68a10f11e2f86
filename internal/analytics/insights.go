package analytics

import (
	"fmt"
	"math"
	"time"

	"finboard/internal/core"
)

// MaxInsights caps the number of messages returned by GenerateInsights.
const MaxInsights = 4

// Thresholds for the insight rules, in percent unless noted.
const (
	monthDeltaThreshold    = 10.0
	categoryDeltaThreshold = 20.0
	savingsRateThreshold   = 20.0
	dailyCountThreshold    = 3.0 // transactions per day
	dominantShareThreshold = 30.0
	weeklySpikeThreshold   = 150.0
)

// FallbackInsights are returned when no rule fires.
var FallbackInsights = []string{
	"Your spending is on track compared to last month.",
	"Keep logging transactions to get more personalised insights.",
}

// period holds per-month expense and income figures.
type period struct {
	expense    int64
	income     int64
	count      int
	byCategory *orderedSums
}

func newPeriod() *period {
	return &period{byCategory: newOrderedSums()}
}

func (p *period) add(tx core.Transaction) {
	p.count++
	switch tx.Type {
	case core.Expense:
		p.expense += tx.Amount.Cents
		p.byCategory.add(tx.Category, tx.Amount.Cents)
	case core.Income:
		p.income += tx.Amount.Cents
	}
}

func percentDelta(cur, prev int64) float64 {
	return float64(cur-prev) / float64(prev) * 100
}

// GenerateInsights compares the calendar month containing now with the one
// before it and returns at most MaxInsights messages. Rules are evaluated in
// a fixed order and truncation keeps the earliest:
//
//	(a) month-over-month expense change above 10%
//	(b) per-category expense change above 20%, for categories spent on in both months
//	(c) savings rate above 20% or below 0%
//	(d) more than 3 transactions per day on average
//	(e) one category above 30% of this month's spend
//	(f) last 7 days of spend above 150% of the 4-week weekly average
//
// Pending transactions are ignored. Months are UTC calendar months.
func GenerateInsights(txs []core.Transaction, now time.Time) []string {
	now = now.UTC()
	curStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextStart := curStart.AddDate(0, 1, 0)
	prevStart := curStart.AddDate(0, -1, 0)
	weekStart := now.Add(-7 * 24 * time.Hour)
	fourWeekStart := now.Add(-28 * 24 * time.Hour)

	cur, prev := newPeriod(), newPeriod()
	var lastWeek, lastFourWeeks int64
	for _, tx := range txs {
		if tx.IsPending() {
			continue
		}
		t := tx.Date.Time
		switch {
		case !t.Before(curStart) && t.Before(nextStart):
			cur.add(tx)
		case !t.Before(prevStart) && t.Before(curStart):
			prev.add(tx)
		}
		if tx.Type == core.Expense && t.After(fourWeekStart) && !t.After(now) {
			lastFourWeeks += tx.Amount.Cents
			if t.After(weekStart) {
				lastWeek += tx.Amount.Cents
			}
		}
	}

	var out []string

	// (a)
	if prev.expense > 0 {
		delta := percentDelta(cur.expense, prev.expense)
		if math.Abs(delta) > monthDeltaThreshold {
			if delta > 0 {
				out = append(out, fmt.Sprintf("Your spending is up %.0f%% compared to last month", delta))
			} else {
				out = append(out, fmt.Sprintf("Your spending is down %.0f%% compared to last month", -delta))
			}
		}
	}

	// (b)
	for _, cat := range cur.byCategory.keys {
		before, ok := prev.byCategory.sums[cat]
		if !ok || before == 0 {
			continue
		}
		delta := percentDelta(cur.byCategory.sums[cat], before)
		if math.Abs(delta) <= categoryDeltaThreshold {
			continue
		}
		if delta > 0 {
			out = append(out, fmt.Sprintf("You spent %.0f%% more on %s this month", delta, cat))
		} else {
			out = append(out, fmt.Sprintf("You spent %.0f%% less on %s this month", -delta, cat))
		}
	}

	// (c)
	if cur.income > 0 {
		rate := float64(cur.income-cur.expense) / float64(cur.income) * 100
		switch {
		case rate > savingsRateThreshold:
			out = append(out, fmt.Sprintf("Great job! You're saving %.0f%% of your income this month", rate))
		case rate < 0:
			out = append(out, "You've spent more than you earned this month")
		}
	}

	// (d)
	if cur.count > 0 {
		perDay := float64(cur.count) / float64(now.Day())
		if perDay > dailyCountThreshold {
			out = append(out, fmt.Sprintf("You're averaging %.1f transactions per day this month", perDay))
		}
	}

	// (e)
	if cur.expense > 0 {
		var top string
		var topCents int64
		for _, cat := range cur.byCategory.keys {
			if v := cur.byCategory.sums[cat]; v > topCents {
				top, topCents = cat, v
			}
		}
		share := float64(topCents) / float64(cur.expense) * 100
		if share > dominantShareThreshold {
			out = append(out, fmt.Sprintf("%s makes up %.0f%% of your spending this month", top, share))
		}
	}

	// (f)
	if lastFourWeeks > 0 {
		avg := float64(lastFourWeeks) / 4
		ratio := float64(lastWeek) / avg * 100
		if ratio > weeklySpikeThreshold {
			out = append(out, fmt.Sprintf("Your spending this week is %.0f%% of your weekly average", ratio))
		}
	}

	if len(out) == 0 {
		out = append(out, FallbackInsights...)
	}
	if len(out) > MaxInsights {
		out = out[:MaxInsights]
	}
	return out
}
