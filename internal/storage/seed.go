package storage

import (
	"fmt"
	"time"

	"finboard/internal/core"
)

// Seed is the initial dataset a store can be loaded with.
type Seed struct {
	Wallets       []core.Wallet       `json:"wallets"`
	Transactions  []core.Transaction  `json:"transactions"` // most-recent-first
	Goals         []core.SavingsGoal  `json:"goals"`
	Investments   []core.Investment   `json:"investments"`
	Notifications []core.Notification `json:"notifications"`
}

var seedCategories = [...]string{"Groceries", "Bills", "Savings", "Investment"}

// DefaultSeed builds the demo dataset relative to now: three wallets, a
// transaction per day for the last 25 days on the main wallet, three goals,
// three investments and four notifications.
func DefaultSeed(now time.Time) Seed {
	now = now.UTC()
	s := Seed{
		Wallets: []core.Wallet{
			{ID: "main", Name: "Main Account", Balance: core.FromUnits(5000)},
			{ID: "savings", Name: "Savings", Balance: core.FromUnits(2000)},
			{ID: "crypto", Name: "Crypto", Balance: core.FromUnits(1000)},
		},
	}

	for i := range 25 {
		typ := core.Expense
		if i%2 == 1 {
			typ = core.Income
		}
		s.Transactions = append(s.Transactions, core.Transaction{
			Amount:      core.Money{Cents: int64(50+(i*137)%900) * 100},
			Date:        core.Date{Time: now.Add(-time.Duration(i) * 24 * time.Hour)},
			Category:    seedCategories[i%len(seedCategories)],
			Type:        typ,
			WalletID:    "main",
			Description: fmt.Sprintf("Transaction %d", i+1),
			Status:      core.Completed,
		})
	}

	vacationDone := now.Add(-10 * 24 * time.Hour)
	s.Goals = []core.SavingsGoal{
		{Name: "Emergency Fund", Target: core.FromUnits(10000), Current: core.FromUnits(7500)},
		{Name: "Vacation", Target: core.FromUnits(3000), Current: core.FromUnits(3000), IsCompleted: true, CompletedAt: &vacationDone},
		{Name: "New Car", Target: core.FromUnits(20000), Current: core.FromUnits(12000)},
	}

	s.Investments = []core.Investment{
		{AssetType: core.Stocks, AssetName: "Tech Stocks", BuyPrice: core.FromUnits(133.33), CurrentPrice: core.FromUnits(150), Units: 100, PurchaseDate: core.Date{Time: now.AddDate(-1, 0, 0)}},
		{AssetType: core.FixedIncome, AssetName: "Bonds", BuyPrice: core.FromUnits(95.06), CurrentPrice: core.FromUnits(100), Units: 80, PurchaseDate: core.Date{Time: now.AddDate(-2, 0, 0)}},
		{AssetType: core.Crypto, AssetName: "Crypto", BuyPrice: core.FromUnits(54525.63), CurrentPrice: core.FromUnits(50000), Units: 0.1, PurchaseDate: core.Date{Time: now.AddDate(0, -6, 0)}},
	}

	s.Notifications = []core.Notification{
		{Title: "Welcome to JOU Finance!", Message: "Thanks for joining us. Start by adding your first transaction to track your finances.", Type: core.Info, CreatedAt: now.Add(-24 * time.Hour)},
		{Title: "Savings Goal Progress", Message: "You're 75% towards your Emergency Fund goal! Keep up the great work.", Type: core.Success, CreatedAt: now.Add(-12 * time.Hour)},
		{Title: "High Spending Alert", Message: "Your grocery spending this month is 20% higher than last month. Consider reviewing your budget.", Type: core.Warning, IsRead: true, CreatedAt: now.Add(-6 * time.Hour)},
		{Title: "Investment Update", Message: "Your Tech Stocks portfolio has gained 2.5% in the last week.", Type: core.Info, CreatedAt: now.Add(-time.Hour)},
	}
	return s
}
