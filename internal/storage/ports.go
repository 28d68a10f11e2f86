package storage

import (
	"context"

	"finboard/internal/core"
)

// Ports implemented by every storage backend. Lookups of missing records
// return core.ErrNotFound.
type (
	TransactionRepository interface {
		// ListTransactions returns transactions most-recent-first.
		ListTransactions(ctx context.Context) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		// InsertTransaction assigns an id and places the record at the head of the list.
		InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		DeleteTransaction(ctx context.Context, id string) error
	}

	WalletRepository interface {
		ListWallets(ctx context.Context) ([]core.Wallet, error)
		GetWallet(ctx context.Context, id string) (core.Wallet, error)
		InsertWallet(ctx context.Context, w core.Wallet) (core.Wallet, error)
	}

	// Ledger applies balance changes together with the transactions that
	// explain them, atomically.
	Ledger interface {
		// RecordTransaction stores tx at the head of the list and sets the
		// wallet's balance to w.Balance.
		RecordTransaction(ctx context.Context, w core.Wallet, tx core.Transaction) (core.Transaction, error)
		// RecordTransfer stores both wallets' balances and inserts the out and
		// in legs so that out ends up first in the list.
		RecordTransfer(ctx context.Context, from, to core.Wallet, out, in core.Transaction) (core.Transaction, core.Transaction, error)
	}

	GoalRepository interface {
		ListGoals(ctx context.Context) ([]core.SavingsGoal, error)
		GetGoal(ctx context.Context, id string) (core.SavingsGoal, error)
		InsertGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error)
		DeleteGoal(ctx context.Context, id string) error
	}

	InvestmentRepository interface {
		ListInvestments(ctx context.Context) ([]core.Investment, error)
		GetInvestment(ctx context.Context, id string) (core.Investment, error)
		InsertInvestment(ctx context.Context, inv core.Investment) (core.Investment, error)
		UpdateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error)
		DeleteInvestment(ctx context.Context, id string) error
	}

	NotificationRepository interface {
		ListNotifications(ctx context.Context) ([]core.Notification, error)
		InsertNotification(ctx context.Context, n core.Notification) (core.Notification, error)
		// MarkNotificationRead sets isRead; it never clears it.
		MarkNotificationRead(ctx context.Context, id string) (core.Notification, error)
		MarkAllNotificationsRead(ctx context.Context) error
	}

	// Store is the full set of repositories a backend provides.
	Store interface {
		TransactionRepository
		WalletRepository
		Ledger
		GoalRepository
		InvestmentRepository
		NotificationRepository
		Ping(ctx context.Context) error
		Close() error
	}
)
