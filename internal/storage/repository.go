package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finboard/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn inside a database transaction, rolling back on error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SeedIfEmpty loads seed when the database holds no wallets yet, so restarts
// keep existing data.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, seed Seed) error {
	n, err := r.queries.CountWallets(ctx)
	if err != nil {
		return fmt.Errorf("count wallets: %w", err)
	}
	if n > 0 {
		slog.DebugContext(ctx, "Database already seeded", "wallets", n)
		return nil
	}

	err = r.withTx(ctx, func(q *Queries) error {
		for _, w := range seed.Wallets {
			if err := q.CreateWallet(ctx, w); err != nil {
				return fmt.Errorf("seed wallet %s: %w", w.ID, err)
			}
		}
		// Oldest first so the most recent gets the highest id.
		for i := len(seed.Transactions) - 1; i >= 0; i-- {
			if _, err := q.CreateTransaction(ctx, seed.Transactions[i]); err != nil {
				return fmt.Errorf("seed transaction: %w", err)
			}
		}
		for _, g := range seed.Goals {
			if _, err := q.CreateGoal(ctx, g); err != nil {
				return fmt.Errorf("seed goal: %w", err)
			}
		}
		for _, inv := range seed.Investments {
			if _, err := q.CreateInvestment(ctx, inv); err != nil {
				return fmt.Errorf("seed investment: %w", err)
			}
		}
		for _, n := range seed.Notifications {
			if _, err := q.CreateNotification(ctx, n); err != nil {
				return fmt.Errorf("seed notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Database seeded",
		"wallets", len(seed.Wallets),
		"transactions", len(seed.Transactions),
		"goals", len(seed.Goals),
		"investments", len(seed.Investments),
		"notifications", len(seed.Notifications))
	return nil
}

// Transactions

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Transaction{}, err
	}
	t, err := r.queries.GetTransaction(ctx, n)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	t, err := r.queries.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction saved to SQLite", "id", t.ID, "type", t.Type, "amount_cents", t.Amount.Cents)
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	n, err := parseID(tx.ID)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := r.queries.UpdateTransaction(ctx, n, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	return tx, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := r.queries.DeleteTransaction(ctx, n); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

// Wallets

func (r *SQLiteRepository) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	ws, err := r.queries.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return ws, nil
}

func (r *SQLiteRepository) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	w, err := r.queries.GetWallet(ctx, id)
	if err != nil {
		return core.Wallet{}, fmt.Errorf("get wallet %s: %w", id, err)
	}
	return w, nil
}

func (r *SQLiteRepository) InsertWallet(ctx context.Context, w core.Wallet) (core.Wallet, error) {
	if err := r.queries.CreateWallet(ctx, w); err != nil {
		return core.Wallet{}, fmt.Errorf("create wallet %s: %w", w.ID, err)
	}
	return w, nil
}

func (r *SQLiteRepository) RecordTransaction(ctx context.Context, w core.Wallet, tx core.Transaction) (core.Transaction, error) {
	var saved core.Transaction
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.SetWalletBalance(ctx, w.ID, w.Balance); err != nil {
			return fmt.Errorf("set balance of wallet %s: %w", w.ID, err)
		}
		var err error
		saved, err = q.CreateTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction recorded",
		"id", saved.ID,
		"wallet_id", w.ID,
		"balance_cents", w.Balance.Cents)
	return saved, nil
}

func (r *SQLiteRepository) RecordTransfer(ctx context.Context, from, to core.Wallet, out, in core.Transaction) (core.Transaction, core.Transaction, error) {
	err := r.withTx(ctx, func(q *Queries) error {
		if err := q.SetWalletBalance(ctx, from.ID, from.Balance); err != nil {
			return fmt.Errorf("debit wallet %s: %w", from.ID, err)
		}
		if err := q.SetWalletBalance(ctx, to.ID, to.Balance); err != nil {
			return fmt.Errorf("credit wallet %s: %w", to.ID, err)
		}
		// List order is id descending: the in leg is written first so the
		// out leg heads the list.
		var err error
		if in, err = q.CreateTransaction(ctx, in); err != nil {
			return fmt.Errorf("create transfer in: %w", err)
		}
		if out, err = q.CreateTransaction(ctx, out); err != nil {
			return fmt.Errorf("create transfer out: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transfer recorded",
		"from", from.ID,
		"to", to.ID,
		"amount_cents", out.Amount.Cents)
	return out, in, nil
}

// Savings goals

func (r *SQLiteRepository) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	gs, err := r.queries.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return gs, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.SavingsGoal, error) {
	n, err := parseID(id)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	g, err := r.queries.GetGoal(ctx, n)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("get goal %s: %w", id, err)
	}
	return g, nil
}

func (r *SQLiteRepository) InsertGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	saved, err := r.queries.CreateGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	n, err := parseID(g.ID)
	if err != nil {
		return core.SavingsGoal{}, err
	}
	if err := r.queries.UpdateGoal(ctx, n, g); err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return g, nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := r.queries.DeleteGoal(ctx, n); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

// Investments

func (r *SQLiteRepository) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	invs, err := r.queries.ListInvestments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return invs, nil
}

func (r *SQLiteRepository) GetInvestment(ctx context.Context, id string) (core.Investment, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Investment{}, err
	}
	inv, err := r.queries.GetInvestment(ctx, n)
	if err != nil {
		return core.Investment{}, fmt.Errorf("get investment %s: %w", id, err)
	}
	return inv, nil
}

func (r *SQLiteRepository) InsertInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	saved, err := r.queries.CreateInvestment(ctx, inv)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) UpdateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	n, err := parseID(inv.ID)
	if err != nil {
		return core.Investment{}, err
	}
	if err := r.queries.UpdateInvestment(ctx, n, inv); err != nil {
		return core.Investment{}, fmt.Errorf("update investment %s: %w", inv.ID, err)
	}
	return inv, nil
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	if err := r.queries.DeleteInvestment(ctx, n); err != nil {
		return fmt.Errorf("delete investment %s: %w", id, err)
	}
	return nil
}

// Notifications

func (r *SQLiteRepository) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	ns, err := r.queries.ListNotifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return ns, nil
}

func (r *SQLiteRepository) InsertNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	saved, err := r.queries.CreateNotification(ctx, n)
	if err != nil {
		return core.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) MarkNotificationRead(ctx context.Context, id string) (core.Notification, error) {
	n, err := parseID(id)
	if err != nil {
		return core.Notification{}, err
	}
	saved, err := r.queries.MarkNotificationRead(ctx, n)
	if err != nil {
		return core.Notification{}, fmt.Errorf("mark notification %s read: %w", id, err)
	}
	return saved, nil
}

func (r *SQLiteRepository) MarkAllNotificationsRead(ctx context.Context) error {
	if err := r.queries.MarkAllNotificationsRead(ctx); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
