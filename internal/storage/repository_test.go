package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"finboard/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finboard.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestMigrationsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()

	version, dirty, err := MigrationVersion(path)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != 2 || dirty {
		t.Fatalf("unexpected schema version %d dirty=%v", version, dirty)
	}
	// Re-running is a no-op.
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestSeedIfEmptyOnlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

	for range 2 {
		if err := repo.SeedIfEmpty(ctx, DefaultSeed(now)); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	wallets, _ := repo.ListWallets(ctx)
	if len(wallets) != 3 || wallets[0].ID != "main" {
		t.Fatalf("unexpected wallets: %+v", wallets)
	}
	txs, _ := repo.ListTransactions(ctx)
	if len(txs) != 25 {
		t.Fatalf("expected 25 transactions, got %d", len(txs))
	}
	if txs[0].Description != "Transaction 1" || !txs[0].Date.Equal(now) {
		t.Fatalf("unexpected head: %+v", txs[0])
	}
	goals, _ := repo.ListGoals(ctx)
	if len(goals) != 3 || goals[1].CompletedAt == nil || !goals[1].IsCompleted {
		t.Fatalf("unexpected goals: %+v", goals)
	}
}

func TestTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	date := core.NewDate(2024, 6, 1)

	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 1250}, Date: date, Category: "Food", Type: core.Expense, WalletID: "main", Status: core.Completed,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := repo.GetTransaction(ctx, tx.ID)
	if err != nil || got.Amount.Cents != 1250 || !got.Date.Equal(date.Time) {
		t.Fatalf("get: %+v %v", got, err)
	}

	got.Category = "Dining"
	if _, err := repo.UpdateTransaction(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = repo.GetTransaction(ctx, tx.ID)
	if got.Category != "Dining" {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := repo.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found for bad id, got %v", err)
	}
}

func TestRecordTransferAtomic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	repo.InsertWallet(ctx, core.Wallet{ID: "main", Name: "Main", Balance: core.FromUnits(5000)})
	repo.InsertWallet(ctx, core.Wallet{ID: "savings", Name: "Savings", Balance: core.FromUnits(2000)})

	leg := func(cat string) core.Transaction {
		return core.Transaction{Amount: core.FromUnits(100), Date: core.NewDate(2024, 6, 1), Category: cat, Type: core.Transfer, Status: core.Completed}
	}
	out, in, err := repo.RecordTransfer(ctx,
		core.Wallet{ID: "main", Balance: core.FromUnits(4900)},
		core.Wallet{ID: "savings", Balance: core.FromUnits(2100)},
		leg(core.CategoryTransferOut), leg(core.CategoryTransferIn))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	txs, _ := repo.ListTransactions(ctx)
	if len(txs) != 2 || txs[0].ID != out.ID || txs[1].ID != in.ID {
		t.Fatalf("unexpected order: %+v", txs)
	}

	// Unknown destination rolls back the debit.
	_, _, err = repo.RecordTransfer(ctx,
		core.Wallet{ID: "main", Balance: core.FromUnits(4800)},
		core.Wallet{ID: "ghost", Balance: core.FromUnits(100)},
		leg(core.CategoryTransferOut), leg(core.CategoryTransferIn))
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	main, _ := repo.GetWallet(ctx, "main")
	if main.Balance.Cents != 490000 {
		t.Fatalf("debit not rolled back, balance %d", main.Balance.Cents)
	}
	txs, _ = repo.ListTransactions(ctx)
	if len(txs) != 2 {
		t.Fatalf("legs leaked from failed transfer: %d", len(txs))
	}
}

func TestNotificationsReadMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	n, err := repo.InsertNotification(ctx, core.Notification{Title: "t", Message: "m", Type: core.Info, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	for range 2 {
		got, err := repo.MarkNotificationRead(ctx, n.ID)
		if err != nil || !got.IsRead {
			t.Fatalf("mark read: %+v %v", got, err)
		}
	}
	if _, err := repo.MarkNotificationRead(ctx, "999"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.MarkAllNotificationsRead(ctx); err != nil {
		t.Fatal(err)
	}
}
