package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/storage"
	"finboard/internal/storage/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func newLedger(t *testing.T) (*LedgerService, *memory.Store, *recordingPublisher) {
	t.Helper()
	store := memory.NewSeeded(storage.Seed{Wallets: []core.Wallet{
		{ID: "main", Name: "Main Account", Balance: core.FromUnits(5000)},
		{ID: "savings", Name: "Savings", Balance: core.FromUnits(2000)},
		{ID: "crypto", Name: "Crypto", Balance: core.FromUnits(1000)},
	}})
	pub := &recordingPublisher{}
	svc := NewLedgerService(store, pub)
	svc.now = func() time.Time { return time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC) }
	return svc, store, pub
}

func balanceOf(t *testing.T, store *memory.Store, id string) int64 {
	t.Helper()
	w, err := store.GetWallet(context.Background(), id)
	if err != nil {
		t.Fatalf("get wallet %s: %v", id, err)
	}
	return w.Balance.Cents
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newLedger(t)

	res, err := svc.Transfer(ctx, "main", "savings", core.FromUnits(100))
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if !res.Success || res.From.Balance.Cents != 490000 || res.To.Balance.Cents != 210000 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if balanceOf(t, store, "main") != 490000 || balanceOf(t, store, "savings") != 210000 {
		t.Fatal("balances not persisted")
	}

	txs, _ := svc.ListTransactions(ctx)
	if len(txs) != 2 {
		t.Fatalf("expected two legs, got %d", len(txs))
	}
	out, in := txs[0], txs[1]
	if out.Category != "Transfer Out" || out.Type != core.Transfer || out.WalletID != "main" || out.Description != "Transfer to Savings" {
		t.Fatalf("unexpected out leg: %+v", out)
	}
	if in.Category != "Transfer In" || in.Type != core.Transfer || in.WalletID != "savings" || in.Description != "Transfer from Main Account" {
		t.Fatalf("unexpected in leg: %+v", in)
	}
	if len(pub.events) != 1 || pub.events[0].Kind != amqp.TransferCompleted {
		t.Fatalf("expected one transfer event, got %+v", pub.events)
	}
}

// Each case violates exactly one rule; the others hold.
func TestTransferRejections(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		amount   core.Money
		want     error
	}{
		{"unknown source", "ghost", "savings", core.FromUnits(10), core.ErrInvalidWallets},
		{"unknown destination", "main", "ghost", core.FromUnits(10), core.ErrInvalidWallets},
		{"same wallet", "main", "main", core.FromUnits(10), core.ErrSameWallet},
		{"zero amount", "main", "savings", core.Money{}, core.ErrInvalidAmount},
		{"negative amount", "main", "savings", core.FromUnits(-5), core.ErrInvalidAmount},
		{"insufficient balance", "savings", "main", core.FromUnits(10000), core.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, pub := newLedger(t)

			_, err := svc.Transfer(ctx, tt.from, tt.to, tt.amount)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if balanceOf(t, store, "main") != 500000 || balanceOf(t, store, "savings") != 200000 {
				t.Fatal("rejected transfer changed balances")
			}
			if txs, _ := svc.ListTransactions(ctx); len(txs) != 0 {
				t.Fatalf("rejected transfer recorded %d transactions", len(txs))
			}
			if len(pub.events) != 0 {
				t.Fatal("rejected transfer published an event")
			}
		})
	}
}

func TestTransferCheckOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLedger(t)

	// Same missing wallet on both sides: existence wins over equality.
	if _, err := svc.Transfer(ctx, "ghost", "ghost", core.Money{}); !errors.Is(err, core.ErrInvalidWallets) {
		t.Fatalf("got %v", err)
	}
	// Same wallet with a bad amount: equality wins over amount.
	if _, err := svc.Transfer(ctx, "main", "main", core.Money{}); !errors.Is(err, core.ErrSameWallet) {
		t.Fatalf("got %v", err)
	}
	// Bad amount beats balance.
	if _, err := svc.Transfer(ctx, "crypto", "main", core.FromUnits(-99999)); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v", err)
	}
}

func TestTransferConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newLedger(t)

	var wg sync.WaitGroup
	for range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Transfer(ctx, "crypto", "main", core.FromUnits(100))
		}()
	}
	wg.Wait()

	if got := balanceOf(t, store, "crypto"); got != 0 {
		t.Fatalf("crypto balance = %d, want 0", got)
	}
	if got := balanceOf(t, store, "main"); got != 600000 {
		t.Fatalf("main balance = %d, want 600000", got)
	}
}

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()
	svc, store, pub := newLedger(t)

	income, err := svc.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(250), Category: "Salary", Type: core.Income})
	if err != nil {
		t.Fatalf("income: %v", err)
	}
	if income.ID == "" || income.WalletID != "main" || income.Date.IsZero() || income.Status != core.Completed {
		t.Fatalf("defaults not applied: %+v", income)
	}
	if balanceOf(t, store, "main") != 525000 {
		t.Fatal("income did not credit")
	}

	expense, err := svc.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(25), Category: "Food", Type: core.Expense, WalletID: "savings"})
	if err != nil {
		t.Fatalf("expense: %v", err)
	}
	if balanceOf(t, store, "savings") != 197500 {
		t.Fatal("expense did not debit")
	}

	txs, _ := svc.ListTransactions(ctx)
	if txs[0].ID != expense.ID || txs[1].ID != income.ID {
		t.Fatal("transactions not most-recent-first")
	}
	if len(pub.events) != 2 || pub.events[1].Balance.Cents != 197500 {
		t.Fatalf("unexpected events: %+v", pub.events)
	}
}

func TestCreateTransactionRejections(t *testing.T) {
	tests := []struct {
		name string
		tx   core.Transaction
		want error
	}{
		{"unknown wallet", core.Transaction{Amount: core.FromUnits(1), Category: "A", Type: core.Income, WalletID: "ghost"}, core.ErrInvalidWallet},
		{"zero amount", core.Transaction{Category: "A", Type: core.Income}, core.ErrInvalidAmount},
		{"bad type", core.Transaction{Amount: core.FromUnits(1), Category: "A", Type: "refund"}, core.ErrInvalidType},
		{"empty category", core.Transaction{Amount: core.FromUnits(1), Category: "  ", Type: core.Income}, core.ErrEmptyCategory},
		{"overdraw", core.Transaction{Amount: core.FromUnits(1000.01), Category: "A", Type: core.Expense, WalletID: "crypto"}, core.ErrInsufficientBalance},
		{"credit overflows wallet", core.Transaction{Amount: core.Money{Cents: 1<<63 - 1}, Category: "A", Type: core.Income}, core.ErrInvalidAmount},
		{"credit overflows total", core.Transaction{Amount: core.Money{Cents: 1<<63 - 1 - 500000}, Category: "A", Type: core.Income, WalletID: "crypto"}, core.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newLedger(t)
			if _, err := svc.CreateTransaction(context.Background(), tt.tx); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if balanceOf(t, store, "crypto") != 100000 || balanceOf(t, store, "main") != 500000 {
				t.Fatal("rejected create changed a balance")
			}
		})
	}
}

func TestCreateLargestParsedIncome(t *testing.T) {
	svc, store, _ := newLedger(t)
	cents, err := core.ParseDecimal("92233720368547758")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	_, err = svc.CreateTransaction(context.Background(), core.Transaction{Amount: core.Money{Cents: cents}, Category: "Salary", Type: core.Income})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v, want %v", err, core.ErrInvalidAmount)
	}
	if got := balanceOf(t, store, "main"); got != 500000 {
		t.Fatalf("main balance = %d, want 500000", got)
	}
	txs, _ := svc.ListTransactions(context.Background())
	if len(txs) != 0 {
		t.Fatalf("rejected income was recorded: %+v", txs)
	}
}

func TestTransferRejectsDestinationOverflow(t *testing.T) {
	ctx := context.Background()
	const maxCents = 1<<63 - 1
	store := memory.NewSeeded(storage.Seed{Wallets: []core.Wallet{
		{ID: "main", Name: "Main Account", Balance: core.Money{Cents: 1000}},
		{ID: "vault", Name: "Vault", Balance: core.Money{Cents: maxCents - 500}},
	}})
	svc := NewLedgerService(store, nil)

	if _, err := svc.Transfer(ctx, "main", "vault", core.Money{Cents: 1000}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v, want %v", err, core.ErrInvalidAmount)
	}
	if balanceOf(t, store, "main") != 1000 || balanceOf(t, store, "vault") != maxCents-500 {
		t.Fatal("rejected transfer changed a balance")
	}

	if _, err := svc.Transfer(ctx, "main", "vault", core.Money{Cents: 500}); err != nil {
		t.Fatalf("transfer up to the limit: %v", err)
	}
	if balanceOf(t, store, "vault") != maxCents {
		t.Fatalf("vault balance = %d", balanceOf(t, store, "vault"))
	}
}

func TestBalanceNearLimit(t *testing.T) {
	store := memory.NewSeeded(storage.Seed{Wallets: []core.Wallet{
		{ID: "main", Name: "Main Account", Balance: core.Money{Cents: 1<<63 - 1 - 5}},
		{ID: "savings", Name: "Savings"},
	}})
	b, err := NewLedgerService(store, nil).Balance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b.Total.Cents != 9223372036854775802 || b.Available.Cents != 8301034833169298221 || b.Pending.Cents != 922337203685477581 {
		t.Fatalf("unexpected balance: %+v", b)
	}
}

func TestTransferTypedTransactionKeepsBalance(t *testing.T) {
	svc, store, _ := newLedger(t)
	if _, err := svc.CreateTransaction(context.Background(), core.Transaction{Amount: core.FromUnits(50), Category: "Manual", Type: core.Transfer}); err != nil {
		t.Fatal(err)
	}
	if balanceOf(t, store, "main") != 500000 {
		t.Fatal("transfer-typed record moved balance")
	}
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newLedger(t)
	tx, _ := svc.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(10), Category: "Food", Type: core.Expense, Description: "lunch"})

	cat := "Dining"
	updated, err := svc.UpdateTransaction(ctx, tx.ID, core.TransactionPatch{Category: &cat})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Category != "Dining" || updated.Description != "lunch" || updated.Amount.Cents != 1000 || updated.ID != tx.ID {
		t.Fatalf("shallow merge failed: %+v", updated)
	}
	if balanceOf(t, store, "main") != 499000 {
		t.Fatal("update must not rebalance")
	}

	if _, err := svc.UpdateTransaction(ctx, "404", core.TransactionPatch{Category: &cat}); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("update missing: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteTransaction(ctx, tx.ID); !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPage(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLedger(t)
	for range 25 {
		svc.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(1), Category: "A", Type: core.Income})
	}
	tests := []struct {
		page, want int
		firstID    string
	}{
		{1, 10, "25"},
		{2, 10, "15"},
		{3, 5, "5"},
		{4, 0, ""},
		{0, 10, "25"},
	}
	for _, tt := range tests {
		got, err := svc.Page(ctx, tt.page)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("page %d: len %d, want %d", tt.page, len(got), tt.want)
			continue
		}
		if tt.want > 0 && got[0].ID != tt.firstID {
			t.Errorf("page %d: first id %s, want %s", tt.page, got[0].ID, tt.firstID)
		}
	}
}

func TestBalance(t *testing.T) {
	svc, _, _ := newLedger(t)
	b, err := svc.Balance(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if b.Total.Cents != 800000 || b.Available.Cents != 720000 || b.Pending.Cents != 80000 {
		t.Fatalf("unexpected balance: %+v", b)
	}
}

func TestWalletTransactions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newLedger(t)
	svc.Transfer(ctx, "main", "savings", core.FromUnits(5))
	svc.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(1), Category: "A", Type: core.Income})

	txs, err := svc.WalletTransactions(ctx, "savings")
	if err != nil || len(txs) != 1 || txs[0].Category != "Transfer In" {
		t.Fatalf("unexpected savings history: %+v %v", txs, err)
	}
	if _, err := svc.WalletTransactions(ctx, "ghost"); !errors.Is(err, core.ErrWalletNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	svc, store, pub := newLedger(t)
	pub.err = errors.New("broker down")
	if _, err := svc.Transfer(context.Background(), "main", "savings", core.FromUnits(1)); err != nil {
		t.Fatalf("transfer failed on publish error: %v", err)
	}
	if balanceOf(t, store, "main") != 499900 {
		t.Fatal("transfer not applied")
	}
}

func TestVersionAdvancesOnCommit(t *testing.T) {
	svc, _, _ := newLedger(t)
	v := svc.Version()
	svc.Transfer(context.Background(), "main", "main", core.FromUnits(1)) // rejected
	if svc.Version() != v {
		t.Fatal("rejected mutation bumped version")
	}
	svc.Transfer(context.Background(), "main", "savings", core.FromUnits(1))
	if svc.Version() != v+1 {
		t.Fatal("committed mutation did not bump version")
	}
}
