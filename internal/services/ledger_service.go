package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	flog "finboard/internal/log"
	"finboard/internal/storage"
)

// DefaultWalletID is used when a transaction names no wallet.
const DefaultWalletID = "main"

// PageSize is the number of transactions per page.
const PageSize = 10

// EventPublisher publishes committed ledger events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerService owns transactions and wallet balances. Mutations are
// serialized by a single mutex so balance checks and writes never
// interleave.
type LedgerService struct {
	store     storage.Store
	publisher EventPublisher
	now       func() time.Time

	mu      sync.Mutex
	version atomic.Uint64
}

func NewLedgerService(store storage.Store, publisher EventPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Version increases on every committed mutation. Readers use it to key
// derived data.
func (s *LedgerService) Version() uint64 {
	return s.version.Load()
}

func (s *LedgerService) committed() {
	s.version.Add(1)
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// Page returns the 1-based page of transactions, PageSize per page. Pages
// past the end are empty; page < 1 is treated as 1.
func (s *LedgerService) Page(ctx context.Context, page int) ([]core.Transaction, error) {
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(txs, page, PageSize), nil
}

func paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

func (s *LedgerService) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	return tx, err
}

// CreateTransaction validates tx, applies its effect on the wallet balance
// and stores it at the head of the list. Income credits, expense debits and
// transfer-typed records leave the balance untouched.
func (s *LedgerService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Category = strings.TrimSpace(tx.Category)
	if tx.WalletID == "" {
		tx.WalletID = DefaultWalletID
	}
	if tx.Date.IsZero() {
		tx.Date = core.Date{Time: s.now().UTC()}
	}
	if tx.Status == "" {
		tx.Status = core.Completed
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.store.GetWallet(ctx, tx.WalletID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, core.ErrInvalidWallet
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load wallet: %w", err)
	}

	switch tx.Type {
	case core.Income:
		if err := s.checkCredit(ctx, tx.Amount); err != nil {
			return core.Transaction{}, err
		}
		w.Balance = w.Balance.Add(tx.Amount)
	case core.Expense:
		if tx.Amount.Cents > w.Balance.Cents {
			return core.Transaction{}, core.ErrInsufficientBalance
		}
		w.Balance = w.Balance.Sub(tx.Amount)
	}

	saved, err := s.store.RecordTransaction(ctx, w, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	s.committed()

	flog.NewStructuredLogger(flog.FromContext(ctx).WithComponent(flog.ComponentLedger)).
		LogTransactionCreated(ctx, saved.ID, string(saved.Type), saved.Category, w.ID, saved.Amount.Cents, s.Version())

	s.publish(ctx, amqp.NewTransactionCreated(saved, w.Balance))
	return saved, nil
}

// UpdateTransaction merges patch into the stored record. Wallet balances are
// not adjusted.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	next := patch.Apply(cur)
	next.ID = cur.ID
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}

	saved, err := s.store.UpdateTransaction(ctx, next)
	if errors.Is(err, core.ErrNotFound) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.committed()
	slog.InfoContext(ctx, "Transaction updated", "id", id)
	return saved, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.store.DeleteTransaction(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrTransactionNotFound
	}
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.committed()
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

func (s *LedgerService) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	ws, err := s.store.ListWallets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	return ws, nil
}

// WalletTransactions lists the transactions recorded against one wallet.
func (s *LedgerService) WalletTransactions(ctx context.Context, walletID string) ([]core.Transaction, error) {
	if _, err := s.store.GetWallet(ctx, walletID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrWalletNotFound
		}
		return nil, fmt.Errorf("load wallet: %w", err)
	}
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return nil, err
	}
	out := []core.Transaction{}
	for _, tx := range txs {
		if tx.WalletID == walletID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// Transfer moves amount between two wallets. Checks run in a fixed order:
// both wallets exist, they differ, the amount is positive, and the source
// covers it. A rejected transfer changes nothing.
func (s *LedgerService) Transfer(ctx context.Context, fromID, toID string, amount core.Money) (core.TransferResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, errFrom := s.store.GetWallet(ctx, fromID)
	to, errTo := s.store.GetWallet(ctx, toID)
	for _, err := range []error{errFrom, errTo} {
		if errors.Is(err, core.ErrNotFound) {
			return core.TransferResult{}, core.ErrInvalidWallets
		}
		if err != nil {
			return core.TransferResult{}, fmt.Errorf("load wallet: %w", err)
		}
	}
	if from.ID == to.ID {
		return core.TransferResult{}, core.ErrSameWallet
	}
	if !amount.IsPositive() {
		return core.TransferResult{}, core.ErrInvalidAmount
	}
	if from.Balance.Cents < amount.Cents {
		return core.TransferResult{}, core.ErrInsufficientBalance
	}

	credited, ok := to.Balance.CheckedAdd(amount)
	if !ok {
		return core.TransferResult{}, core.ErrInvalidAmount
	}
	from.Balance = from.Balance.Sub(amount)
	to.Balance = credited

	date := core.Date{Time: s.now().UTC()}
	out := core.Transaction{
		Amount:      amount,
		Date:        date,
		Category:    core.CategoryTransferOut,
		Type:        core.Transfer,
		WalletID:    from.ID,
		Description: "Transfer to " + to.Name,
		Status:      core.Completed,
	}
	in := core.Transaction{
		Amount:      amount,
		Date:        date,
		Category:    core.CategoryTransferIn,
		Type:        core.Transfer,
		WalletID:    to.ID,
		Description: "Transfer from " + from.Name,
		Status:      core.Completed,
	}

	if _, _, err := s.store.RecordTransfer(ctx, from, to, out, in); err != nil {
		return core.TransferResult{}, fmt.Errorf("record transfer: %w", err)
	}
	s.committed()

	flog.NewStructuredLogger(flog.FromContext(ctx).WithComponent(flog.ComponentLedger)).
		LogTransfer(ctx, from.ID, to.ID, amount.Cents, s.Version())

	s.publish(ctx, amqp.NewTransferCompleted(from, to, amount))
	return core.TransferResult{Success: true, From: from, To: to}, nil
}

// checkCredit rejects a credit that would overflow the combined wallet
// balance. Keeping the total in range also keeps every single wallet in range.
func (s *LedgerService) checkCredit(ctx context.Context, amount core.Money) error {
	ws, err := s.store.ListWallets(ctx)
	if err != nil {
		return fmt.Errorf("list wallets: %w", err)
	}
	total := amount
	for _, w := range ws {
		var ok bool
		if total, ok = total.CheckedAdd(w.Balance); !ok {
			return core.ErrInvalidAmount
		}
	}
	return nil
}

// Balance sums all wallets. Ninety percent of the total is reported as
// available and the remainder as pending.
func (s *LedgerService) Balance(ctx context.Context) (core.Balance, error) {
	ws, err := s.ListWallets(ctx)
	if err != nil {
		return core.Balance{}, err
	}
	var total core.Money
	for _, w := range ws {
		total = total.Add(w.Balance)
	}
	available := core.Money{Cents: total.Cents/10*9 + total.Cents%10*9/10}
	return core.Balance{
		Total:     total,
		Available: available,
		Pending:   total.Sub(available),
	}, nil
}

func (s *LedgerService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping ledger event", "kind", ev.Kind)
		return
	}
	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		// The mutation is committed; a lost event only delays notifications.
		slog.ErrorContext(ctx, "Failed to publish ledger event", "kind", ev.Kind, "error", err)
	}
}
