package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/storage"
)

// collection is an ordered list of records keyed by id. New records get the
// next value of a per-collection counter unless they already carry an id.
type collection[T any] struct {
	items   []T
	next    int
	prepend bool
	id      func(T) string
	setID   func(T, string) T
}

func (c *collection[T]) list() []T {
	return append([]T(nil), c.items...)
}

func (c *collection[T]) index(id string) int {
	for i, v := range c.items {
		if c.id(v) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) get(id string) (T, error) {
	if i := c.index(id); i >= 0 {
		return c.items[i], nil
	}
	var zero T
	return zero, core.ErrNotFound
}

func (c *collection[T]) insert(v T) T {
	if c.id(v) == "" {
		c.next++
		v = c.setID(v, strconv.Itoa(c.next))
	} else if n, err := strconv.Atoi(c.id(v)); err == nil && n > c.next {
		c.next = n
	}
	if c.prepend {
		c.items = append([]T{v}, c.items...)
	} else {
		c.items = append(c.items, v)
	}
	return v
}

func (c *collection[T]) update(v T) (T, error) {
	i := c.index(c.id(v))
	if i < 0 {
		var zero T
		return zero, core.ErrNotFound
	}
	c.items[i] = v
	return v, nil
}

func (c *collection[T]) remove(id string) error {
	i := c.index(id)
	if i < 0 {
		return core.ErrNotFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return nil
}

// Store keeps every collection in process memory. It is safe for concurrent use.
type Store struct {
	mu            sync.RWMutex
	transactions  collection[core.Transaction]
	wallets       collection[core.Wallet]
	goals         collection[core.SavingsGoal]
	investments   collection[core.Investment]
	notifications collection[core.Notification]
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		transactions: collection[core.Transaction]{
			prepend: true,
			id:      func(t core.Transaction) string { return t.ID },
			setID:   func(t core.Transaction, id string) core.Transaction { t.ID = id; return t },
		},
		wallets: collection[core.Wallet]{
			id:    func(w core.Wallet) string { return w.ID },
			setID: func(w core.Wallet, id string) core.Wallet { w.ID = id; return w },
		},
		goals: collection[core.SavingsGoal]{
			id:    func(g core.SavingsGoal) string { return g.ID },
			setID: func(g core.SavingsGoal, id string) core.SavingsGoal { g.ID = id; return g },
		},
		investments: collection[core.Investment]{
			id:    func(i core.Investment) string { return i.ID },
			setID: func(i core.Investment, id string) core.Investment { i.ID = id; return i },
		},
		notifications: collection[core.Notification]{
			id:    func(n core.Notification) string { return n.ID },
			setID: func(n core.Notification, id string) core.Notification { n.ID = id; return n },
		},
	}
}

// NewSeeded returns a store loaded with seed.
func NewSeeded(seed storage.Seed) *Store {
	s := New()
	s.Load(seed)
	return s
}

// NewFromFiles loads seed.json from base when present and falls back to the
// built-in demo dataset otherwise.
func NewFromFiles(base string, now time.Time) *Store {
	seed, err := readSeed(filepath.Join(base, "seed.json"))
	if err != nil {
		seed = storage.DefaultSeed(now)
	}
	return NewSeeded(seed)
}

// Load appends seed to the store. Transactions in seed are most-recent-first.
func (s *Store) Load(seed storage.Seed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range seed.Wallets {
		s.wallets.insert(w)
	}
	for i := len(seed.Transactions) - 1; i >= 0; i-- {
		s.transactions.insert(seed.Transactions[i])
	}
	for _, g := range seed.Goals {
		s.goals.insert(g)
	}
	for _, inv := range seed.Investments {
		s.investments.insert(inv)
	}
	for _, n := range seed.Notifications {
		s.notifications.insert(n)
	}
}

func readSeed(path string) (storage.Seed, error) {
	var seed storage.Seed
	b, err := os.ReadFile(path)
	if err != nil {
		return seed, err
	}
	if err := json.Unmarshal(b, &seed); err != nil {
		return seed, fmt.Errorf("decode %s: %w", path, err)
	}
	return seed, nil
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Transactions

func (s *Store) ListTransactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactions.list(), nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactions.get(id)
}

func (s *Store) InsertTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx.ID = ""
	return s.transactions.insert(tx), nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions.update(tx)
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transactions.remove(id)
}

// Wallets

func (s *Store) ListWallets(_ context.Context) ([]core.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets.list(), nil
}

func (s *Store) GetWallet(_ context.Context, id string) (core.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets.get(id)
}

func (s *Store) InsertWallet(_ context.Context, w core.Wallet) (core.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.ID != "" && s.wallets.index(w.ID) >= 0 {
		return core.Wallet{}, fmt.Errorf("wallet %q already exists", w.ID)
	}
	return s.wallets.insert(w), nil
}

func (s *Store) RecordTransaction(_ context.Context, w core.Wallet, tx core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.wallets.update(w); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = ""
	return s.transactions.insert(tx), nil
}

func (s *Store) RecordTransfer(_ context.Context, from, to core.Wallet, out, in core.Transaction) (core.Transaction, core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wallets.index(from.ID) < 0 || s.wallets.index(to.ID) < 0 {
		return core.Transaction{}, core.Transaction{}, core.ErrNotFound
	}
	s.wallets.update(from)
	s.wallets.update(to)

	// Ids follow the out leg first; insertion order puts out at the head.
	in.ID = ""
	s.transactions.next++
	out.ID = strconv.Itoa(s.transactions.next)
	in = s.transactions.insert(in)
	out = s.transactions.insert(out)
	return out, in, nil
}

// Savings goals

func (s *Store) ListGoals(_ context.Context) ([]core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals.list(), nil
}

func (s *Store) GetGoal(_ context.Context, id string) (core.SavingsGoal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals.get(id)
}

func (s *Store) InsertGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = ""
	return s.goals.insert(g), nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals.update(g)
}

func (s *Store) DeleteGoal(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goals.remove(id)
}

// Investments

func (s *Store) ListInvestments(_ context.Context) ([]core.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.investments.list(), nil
}

func (s *Store) GetInvestment(_ context.Context, id string) (core.Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.investments.get(id)
}

func (s *Store) InsertInvestment(_ context.Context, inv core.Investment) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = ""
	return s.investments.insert(inv), nil
}

func (s *Store) UpdateInvestment(_ context.Context, inv core.Investment) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.investments.update(inv)
}

func (s *Store) DeleteInvestment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.investments.remove(id)
}

// Notifications

func (s *Store) ListNotifications(_ context.Context) ([]core.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications.list(), nil
}

func (s *Store) InsertNotification(_ context.Context, n core.Notification) (core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.ID = ""
	return s.notifications.insert(n), nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id string) (core.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.notifications.index(id)
	if i < 0 {
		return core.Notification{}, core.ErrNotFound
	}
	s.notifications.items[i].IsRead = true
	return s.notifications.items[i], nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications.items {
		s.notifications.items[i].IsRead = true
	}
	return nil
}
