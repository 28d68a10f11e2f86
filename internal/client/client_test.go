package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	apphttp "finboard/internal/http"
	flog "finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/storage"
	"finboard/internal/storage/memory"
)

func newAPI(t *testing.T) *Client {
	t.Helper()
	store := memory.NewSeeded(storage.DefaultSeed(time.Now()))
	ledger := services.NewLedgerService(store, nil)
	srv := apphttp.NewServer(":0", apphttp.Services{
		Auth:          services.NewAuthService(),
		Ledger:        ledger,
		Goals:         services.NewGoalService(store, nil),
		Investments:   services.NewInvestmentService(store),
		Notifications: services.NewNotificationService(store),
		Analytics:     services.NewAnalyticsService(ledger, time.Minute, cache.NewManager()),
	}, apphttp.Options{
		RateLimitPerMinute: 10000,
		Logger:             flog.New(flog.Config{Output: io.Discard}),
		Ready:              store,
	})
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		ts.Close()
		srv.Shutdown(context.Background())
	})
	return New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
}

func TestReadsAreCached(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)

	txs, err := c.Transactions(ctx)
	if err != nil || len(txs) != 25 {
		t.Fatalf("Transactions() = %d, %v", len(txs), err)
	}
	page, err := c.TransactionsPage(ctx, 3)
	if err != nil || len(page) != 5 {
		t.Fatalf("TransactionsPage(3) = %d, %v", len(page), err)
	}
	b, err := c.Balance(ctx)
	if err != nil || b.Total.Cents != 800000 {
		t.Fatalf("Balance() = %+v, %v", b, err)
	}
	if _, ok := c.Cached(); !ok {
		t.Fatal("transactions should be cached")
	}
	if _, ok := c.transactions.Get(PageKey(3)); !ok {
		t.Fatal("page 3 should be cached")
	}
}

func TestSignInAttachesToken(t *testing.T) {
	c := newAPI(t)
	sess, err := c.SignIn(context.Background(), "john.doe@example.com", "password123")
	if err != nil || c.token != sess.Token {
		t.Fatalf("SignIn() = %+v, %v", sess, err)
	}

	_, err = c.SignIn(context.Background(), "john.doe@example.com", "bad")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid credentials" {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestCreateTransactionSettles(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)
	c.Transactions(ctx)
	c.Wallets(ctx)
	c.TransactionsPage(ctx, 1)

	saved, err := c.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(100), Category: "Salary", Type: core.Income})
	if err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if strings.HasPrefix(saved.ID, TempIDPrefix) {
		t.Fatalf("server id expected, got %q", saved.ID)
	}

	list, ok := c.Cached()
	if !ok || len(list) != 26 || list[0].ID != saved.ID {
		t.Fatalf("cache not reconciled: ok=%v len=%d", ok, len(list))
	}
	ws, ok := c.CachedWallets()
	if !ok || ws[0].Balance.Cents != 510000 {
		t.Fatalf("wallets not refetched: %+v", ws)
	}
	if _, ok := c.transactions.Get(PageKey(1)); ok {
		t.Fatal("stale page should be dropped")
	}
}

func TestTransferFailureRestoresWallets(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)
	before, _ := c.Wallets(ctx)

	_, err := c.Transfer(ctx, "savings", "main", core.FromUnits(1_000_000))
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Insufficient balance" {
		t.Fatalf("Transfer() error = %v", err)
	}
	after, ok := c.CachedWallets()
	if !ok {
		t.Fatal("wallets should be refetched")
	}
	for i := range before {
		if after[i].Balance != before[i].Balance {
			t.Fatalf("wallet %s changed: %v -> %v", before[i].ID, before[i].Balance, after[i].Balance)
		}
	}

	res, err := c.Transfer(ctx, "main", "savings", core.FromUnits(100))
	if err != nil || !res.Success || res.From.Balance.Cents != 490000 {
		t.Fatalf("Transfer() = %+v, %v", res, err)
	}
	list, _ := c.Cached()
	if list[0].Category != core.CategoryTransferOut {
		t.Fatalf("transfer legs missing from refetched list: %+v", list[0])
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	c := newAPI(t)
	list, _ := c.Transactions(ctx)
	id := list[0].ID

	desc := "Edited"
	if _, err := c.UpdateTransaction(ctx, id, core.TransactionPatch{Description: &desc}); err != nil {
		t.Fatal(err)
	}
	if list, _ := c.Cached(); list[0].Description != "Edited" {
		t.Fatalf("update not visible: %+v", list[0])
	}

	if err := c.DeleteTransaction(ctx, id); err != nil {
		t.Fatal(err)
	}
	if list, _ := c.Cached(); len(list) != 24 {
		t.Fatalf("delete not visible: %d", len(list))
	}
	var apiErr *APIError
	if err := c.DeleteTransaction(ctx, id); !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete = %v", err)
	}
}

// stubAPI serves canned transaction lists and lets a test hold requests.
type stubAPI struct {
	mu    sync.Mutex
	lists [][]core.Transaction
	gets  atomic.Int32

	holdGet  chan struct{}
	enterGet chan struct{}
	holdPost chan struct{}
	failPost bool
}

func (s *stubAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.Method {
	case http.MethodGet:
		n := int(s.gets.Add(1)) - 1
		if n == 0 && s.holdGet != nil {
			s.enterGet <- struct{}{}
			<-s.holdGet
		}
		s.mu.Lock()
		list := s.lists[min(n, len(s.lists)-1)]
		s.mu.Unlock()
		json.NewEncoder(w).Encode(list)
	case http.MethodPost:
		if s.holdPost != nil {
			<-s.holdPost
		}
		if s.failPost {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Invalid wallet"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"99","amount":1,"category":"x","type":"expense"}`))
	default:
		w.Write([]byte(`{"success":true}`))
	}
}

func newStubClient(t *testing.T, api *stubAPI) *Client {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)
	return New(Config{BaseURL: ts.URL, HTTPClient: ts.Client()})
}

func TestOptimisticCreateIsVisibleThenRolledBack(t *testing.T) {
	ctx := context.Background()
	seed := []core.Transaction{{ID: "1", Category: "Food", Type: core.Expense, Amount: core.FromUnits(5)}}
	api := &stubAPI{lists: [][]core.Transaction{seed}, holdPost: make(chan struct{}), failPost: true}
	c := newStubClient(t, api)
	c.Transactions(ctx)

	done := make(chan error, 1)
	go func() {
		_, err := c.CreateTransaction(ctx, core.Transaction{Category: "Rent", Type: core.Expense, Amount: core.FromUnits(10), WalletID: "ghost"})
		done <- err
	}()

	deadline := time.After(2 * time.Second)
	for {
		if list, _ := c.Cached(); len(list) == 2 {
			if !strings.HasPrefix(list[0].ID, TempIDPrefix) || list[0].Category != "Rent" {
				t.Fatalf("optimistic entry = %+v", list[0])
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("optimistic entry never appeared")
		case <-time.After(5 * time.Millisecond):
		}
	}
	close(api.holdPost)

	if err := <-done; err == nil {
		t.Fatal("expected failure")
	}
	list, _ := c.Cached()
	if len(list) != 1 || list[0].ID != "1" {
		t.Fatalf("rollback/refetch left %+v", list)
	}
}

func TestMutateRestoresSnapshotExactly(t *testing.T) {
	ctx := context.Background()
	api := &stubAPI{lists: [][]core.Transaction{{{ID: "1"}, {ID: "2"}}}}
	c := newStubClient(t, api)
	c.Transactions(ctx)
	c.TransactionsPage(ctx, 1)

	boom := errors.New("boom")
	_, err := Mutate(ctx, c, Mutation[int]{
		Keys: []string{KeyTransactions},
		Apply: func(c *Client) {
			c.transactions.Set(KeyTransactions, nil)
			c.transactions.Delete(PageKey(1))
			c.wallets.Set(KeyWallets, []core.Wallet{{ID: "new"}})
		},
		Request: func(context.Context) (int, error) { return 0, boom },
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Mutate() error = %v", err)
	}

	if list, ok := c.Cached(); !ok || len(list) != 2 {
		t.Fatalf("transactions not restored: %v %v", list, ok)
	}
	if _, ok := c.transactions.Get(PageKey(1)); !ok {
		t.Fatal("page not restored")
	}
	if _, ok := c.CachedWallets(); ok {
		t.Fatal("wallets were absent and should stay absent")
	}
}

func TestStaleReadIsNotCached(t *testing.T) {
	ctx := context.Background()
	stale := []core.Transaction{{ID: "old"}}
	fresh := []core.Transaction{{ID: "fresh"}}
	api := &stubAPI{
		lists:    [][]core.Transaction{stale, fresh},
		holdGet:  make(chan struct{}),
		enterGet: make(chan struct{}),
	}
	c := newStubClient(t, api)

	read := make(chan []core.Transaction, 1)
	go func() {
		list, _ := c.Transactions(ctx)
		read <- list
	}()
	<-api.enterGet

	if err := c.DeleteTransaction(ctx, "old"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	close(api.holdGet)

	if got := <-read; got[0].ID != "old" {
		t.Fatalf("in-flight read should still return its response, got %+v", got)
	}
	list, ok := c.Cached()
	if !ok || list[0].ID != "fresh" {
		t.Fatalf("cache = %+v, want the post-mutation refetch", list)
	}
}
