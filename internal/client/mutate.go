package client

import (
	"context"
	"log/slog"
	"maps"

	"golang.org/x/sync/errgroup"

	"finboard/internal/core"
)

// Mutation describes one optimistic write.
type Mutation[R any] struct {
	// Keys are bumped before the write so earlier in-flight reads of them
	// cannot overwrite the optimistic state.
	Keys []string
	// Apply edits the cached state. It runs with the client lock held and
	// must not mutate slices it reads from the cache in place.
	Apply func(c *Client)
	// Request performs the write against the API.
	Request func(ctx context.Context) (R, error)
	// Refetch lists the keys reloaded once the request settles.
	Refetch []string
}

type snapshot struct {
	txs     map[string][]core.Transaction
	wallets []core.Wallet
	hasW    bool
	balance core.Balance
	hasB    bool
}

func (c *Client) snapshotLocked() snapshot {
	s := snapshot{txs: make(map[string][]core.Transaction)}
	keys := maps.Clone(c.pages)
	keys[KeyTransactions] = struct{}{}
	for k := range keys {
		if v, ok := c.transactions.Get(k); ok {
			s.txs[k] = v
		}
	}
	s.wallets, s.hasW = c.wallets.Get(KeyWallets)
	s.balance, s.hasB = c.balance.Get(KeyBalance)
	return s
}

// restoreLocked puts the cache back exactly as the snapshot saw it,
// including entries that were absent.
func (c *Client) restoreLocked(s snapshot) {
	keys := maps.Clone(c.pages)
	keys[KeyTransactions] = struct{}{}
	for k := range keys {
		if v, ok := s.txs[k]; ok {
			c.transactions.Set(k, v)
		} else {
			c.transactions.Delete(k)
		}
	}
	if s.hasW {
		c.wallets.Set(KeyWallets, s.wallets)
	} else {
		c.wallets.Delete(KeyWallets)
	}
	if s.hasB {
		c.balance.Set(KeyBalance, s.balance)
	} else {
		c.balance.Delete(KeyBalance)
	}
}

// Mutate runs m: bump and snapshot, apply optimistically, send the request,
// restore the snapshot on failure and finally refetch m.Refetch
// concurrently. Refetch failures are logged and leave the key uncached.
// Concurrent mutations are last-writer-wins.
func Mutate[R any](ctx context.Context, c *Client, m Mutation[R]) (R, error) {
	c.bump(m.Keys...)

	c.mu.Lock()
	snap := c.snapshotLocked()
	if m.Apply != nil {
		m.Apply(c)
	}
	c.mu.Unlock()

	res, err := m.Request(ctx)
	if err != nil {
		c.mu.Lock()
		c.restoreLocked(snap)
		c.mu.Unlock()
	}

	c.settle(ctx, m.Refetch)
	return res, err
}

func (c *Client) settle(ctx context.Context, keys []string) {
	c.mu.Lock()
	for _, k := range keys {
		switch k {
		case KeyTransactions:
			c.transactions.DeletePrefix(pagePrefix)
			clear(c.pages)
			c.transactions.Delete(k)
		case KeyWallets:
			c.wallets.Delete(k)
		case KeyBalance:
			c.balance.Delete(k)
		}
	}
	c.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, k := range keys {
		g.Go(func() error {
			var err error
			switch k {
			case KeyTransactions:
				_, err = load(gctx, c, c.transactions, k, "/api/transactions")
			case KeyWallets:
				_, err = load(gctx, c, c.wallets, k, "/api/wallets")
			case KeyBalance:
				_, err = load(gctx, c, c.balance, k, "/api/balance")
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		slog.WarnContext(ctx, "Refetch after mutation failed", "error", err, "keys", keys)
	}
}
