// Package client is a Go client for the finboard API. Reads are served from
// per-collection query caches; writes go through Mutate, which applies them
// optimistically and rolls back on failure.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
)

// Cache keys. Pages of the transaction list share the transactions
// generation.
const (
	KeyTransactions = "transactions"
	KeyWallets      = "wallets"
	KeyBalance      = "balance"

	pagePrefix = KeyTransactions + "?page="
)

// PageKey returns the cache key of one page of transactions.
func PageKey(page int) string {
	return pagePrefix + strconv.Itoa(page)
}

// family maps a cache key to the key whose generation guards it.
func family(key string) string {
	if strings.HasPrefix(key, pagePrefix) {
		return KeyTransactions
	}
	return key
}

// APIError is a non-2xx response carrying the server's {"error": ...} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// CacheTTL bounds how long a cached read is served (default: 30s).
	CacheTTL time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client

	transactions *cache.LRUCache[[]core.Transaction]
	wallets      *cache.LRUCache[[]core.Wallet]
	balance      *cache.LRUCache[core.Balance]

	// mu guards gens, pages, token and read-modify-write sequences on the caches.
	mu    sync.Mutex
	gens  map[string]uint64
	pages map[string]struct{}
	token string
}

func New(config Config) *Client {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = 30 * time.Second
	}
	return &Client{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		http:         config.HTTPClient,
		transactions: cache.NewLRUCache[[]core.Transaction](64, config.CacheTTL),
		wallets:      cache.NewLRUCache[[]core.Wallet](1, config.CacheTTL),
		balance:      cache.NewLRUCache[core.Balance](1, config.CacheTTL),
		gens:         make(map[string]uint64),
		pages:        make(map[string]struct{}),
	}
}

// RegisterCaches hands the query caches to m for periodic expiry.
func (c *Client) RegisterCaches(m *cache.Manager) {
	m.Register(c.transactions)
	m.Register(c.wallets)
	m.Register(c.balance)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.Unlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[family(key)]
}

// bump invalidates in-flight reads of keys. Their responses are still
// returned to callers but no longer written to the cache.
func (c *Client) bump(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.gens[family(k)]++
	}
}

// fetch serves key from lru or loads it from path. The result is cached only
// if no mutation touched key while the request was in flight.
func fetch[T any](ctx context.Context, c *Client, lru *cache.LRUCache[T], key, path string) (T, error) {
	if v, ok := lru.Get(key); ok {
		return v, nil
	}
	return load(ctx, c, lru, key, path)
}

func load[T any](ctx context.Context, c *Client, lru *cache.LRUCache[T], key, path string) (T, error) {
	gen := c.generation(key)
	var v T
	if err := c.do(ctx, http.MethodGet, path, nil, &v); err != nil {
		return v, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[family(key)] == gen {
		lru.Set(key, v)
		if strings.HasPrefix(key, pagePrefix) {
			c.pages[key] = struct{}{}
		}
	}
	return v, nil
}

// SignIn authenticates and attaches the session token to later requests.
func (c *Client) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	var sess core.Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signin", body, &sess); err != nil {
		return core.Session{}, err
	}
	c.mu.Lock()
	c.token = sess.Token
	c.mu.Unlock()
	return sess, nil
}

func (c *Client) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return fetch(ctx, c, c.transactions, KeyTransactions, "/api/transactions")
}

func (c *Client) TransactionsPage(ctx context.Context, page int) ([]core.Transaction, error) {
	return fetch(ctx, c, c.transactions, PageKey(page), "/api/transactions?page="+strconv.Itoa(page))
}

func (c *Client) Wallets(ctx context.Context) ([]core.Wallet, error) {
	return fetch(ctx, c, c.wallets, KeyWallets, "/api/wallets")
}

func (c *Client) Balance(ctx context.Context) (core.Balance, error) {
	return fetch(ctx, c, c.balance, KeyBalance, "/api/balance")
}

// Cached returns the cached transaction list without touching the network.
func (c *Client) Cached() ([]core.Transaction, bool) {
	return c.transactions.Get(KeyTransactions)
}

// CachedWallets returns the cached wallets without touching the network.
func (c *Client) CachedWallets() ([]core.Wallet, bool) {
	return c.wallets.Get(KeyWallets)
}
