package client

import (
	"context"
	"net/http"
	"slices"

	"github.com/google/uuid"

	"finboard/internal/core"
)

// TempIDPrefix marks optimistic transactions not yet confirmed by the server.
const TempIDPrefix = "tmp-"

// CreateTransaction shows tx at the head of the cached list under a
// temporary id until the server answers.
func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	return Mutate(ctx, c, Mutation[core.Transaction]{
		Keys: []string{KeyTransactions, KeyWallets, KeyBalance},
		Apply: func(c *Client) {
			list, ok := c.transactions.Get(KeyTransactions)
			if !ok {
				return
			}
			pending := tx
			pending.ID = TempIDPrefix + uuid.NewString()
			c.transactions.Set(KeyTransactions, append([]core.Transaction{pending}, list...))
		},
		Request: func(ctx context.Context) (core.Transaction, error) {
			var saved core.Transaction
			err := c.do(ctx, http.MethodPost, "/api/transactions", tx, &saved)
			return saved, err
		},
		Refetch: []string{KeyTransactions, KeyWallets, KeyBalance},
	})
}

func (c *Client) UpdateTransaction(ctx context.Context, id string, patch core.TransactionPatch) (core.Transaction, error) {
	return Mutate(ctx, c, Mutation[core.Transaction]{
		Keys: []string{KeyTransactions},
		Apply: func(c *Client) {
			list, ok := c.transactions.Get(KeyTransactions)
			if !ok {
				return
			}
			list = slices.Clone(list)
			for i := range list {
				if list[i].ID == id {
					list[i] = patch.Apply(list[i])
				}
			}
			c.transactions.Set(KeyTransactions, list)
		},
		Request: func(ctx context.Context) (core.Transaction, error) {
			var saved core.Transaction
			err := c.do(ctx, http.MethodPut, "/api/transactions/"+id, patch, &saved)
			return saved, err
		},
		Refetch: []string{KeyTransactions},
	})
}

func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	_, err := Mutate(ctx, c, Mutation[struct{}]{
		Keys: []string{KeyTransactions},
		Apply: func(c *Client) {
			list, ok := c.transactions.Get(KeyTransactions)
			if !ok {
				return
			}
			c.transactions.Set(KeyTransactions, slices.DeleteFunc(slices.Clone(list), func(t core.Transaction) bool {
				return t.ID == id
			}))
		},
		Request: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.do(ctx, http.MethodDelete, "/api/transactions/"+id, nil, nil)
		},
		Refetch: []string{KeyTransactions},
	})
	return err
}

type transferBody struct {
	FromID string     `json:"fromId"`
	ToID   string     `json:"toId"`
	Amount core.Money `json:"amount"`
}

// Transfer moves the amount between the cached wallets immediately.
func (c *Client) Transfer(ctx context.Context, fromID, toID string, amount core.Money) (core.TransferResult, error) {
	return Mutate(ctx, c, Mutation[core.TransferResult]{
		Keys: []string{KeyTransactions, KeyWallets, KeyBalance},
		Apply: func(c *Client) {
			ws, ok := c.wallets.Get(KeyWallets)
			if !ok {
				return
			}
			ws = slices.Clone(ws)
			for i := range ws {
				switch ws[i].ID {
				case fromID:
					ws[i].Balance = ws[i].Balance.Sub(amount)
				case toID:
					ws[i].Balance = ws[i].Balance.Add(amount)
				}
			}
			c.wallets.Set(KeyWallets, ws)
		},
		Request: func(ctx context.Context) (core.TransferResult, error) {
			var res core.TransferResult
			err := c.do(ctx, http.MethodPost, "/api/wallets/transfer", transferBody{fromID, toID, amount}, &res)
			return res, err
		},
		Refetch: []string{KeyTransactions, KeyWallets, KeyBalance},
	})
}
