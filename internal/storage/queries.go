package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"finboard/internal/core"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, core.ErrNotFound
	}
	return n, nil
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// notFound maps sql.ErrNoRows onto the storage sentinel.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// Transactions

const transactionColumns = `id, amount_cents, occurred_at, category, type, wallet_id, description, status`

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t    core.Transaction
		id   int64
		when string
		typ  string
		st   string
	)
	if err := s.Scan(&id, &t.Amount.Cents, &when, &t.Category, &typ, &t.WalletID, &t.Description, &st); err != nil {
		return t, err
	}
	ts, err := parseTime(when)
	if err != nil {
		return t, fmt.Errorf("parse occurred_at of transaction %d: %w", id, err)
	}
	t.ID = formatID(id)
	t.Date = core.Date{Time: ts}
	t.Type = core.TransactionType(typ)
	t.Status = core.TransactionStatus(st)
	return t, nil
}

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	t, err := scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
	return t, notFound(err)
}

const createTransaction = `INSERT INTO transactions (amount_cents, occurred_at, category, type, wallet_id, description, status)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + transactionColumns

func (q *Queries) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		t.Amount.Cents, formatTime(t.Date.Time), t.Category, string(t.Type), t.WalletID, t.Description, string(t.Status))
	return scanTransaction(row)
}

const updateTransaction = `UPDATE transactions
SET amount_cents = ?, occurred_at = ?, category = ?, type = ?, wallet_id = ?, description = ?, status = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, id int64, t core.Transaction) error {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		t.Amount.Cents, formatTime(t.Date.Time), t.Category, string(t.Type), t.WalletID, t.Description, string(t.Status), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Wallets

const walletColumns = `id, name, balance_cents, currency`

func scanWallet(s scanner) (core.Wallet, error) {
	var w core.Wallet
	err := s.Scan(&w.ID, &w.Name, &w.Balance.Cents, &w.Currency)
	return w, err
}

const listWallets = `SELECT ` + walletColumns + ` FROM wallets ORDER BY rowid`

func (q *Queries) ListWallets(ctx context.Context) ([]core.Wallet, error) {
	rows, err := q.db.QueryContext(ctx, listWallets)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Wallet{}
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

const getWallet = `SELECT ` + walletColumns + ` FROM wallets WHERE id = ?`

func (q *Queries) GetWallet(ctx context.Context, id string) (core.Wallet, error) {
	w, err := scanWallet(q.db.QueryRowContext(ctx, getWallet, id))
	return w, notFound(err)
}

const createWallet = `INSERT INTO wallets (id, name, balance_cents, currency) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateWallet(ctx context.Context, w core.Wallet) error {
	_, err := q.db.ExecContext(ctx, createWallet, w.ID, w.Name, w.Balance.Cents, w.Currency)
	return err
}

const setWalletBalance = `UPDATE wallets SET balance_cents = ? WHERE id = ?`

func (q *Queries) SetWalletBalance(ctx context.Context, id string, balance core.Money) error {
	res, err := q.db.ExecContext(ctx, setWalletBalance, balance.Cents, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const countWallets = `SELECT COUNT(*) FROM wallets`

func (q *Queries) CountWallets(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countWallets).Scan(&n)
	return n, err
}

// Savings goals

const goalColumns = `id, name, target_cents, current_cents, is_completed, completed_at`

func scanGoal(s scanner) (core.SavingsGoal, error) {
	var (
		g         core.SavingsGoal
		id        int64
		completed int64
		at        sql.NullString
	)
	if err := s.Scan(&id, &g.Name, &g.Target.Cents, &g.Current.Cents, &completed, &at); err != nil {
		return g, err
	}
	g.ID = formatID(id)
	g.IsCompleted = completed != 0
	if at.Valid && at.String != "" {
		ts, err := parseTime(at.String)
		if err != nil {
			return g, fmt.Errorf("parse completed_at of goal %d: %w", id, err)
		}
		g.CompletedAt = &ts
	}
	return g, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

const listGoals = `SELECT ` + goalColumns + ` FROM savings_goals ORDER BY id`

func (q *Queries) ListGoals(ctx context.Context) ([]core.SavingsGoal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.SavingsGoal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

const getGoal = `SELECT ` + goalColumns + ` FROM savings_goals WHERE id = ?`

func (q *Queries) GetGoal(ctx context.Context, id int64) (core.SavingsGoal, error) {
	g, err := scanGoal(q.db.QueryRowContext(ctx, getGoal, id))
	return g, notFound(err)
}

const createGoal = `INSERT INTO savings_goals (name, target_cents, current_cents, is_completed, completed_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + goalColumns

func (q *Queries) CreateGoal(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	row := q.db.QueryRowContext(ctx, createGoal, g.Name, g.Target.Cents, g.Current.Cents, boolInt(g.IsCompleted), nullTime(g.CompletedAt))
	return scanGoal(row)
}

const updateGoal = `UPDATE savings_goals
SET name = ?, target_cents = ?, current_cents = ?, is_completed = ?, completed_at = ?
WHERE id = ?`

func (q *Queries) UpdateGoal(ctx context.Context, id int64, g core.SavingsGoal) error {
	res, err := q.db.ExecContext(ctx, updateGoal, g.Name, g.Target.Cents, g.Current.Cents, boolInt(g.IsCompleted), nullTime(g.CompletedAt), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const deleteGoal = `DELETE FROM savings_goals WHERE id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteGoal, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Investments

const investmentColumns = `id, asset_type, asset_name, buy_price_cents, current_price_cents, units, purchase_date, category`

func scanInvestment(s scanner) (core.Investment, error) {
	var (
		inv  core.Investment
		id   int64
		typ  string
		date string
	)
	if err := s.Scan(&id, &typ, &inv.AssetName, &inv.BuyPrice.Cents, &inv.CurrentPrice.Cents, &inv.Units, &date, &inv.Category); err != nil {
		return inv, err
	}
	ts, err := parseTime(date)
	if err != nil {
		return inv, fmt.Errorf("parse purchase_date of investment %d: %w", id, err)
	}
	inv.ID = formatID(id)
	inv.AssetType = core.AssetType(typ)
	inv.PurchaseDate = core.Date{Time: ts}
	return inv, nil
}

const listInvestments = `SELECT ` + investmentColumns + ` FROM investments ORDER BY id`

func (q *Queries) ListInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := q.db.QueryContext(ctx, listInvestments)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

const getInvestment = `SELECT ` + investmentColumns + ` FROM investments WHERE id = ?`

func (q *Queries) GetInvestment(ctx context.Context, id int64) (core.Investment, error) {
	inv, err := scanInvestment(q.db.QueryRowContext(ctx, getInvestment, id))
	return inv, notFound(err)
}

const createInvestment = `INSERT INTO investments (asset_type, asset_name, buy_price_cents, current_price_cents, units, purchase_date, category)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + investmentColumns

func (q *Queries) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	row := q.db.QueryRowContext(ctx, createInvestment, string(inv.AssetType), inv.AssetName,
		inv.BuyPrice.Cents, inv.CurrentPrice.Cents, inv.Units, formatTime(inv.PurchaseDate.Time), inv.Category)
	return scanInvestment(row)
}

const updateInvestment = `UPDATE investments
SET asset_type = ?, asset_name = ?, buy_price_cents = ?, current_price_cents = ?, units = ?, purchase_date = ?, category = ?
WHERE id = ?`

func (q *Queries) UpdateInvestment(ctx context.Context, id int64, inv core.Investment) error {
	res, err := q.db.ExecContext(ctx, updateInvestment, string(inv.AssetType), inv.AssetName,
		inv.BuyPrice.Cents, inv.CurrentPrice.Cents, inv.Units, formatTime(inv.PurchaseDate.Time), inv.Category, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

const deleteInvestment = `DELETE FROM investments WHERE id = ?`

func (q *Queries) DeleteInvestment(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, deleteInvestment, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// Notifications

const notificationColumns = `id, title, message, type, is_read, created_at`

func scanNotification(s scanner) (core.Notification, error) {
	var (
		n    core.Notification
		id   int64
		typ  string
		read int64
		at   string
	)
	if err := s.Scan(&id, &n.Title, &n.Message, &typ, &read, &at); err != nil {
		return n, err
	}
	ts, err := parseTime(at)
	if err != nil {
		return n, fmt.Errorf("parse created_at of notification %d: %w", id, err)
	}
	n.ID = formatID(id)
	n.Type = core.NotificationType(typ)
	n.IsRead = read != 0
	n.CreatedAt = ts
	return n, nil
}

const listNotifications = `SELECT ` + notificationColumns + ` FROM notifications ORDER BY id`

func (q *Queries) ListNotifications(ctx context.Context) ([]core.Notification, error) {
	rows, err := q.db.QueryContext(ctx, listNotifications)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

const createNotification = `INSERT INTO notifications (title, message, type, is_read, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + notificationColumns

func (q *Queries) CreateNotification(ctx context.Context, n core.Notification) (core.Notification, error) {
	row := q.db.QueryRowContext(ctx, createNotification, n.Title, n.Message, string(n.Type), boolInt(n.IsRead), formatTime(n.CreatedAt))
	return scanNotification(row)
}

const markNotificationRead = `UPDATE notifications SET is_read = 1 WHERE id = ?
RETURNING ` + notificationColumns

func (q *Queries) MarkNotificationRead(ctx context.Context, id int64) (core.Notification, error) {
	n, err := scanNotification(q.db.QueryRowContext(ctx, markNotificationRead, id))
	return n, notFound(err)
}

const markAllNotificationsRead = `UPDATE notifications SET is_read = 1 WHERE is_read = 0`

func (q *Queries) MarkAllNotificationsRead(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, markAllNotificationsRead)
	return err
}
