package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income   TransactionType = "income"
	Expense  TransactionType = "expense"
	Transfer TransactionType = "transfer"

	Pending   TransactionStatus = "pending"
	Completed TransactionStatus = "completed"

	Info    NotificationType = "info"
	Success NotificationType = "success"
	Warning NotificationType = "warning"
	Failure NotificationType = "error"

	Stocks      AssetType = "stocks"
	Crypto      AssetType = "crypto"
	RealEstate  AssetType = "real-estate"
	MutualFund  AssetType = "mutual-fund"
	FixedIncome AssetType = "fixed-income"
	Custom      AssetType = "custom"
)

// Categories used for the two legs of a wallet transfer.
const (
	CategoryTransferOut = "Transfer Out"
	CategoryTransferIn  = "Transfer In"
)

type (
	TransactionType   string
	TransactionStatus string
	NotificationType  string
	AssetType         string

	Transaction struct {
		ID          string            `json:"id"`
		Amount      Money             `json:"amount"`
		Date        Date              `json:"date"`
		Category    string            `json:"category"`
		Type        TransactionType   `json:"type"`
		WalletID    string            `json:"walletId,omitempty"`
		Description string            `json:"description,omitempty"`
		Status      TransactionStatus `json:"status,omitempty"`
	}

	// TransactionPatch carries the fields of a partial update. Nil fields are left unchanged.
	TransactionPatch struct {
		Amount      *Money             `json:"amount,omitempty"`
		Date        *Date              `json:"date,omitempty"`
		Category    *string            `json:"category,omitempty"`
		Type        *TransactionType   `json:"type,omitempty"`
		WalletID    *string            `json:"walletId,omitempty"`
		Description *string            `json:"description,omitempty"`
		Status      *TransactionStatus `json:"status,omitempty"`
	}

	Wallet struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Balance  Money  `json:"balance"`
		Currency string `json:"currency,omitempty"`
	}

	SavingsGoal struct {
		ID          string     `json:"id"`
		Name        string     `json:"name"`
		Target      Money      `json:"target"`
		Current     Money      `json:"current"`
		IsCompleted bool       `json:"isCompleted"`
		CompletedAt *time.Time `json:"completedAt"`
	}

	Investment struct {
		ID           string    `json:"id"`
		AssetType    AssetType `json:"assetType"`
		AssetName    string    `json:"assetName"`
		BuyPrice     Money     `json:"buyPrice"`
		CurrentPrice Money     `json:"currentPrice"`
		Units        float64   `json:"units"`
		PurchaseDate Date      `json:"purchaseDate"`
		Category     string    `json:"category,omitempty"`
	}

	Notification struct {
		ID        string           `json:"id"`
		Title     string           `json:"title"`
		Message   string           `json:"message"`
		Type      NotificationType `json:"type"`
		IsRead    bool             `json:"isRead"`
		CreatedAt time.Time        `json:"createdAt"`
	}

	User struct {
		Email       string `json:"email"`
		DisplayName string `json:"displayName,omitempty"`
		Role        string `json:"role"`
	}

	Session struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}

	Balance struct {
		Total     Money `json:"total"`
		Available Money `json:"available"`
		Pending   Money `json:"pending"`
	}

	TransferResult struct {
		Success bool   `json:"success"`
		From    Wallet `json:"from"`
		To      Wallet `json:"to"`
	}
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidStatus       = errors.New("invalid transaction status")
	ErrEmptyCategory       = errors.New("empty category")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidTarget       = errors.New("target must be greater than zero")
	ErrNegativeCurrent     = errors.New("current amount cannot be negative")
	ErrInvalidAssetType    = errors.New("invalid asset type")
	ErrInvalidPrice        = errors.New("prices cannot be negative")
	ErrInvalidUnits        = errors.New("units must be greater than zero")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrEmptyEmail          = errors.New("email is required")
	ErrInvalidWallet       = errors.New("invalid wallet")
	ErrInvalidWallets      = errors.New("invalid wallet(s)")
	ErrSameWallet          = errors.New("source and destination cannot be the same")
	ErrInsufficientBalance = errors.New("insufficient balance")

	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrWalletNotFound       = errors.New("wallet not found")
	ErrGoalNotFound         = errors.New("savings goal not found")
	ErrInvestmentNotFound   = errors.New("investment not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense, Transfer:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	switch s {
	case "", Pending, Completed:
		return true
	}
	return false
}

func (a AssetType) Valid() bool {
	switch a {
	case Stocks, Crypto, RealEstate, MutualFund, FixedIncome, Custom:
		return true
	}
	return false
}

// IsPending reports whether the transaction is excluded from aggregates.
func (t Transaction) IsPending() bool {
	return t.Status == Pending
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionTooLong
	}
	return nil
}

// Apply performs a shallow merge of the patch onto the transaction.
func (p TransactionPatch) Apply(t Transaction) Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.WalletID != nil {
		t.WalletID = *p.WalletID
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if !g.Target.IsPositive() {
		return ErrInvalidTarget
	}
	if g.Current.Cents < 0 {
		return ErrNegativeCurrent
	}
	return nil
}

// Reconcile recomputes IsCompleted from the amounts. CompletedAt is stamped
// with now only on the first transition to completed and is never cleared.
func (g SavingsGoal) Reconcile(now time.Time) SavingsGoal {
	wasCompleted := g.IsCompleted
	g.IsCompleted = g.Current.Cents >= g.Target.Cents
	if g.IsCompleted && !wasCompleted && g.CompletedAt == nil {
		ts := now.UTC()
		g.CompletedAt = &ts
	}
	return g
}

func (i Investment) Validate() error {
	if !i.AssetType.Valid() {
		return ErrInvalidAssetType
	}
	if strings.TrimSpace(i.AssetName) == "" {
		return ErrEmptyName
	}
	if i.BuyPrice.Cents < 0 || i.CurrentPrice.Cents < 0 {
		return ErrInvalidPrice
	}
	if i.Units <= 0 {
		return ErrInvalidUnits
	}
	return nil
}

// MarketValue is units * currentPrice.
func (i Investment) MarketValue() Money {
	return FromUnits(i.Units * i.CurrentPrice.Units())
}

// Cost is units * buyPrice.
func (i Investment) Cost() Money {
	return FromUnits(i.Units * i.BuyPrice.Units())
}

// ProfitLoss is the unrealized P/L, units * (currentPrice - buyPrice).
func (i Investment) ProfitLoss() Money {
	return FromUnits(i.Units * i.CurrentPrice.Sub(i.BuyPrice).Units())
}
