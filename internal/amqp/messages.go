package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finboard/internal/core"
)

// EventKind names what happened on the ledger.
type EventKind string

const (
	TransactionCreated EventKind = "transaction.created"
	TransferCompleted  EventKind = "transfer.completed"
	GoalCompleted      EventKind = "goal.completed"
)

// LedgerEvent is published after a ledger mutation commits. Fields not
// relevant to the kind are left empty.
type LedgerEvent struct {
	Kind          EventKind            `json:"kind"`
	TransactionID string               `json:"transactionId,omitempty"`
	Type          core.TransactionType `json:"type,omitempty"`
	Category      string               `json:"category,omitempty"`
	Amount        core.Money           `json:"amount"`
	WalletID      string               `json:"walletId,omitempty"`
	ToWalletID    string               `json:"toWalletId,omitempty"`
	Balance       core.Money           `json:"balance"` // of WalletID after the mutation
	GoalID        string               `json:"goalId,omitempty"`
	GoalName      string               `json:"goalName,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}

func NewTransactionCreated(tx core.Transaction, balance core.Money) *LedgerEvent {
	return &LedgerEvent{
		Kind:          TransactionCreated,
		TransactionID: tx.ID,
		Type:          tx.Type,
		Category:      tx.Category,
		Amount:        tx.Amount,
		WalletID:      tx.WalletID,
		Balance:       balance,
		Timestamp:     time.Now(),
	}
}

func NewTransferCompleted(from, to core.Wallet, amount core.Money) *LedgerEvent {
	return &LedgerEvent{
		Kind:       TransferCompleted,
		Amount:     amount,
		WalletID:   from.ID,
		ToWalletID: to.ID,
		Balance:    from.Balance,
		Timestamp:  time.Now(),
	}
}

func NewGoalCompleted(g core.SavingsGoal) *LedgerEvent {
	return &LedgerEvent{
		Kind:      GoalCompleted,
		GoalID:    g.ID,
		GoalName:  g.Name,
		Amount:    g.Target,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects unknown kinds.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	switch ev.Kind {
	case TransactionCreated, TransferCompleted, GoalCompleted:
		return &ev, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}
