package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/core"
)

// Thresholds for generated alerts.
var (
	LargeExpense = core.FromUnits(1000)
	LowBalance   = core.FromUnits(100)
)

// Notifier stores a system notification.
type Notifier interface {
	Notify(ctx context.Context, typ core.NotificationType, title, message string) (core.Notification, error)
}

// NotificationWorker turns ledger events into user notifications.
type NotificationWorker struct {
	notifier Notifier
}

func NewNotificationWorker(notifier Notifier) *NotificationWorker {
	return &NotificationWorker{notifier: notifier}
}

type draft struct {
	typ     core.NotificationType
	title   string
	message string
}

// notificationsFor returns the notifications an event should produce.
func notificationsFor(ev *amqp.LedgerEvent) []draft {
	var out []draft
	switch ev.Kind {
	case amqp.TransactionCreated:
		switch ev.Type {
		case core.Income:
			out = append(out, draft{core.Success, "Income Received",
				fmt.Sprintf("%s of %s income was added to your %s wallet.", ev.Amount, ev.Category, ev.WalletID)})
		case core.Expense:
			if ev.Amount.Cents >= LargeExpense.Cents {
				out = append(out, draft{core.Info, "Large Expense",
					fmt.Sprintf("You spent %s on %s.", ev.Amount, ev.Category)})
			}
			if ev.Balance.Cents < LowBalance.Cents {
				out = append(out, draft{core.Warning, "Low Balance Alert",
					fmt.Sprintf("Your %s wallet is down to %s.", ev.WalletID, ev.Balance)})
			}
		}
	case amqp.TransferCompleted:
		out = append(out, draft{core.Success, "Transfer Completed",
			fmt.Sprintf("You moved %s from %s to %s.", ev.Amount, ev.WalletID, ev.ToWalletID)})
		if ev.Balance.Cents < LowBalance.Cents {
			out = append(out, draft{core.Warning, "Low Balance Alert",
				fmt.Sprintf("Your %s wallet is down to %s.", ev.WalletID, ev.Balance)})
		}
	case amqp.GoalCompleted:
		out = append(out, draft{core.Success, "Savings Goal Reached!",
			fmt.Sprintf("Congratulations! You've reached your %s goal of %s.", ev.GoalName, ev.Amount)})
	}
	return out
}

// HandleEvent processes a single ledger event from AMQP
func (w *NotificationWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	slog.InfoContext(ctx, "Processing ledger event", "kind", ev.Kind, "timestamp", ev.Timestamp)

	for _, d := range notificationsFor(ev) {
		n, err := w.notifier.Notify(ctx, d.typ, d.title, d.message)
		if err != nil {
			return fmt.Errorf("store %q notification: %w", d.title, err)
		}
		slog.InfoContext(ctx, "Notification created", "id", n.ID, "title", n.Title, "type", n.Type)
	}
	return nil
}

// Direct delivers events to the worker in-process, for deployments without
// a broker. It satisfies the services event publisher.
type Direct struct {
	Worker *NotificationWorker
}

func (d Direct) PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	return d.Worker.HandleEvent(ctx, ev)
}
