package services

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/storage"
	"finboard/internal/storage/memory"
)

func TestSignIn(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService()

	sess, err := svc.SignIn(ctx, "john.doe@example.com", "password123")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if sess.User != (core.User{Email: "john.doe@example.com", DisplayName: "John Doe", Role: "user"}) {
		t.Fatalf("unexpected user: %+v", sess.User)
	}
	if !strings.HasPrefix(sess.Token, "tok_") {
		t.Fatalf("unexpected token %q", sess.Token)
	}

	for _, c := range [][2]string{
		{"john.doe@example.com", "wrong"},
		{"jane@example.com", "password123"},
		{"", ""},
	} {
		if _, err := svc.SignIn(ctx, c[0], c[1]); !errors.Is(err, core.ErrInvalidCredentials) {
			t.Errorf("SignIn(%q, %q) = %v", c[0], c[1], err)
		}
	}
}

func TestSignUp(t *testing.T) {
	svc := NewAuthService()
	sess, err := svc.SignUp(context.Background(), " new@example.com ", "x")
	if err != nil || sess.User.Email != "new@example.com" || sess.User.Role != "user" || sess.Token == "" {
		t.Fatalf("unexpected sign up: %+v %v", sess, err)
	}
	if _, err := svc.SignUp(context.Background(), "  ", "x"); !errors.Is(err, core.ErrEmptyEmail) {
		t.Fatalf("got %v", err)
	}
}

func TestGoalCompletionStampedOnce(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewGoalService(memory.New(), pub)
	t0 := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := t0
	svc.now = func() time.Time { return clock }

	g, err := svc.Create(ctx, core.SavingsGoal{Name: "Bike", Target: core.FromUnits(500), Current: core.FromUnits(100)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.IsCompleted || g.CompletedAt != nil {
		t.Fatalf("new goal should be open: %+v", g)
	}

	reach := core.FromUnits(500)
	g, _ = svc.Update(ctx, g.ID, GoalPatch{Current: &reach})
	if !g.IsCompleted || g.CompletedAt == nil || !g.CompletedAt.Equal(t0) {
		t.Fatalf("completion not stamped: %+v", g)
	}

	// true -> true keeps the original timestamp.
	clock = t0.Add(24 * time.Hour)
	more := core.FromUnits(600)
	g, _ = svc.Update(ctx, g.ID, GoalPatch{Current: &more})
	if !g.CompletedAt.Equal(t0) {
		t.Fatalf("completedAt moved to %v", g.CompletedAt)
	}

	// Dropping below target clears isCompleted but keeps completedAt.
	less := core.FromUnits(10)
	g, _ = svc.Update(ctx, g.ID, GoalPatch{Current: &less})
	if g.IsCompleted || g.CompletedAt == nil || !g.CompletedAt.Equal(t0) {
		t.Fatalf("unexpected goal after drop: %+v", g)
	}

	if len(pub.events) != 1 || pub.events[0].Kind != amqp.GoalCompleted || pub.events[0].GoalName != "Bike" {
		t.Fatalf("expected one completion event, got %+v", pub.events)
	}
}

func TestGoalValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewGoalService(memory.New(), nil)
	if _, err := svc.Create(ctx, core.SavingsGoal{Name: "", Target: core.FromUnits(1)}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("got %v", err)
	}
	if _, err := svc.Create(ctx, core.SavingsGoal{Name: "X"}); !errors.Is(err, core.ErrInvalidTarget) {
		t.Fatalf("got %v", err)
	}
	target := core.FromUnits(1)
	if _, err := svc.Update(ctx, "99", GoalPatch{Target: &target}); !errors.Is(err, core.ErrGoalNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := svc.Get(ctx, "99"); !errors.Is(err, core.ErrGoalNotFound) {
		t.Fatalf("got %v", err)
	}
	if err := svc.Delete(ctx, "99"); !errors.Is(err, core.ErrGoalNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestInvestments(t *testing.T) {
	ctx := context.Background()
	svc := NewInvestmentService(memory.New())

	inv, err := svc.Create(ctx, core.Investment{
		AssetType: core.Stocks, AssetName: "ACME", BuyPrice: core.FromUnits(100), CurrentPrice: core.FromUnits(150), Units: 10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, core.Investment{AssetType: "beanie-babies", AssetName: "x", Units: 1}); !errors.Is(err, core.ErrInvalidAssetType) {
		t.Fatalf("got %v", err)
	}

	price := core.FromUnits(200)
	inv, err = svc.Update(ctx, inv.ID, InvestmentPatch{CurrentPrice: &price})
	if err != nil || inv.CurrentPrice.Cents != 20000 || inv.AssetName != "ACME" {
		t.Fatalf("update: %+v %v", inv, err)
	}
	if got, err := svc.Get(ctx, inv.ID); err != nil || got.ID != inv.ID || got.AssetName != "ACME" {
		t.Fatalf("get: %+v %v", got, err)
	}
	zero := 0.0
	if _, err := svc.Update(ctx, inv.ID, InvestmentPatch{Units: &zero}); !errors.Is(err, core.ErrInvalidUnits) {
		t.Fatalf("got %v", err)
	}

	sum, err := svc.Summary(ctx)
	if err != nil || sum.TotalValue.Cents != 200000 || sum.TotalProfit.Cents != 100000 || sum.ReturnPercent != 100 {
		t.Fatalf("summary: %+v %v", sum, err)
	}

	if err := svc.Delete(ctx, inv.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, inv.ID); !errors.Is(err, core.ErrInvestmentNotFound) {
		t.Fatalf("got %v", err)
	}
	if _, err := svc.Update(ctx, inv.ID, InvestmentPatch{}); !errors.Is(err, core.ErrInvestmentNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestNotificationsMonotonic(t *testing.T) {
	ctx := context.Background()
	svc := NewNotificationService(memory.NewSeeded(storage.DefaultSeed(time.Now())))

	unread, _ := svc.UnreadCount(ctx)
	if unread != 3 {
		t.Fatalf("seeded unread = %d", unread)
	}
	n, err := svc.MarkRead(ctx, "1")
	if err != nil || !n.IsRead {
		t.Fatalf("mark read: %+v %v", n, err)
	}
	// Already read stays read.
	if n, _ := svc.MarkRead(ctx, "3"); !n.IsRead {
		t.Fatal("read notification was un-read")
	}
	if _, err := svc.MarkRead(ctx, "404"); !errors.Is(err, core.ErrNotificationNotFound) {
		t.Fatalf("got %v", err)
	}

	for range 2 {
		if err := svc.MarkAllRead(ctx); err != nil {
			t.Fatal(err)
		}
	}
	if unread, _ := svc.UnreadCount(ctx); unread != 0 {
		t.Fatalf("unread after mark all = %d", unread)
	}

	created, err := svc.Notify(ctx, core.Success, "Hi", "there")
	if err != nil || created.IsRead || created.CreatedAt.IsZero() {
		t.Fatalf("notify: %+v %v", created, err)
	}
}

func TestAnalyticsCacheFollowsLedgerVersion(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t)
	svc := NewAnalyticsService(ledger, time.Hour, cache.NewManager())
	svc.now = ledger.now

	s, err := svc.Summary(ctx)
	if err != nil || s.TotalTransactions != 0 {
		t.Fatalf("empty summary: %+v %v", s, err)
	}

	ledger.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(40), Category: "Food", Type: core.Expense})
	s, _ = svc.Summary(ctx)
	if s.TotalTransactions != 1 || s.TotalSpent.Cents != 4000 || s.MonthlyExpenses.Cents != 4000 {
		t.Fatalf("summary not refreshed after mutation: %+v", s)
	}

	cats, _ := svc.Categories(ctx)
	if len(cats) != 1 || cats[0].Name != "Food" {
		t.Fatalf("categories: %+v", cats)
	}
	months, _ := svc.Monthly(ctx)
	if len(months) != 1 || months[0].Month != "2024-06" {
		t.Fatalf("months: %+v", months)
	}
	insights, _ := svc.Insights(ctx)
	if len(insights) == 0 {
		t.Fatal("insights empty")
	}
}

func TestUncachedAnalyticsSeesExternalWrites(t *testing.T) {
	ctx := context.Background()
	writer, store, _ := newLedger(t)
	reader := NewLedgerService(store, nil)
	svc := NewUncachedAnalyticsService(reader)
	svc.now = writer.now

	if s, _ := svc.Summary(ctx); s.TotalTransactions != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	first, _ := svc.Insights(ctx)

	// Writes through another service leave the reader's version at zero.
	for _, amount := range []float64{40, 60} {
		if _, err := writer.CreateTransaction(ctx, core.Transaction{Amount: core.FromUnits(amount), Category: "Food", Type: core.Expense}); err != nil {
			t.Fatal(err)
		}
	}
	if reader.Version() != 0 {
		t.Fatalf("reader version = %d", reader.Version())
	}

	s, _ := svc.Summary(ctx)
	if s.TotalTransactions != 2 || s.TotalSpent.Cents != 10000 {
		t.Fatalf("summary missed external writes: %+v", s)
	}
	insights, _ := svc.Insights(ctx)
	if reflect.DeepEqual(insights, first) {
		t.Fatalf("insights did not change: %q", insights)
	}
}
