package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/storage"
)

// GoalPatch carries the fields of a partial goal update.
type GoalPatch struct {
	Name    *string     `json:"name,omitempty"`
	Target  *core.Money `json:"target,omitempty"`
	Current *core.Money `json:"current,omitempty"`
}

type GoalService struct {
	store     storage.GoalRepository
	publisher EventPublisher
	now       func() time.Time
	mu        sync.Mutex
}

func NewGoalService(store storage.GoalRepository, publisher EventPublisher) *GoalService {
	return &GoalService{store: store, publisher: publisher, now: time.Now}
}

func (s *GoalService) List(ctx context.Context) ([]core.SavingsGoal, error) {
	gs, err := s.store.ListGoals(ctx)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return gs, nil
}

func (s *GoalService) Get(ctx context.Context, id string) (core.SavingsGoal, error) {
	g, err := s.store.GetGoal(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.SavingsGoal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("load goal: %w", err)
	}
	return g, nil
}

func (s *GoalService) Create(ctx context.Context, g core.SavingsGoal) (core.SavingsGoal, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.IsCompleted = false
	g.CompletedAt = nil
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}
	g = g.Reconcile(s.now())

	saved, err := s.store.InsertGoal(ctx, g)
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Savings goal created", "id", saved.ID, "name", saved.Name)
	if saved.IsCompleted {
		s.publish(ctx, amqp.NewGoalCompleted(saved))
	}
	return saved, nil
}

// Update merges patch and recomputes completion. completedAt is stamped on
// the first transition to completed and kept from then on.
func (s *GoalService) Update(ctx context.Context, id string, patch GoalPatch) (core.SavingsGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.store.GetGoal(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.SavingsGoal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("load goal: %w", err)
	}

	if patch.Name != nil {
		g.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Target != nil {
		g.Target = *patch.Target
	}
	if patch.Current != nil {
		g.Current = *patch.Current
	}
	if err := g.Validate(); err != nil {
		return core.SavingsGoal{}, err
	}

	wasCompleted := g.IsCompleted
	g = g.Reconcile(s.now())

	saved, err := s.store.UpdateGoal(ctx, g)
	if errors.Is(err, core.ErrNotFound) {
		return core.SavingsGoal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("update goal: %w", err)
	}
	if saved.IsCompleted && !wasCompleted {
		slog.InfoContext(ctx, "Savings goal completed", "id", saved.ID, "name", saved.Name)
		s.publish(ctx, amqp.NewGoalCompleted(saved))
	}
	return saved, nil
}

func (s *GoalService) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteGoal(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrGoalNotFound
	}
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (s *GoalService) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish goal event", "kind", ev.Kind, "error", err)
	}
}
