package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"finboard/internal/analytics"
	"finboard/internal/core"
	"finboard/internal/storage"
)

// InvestmentPatch carries the fields of a partial investment update.
type InvestmentPatch struct {
	AssetType    *core.AssetType `json:"assetType,omitempty"`
	AssetName    *string         `json:"assetName,omitempty"`
	BuyPrice     *core.Money     `json:"buyPrice,omitempty"`
	CurrentPrice *core.Money     `json:"currentPrice,omitempty"`
	Units        *float64        `json:"units,omitempty"`
	PurchaseDate *core.Date      `json:"purchaseDate,omitempty"`
	Category     *string         `json:"category,omitempty"`
}

func (p InvestmentPatch) apply(inv core.Investment) core.Investment {
	if p.AssetType != nil {
		inv.AssetType = *p.AssetType
	}
	if p.AssetName != nil {
		inv.AssetName = strings.TrimSpace(*p.AssetName)
	}
	if p.BuyPrice != nil {
		inv.BuyPrice = *p.BuyPrice
	}
	if p.CurrentPrice != nil {
		inv.CurrentPrice = *p.CurrentPrice
	}
	if p.Units != nil {
		inv.Units = *p.Units
	}
	if p.PurchaseDate != nil {
		inv.PurchaseDate = *p.PurchaseDate
	}
	if p.Category != nil {
		inv.Category = *p.Category
	}
	return inv
}

type InvestmentService struct {
	store storage.InvestmentRepository
	mu    sync.Mutex
}

func NewInvestmentService(store storage.InvestmentRepository) *InvestmentService {
	return &InvestmentService{store: store}
}

func (s *InvestmentService) List(ctx context.Context) ([]core.Investment, error) {
	invs, err := s.store.ListInvestments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	return invs, nil
}

func (s *InvestmentService) Get(ctx context.Context, id string) (core.Investment, error) {
	inv, err := s.store.GetInvestment(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Investment{}, core.ErrInvestmentNotFound
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("load investment: %w", err)
	}
	return inv, nil
}

func (s *InvestmentService) Create(ctx context.Context, inv core.Investment) (core.Investment, error) {
	inv.AssetName = strings.TrimSpace(inv.AssetName)
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	saved, err := s.store.InsertInvestment(ctx, inv)
	if err != nil {
		return core.Investment{}, fmt.Errorf("create investment: %w", err)
	}
	slog.InfoContext(ctx, "Investment created", "id", saved.ID, "asset", saved.AssetName)
	return saved, nil
}

func (s *InvestmentService) Update(ctx context.Context, id string, patch InvestmentPatch) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.store.GetInvestment(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Investment{}, core.ErrInvestmentNotFound
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("load investment: %w", err)
	}
	next := patch.apply(cur)
	if err := next.Validate(); err != nil {
		return core.Investment{}, err
	}
	saved, err := s.store.UpdateInvestment(ctx, next)
	if errors.Is(err, core.ErrNotFound) {
		return core.Investment{}, core.ErrInvestmentNotFound
	}
	if err != nil {
		return core.Investment{}, fmt.Errorf("update investment: %w", err)
	}
	return saved, nil
}

func (s *InvestmentService) Delete(ctx context.Context, id string) error {
	err := s.store.DeleteInvestment(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrInvestmentNotFound
	}
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return nil
}

// Summary computes portfolio value, cost and return over all investments.
func (s *InvestmentService) Summary(ctx context.Context) (analytics.PortfolioMetrics, error) {
	invs, err := s.List(ctx)
	if err != nil {
		return analytics.PortfolioMetrics{}, err
	}
	return analytics.Portfolio(invs), nil
}
