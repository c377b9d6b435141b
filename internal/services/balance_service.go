package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/shopspring/decimal"
)

// Summary is the clamped rollup of a set of orders
type Summary struct {
	OrderCount  int             `json:"total_orders"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Balance     decimal.Decimal `json:"balance"`
}

// Rounded returns a copy rounded to two places for presentation
func (s Summary) Rounded() Summary {
	return Summary{
		OrderCount:  s.OrderCount,
		TotalAmount: s.TotalAmount.Round(2),
		TotalPaid:   s.TotalPaid.Round(2),
		Balance:     s.Balance.Round(2),
	}
}

// Summarize totals orders, clamping each paid amount to its order total
func Summarize(orders []models.Order) Summary {
	sum := Summary{TotalAmount: decimal.Zero, TotalPaid: decimal.Zero}
	for i := range orders {
		sum.OrderCount++
		sum.TotalAmount = sum.TotalAmount.Add(orders[i].TotalAmount)
		sum.TotalPaid = sum.TotalPaid.Add(orders[i].ClampedPaid())
	}
	sum.Balance = sum.TotalAmount.Sub(sum.TotalPaid)
	return sum
}

// GroupByParty summarizes orders per exact party name
func GroupByParty(orders []models.Order) map[string]Summary {
	grouped := make(map[string][]models.Order)
	for _, o := range orders {
		grouped[o.PartyName] = append(grouped[o.PartyName], o)
	}

	out := make(map[string]Summary, len(grouped))
	for name, partyOrders := range grouped {
		out[name] = Summarize(partyOrders)
	}
	return out
}

// PartyReport is a party's rollup with its clamped order views
type PartyReport struct {
	PartyType string                 `json:"party_type"`
	PartyName string                 `json:"party_name"`
	Summary   Summary                `json:"summary"`
	Orders    []models.OrderResponse `json:"orders"`
}

// GlobalBalance holds the station-wide receivable and payable rollups
type GlobalBalance struct {
	Sales         Summary         `json:"sales"`
	Purchases     Summary         `json:"purchases"`
	NetReceivable decimal.Decimal `json:"net_receivable"`
	NetPayable    decimal.Decimal `json:"net_payable"`
}

// BalanceService serves the read paths over the order store
type BalanceService struct {
	orderRepo repository.OrderRepository
}

func NewBalanceService(orderRepo repository.OrderRepository) *BalanceService {
	return &BalanceService{orderRepo: orderRepo}
}

// GlobalBalance returns receivable and payable totals with every paid
// amount clamped.
func (s *BalanceService) GlobalBalance(ctx context.Context) (*GlobalBalance, error) {
	sales, err := s.orderRepo.FindAll(ctx, models.OrderKindSale)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}
	purchases, err := s.orderRepo.FindAll(ctx, models.OrderKindPurchase)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchases: %w", err)
	}

	salesSum := Summarize(sales)
	purchaseSum := Summarize(purchases)

	return &GlobalBalance{
		Sales:         salesSum.Rounded(),
		Purchases:     purchaseSum.Rounded(),
		NetReceivable: salesSum.Balance.Round(2),
		NetPayable:    purchaseSum.Balance.Round(2),
	}, nil
}

// PartyReports returns one report per party of the given type, sorted by name
func (s *BalanceService) PartyReports(ctx context.Context, partyType string) ([]PartyReport, error) {
	if !models.IsValidPartyType(partyType) {
		return nil, ErrInvalidPartyType
	}

	orders, err := s.orderRepo.FindAll(ctx, models.OrderKindForParty(partyType))
	if err != nil {
		return nil, err
	}

	byParty := make(map[string][]models.Order)
	for _, o := range orders {
		byParty[o.PartyName] = append(byParty[o.PartyName], o)
	}

	reports := make([]PartyReport, 0, len(byParty))
	for name, partyOrders := range byParty {
		reports = append(reports, buildPartyReport(partyType, name, partyOrders))
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].PartyName < reports[j].PartyName
	})
	return reports, nil
}

// PartyReport returns a single party's report. An unknown party yields an
// empty report, not an error.
func (s *BalanceService) PartyReport(ctx context.Context, partyType, partyName string) (*PartyReport, error) {
	if !models.IsValidPartyType(partyType) {
		return nil, ErrInvalidPartyType
	}
	partyName = strings.TrimSpace(partyName)
	if partyName == "" {
		return nil, validationError("party name is required")
	}

	orders, err := s.orderRepo.FindByParty(ctx, models.OrderKindForParty(partyType), partyName)
	if err != nil {
		return nil, err
	}

	report := buildPartyReport(partyType, partyName, orders)
	return &report, nil
}

func buildPartyReport(partyType, name string, orders []models.Order) PartyReport {
	views := make([]models.OrderResponse, 0, len(orders))
	for i := range orders {
		views = append(views, orders[i].ToResponse())
	}
	return PartyReport{
		PartyType: partyType,
		PartyName: name,
		Summary:   Summarize(orders).Rounded(),
		Orders:    views,
	}
}
