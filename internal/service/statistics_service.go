package service

import (
	"context"
	"fmt"
	"sort"

	"tailorshop/internal/model"
	"tailorshop/internal/repository"
)

// StatisticsService maintains running totals incrementally. It does not guard against
// double application: each order lifecycle transition must call it exactly once.
type StatisticsService interface {
	ApplyOrder(ctx context.Context, entity model.StatEntity, delta model.StatDelta) error
	// ApplyOrderSnapshot applies (sign=+1) or reverses (sign=-1) an order's contribution
	ApplyOrderSnapshot(ctx context.Context, order *model.Order, sign int) error
}

type statisticsService struct {
	statsRepo repository.StatisticsRepository
}

func NewStatisticsService(statsRepo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo}
}

func (s *statisticsService) ApplyOrder(ctx context.Context, entity model.StatEntity, delta model.StatDelta) error {
	if delta.IsZero() {
		return nil
	}
	if err := s.statsRepo.Apply(ctx, entity, delta); err != nil {
		return notFoundOr(err, entity.Kind, entity.Key)
	}
	return nil
}

func (s *statisticsService) ApplyOrderSnapshot(ctx context.Context, order *model.Order, sign int) error {
	if sign != 1 && sign != -1 {
		return fmt.Errorf("statistics sign must be +1 or -1, got %d", sign)
	}

	for _, change := range orderStatChanges(order) {
		delta := change.delta
		if sign < 0 {
			delta = delta.Neg()
		}
		if err := s.ApplyOrder(ctx, change.entity, delta); err != nil {
			return err
		}
	}
	return nil
}

type statChange struct {
	entity model.StatEntity
	delta  model.StatDelta
}

// orderStatChanges groups an order's items per service and section so each entity is written once.
// The result is ordered by kind then key, giving every writer the same lock order.
func orderStatChanges(order *model.Order) []statChange {
	orderDelta := model.StatDelta{Orders: 1, Amount: order.TotalAmount}
	changes := []statChange{
		{entity: model.StatEntity{Kind: model.StatCustomer, Key: order.CustomerID.String()}, delta: orderDelta},
		{entity: model.StatEntity{Kind: model.StatSalesPerson, Key: order.SalesPersonID.String()}, delta: orderDelta},
	}

	services := map[string]model.StatDelta{}
	sections := map[string]model.StatDelta{}
	for _, item := range order.Items {
		line := model.StatDelta{Quantity: item.Quantity, Amount: item.Amount()}
		services[item.ProductName] = services[item.ProductName].Add(line)
		if item.SectionName != "" {
			sections[item.SectionName] = sections[item.SectionName].Add(line)
		}
	}

	changes = append(changes, sortedChanges(model.StatService, services)...)
	changes = append(changes, sortedChanges(model.StatSection, sections)...)
	return changes
}

func sortedChanges(kind string, grouped map[string]model.StatDelta) []statChange {
	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]statChange, 0, len(keys))
	for _, k := range keys {
		out = append(out, statChange{entity: model.StatEntity{Kind: kind, Key: k}, delta: grouped[k]})
	}
	return out
}
