package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"testing"
	"time"

	"tailorshop/internal/model"
	"tailorshop/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewTrackingToken(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	tests := []struct {
		name   string
		prefix string
	}{
		{"Alice Smith", "ALI"},
		{"al", "ALX"},
		{"  j.o-e", "JOE"},
		{"Zoë Ng", "ZON"},
		{"", "XXX"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := NewTrackingToken(tt.name, now)
			parts := strings.Split(token, "-")
			require.Len(t, parts, 3)
			assert.Equal(t, tt.prefix, parts[0])
			assert.Equal(t, stamp, parts[1])
			assert.Regexp(t, `^[0-9A-Z]{4}$`, parts[2])
		})
	}
}

func TestErrorMapping(t *testing.T) {
	err := notFoundOr(gorm.ErrRecordNotFound, "order", "INV-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `order "INV-1" not found`, err.Error())

	other := errors.New("boom")
	assert.Same(t, other, notFoundOr(other, "order", "INV-1"))

	busy := txErr(fmt.Errorf("wrapped: %w", repository.ErrTxSlotTimeout))
	assert.ErrorIs(t, busy, ErrTransactionBusy)

	phase := &SecondaryPhaseError{InvoiceID: "INV-1", Attempts: 2, Cause: other}
	assert.ErrorIs(t, phase, ErrSecondaryPhase)
	assert.ErrorIs(t, phase, other)
}

func TestOrderStatChanges_GroupsAndOrders(t *testing.T) {
	order := &model.Order{
		CustomerID:    uuid.New(),
		SalesPersonID: uuid.New(),
		TotalAmount:   dec("230"),
		Items: []model.Item{
			{ProductName: "Shirt", SectionName: "Men", UnitPrice: dec("50"), Quantity: 2},
			{ProductName: "Kurta", SectionName: "Kids", UnitPrice: dec("30"), Quantity: 1},
			{ProductName: "Shirt", SectionName: "Men", UnitPrice: dec("50"), Quantity: 1},
		},
	}

	changes := orderStatChanges(order)
	require.Len(t, changes, 6)

	kinds := make([]string, 0, len(changes))
	for _, c := range changes {
		kinds = append(kinds, c.entity.Kind+":"+c.entity.Key)
	}
	assert.Equal(t, []string{
		model.StatCustomer + ":" + order.CustomerID.String(),
		model.StatSalesPerson + ":" + order.SalesPersonID.String(),
		model.StatService + ":Kurta",
		model.StatService + ":Shirt",
		model.StatSection + ":Kids",
		model.StatSection + ":Men",
	}, kinds)

	assert.Equal(t, 3, changes[3].delta.Quantity)
	assertDecimal(t, "150", changes[3].delta.Amount)
	assertDecimal(t, "230", changes[0].delta.Amount)
	assert.Equal(t, 1, changes[0].delta.Orders)
}

func TestApplyOrderSnapshot_RejectsBadSign(t *testing.T) {
	svc := NewStatisticsService(memStats{newMemDB()})
	err := svc.ApplyOrderSnapshot(t.Context(), &model.Order{}, 0)
	require.Error(t, err)
}
