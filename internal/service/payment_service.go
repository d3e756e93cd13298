package service

import (
	"context"
	"fmt"
	"time"

	"tailorshop/internal/events"
	"tailorshop/internal/model"
	"tailorshop/internal/repository"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PostPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaymentType   string          `json:"payment_type"`
	PaidAt        *time.Time      `json:"paid_at"`
}

// PaymentResult is the posted transaction together with the order's new balance
type PaymentResult struct {
	Transaction   model.Transaction `json:"transaction"`
	PaidAmount    decimal.Decimal   `json:"paid_amount"`
	PendingAmount decimal.Decimal   `json:"pending_amount"`
	PaymentStatus string            `json:"payment_status"`
}

type PaymentService interface {
	PostTransaction(ctx context.Context, actorID, invoiceID string, req PostPaymentRequest) (*PaymentResult, error)
	ListTransactions(ctx context.Context, invoiceID string) ([]model.Transaction, error)
}

type paymentService struct {
	orderRepo       repository.OrderRepository
	transactionRepo repository.TransactionRepository
	txManager       repository.TransactionManager
	audit           AuditService
	events          OrderEventPublisher
	logger          *zap.Logger
	clock           func() time.Time
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	transactionRepo repository.TransactionRepository,
	txManager repository.TransactionManager,
	audit AuditService,
	publisher OrderEventPublisher,
	logger *zap.Logger,
) PaymentService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &paymentService{
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		audit:           audit,
		events:          publisher,
		logger:          logger,
		clock:           time.Now,
	}
}

// PostTransaction records a payment after the order was created and moves its payment status forward.
func (s *paymentService) PostTransaction(ctx context.Context, actorID, invoiceID string, req PostPaymentRequest) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		verr := &ValidationError{}
		verr.add("amount", "must be greater than 0")
		return nil, verr
	}

	var (
		result *PaymentResult
		order  *model.Order
	)
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		o, err := s.orderRepo.FindForUpdate(txCtx, invoiceID)
		if err != nil {
			return notFoundOr(err, "order", invoiceID)
		}
		if o.Status == model.OrderStatusCancelled {
			return &ConflictError{Entity: "order", Key: invoiceID, Reason: "cannot take payment on a cancelled order"}
		}
		if req.Amount.GreaterThan(o.PendingAmount) {
			verr := &ValidationError{}
			verr.add("amount", "exceeds pending amount %s", o.PendingAmount.StringFixed(2))
			return verr
		}

		now := s.clock()
		paidAt := now
		if req.PaidAt != nil {
			paidAt = *req.PaidAt
		}
		t := model.Transaction{
			Reference:      fmt.Sprintf("%s:p-%s", invoiceID, ulid.Make().String()),
			OrderInvoiceID: invoiceID,
			CustomerID:     o.CustomerID,
			CustomerName:   o.CustomerName,
			Amount:         req.Amount,
			PaymentMethod:  req.PaymentMethod,
			PaymentType:    req.PaymentType,
			PaidAt:         paidAt,
		}
		if _, err := s.transactionRepo.CreateIfAbsent(txCtx, &t); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}

		paid := o.PaidAmount.Add(req.Amount)
		status, paymentDate := paymentState(paid, o.TotalAmount, now)
		updates := map[string]interface{}{
			"paid_amount":    paid,
			"pending_amount": o.TotalAmount.Sub(paid),
			"payment_status": status,
		}
		if paymentDate != nil {
			updates["payment_date"] = *paymentDate
		}
		if err := s.orderRepo.Update(txCtx, invoiceID, updates); err != nil {
			return err
		}

		o.PaidAmount = paid
		o.PendingAmount = o.TotalAmount.Sub(paid)
		o.PaymentStatus = status
		order = o
		result = &PaymentResult{
			Transaction:   t,
			PaidAmount:    paid,
			PendingAmount: o.PendingAmount,
			PaymentStatus: status,
		}
		return nil
	})
	if err != nil {
		return nil, txErr(err)
	}

	s.audit.Record(ctx, actorID, model.ActionTransactionRecorded, invoiceID, order.CustomerName, map[string]interface{}{
		"reference": result.Transaction.Reference,
		"amount":    req.Amount,
		"method":    req.PaymentMethod,
	})
	if result.PaymentStatus == model.PaymentStatusFull {
		s.audit.Record(ctx, actorID, model.ActionPaymentCompleted, invoiceID, order.CustomerName, map[string]interface{}{
			"total_amount": order.TotalAmount,
		})
		s.events.Publish(ctx, orderEvent(events.OrderPaymentCompleted, order, s.clock()))
	}
	s.logger.Info("payment posted",
		zap.String("invoice_id", invoiceID),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("payment_status", result.PaymentStatus))
	return result, nil
}

func (s *paymentService) ListTransactions(ctx context.Context, invoiceID string) ([]model.Transaction, error) {
	if _, err := s.orderRepo.FindByInvoiceID(ctx, invoiceID); err != nil {
		return nil, notFoundOr(err, "order", invoiceID)
	}
	return s.transactionRepo.ListByOrder(ctx, invoiceID)
}
