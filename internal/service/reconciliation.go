package service

import (
	"context"
	"fmt"

	"github.com/metabolixmd/telehealth-api/internal/observability"
	"go.uber.org/zap"
)

// ReconciliationService sweeps for inconsistencies between the orders and
// payments tables. The reconciliation transaction keeps the two in lockstep;
// anything this sweep finds is an anomaly needing manual review.
type ReconciliationService struct {
	store     Store
	batchSize int32
}

func NewReconciliationService(store Store, batchSize int32) *ReconciliationService {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReconciliationService{store: store, batchSize: batchSize}
}

// Sweep reports both gap classes. It logs every hit and bumps the gap
// counters; it does not mutate anything.
func (s *ReconciliationService) Sweep(ctx context.Context) error {
	orderIDs, err := s.store.ListPaidOrdersMissingPayment(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("sweep paid orders: %w", err)
	}
	for _, id := range orderIDs {
		observability.IncrementReconciliationGap("order_missing_payment")
		zap.L().Error("order marked paid without a payment record",
			zap.String("order_id", id.String()))
	}

	payments, err := s.store.ListPaymentsForUnpaidOrders(ctx, s.batchSize)
	if err != nil {
		return fmt.Errorf("sweep unpaid orders: %w", err)
	}
	for _, p := range payments {
		observability.IncrementReconciliationGap("payment_unpaid_order")
		zap.L().Error("payment recorded but order never settled",
			zap.String("payment_id", p.PaymentID.String()),
			zap.String("order_id", p.OrderID.String()),
			zap.String("provider_payment_id", p.ProviderPaymentID))
	}

	return nil
}
