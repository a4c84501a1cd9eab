package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/metabolixmd/telehealth-api/internal/repository"
)

// Store is the persistence surface the webhook pipeline needs.
type Store interface {
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error)
	ListPaidOrdersMissingPayment(ctx context.Context, limit int32) ([]uuid.UUID, error)
	ListPaymentsForUnpaidOrders(ctx context.Context, limit int32) ([]repository.UnreconciledPayment, error)
	RunInTx(ctx context.Context, fn func(q repository.Tx) error) error
}

var _ Store = (*repository.Store)(nil)
