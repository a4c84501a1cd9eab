package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/metabolixmd/telehealth-api/internal/models"
)

// Tx is the slice of the query set usable inside a reconciliation
// transaction. *Queries implements it.
type Tx interface {
	InsertPayment(ctx context.Context, p *models.Payment) error
	MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (int64, error)
	InsertAuditLog(ctx context.Context, entry AuditEntry) error
}

var _ Tx = (*Queries)(nil)

// Store wraps the connection pool with transaction management.
type Store struct {
	db      *pgxpool.Pool
	queries *Queries
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db, queries: New(db)}
}

func (s *Store) Queries() *Queries {
	return s.queries
}

func (s *Store) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.queries.GetOrder(ctx, id)
}

func (s *Store) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.queries.GetUser(ctx, id)
}

func (s *Store) FindPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	return s.queries.GetPaymentByProviderID(ctx, providerPaymentID)
}

func (s *Store) ListPaidOrdersMissingPayment(ctx context.Context, limit int32) ([]uuid.UUID, error) {
	return s.queries.ListPaidOrdersMissingPayment(ctx, limit)
}

func (s *Store) ListPaymentsForUnpaidOrders(ctx context.Context, limit int32) ([]UnreconciledPayment, error) {
	return s.queries.ListPaymentsForUnpaidOrders(ctx, limit)
}

// RunInTx executes fn inside a database transaction, committing when fn
// returns nil and rolling back otherwise.
func (s *Store) RunInTx(ctx context.Context, fn func(q Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
