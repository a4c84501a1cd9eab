package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/metabolixmd/telehealth-api/internal/domain"
	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/metabolixmd/telehealth-api/internal/repository"
	"github.com/shopspring/decimal"
)

// fakeStore is an in-memory Store with transaction staging: writes made
// inside RunInTx are visible only after fn returns nil.
type fakeStore struct {
	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	users    map[uuid.UUID]*models.User
	payments map[string]*models.Payment // keyed by provider payment id
	audit    []repository.AuditEntry

	txErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[uuid.UUID]*models.Order),
		users:    make(map[uuid.UUID]*models.User),
		payments: make(map[string]*models.Payment),
	}
}

func (s *fakeStore) FindOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, repository.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (s *fakeStore) FindUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) FindPaymentByProviderID(_ context.Context, providerPaymentID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[providerPaymentID]
	if !ok {
		return nil, fmt.Errorf("payment %q: %w", providerPaymentID, repository.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (s *fakeStore) ListPaidOrdersMissingPayment(_ context.Context, _ int32) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uuid.UUID
	for id, o := range s.orders {
		if o.PaymentStatus != domain.PaymentStatusPaid {
			continue
		}
		found := false
		for _, p := range s.payments {
			if p.OrderID == id {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeStore) ListPaymentsForUnpaidOrders(_ context.Context, _ int32) ([]repository.UnreconciledPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.UnreconciledPayment
	for _, p := range s.payments {
		if o, ok := s.orders[p.OrderID]; ok && o.PaymentStatus != domain.PaymentStatusPaid {
			out = append(out, repository.UnreconciledPayment{
				PaymentID:         p.ID,
				OrderID:           p.OrderID,
				ProviderPaymentID: p.ProviderPaymentID,
			})
		}
	}
	return out, nil
}

func (s *fakeStore) RunInTx(_ context.Context, fn func(q repository.Tx) error) error {
	if s.txErr != nil {
		return s.txErr
	}
	tx := &fakeTx{store: s}
	if err := fn(tx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range tx.payments {
		s.payments[p.ProviderPaymentID] = p
	}
	for _, m := range tx.marks {
		if o, ok := s.orders[m.OrderID]; ok {
			o.Status = m.Status
			o.PaymentStatus = m.PaymentStatus
			d := m.PaymentDate
			o.PaymentDate = &d
			pid := m.PaymentID
			o.PaymentID = &pid
		}
	}
	s.audit = append(s.audit, tx.audit...)
	return nil
}

type fakeTx struct {
	store    *fakeStore
	payments []*models.Payment
	marks    []repository.MarkOrderPaidParams
	audit    []repository.AuditEntry
}

func (t *fakeTx) InsertPayment(_ context.Context, p *models.Payment) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if _, exists := t.store.payments[p.ProviderPaymentID]; exists {
		return fmt.Errorf("insert payment %q: %w", p.ProviderPaymentID, repository.ErrDuplicatePayment)
	}
	cp := *p
	t.payments = append(t.payments, &cp)
	return nil
}

func (t *fakeTx) MarkOrderPaid(_ context.Context, arg repository.MarkOrderPaidParams) (int64, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	o, ok := t.store.orders[arg.OrderID]
	if !ok || o.PaymentStatus == arg.PaymentStatus {
		return 0, nil
	}
	t.marks = append(t.marks, arg)
	return 1, nil
}

func (t *fakeTx) InsertAuditLog(_ context.Context, entry repository.AuditEntry) error {
	t.audit = append(t.audit, entry)
	return nil
}

type fakeGuard struct {
	mu        sync.Mutex
	processed map[string]bool
	marked    []string
	lookupErr error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{processed: make(map[string]bool)}
}

func (g *fakeGuard) AlreadyProcessed(_ context.Context, id string) (*models.Payment, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lookupErr != nil {
		return nil, false, g.lookupErr
	}
	return nil, g.processed[id], nil
}

func (g *fakeGuard) MarkProcessed(_ context.Context, id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.processed[id] = true
	g.marked = append(g.marked, id)
}

func seedOrderAndUser(s *fakeStore, total string) (*models.Order, *models.User) {
	user := &models.User{
		ID:        uuid.New(),
		Name:      "Pat Doe",
		Email:     "pat@example.com",
		Phone:     "5551234567",
		Role:      domain.RoleUser,
		CreatedAt: time.Now(),
	}
	order := &models.Order{
		ID:            uuid.New(),
		OrderNo:       1042,
		UserID:        user.ID,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
		TotalValue:    decimal.RequireFromString(total),
		CreatedAt:     time.Now(),
	}
	s.orders[order.ID] = order
	s.users[user.ID] = user
	return order, user
}
