package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrDuplicatePayment is returned when an insert loses to the unique
	// index on provider_payment_id. Callers treat it as already-processed.
	ErrDuplicatePayment = errors.New("duplicate provider payment id")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a query set bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const getOrderSQL = `
	SELECT id, order_no, user_id, status, payment_status, payment_date, payment_id,
	       total_value::text, discount_amount::text, final_amount::text,
	       address_street, address_city, address_state, address_postal_code, address_country,
	       created_at
	FROM orders
	WHERE id = $1
`

func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var (
		o                                    models.Order
		totalValue, discountAmt, finalAmt    string
		street, city, state, postal, country string
	)
	err := q.db.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.OrderNo, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentDate, &o.PaymentID,
		&totalValue, &discountAmt, &finalAmt,
		&street, &city, &state, &postal, &country,
		&o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if o.TotalValue, err = decimal.NewFromString(totalValue); err != nil {
		return nil, fmt.Errorf("parse order total_value: %w", err)
	}
	if o.DiscountAmount, err = decimal.NewFromString(discountAmt); err != nil {
		return nil, fmt.Errorf("parse order discount_amount: %w", err)
	}
	if o.FinalAmount, err = decimal.NewFromString(finalAmt); err != nil {
		return nil, fmt.Errorf("parse order final_amount: %w", err)
	}
	o.DeliveryAddress = models.DeliveryAddress{
		Street:     street,
		City:       city,
		State:      state,
		PostalCode: postal,
		Country:    country,
	}
	return &o, nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := q.db.QueryRow(ctx,
		`SELECT id, name, email, COALESCE(phone, ''), role, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

const paymentColumns = `id, user_id, order_id, provider_payment_id, amount::text, currency,
	COALESCE(customer_id, ''), COALESCE(customer_email, ''), status, created_at`

func scanPayment(row pgx.Row) (*models.Payment, error) {
	var (
		p      models.Payment
		amount string
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.OrderID, &p.ProviderPaymentID, &amount, &p.Currency,
		&p.Customer.ID, &p.Customer.Email, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse payment amount: %w", err)
	}
	return &p, nil
}

func (q *Queries) GetPayment(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

// GetPaymentByProviderID is the authoritative duplicate-delivery lookup,
// backed by the unique index on provider_payment_id.
func (q *Queries) GetPaymentByProviderID(ctx context.Context, providerPaymentID string) (*models.Payment, error) {
	row := q.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE provider_payment_id = $1`, providerPaymentID)
	p, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payment %q: %w", providerPaymentID, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment by provider id: %w", err)
	}
	return p, nil
}

func (q *Queries) ListPaymentsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Payment, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at DESC`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments by order: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func (q *Queries) InsertPayment(ctx context.Context, p *models.Payment) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO payments (id, user_id, order_id, provider_payment_id, amount, currency,
		                      customer_id, customer_email, status, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.OrderID, p.ProviderPaymentID, p.Amount.String(), p.Currency,
		p.Customer.ID, p.Customer.Email, p.Status, p.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("insert payment %q: %w", p.ProviderPaymentID, ErrDuplicatePayment)
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

type MarkOrderPaidParams struct {
	OrderID       uuid.UUID
	PaymentID     uuid.UUID
	Status        string
	PaymentStatus string
	PaymentDate   time.Time
}

// MarkOrderPaid applies the targeted payment-field update. The payment_status
// guard makes the statement a no-op against an order a concurrent delivery
// already settled; zero rows affected signals that condition.
func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, payment_date = $4, payment_id = $5
		WHERE id = $1 AND payment_status <> $3`,
		arg.OrderID, arg.Status, arg.PaymentStatus, arg.PaymentDate, arg.PaymentID,
	)
	if err != nil {
		return 0, fmt.Errorf("mark order paid: %w", err)
	}
	return tag.RowsAffected(), nil
}

type AuditEntry struct {
	EntityType string
	EntityID   uuid.UUID
	Action     string
	PrevState  string
	NextState  string
	Metadata   []byte
}

func (q *Queries) InsertAuditLog(ctx context.Context, entry AuditEntry) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO audit_log (entity_type, entity_id, action, prev_state, next_state, metadata)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6)`,
		entry.EntityType, entry.EntityID, entry.Action, entry.PrevState, entry.NextState, entry.Metadata,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

// ListPaidOrdersMissingPayment flags orders marked paid with no payment row
// behind them. The reconciliation transaction should make that state
// impossible; hits are surfaced for manual review.
func (q *Queries) ListPaidOrdersMissingPayment(ctx context.Context, limit int32) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, `
		SELECT o.id
		FROM orders o
		LEFT JOIN payments p ON p.order_id = o.id
		WHERE o.payment_status = 'paid' AND p.id IS NULL
		ORDER BY o.created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list paid orders missing payment: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type UnreconciledPayment struct {
	PaymentID         uuid.UUID
	OrderID           uuid.UUID
	ProviderPaymentID string
}

// ListPaymentsForUnpaidOrders flags payment rows whose order never
// transitioned to paid.
func (q *Queries) ListPaymentsForUnpaidOrders(ctx context.Context, limit int32) ([]UnreconciledPayment, error) {
	rows, err := q.db.Query(ctx, `
		SELECT p.id, p.order_id, p.provider_payment_id
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.payment_status <> 'paid'
		ORDER BY p.created_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list payments for unpaid orders: %w", err)
	}
	defer rows.Close()

	var out []UnreconciledPayment
	for rows.Next() {
		var row UnreconciledPayment
		if err := rows.Scan(&row.PaymentID, &row.OrderID, &row.ProviderPaymentID); err != nil {
			return nil, fmt.Errorf("scan unreconciled payment: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
