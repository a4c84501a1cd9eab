package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/metabolixmd/telehealth-api/internal/provider"
	"github.com/metabolixmd/telehealth-api/internal/webhook"
	"go.uber.org/zap"
)

// Payment notes are written at checkout as "Order ID: <id>, User ID: <id>".
var (
	noteOrderIDPattern = regexp.MustCompile(`Order ID:\s*([^,]+)`)
	noteUserIDPattern  = regexp.MustCompile(`User ID:\s*([^,]+)`)
)

// MetadataResolver recovers the internal order and user ids attached to a
// provider payment. Preference order: metadata carried on the event itself,
// then a provider order lookup, then the free-text payment note.
type MetadataResolver struct {
	orders        provider.OrdersAPI // nil disables the lookup path
	lookupTimeout time.Duration
}

func NewMetadataResolver(orders provider.OrdersAPI, lookupTimeout time.Duration) *MetadataResolver {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	return &MetadataResolver{orders: orders, lookupTimeout: lookupTimeout}
}

// Resolve extracts the order and user ids for the payment. hint carries
// metadata already present on the event envelope, when any.
func (r *MetadataResolver) Resolve(ctx context.Context, p *webhook.Payment, hint *provider.OrderMetadata) (uuid.UUID, uuid.UUID, error) {
	if hint != nil {
		if orderID, userID, ok := parseIDs(hint.OrderID, hint.UserID); ok {
			return orderID, userID, nil
		}
	}

	if r.orders != nil && p.OrderID != "" {
		lookupCtx, cancel := context.WithTimeout(ctx, r.lookupTimeout)
		md, err := r.orders.RetrieveOrderMetadata(lookupCtx, p.OrderID)
		cancel()
		if err != nil {
			zap.L().Warn("provider order lookup failed, falling back to payment note",
				zap.String("provider_payment_id", p.ID),
				zap.String("provider_order_id", p.OrderID),
				zap.Error(err))
		} else if orderID, userID, ok := parseIDs(md.OrderID, md.UserID); ok {
			return orderID, userID, nil
		}
	}

	if orderID, userID, ok := parseIDs(extract(noteOrderIDPattern, p.Note), extract(noteUserIDPattern, p.Note)); ok {
		return orderID, userID, nil
	}

	return uuid.Nil, uuid.Nil, ErrMissingMetadata
}

func extract(re *regexp.Regexp, note string) string {
	m := re.FindStringSubmatch(note)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func parseIDs(rawOrderID, rawUserID string) (uuid.UUID, uuid.UUID, bool) {
	orderID, err := uuid.Parse(rawOrderID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(rawUserID)
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	return orderID, userID, true
}
