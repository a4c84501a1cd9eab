package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/metabolixmd/telehealth-api/internal/domain"
	"github.com/metabolixmd/telehealth-api/internal/observability"
	"github.com/metabolixmd/telehealth-api/internal/provider"
	"github.com/metabolixmd/telehealth-api/internal/webhook"
	"go.uber.org/zap"
)

// Outcome classifies how an event was routed.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeUnhandled Outcome = "unhandled"
	OutcomeFailed    Outcome = "failed"
)

type RouteResult struct {
	Outcome Outcome
	Err     error
}

// PaymentProcessor is the reconciliation entry point the router dispatches
// into.
type PaymentProcessor interface {
	ProcessCompletedPayment(ctx context.Context, p *webhook.Payment, hint *provider.OrderMetadata) error
}

// EventRouter inspects verified events and hands completed payments to the
// processor. Unrecognized or not-yet-actionable events are acknowledged and
// dropped; the provider retries only on transport failure, never on content.
type EventRouter struct {
	processor PaymentProcessor
}

func NewEventRouter(processor PaymentProcessor) *EventRouter {
	return &EventRouter{processor: processor}
}

func (r *EventRouter) Route(ctx context.Context, ev *webhook.Event) RouteResult {
	res := r.route(ctx, ev)
	observability.IncrementWebhookEvent(ev.Type, string(res.Outcome))
	return res
}

func (r *EventRouter) route(ctx context.Context, ev *webhook.Event) RouteResult {
	log := zap.L().With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	switch ev.Type {
	case webhook.EventTypePaymentUpdated:
		p := ev.Data.Object.Payment
		if p == nil {
			log.Warn("payment.updated event without payment payload")
			return RouteResult{Outcome: OutcomeIgnored}
		}
		if p.Status != domain.ProviderPaymentCompleted {
			log.Info("payment not yet completed, skipping", zap.String("payment_status", p.Status))
			return RouteResult{Outcome: OutcomeIgnored}
		}
		return r.dispatch(ctx, log, p, nil)

	case webhook.EventTypeOrderUpdated:
		o := ev.Data.Object.Order
		if o == nil {
			log.Warn("order.updated event without order payload")
			return RouteResult{Outcome: OutcomeIgnored}
		}
		return r.routeOrder(ctx, log, o)

	default:
		log.Info("unhandled event type acknowledged")
		return RouteResult{Outcome: OutcomeUnhandled}
	}
}

// routeOrder walks the completed payments embedded in an order.updated
// event. Metadata from the order itself takes precedence over per-payment
// notes.
func (r *EventRouter) routeOrder(ctx context.Context, log *zap.Logger, o *webhook.ProviderOrder) RouteResult {
	var hint *provider.OrderMetadata
	if len(o.Metadata) > 0 {
		hint = &provider.OrderMetadata{
			OrderID: o.Metadata["orderId"],
			UserID:  o.Metadata["userId"],
		}
	}

	best := RouteResult{Outcome: OutcomeIgnored}
	for i := range o.Payments {
		p := &o.Payments[i]
		if p.Status != domain.ProviderPaymentCompleted {
			continue
		}
		res := r.dispatch(ctx, log, p, hint)
		if rank(res.Outcome) > rank(best.Outcome) {
			best = res
		}
	}
	if best.Outcome == OutcomeIgnored {
		log.Info("order event carries no completed payments")
	}
	return best
}

// rank orders outcomes for aggregation across an order's payment list:
// a real failure outranks a success, which outranks dedup and no-ops.
func rank(o Outcome) int {
	switch o {
	case OutcomeFailed:
		return 3
	case OutcomeProcessed:
		return 2
	case OutcomeDuplicate:
		return 1
	default:
		return 0
	}
}

func (r *EventRouter) dispatch(ctx context.Context, log *zap.Logger, p *webhook.Payment, hint *provider.OrderMetadata) (res RouteResult) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic processing payment %s: %v", p.ID, rec)
			log.Error("payment processing panicked", zap.Any("panic", rec), zap.Stack("stack"))
			res = RouteResult{Outcome: OutcomeFailed, Err: err}
		}
	}()

	err := r.processor.ProcessCompletedPayment(ctx, p, hint)
	switch {
	case err == nil:
		return RouteResult{Outcome: OutcomeProcessed}
	case errors.Is(err, ErrDuplicatePayment):
		log.Info("duplicate payment delivery acknowledged", zap.String("provider_payment_id", p.ID))
		return RouteResult{Outcome: OutcomeDuplicate}
	case errors.Is(err, ErrMissingMetadata):
		log.Warn("payment carries no resolvable metadata", zap.String("provider_payment_id", p.ID), zap.Error(err))
		return RouteResult{Outcome: OutcomeFailed, Err: err}
	default:
		log.Error("payment processing failed", zap.String("provider_payment_id", p.ID), zap.Error(err))
		return RouteResult{Outcome: OutcomeFailed, Err: err}
	}
}
