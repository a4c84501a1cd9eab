package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/metabolixmd/telehealth-api/internal/observability"
	"github.com/metabolixmd/telehealth-api/internal/service"
	"github.com/metabolixmd/telehealth-api/internal/webhook"
	"go.uber.org/zap"
)

// SignatureVerifier is the boundary check applied before any event handling.
type SignatureVerifier interface {
	Verify(rawBody []byte, headers http.Header) (*webhook.Event, error)
}

// EventRouter dispatches a verified event into the pipeline.
type EventRouter interface {
	Route(ctx context.Context, ev *webhook.Event) service.RouteResult
}

// WebhookHandler receives payment provider webhook deliveries.
type WebhookHandler struct {
	verifier SignatureVerifier
	router   EventRouter
}

func NewWebhookHandler(verifier SignatureVerifier, router EventRouter) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, router: router}
}

// HandlePaymentWebhook handles POST /v1/webhooks/payments.
//
// The response is HTTP 200 regardless of what happened inside: the provider
// retries on non-2xx, and a permanently failing event would be redelivered
// forever. Failures are logged and counted instead.
func (h *WebhookHandler) HandlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		zap.L().Warn("read webhook body failed", zap.Error(err))
		observability.IncrementSignatureFailure("unreadable_body")
		RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	ev, err := h.verifier.Verify(body, r.Header)
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrSignature):
			zap.L().Warn("webhook signature rejected",
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err))
			observability.IncrementSignatureFailure("bad_signature")
		case errors.Is(err, webhook.ErrMalformedEvent):
			zap.L().Warn("webhook body unparseable after valid signature", zap.Error(err))
			observability.IncrementSignatureFailure("malformed_event")
		default:
			zap.L().Error("webhook verification failed", zap.Error(err))
			observability.IncrementSignatureFailure("other")
		}
		RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	h.router.Route(r.Context(), ev)
	RespondJSON(w, http.StatusOK, map[string]bool{"received": true})
}
