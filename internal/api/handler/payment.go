package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/metabolixmd/telehealth-api/internal/repository"
)

// PaymentHandler serves admin payment lookups.
type PaymentHandler struct {
	queries *repository.Queries
}

func NewPaymentHandler(queries *repository.Queries) *PaymentHandler {
	return &PaymentHandler{queries: queries}
}

// GetPayment handles GET /v1/payments/{id}.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "payment/invalid-id", "invalid payment id")
		return
	}

	payment, err := h.queries.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			RespondError(w, r, http.StatusNotFound, "payment/not-found", "payment not found")
			return
		}
		RespondError(w, r, http.StatusInternalServerError, "payment/lookup-failed", "failed to load payment")
		return
	}

	RespondJSON(w, http.StatusOK, payment)
}

// ListOrderPayments handles GET /v1/orders/{id}/payments.
func (h *PaymentHandler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, r, http.StatusBadRequest, "order/invalid-id", "invalid order id")
		return
	}

	payments, err := h.queries.ListPaymentsByOrder(r.Context(), orderID)
	if err != nil {
		RespondError(w, r, http.StatusInternalServerError, "payment/lookup-failed", "failed to load payments")
		return
	}

	RespondJSON(w, http.StatusOK, map[string]any{"payments": payments})
}
