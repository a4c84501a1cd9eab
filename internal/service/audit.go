package service

import (
	"encoding/json"

	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/metabolixmd/telehealth-api/internal/repository"
)

// paymentAudit builds the audit row written inside the reconciliation
// transaction, so the trail commits or rolls back with the payment itself.
func paymentAudit(p *models.Payment, prevStatus, nextStatus string) repository.AuditEntry {
	metadata, _ := json.Marshal(map[string]any{
		"payment_id":          p.ID,
		"provider_payment_id": p.ProviderPaymentID,
		"user_id":             p.UserID,
		"amount":              p.Amount.StringFixed(2),
		"currency":            p.Currency,
	})
	return repository.AuditEntry{
		EntityType: "order",
		EntityID:   p.OrderID,
		Action:     "payment_reconciled",
		PrevState:  prevStatus,
		NextState:  nextStatus,
		Metadata:   metadata,
	}
}
