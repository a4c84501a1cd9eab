package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/metabolixmd/telehealth-api/internal/models"
	"github.com/metabolixmd/telehealth-api/internal/notification"
	"github.com/metabolixmd/telehealth-api/internal/observability"
	"go.uber.org/zap"
)

// Notifier fans a confirmed payment out to the customer and the operations
// team. Channels settle independently: one failure never blocks the others,
// and no failure reaches the webhook response.
type Notifier struct {
	mailer     notification.Mailer    // nil disables email
	sms        notification.SMSSender // nil disables SMS
	adminEmail string
	adminPhone string
	timeout    time.Duration
}

func NewNotifier(mailer notification.Mailer, sms notification.SMSSender, adminEmail, adminPhone string, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		mailer:     mailer,
		sms:        sms,
		adminEmail: adminEmail,
		adminPhone: adminPhone,
		timeout:    timeout,
	}
}

// PaymentConfirmed dispatches all configured channels and waits for them to
// settle. Failures are logged and counted per channel.
func (n *Notifier) PaymentConfirmed(ctx context.Context, user *models.User, order *models.Order, payment *models.Payment) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	defer cancel()

	amount := fmt.Sprintf("%s %s", payment.Amount.StringFixed(2), payment.Currency)

	var wg sync.WaitGroup
	dispatch := func(channel string, send func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := send(); err != nil {
				observability.IncrementNotificationSend(channel, "error")
				zap.L().Warn("notification send failed",
					zap.String("channel", channel),
					zap.String("order_id", order.ID.String()),
					zap.Error(err))
				return
			}
			observability.IncrementNotificationSend(channel, "ok")
		}()
	}

	if n.mailer != nil {
		dispatch("customer_email", func() error {
			return n.mailer.Send(ctx, notification.Email{
				To:      user.Email,
				Subject: fmt.Sprintf("Payment Confirmed - Order #%d", order.OrderNo),
				HTML:    customerEmailHTML(user, order, amount),
			})
		})
		if n.adminEmail != "" {
			dispatch("admin_email", func() error {
				return n.mailer.Send(ctx, notification.Email{
					To:      n.adminEmail,
					Subject: fmt.Sprintf("Payment Received - Order #%d", order.OrderNo),
					HTML:    adminEmailHTML(user, order, payment, amount),
				})
			})
		}
	}

	if n.sms != nil {
		if user.Phone != "" {
			dispatch("customer_sms", func() error {
				return n.sms.Send(ctx, notification.SMS{
					To: user.Phone,
					Body: fmt.Sprintf("Your payment of %s for order #%d has been confirmed. Thank you!",
						amount, order.OrderNo),
				})
			})
		}
		if n.adminPhone != "" {
			dispatch("admin_sms", func() error {
				return n.sms.Send(ctx, notification.SMS{
					To: n.adminPhone,
					Body: fmt.Sprintf("Payment received: %s for order #%d from %s.",
						amount, order.OrderNo, user.Name),
				})
			})
		}
	}

	wg.Wait()
}

func customerEmailHTML(user *models.User, order *models.Order, amount string) string {
	return fmt.Sprintf(`<h2>Thank you for your payment, %s!</h2>
<p>We have received your payment of <strong>%s</strong> for order <strong>#%d</strong>.</p>
<p>Your order is now being prepared. We will notify you when it ships.</p>`,
		user.Name, amount, order.OrderNo)
}

func adminEmailHTML(user *models.User, order *models.Order, payment *models.Payment, amount string) string {
	return fmt.Sprintf(`<h2>Payment received</h2>
<p>Order <strong>#%d</strong> has been paid.</p>
<ul>
<li>Customer: %s (%s)</li>
<li>Amount: %s</li>
<li>Provider payment id: %s</li>
</ul>`,
		order.OrderNo, user.Name, user.Email, amount, payment.ProviderPaymentID)
}
