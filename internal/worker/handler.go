package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shopme-store/shopme-backend/internal/domain"
	"github.com/shopme-store/shopme-backend/internal/notify"
)

// MailHandler turns order events into customer emails. It is the
// consuming end of the best-effort notification pipeline: the order
// itself was durably persisted long before these run.
type MailHandler struct {
	mailer notify.Mailer
	logger *slog.Logger
}

func NewMailHandler(mailer notify.Mailer, logger *slog.Logger) *MailHandler {
	return &MailHandler{
		mailer: mailer,
		logger: logger,
	}
}

func (h *MailHandler) HandleOrderCreated(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID)

	body := fmt.Sprintf(
		"<h2>Hello, %s!</h2>"+
			"<p>Your order has been confirmed. Thank you for shopping with us!</p>"+
			"<p><strong>Total:</strong> %d</p>"+
			"<p>Shipping to: %s</p>"+
			"<p>We'll notify you when your order ships.</p>",
		event.Name, event.TotalPrice, event.Address,
	)

	if err := h.mailer.Send(ctx, event.Email, "Order Confirmed", body); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("confirmation email sent", "order_id", event.OrderID)
	return nil
}

func (h *MailHandler) HandleStatusUpdated(ctx context.Context, payload []byte) error {
	var event domain.OrderStatusUpdatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order status event: %w", err)
	}

	h.logger.Info("processing order status event", "order_id", event.OrderID, "status", event.Status)

	body := fmt.Sprintf(
		"<h2>Hello, %s!</h2>"+
			"<p>Your order status has been updated to: <strong>%s</strong></p>"+
			"<p>Order ID: %s</p>"+
			"<p>Visit your profile for details.</p>",
		event.Name, event.Status, event.OrderID,
	)

	subject := fmt.Sprintf("Order Status Updated: %s", event.Status)
	if err := h.mailer.Send(ctx, event.Email, subject, body); err != nil {
		return fmt.Errorf("send status email: %w", err)
	}

	h.logger.Info("status email sent", "order_id", event.OrderID, "status", event.Status)
	return nil
}
