package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/shopme-store/shopme-backend/internal/auth"
	"github.com/shopme-store/shopme-backend/internal/domain"
	"github.com/shopme-store/shopme-backend/internal/messaging"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

const minAddressLength = 10

type Handler struct {
	repo     *OrderRepository
	producer *messaging.Producer
	placed   metric.Int64Counter
	logger   *slog.Logger
}

// NewHandler wires the order workflow. producer may be nil, which
// disables notifications without touching any other behavior.
func NewHandler(repo *OrderRepository, producer *messaging.Producer, logger *slog.Logger) *Handler {
	placed, _ := otel.Meter("orders").Int64Counter("orders.placed",
		metric.WithDescription("Orders accepted and stored."))

	return &Handler{
		repo:     repo,
		producer: producer,
		placed:   placed,
		logger:   logger,
	}
}

type createOrderRequest struct {
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Address string            `json:"address"`
	Items   []domain.LineItem `json:"items"`
	UserID  string            `json:"userId"`
}

// validate runs every checkout check before any side effect happens.
func (req *createOrderRequest) validate() string {
	if req.Name == "" || req.Email == "" || req.Address == "" || len(req.Items) == 0 {
		return "Missing required fields: name, email, address, or valid items array"
	}

	if !emailPattern.MatchString(req.Email) {
		return "Please enter a valid email"
	}

	if len(req.Address) < minAddressLength {
		return fmt.Sprintf("Address must be at least %d characters", minAddressLength)
	}

	for _, item := range req.Items {
		if item.ItemID == 0 || item.Title == "" || item.Img == "" {
			return fmt.Sprintf("Invalid item in cart: missing fields for item ID %d", item.ItemID)
		}
		if item.Price <= 0 || item.Quantity < 1 {
			return fmt.Sprintf("Invalid price or quantity for item: %s", item.Title)
		}
	}

	return ""
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := req.validate(); msg != "" {
		h.writeMessage(w, http.StatusBadRequest, msg)
		return
	}

	// The total is always computed server-side from the received line
	// items; a client-supplied total is ignored.
	total := lo.SumBy(req.Items, func(item domain.LineItem) int64 {
		return item.Price * int64(item.Quantity)
	})

	order := &domain.Order{
		Name:       req.Name,
		Email:      req.Email,
		Address:    req.Address,
		Items:      req.Items,
		TotalPrice: total,
		UserID:     req.UserID,
		Status:     domain.OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	order.UpdatedAt = order.CreatedAt

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("failed to save order", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message": "Order failed to save in database",
			"error":   err.Error(),
			"success": false,
		})
		return
	}

	h.publish(r.Context(), domain.TopicOrderCreated, order.ID, domain.OrderCreatedEvent{
		OrderID:    order.ID,
		Name:       order.Name,
		Email:      order.Email,
		Address:    order.Address,
		TotalPrice: order.TotalPrice,
		Items:      order.Items,
		Timestamp:  order.CreatedAt,
	})

	h.placed.Add(r.Context(), 1)
	h.logger.Info("order placed", "order_id", order.ID, "total", order.TotalPrice)
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed and saved successfully!",
		"orderId": order.ID,
		"success": true,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.logger.Info("orders listed", "count", len(orders))
	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userId")

	customer, ok := customerFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	if customer.ID != userID {
		h.writeError(w, http.StatusForbidden, "Access denied. Cannot view another user's orders.")
		return
	}

	orders, err := h.repo.ListByUserID(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list user orders", "error", err, "user_id", userID)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) HandleListByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	customer, ok := customerFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	if customer.Email != email {
		h.writeError(w, http.StatusForbidden, "Access denied. Cannot view another user's orders.")
		return
	}

	orders, err := h.repo.ListByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to list user orders", "error", err, "email", email)
		h.writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderId")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := domain.ToOrderStatus(req.Status)
	if err != nil {
		valid := lo.Map(domain.OrderStatuses(), func(s domain.OrderStatus, _ int) string {
			return string(s)
		})
		h.writeMessage(w, http.StatusBadRequest, "Invalid status. Valid options: "+strings.Join(valid, ", "))
		return
	}

	order, err := h.repo.UpdateStatus(r.Context(), orderID, status)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "order_id", orderID)
		h.writeMessage(w, http.StatusInternalServerError, "Server error")
		return
	}

	if order == nil {
		h.writeMessage(w, http.StatusNotFound, "Order not found")
		return
	}

	h.publish(r.Context(), domain.TopicOrderStatusUpdated, order.ID, domain.OrderStatusUpdatedEvent{
		OrderID:   order.ID,
		Name:      order.Name,
		Email:     order.Email,
		Status:    order.Status,
		Timestamp: time.Now().UTC(),
	})

	h.logger.Info("order status updated", "order_id", order.ID, "status", order.Status)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order status updated",
		"order":   order,
	})
}

// publish is best-effort: a missing producer or a publish failure is
// logged and never reaches the client.
func (h *Handler) publish(ctx context.Context, topic, key string, event any) {
	if h.producer == nil {
		return
	}
	if err := h.producer.Publish(ctx, topic, key, event); err != nil {
		h.logger.Error("failed to publish event", "error", err, "topic", topic, "key", key)
	}
}

func customerFromContext(ctx context.Context) (auth.Customer, bool) {
	principal, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return auth.Customer{}, false
	}
	customer, ok := principal.(auth.Customer)
	return customer, ok
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeMessage(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"message": message})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
