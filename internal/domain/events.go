package domain

import "time"

const (
	TopicOrderCreated       = "order.created"
	TopicOrderStatusUpdated = "order.status_updated"
)

type OrderCreatedEvent struct {
	OrderID    string     `json:"order_id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Address    string     `json:"address"`
	TotalPrice int64      `json:"total_price"`
	Items      []LineItem `json:"items"`
	Timestamp  time.Time  `json:"timestamp"`
}

type OrderStatusUpdatedEvent struct {
	OrderID   string      `json:"order_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}
