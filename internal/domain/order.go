package domain

import (
	"errors"
	"time"
)

type OrderStatus string

// remember to add new statuses to orderStatusOrder as well
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var orderStatusOrder = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var validOrderStatuses = func() map[OrderStatus]struct{} {
	m := make(map[OrderStatus]struct{}, len(orderStatusOrder))
	for _, s := range orderStatusOrder {
		m[s] = struct{}{}
	}
	return m
}()

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}

	return "", errors.New("invalid order status")
}

func OrderStatuses() []OrderStatus {
	result := make([]OrderStatus, len(orderStatusOrder))
	copy(result, orderStatusOrder)
	return result
}

// LineItem is a snapshot of a catalog item taken at checkout time.
// Catalog edits after checkout never touch past orders.
type LineItem struct {
	ItemID   int64  `json:"id"`
	Title    string `json:"title"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Img      string `json:"img"`
}

type Order struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Address    string      `json:"address"`
	Items      []LineItem  `json:"items"`
	TotalPrice int64       `json:"totalPrice"`
	UserID     string      `json:"userId,omitempty"`
	Status     OrderStatus `json:"status"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}
