package events

import (
	"encoding/json"

	"storefront/internal/domain"
)

const TypeOrderCreated = "order.created"

// Event is an outbox record on its way to a broker.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Key     string          `json:"key"`
	Payload json.RawMessage `json:"payload"`
}

// OrderCreated is the payload of TypeOrderCreated.
type OrderCreated struct {
	OrderID       int64             `json:"orderId"`
	UserID        int64             `json:"userId"`
	Items         domain.OrderItems `json:"items"`
	TotalAmount   string            `json:"totalAmount"`
	PaymentMethod string            `json:"paymentMethod"`
	CreatedAt     string            `json:"createdAt"`
}
