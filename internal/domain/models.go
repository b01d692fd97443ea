package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const PaymentCashOnDelivery = "cash-on-delivery"

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type Product struct {
	ID            int64           `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Category      string          `db:"category" json:"category"`
	Images        ImageList       `db:"images_json" json:"images"`
	StockQuantity int             `db:"stock_quantity" json:"stock_quantity"`
	AddedBy       *int64          `db:"added_by" json:"added_by"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
	UpdatedAt     string          `db:"updated_at" json:"updated_at,omitempty"`
}

// OwnedBy reports whether the product was created by the given admin.
func (p Product) OwnedBy(userID int64) bool {
	return p.AddedBy != nil && *p.AddedBy == userID
}

// ImageList is stored as a JSON array of public URLs.
type ImageList []string

func (l ImageList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *ImageList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// OrderItem is one line of an order snapshot. It is a copy of the product at
// checkout time, not a reference.
type OrderItem struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type OrderItems []OrderItem

func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		items = OrderItems{}
	}
	b, err := json.Marshal([]OrderItem(items))
	return string(b), err
}

func (items *OrderItems) Scan(src any) error {
	return scanJSON(src, (*[]OrderItem)(items))
}

type Order struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"user_id"`
	Items         OrderItems      `db:"items" json:"items"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Status        OrderStatus     `db:"status" json:"status"`
	CreatedAt     string          `db:"created_at" json:"created_at"`
}

func scanJSON(src any, dst any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
