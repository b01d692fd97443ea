package services

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/events"
	"storefront/internal/repos"
)

type CheckoutCart interface {
	Lines(ctx context.Context, userID int64) ([]repos.CartLine, error)
	Clear(ctx context.Context, userID int64) error
}

type StockDecrementer interface {
	DecrementStock(ctx context.Context, productID int64, qty int) error
}

type OrderWriter interface {
	Create(ctx context.Context, o *domain.Order) error
}

// EventRecorder stores an event in the same transaction as the order.
type EventRecorder interface {
	Insert(ctx context.Context, eventID, eventType, key string, payload any) error
}

// IdempotencyGuard remembers request keys across retries.
type IdempotencyGuard interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type CheckoutService struct {
	Tx     Atomic
	Cart   CheckoutCart
	Stock  StockDecrementer
	Orders OrderWriter
	Events EventRecorder    // optional
	Guard  IdempotencyGuard // optional
}

func NewCheckoutService(tx Atomic, cart CheckoutCart, stock StockDecrementer, orders OrderWriter) *CheckoutService {
	return &CheckoutService{Tx: tx, Cart: cart, Stock: stock, Orders: orders}
}

type CheckoutResult struct {
	OrderID       int64
	TotalAmount   decimal.Decimal
	PaymentMethod string
}

// Checkout turns the user's cart into a pending order. Reading the cart,
// writing the order, decrementing stock and clearing the cart happen in one
// transaction: on any error nothing is written.
func (s *CheckoutService) Checkout(ctx context.Context, userID int64, paymentMethod string) (CheckoutResult, error) {
	if paymentMethod != domain.PaymentCashOnDelivery {
		return CheckoutResult{}, ErrInvalidPaymentMethod
	}

	var res CheckoutResult
	err := s.Tx.RunAtomic(ctx, func(ctx context.Context) error {
		lines, err := s.Cart.Lines(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		for _, l := range lines {
			if l.StockQuantity < l.Quantity {
				return &InsufficientStockError{ProductID: l.ProductID}
			}
		}

		items, total := snapshot(lines)
		order := &domain.Order{
			UserID:        userID,
			Items:         items,
			TotalAmount:   total,
			PaymentMethod: paymentMethod,
			Status:        domain.OrderPending,
		}
		if err := s.Orders.Create(ctx, order); err != nil {
			return err
		}

		// the conditional decrement is authoritative; the pre-check above only
		// gives an early, precise answer
		for _, l := range lines {
			err := s.Stock.DecrementStock(ctx, l.ProductID, l.Quantity)
			if errors.Is(err, repos.ErrStockConflict) {
				return &InsufficientStockError{ProductID: l.ProductID}
			}
			if err != nil {
				return err
			}
		}

		if err := s.Cart.Clear(ctx, userID); err != nil {
			return err
		}

		if s.Events != nil {
			payload := events.OrderCreated{
				OrderID:       order.ID,
				UserID:        userID,
				Items:         items,
				TotalAmount:   total.StringFixed(2),
				PaymentMethod: paymentMethod,
				CreatedAt:     order.CreatedAt,
			}
			key := strconv.FormatInt(order.ID, 10)
			if err := s.Events.Insert(ctx, uuid.NewString(), events.TypeOrderCreated, key, payload); err != nil {
				return err
			}
		}

		res = CheckoutResult{OrderID: order.ID, TotalAmount: total, PaymentMethod: paymentMethod}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	return res, nil
}

// CheckoutOnce runs Checkout at most once per idempotency key. A failed attempt
// releases the key so the client may retry. Without a key or a guard it is
// plain Checkout.
func (s *CheckoutService) CheckoutOnce(ctx context.Context, key string, userID int64, paymentMethod string) (CheckoutResult, error) {
	if key == "" || s.Guard == nil {
		return s.Checkout(ctx, userID, paymentMethod)
	}
	scoped := strconv.FormatInt(userID, 10) + ":" + key
	ok, err := s.Guard.Claim(ctx, scoped)
	if err != nil {
		return CheckoutResult{}, err
	}
	if !ok {
		return CheckoutResult{}, ErrDuplicateRequest
	}
	res, err := s.Checkout(ctx, userID, paymentMethod)
	if err != nil {
		_ = s.Guard.Release(context.WithoutCancel(ctx), scoped)
		return CheckoutResult{}, err
	}
	return res, nil
}

// snapshot copies cart lines into order items and totals them, rounding
// half-up to cents once at the end.
func snapshot(lines []repos.CartLine) (domain.OrderItems, decimal.Decimal) {
	items := make(domain.OrderItems, 0, len(lines))
	total := decimal.Zero
	for _, l := range lines {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return items, total.Round(2)
}
