package services

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

type OrderService struct {
	Orders *repos.OrderRepo
}

func NewOrderService(orders *repos.OrderRepo) *OrderService {
	return &OrderService{Orders: orders}
}

func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

// GetFor returns an order visible to who. Orders of other users are reported
// as missing unless who is an admin.
func (s *OrderService) GetFor(ctx context.Context, who domain.Identity, id int64) (domain.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, notFound(err, "Order not found")
	}
	if o.UserID != who.UserID && !who.IsAdmin() {
		return domain.Order{}, newErr(ErrNotFound, "Order not found")
	}
	return o, nil
}

func (s *OrderService) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	return s.Orders.ListLatest(ctx, limit)
}

// UpdateStatus stores a new status. Stock is not returned on cancellation.
func (s *OrderService) UpdateStatus(ctx context.Context, id int64, status string) error {
	st := domain.OrderStatus(status)
	if !st.Valid() {
		return Validationf("Status must be one of pending, processing, completed, cancelled")
	}
	return notFound(s.Orders.UpdateStatus(ctx, id, st), "Order not found")
}
