package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderCols = `id, user_id, items, total_amount, payment_method, status, created_at`

// Create inserts the order snapshot and sets its id and created_at.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	o.CreatedAt = now()
	id, err := insertReturningID(ctx, executor(ctx, r.db), `
	  INSERT INTO orders(user_id, items, total_amount, payment_method, status, created_at)
	  VALUES(?, ?, ?, ?, ?, ?)`,
		o.UserID, o.Items, o.TotalAmount, o.PaymentMethod, o.Status, o.CreatedAt)
	if err != nil {
		return err
	}
	o.ID = id
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	ex := executor(ctx, r.db)
	var o domain.Order
	err := sqlx.GetContext(ctx, ex, &o, ex.Rebind(`SELECT `+orderCols+` FROM orders WHERE id = ?`), id)
	return o, err
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	ex := executor(ctx, r.db)
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, ex, &out, ex.Rebind(`
		SELECT `+orderCols+`
		FROM orders
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`), userID)
	return out, err
}

func (r *OrderRepo) ListLatest(ctx context.Context, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	ex := executor(ctx, r.db)
	out := []domain.Order{}
	err := sqlx.SelectContext(ctx, ex, &out, ex.Rebind(`
		SELECT `+orderCols+`
		FROM orders
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`), limit)
	return out, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	ex := executor(ctx, r.db)
	res, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE orders SET status = ? WHERE id = ?`), string(status), id)
	return oneRow(res, err)
}
