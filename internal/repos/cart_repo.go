package repos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type CartRepo struct{ db *sqlx.DB }

func NewCartRepo(db *sqlx.DB) *CartRepo { return &CartRepo{db: db} }

// CartLine is a cart entry joined with the live product row.
type CartLine struct {
	ID            int64            `db:"id" json:"id"`
	ProductID     int64            `db:"product_id" json:"product_id"`
	Name          string           `db:"name" json:"name"`
	Price         decimal.Decimal  `db:"price" json:"price"`
	Images        domain.ImageList `db:"images_json" json:"images"`
	StockQuantity int              `db:"stock_quantity" json:"stock_quantity"`
	Quantity      int              `db:"quantity" json:"quantity"`
}

// CartEntry is a cart row with the stock of its product.
type CartEntry struct {
	ID            int64 `db:"id"`
	ProductID     int64 `db:"product_id"`
	Quantity      int   `db:"quantity"`
	StockQuantity int   `db:"stock_quantity"`
}

// Lines returns the user's cart, most recently added first.
func (r *CartRepo) Lines(ctx context.Context, userID int64) ([]CartLine, error) {
	ex := executor(ctx, r.db)
	rows := []CartLine{}
	err := sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(`
	  SELECT c.id, c.product_id, p.name, p.price, p.images_json, p.stock_quantity, c.quantity
	  FROM cart c JOIN products p ON p.id = c.product_id
	  WHERE c.user_id = ?
	  ORDER BY c.created_at DESC, c.id DESC
	`), userID)
	return rows, err
}

// Quantity returns the quantity already in the cart for a product, 0 if none.
func (r *CartRepo) Quantity(ctx context.Context, userID, productID int64) (int, error) {
	ex := executor(ctx, r.db)
	var q int
	err := sqlx.GetContext(ctx, ex, &q, ex.Rebind(`
	  SELECT COALESCE(SUM(quantity),0) FROM cart WHERE user_id = ? AND product_id = ?
	`), userID, productID)
	return q, err
}

// Upsert adds qty to the (user, product) entry, inserting it when absent.
func (r *CartRepo) Upsert(ctx context.Context, userID, productID int64, qty int) error {
	ex := executor(ctx, r.db)
	ts := now()
	_, err := ex.ExecContext(ctx, ex.Rebind(`
		INSERT INTO cart(user_id,product_id,quantity,created_at,updated_at)
		VALUES(?,?,?,?,?)
		ON CONFLICT(user_id,product_id) DO UPDATE
		SET quantity = cart.quantity + excluded.quantity, updated_at = excluded.updated_at
	`), userID, productID, qty, ts, ts)
	return err
}

// Entry loads a cart row owned by userID with the product's stock.
// Missing and foreign entries both yield sql.ErrNoRows.
func (r *CartRepo) Entry(ctx context.Context, userID, entryID int64) (CartEntry, error) {
	ex := executor(ctx, r.db)
	var e CartEntry
	err := sqlx.GetContext(ctx, ex, &e, ex.Rebind(`
	  SELECT c.id, c.product_id, c.quantity, p.stock_quantity
	  FROM cart c JOIN products p ON p.id = c.product_id
	  WHERE c.id = ? AND c.user_id = ?
	`), entryID, userID)
	return e, err
}

func (r *CartRepo) SetQuantity(ctx context.Context, userID, entryID int64, qty int) error {
	ex := executor(ctx, r.db)
	res, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE cart SET quantity = ?, updated_at = ? WHERE id = ? AND user_id = ?
	`), qty, now(), entryID, userID)
	return oneRow(res, err)
}

func (r *CartRepo) Remove(ctx context.Context, userID, entryID int64) error {
	ex := executor(ctx, r.db)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM cart WHERE id = ? AND user_id = ?`), entryID, userID)
	return oneRow(res, err)
}

func (r *CartRepo) Clear(ctx context.Context, userID int64) error {
	ex := executor(ctx, r.db)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM cart WHERE user_id = ?`), userID)
	return err
}
