package repos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `id, name, description, price, category, images_json, stock_quantity, added_by,
    created_at, COALESCE(updated_at,'') AS updated_at`

// ProductFilter narrows List. Zero values mean no filter.
type ProductFilter struct {
	Category string
	Search   string
	AddedBy  *int64
	Limit    int
	Offset   int
}

func (f ProductFilter) where() (string, []any) {
	where := []string{"1=1"}
	args := []any{}
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Search != "" {
		q := "%" + strings.ToLower(f.Search) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, q, q)
	}
	if f.AddedBy != nil {
		where = append(where, "added_by = ?")
		args = append(args, *f.AddedBy)
	}
	return strings.Join(where, " AND "), args
}

// List returns one page of products, newest first, plus the unpaged total.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	ex := executor(ctx, r.db)
	where, args := f.where()

	var total int
	if err := sqlx.GetContext(ctx, ex, &total, ex.Rebind(`SELECT COUNT(*) FROM products WHERE `+where), args...); err != nil {
		return nil, 0, err
	}

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, ex, &out, ex.Rebind(`
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY created_at DESC, id DESC
	  LIMIT ? OFFSET ?`), append(args, f.Limit, f.Offset)...)
	return out, total, err
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	ex := executor(ctx, r.db)
	var p domain.Product
	err := sqlx.GetContext(ctx, ex, &p, ex.Rebind(`SELECT `+productCols+` FROM products WHERE id = ?`), id)
	return p, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	p.CreatedAt = now()
	id, err := insertReturningID(ctx, executor(ctx, r.db), `
		INSERT INTO products(name,description,price,category,images_json,stock_quantity,added_by,created_at)
		VALUES(?,?,?,?,?,?,?,?)`,
		p.Name, p.Description, p.Price, p.Category, p.Images, p.StockQuantity, p.AddedBy, p.CreatedAt)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

// Update rewrites the descriptive columns of a product owned by ownerID.
// Stock is left alone; see SetStock. A missing or foreign product yields
// sql.ErrNoRows.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product, ownerID int64) error {
	ex := executor(ctx, r.db)
	p.UpdatedAt = now()
	res, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, images_json = ?, updated_at = ?
		WHERE id = ? AND added_by = ?`),
		p.Name, p.Description, p.Price, p.Category, p.Images, p.UpdatedAt, p.ID, ownerID)
	return oneRow(res, err)
}

// SetStock overwrites the stock counter of a product owned by ownerID.
func (r *ProductRepo) SetStock(ctx context.Context, id, ownerID int64, qty int) error {
	ex := executor(ctx, r.db)
	res, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE products SET stock_quantity = ?, updated_at = ?
		WHERE id = ? AND added_by = ?`), qty, now(), id, ownerID)
	return oneRow(res, err)
}

func (r *ProductRepo) Delete(ctx context.Context, id, ownerID int64) error {
	ex := executor(ctx, r.db)
	res, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM products WHERE id = ? AND added_by = ?`), id, ownerID)
	return oneRow(res, err)
}

func (r *ProductRepo) Categories(ctx context.Context) ([]string, error) {
	ex := executor(ctx, r.db)
	out := []string{}
	err := sqlx.SelectContext(ctx, ex, &out, `SELECT DISTINCT category FROM products ORDER BY category`)
	return out, err
}

// DecrementStock subtracts qty only while enough stock remains.
// It is the single authority for stock during checkout.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID int64, qty int) error {
	ex := executor(ctx, r.db)
	res, err := ex.ExecContext(ctx, ex.Rebind(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?
		WHERE id = ? AND stock_quantity >= ?
	`), qty, productID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStockConflict
	}
	return nil
}

func oneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
