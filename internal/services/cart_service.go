package services

import (
	"context"

	"github.com/shopspring/decimal"

	"storefront/internal/repos"
)

// Atomic runs fn in one transaction; repositories join it through ctx.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

type CartService struct {
	Tx    Atomic
	Carts *repos.CartRepo
	Prods *repos.ProductRepo
}

func NewCartService(tx Atomic, carts *repos.CartRepo, prods *repos.ProductRepo) *CartService {
	return &CartService{Tx: tx, Carts: carts, Prods: prods}
}

// Add puts quantity units of a product in the cart, merging with an existing
// entry. A nil quantity means one unit; an explicit value below one is rejected.
func (s *CartService) Add(ctx context.Context, userID, productID int64, quantity *int) error {
	qty := 1
	if quantity != nil {
		qty = *quantity
	}
	if qty < 1 {
		return ErrInvalidQuantity
	}
	return s.Tx.RunAtomic(ctx, func(ctx context.Context) error {
		p, err := s.Prods.Get(ctx, productID)
		if err != nil {
			return notFound(err, "Product not found")
		}
		if p.StockQuantity < qty {
			return &InsufficientStockError{ProductID: productID}
		}
		existing, err := s.Carts.Quantity(ctx, userID, productID)
		if err != nil {
			return err
		}
		if existing+qty > p.StockQuantity {
			return &InsufficientStockError{ProductID: productID}
		}
		return s.Carts.Upsert(ctx, userID, productID, qty)
	})
}

// Update sets the quantity of an entry the user owns.
func (s *CartService) Update(ctx context.Context, userID, entryID int64, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	return s.Tx.RunAtomic(ctx, func(ctx context.Context) error {
		e, err := s.Carts.Entry(ctx, userID, entryID)
		if err != nil {
			return notFound(err, "Cart item not found")
		}
		if quantity > e.StockQuantity {
			return &InsufficientStockError{ProductID: e.ProductID}
		}
		return notFound(s.Carts.SetQuantity(ctx, userID, entryID, quantity), "Cart item not found")
	})
}

func (s *CartService) Remove(ctx context.Context, userID, entryID int64) error {
	return notFound(s.Carts.Remove(ctx, userID, entryID), "Cart item not found")
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.Carts.Clear(ctx, userID)
}

type CartView struct {
	Items     []repos.CartLine `json:"cart"`
	Total     string           `json:"total"`
	ItemCount int              `json:"itemCount"`
}

func (s *CartService) View(ctx context.Context, userID int64) (CartView, error) {
	lines, err := s.Carts.Lines(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return CartView{Items: lines, Total: total.StringFixed(2), ItemCount: len(lines)}, nil
}
