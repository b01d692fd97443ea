package services

import (
	"context"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

const MaxProductImages = 5

// ImageStore removes stored product images by their public URL.
type ImageStore interface {
	Remove(urls []string)
}

type CatalogService struct {
	Tx       Atomic
	Products *repos.ProductRepo
	Images   ImageStore
}

func NewCatalogService(tx Atomic, products *repos.ProductRepo, images ImageStore) *CatalogService {
	return &CatalogService{Tx: tx, Products: products, Images: images}
}

// ProductInput carries raw form values. A nil field was not submitted.
// Images are URLs of files already stored for this request.
type ProductInput struct {
	Name        *string
	Description *string
	Price       *string
	Category    *string
	Stock       *string
	Images      []string
}

type Page struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

func (s *CatalogService) List(ctx context.Context, f repos.ProductFilter) ([]domain.Product, Page, error) {
	rows, total, err := s.Products.List(ctx, f)
	if err != nil {
		return nil, Page{}, err
	}
	return rows, Page{Total: total, Limit: f.Limit, Offset: f.Offset, HasMore: f.Offset+len(rows) < total}, nil
}

func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, notFound(err, "Product not found")
	}
	return p, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.Products.Categories(ctx)
}

// Create stores a new product owned by adminID. On failure the uploaded images
// in in are discarded.
func (s *CatalogService) Create(ctx context.Context, adminID int64, in ProductInput) (p domain.Product, err error) {
	defer s.discardOnError(&err, in.Images)

	if blank(in.Name) || blank(in.Price) || blank(in.Category) {
		return p, Validationf("Name, price, and category are required")
	}
	p = domain.Product{AddedBy: &adminID, Images: domain.ImageList(in.Images)}
	if err = applyInput(&p, in); err != nil {
		return p, err
	}
	if err = s.Products.Create(ctx, &p); err != nil {
		return p, err
	}
	return s.Products.Get(ctx, p.ID)
}

// Update applies the submitted fields to a product owned by adminID. Newly
// uploaded images replace the previous set, whose files are removed. Stock is
// written only when it was submitted.
func (s *CatalogService) Update(ctx context.Context, adminID, id int64, in ProductInput) (p domain.Product, err error) {
	defer s.discardOnError(&err, in.Images)

	var old domain.ImageList
	err = s.Tx.RunAtomic(ctx, func(ctx context.Context) error {
		cur, err := s.Products.Get(ctx, id)
		if err != nil {
			return notFound(err, "Product not found")
		}
		if !cur.OwnedBy(adminID) {
			return newErr(ErrForbidden, "You can only update products you created")
		}
		old = cur.Images
		if len(in.Images) > 0 {
			cur.Images = domain.ImageList(in.Images)
		}
		if err := applyInput(&cur, in); err != nil {
			return err
		}
		if err := s.Products.Update(ctx, &cur, adminID); err != nil {
			return notFound(err, "Product not found or not owned by you")
		}
		if !blank(in.Stock) {
			if err := s.Products.SetStock(ctx, id, adminID, cur.StockQuantity); err != nil {
				return notFound(err, "Product not found or not owned by you")
			}
		}
		return nil
	})
	if err != nil {
		return p, err
	}
	if len(in.Images) > 0 {
		s.Images.Remove(old)
	}
	return s.Products.Get(ctx, id)
}

func (s *CatalogService) Delete(ctx context.Context, adminID, id int64) error {
	p, err := s.Products.Get(ctx, id)
	if err != nil {
		return notFound(err, "Product not found")
	}
	if !p.OwnedBy(adminID) {
		return newErr(ErrForbidden, "You can only delete products you created")
	}
	if err := s.Products.Delete(ctx, id, adminID); err != nil {
		return notFound(err, "Product not found or not owned by you")
	}
	s.Images.Remove(p.Images)
	return nil
}

// ListOwn returns the products the admin created.
func (s *CatalogService) ListOwn(ctx context.Context, adminID int64, f repos.ProductFilter) ([]domain.Product, Page, error) {
	f.AddedBy = &adminID
	return s.List(ctx, f)
}

func (s *CatalogService) discardOnError(err *error, urls []string) {
	if *err != nil && len(urls) > 0 {
		s.Images.Remove(urls)
	}
}

func applyInput(p *domain.Product, in ProductInput) error {
	if len(in.Images) > MaxProductImages {
		return Validationf("At most %d images are allowed", MaxProductImages)
	}
	if !blank(in.Name) {
		name := strings.TrimSpace(*in.Name)
		if len(name) > 255 {
			return Validationf("Name is too long")
		}
		p.Name = name
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if !blank(in.Price) {
		price, ok := validate.Price(*in.Price)
		if !ok || !price.IsPositive() {
			return Validationf("Price must be a positive number")
		}
		p.Price = price
	}
	if !blank(in.Category) {
		cat, ok := validate.Category(*in.Category)
		if !ok {
			return Validationf("Invalid category")
		}
		p.Category = cat
	}
	if !blank(in.Stock) {
		n, ok := validate.Stock(*in.Stock)
		if !ok {
			return Validationf("Stock quantity must be a non-negative integer")
		}
		p.StockQuantity = n
	}
	return nil
}

func blank(s *string) bool { return s == nil || strings.TrimSpace(*s) == "" }
