package handlers

import (
	"github.com/jmoiron/sqlx"

	"storefront/internal/config"
	"storefront/internal/media"
	"storefront/internal/metrics"
	"storefront/internal/repos"
	"storefront/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Media   *media.Store
	Metrics *metrics.Metrics

	AuthHandler    *AuthHandler
	ProductHandler *ProductHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	AdminHandler   *AdminHandler
}

// NewDeps wires repositories, services and handlers over one database.
// guard may be nil, in which case Idempotency-Key headers are ignored.
func NewDeps(db *sqlx.DB, cfg config.Config, m *metrics.Metrics, guard services.IdempotencyGuard) (*Deps, error) {
	store := repos.NewStore(db)
	userRepo := repos.NewUserRepo(db)
	prodRepo := repos.NewProductRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	outboxRepo := repos.NewOutboxRepo(db)

	mediaStore, err := media.NewStore(cfg.MediaDir, cfg.MaxFileSize)
	if err != nil {
		return nil, err
	}

	authSvc := services.NewAuthService(userRepo, services.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL))
	catalogSvc := services.NewCatalogService(store, prodRepo, mediaStore)
	cartSvc := services.NewCartService(store, cartRepo, prodRepo)
	orderSvc := services.NewOrderService(orderRepo)
	checkoutSvc := services.NewCheckoutService(store, cartRepo, prodRepo, orderRepo)
	checkoutSvc.Events = outboxRepo
	if guard != nil {
		checkoutSvc.Guard = guard
	}

	return &Deps{
		Auth:           authSvc,
		Media:          mediaStore,
		Metrics:        m,
		AuthHandler:    &AuthHandler{Auth: authSvc},
		ProductHandler: &ProductHandler{Catalog: catalogSvc, Media: mediaStore},
		CartHandler:    &CartHandler{Cart: cartSvc},
		OrderHandler:   &OrderHandler{Checkout: checkoutSvc, Orders: orderSvc, Metrics: m},
		AdminHandler:   &AdminHandler{Orders: orderSvc},
	}, nil
}
