package httpserver

import (
	"context"
	"errors"

	"storefront/internal/domain"
	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	walletsvc "storefront/internal/service/wallet"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps carries the services the routes call into.
type Deps struct {
	Catalog     catalogReader
	Sessions    sessionService
	Carts       cartService
	Checkout    checkoutService
	Orders      orderService
	Wallet      walletService
	CORSOrigins []string
}

type catalogReader interface {
	List() []domain.CatalogItem
	Get(id int) (domain.CatalogItem, error)
}

type sessionService interface {
	Issue(ctx context.Context) (token, sessionID string, err error)
	Lookup(ctx context.Context, token string) (string, error)
	End(ctx context.Context, token string) (string, error)
	TTLSeconds() int
}

type cartService interface {
	Get(ctx context.Context, sessionID string) (*domain.CartState, error)
	Update(ctx context.Context, sessionID string, in cartsvc.UpdateInput) (*domain.CartState, error)
	Reset(ctx context.Context, sessionID string) error
}

type checkoutService interface {
	Begin(ctx context.Context, sessionID string) (*domain.CartState, error)
	Submit(ctx context.Context, sessionID string, addr domain.ShippingAddress) (*checkoutsvc.Attempt, error)
	Confirm(ctx context.Context, sessionID string) (*checkoutsvc.Confirmation, error)
}

type orderService interface {
	ListByWallet(ctx context.Context, walletAddress string) ([]domain.Order, error)
}

type walletService interface {
	Status(ctx context.Context) (*walletsvc.Status, error)
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, probes []Probe, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Sessions == nil || deps.Carts == nil ||
		deps.Checkout == nil || deps.Orders == nil || deps.Wallet == nil {
		return nil, errors.New("httpserver: missing dependencies")
	}

	router := gin.New()
	router.Use(recovery(logger), accessLog(logger))
	if len(deps.CORSOrigins) > 0 {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = deps.CORSOrigins
		cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
		router.Use(cors.New(cfg))
	}

	h := &handlers{deps: deps, logger: logger}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(probes, logger))

	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.GET("/orders", h.listOrders)
	router.GET("/wallet", h.walletStatus)

	router.POST("/session", h.startSession)
	router.DELETE("/session", h.endSession)

	scoped := router.Group("")
	scoped.Use(sessionMiddleware(deps.Sessions))
	{
		scoped.GET("/cart", h.getCart)
		scoped.POST("/cart/actions", h.updateCart)
		scoped.GET("/checkout", h.beginCheckout)
		scoped.POST("/checkout", h.submitCheckout)
		scoped.POST("/checkout/confirm", h.confirmCheckout)
	}

	return router, nil
}
