package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/internal/airtable"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/httpserver"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/repository/pending"
	"storefront/internal/retry"
	cartsvc "storefront/internal/service/cart"
	checkoutsvc "storefront/internal/service/checkout"
	ordersvc "storefront/internal/service/order"
	sessionsvc "storefront/internal/service/session"
	walletsvc "storefront/internal/service/wallet"
	"storefront/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := config.FromEnv()
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("connect to redis", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	products, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		logger.Fatal("load catalog", zap.String("file", cfg.CatalogFile), zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("items", products.Len()))

	orderStore, err := newOrderStore(cfg, dbpool, logger)
	if err != nil {
		logger.Fatal("init order store", zap.Error(err))
	}

	for name, addr := range map[string]string{
		"recipient":  cfg.Checkout.RecipientAddress,
		"token mint": cfg.Checkout.TokenMint,
	} {
		if err := wallet.ValidateAddress(addr); err != nil {
			logger.Fatal("invalid checkout config", zap.String("field", name), zap.Error(err))
		}
	}

	portal := wallet.NewPortalClient(cfg.Portal.BaseURL, cfg.Portal.SignerURL, cfg.Portal.APIKey, cfg.Portal.ChainID, logger)
	initCtx, cancelInit := context.WithTimeout(ctx, 30*time.Second)
	err = portal.Init(initCtx)
	cancelInit()
	if err != nil {
		logger.Fatal("init wallet", zap.Error(err))
	}

	cartService := cartsvc.New(cartrepo.NewPostgres(dbpool), products, logger)
	orderService := ordersvc.New(orderStore, logger)
	checkoutService := checkoutsvc.New(checkoutsvc.Config{
		RecipientAddress: cfg.Checkout.RecipientAddress,
		TokenMint:        cfg.Checkout.TokenMint,
		PaymentTimeout:   cfg.Checkout.PaymentTimeout,
		Persist:          retry.Policy{Attempts: cfg.Checkout.Persist.Attempts, Delay: cfg.Checkout.Persist.Delay},
	}, cartService, portal, orderService, pending.NewRedisMailbox(rdb, cfg.Redis.PendingTTL, cfg.Redis.ReceiptTTL), logger)
	walletService := walletsvc.New(portal, cfg.Checkout.TokenSymbol,
		retry.Policy{Attempts: cfg.Balance.Attempts, Delay: cfg.Balance.Delay}, logger)

	probes := []httpserver.Probe{
		{Name: "db", Check: dbpool.Ping},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logger, probes, httpserver.Deps{
		Catalog:     products,
		Sessions:    sessionsvc.New(cfg.SessionTTL),
		Carts:       cartService,
		Checkout:    checkoutService,
		Orders:      orderService,
		Wallet:      walletService,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.Environment == "production" {
		zc = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.FromCSV(f)
}

func newOrderStore(cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (orderrepo.Repository, error) {
	switch cfg.OrderStore {
	case config.OrderStorePostgres, "":
		return orderrepo.NewPostgres(pool, logger), nil
	case config.OrderStoreAirtable:
		return airtable.NewClient(cfg.Airtable.BaseURL, cfg.Airtable.APIKey, cfg.Airtable.BaseID, cfg.Airtable.Table, logger), nil
	default:
		return nil, fmt.Errorf("unknown order store %q", cfg.OrderStore)
	}
}
