package main

import (
	"context"
	"flag"
	"os"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/db"
	orderrepo "storefront/internal/repository/order"
	"storefront/internal/seed"
	"storefront/internal/wallet"

	"go.uber.org/zap"
)

func main() {
	var walletAddress string
	flag.StringVar(&walletAddress, "wallet", "", "Solana wallet address to record demo orders for")
	flag.Parse()

	if walletAddress == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if err := wallet.ValidateAddress(walletAddress); err != nil {
		logger.Fatal("invalid wallet", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, logger)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	orders, err := seed.Apply(ctx, orderrepo.NewPostgres(pool, logger), catalog.Default(), walletAddress, time.Now())
	if err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	for _, o := range orders {
		logger.Info("demo order", zap.String("order_id", o.OrderID), zap.String("total", o.Total.StringFixed(2)))
	}
	logger.Info("seed applied", zap.Int("orders", len(orders)))
}
