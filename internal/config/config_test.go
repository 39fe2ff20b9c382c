package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
	if cfg.OrderStore != OrderStorePostgres {
		t.Fatalf("unexpected order store %q", cfg.OrderStore)
	}
	if cfg.Checkout.Persist.Attempts != 3 || cfg.Checkout.Persist.Delay != 500*time.Millisecond {
		t.Fatalf("unexpected persist retry %+v", cfg.Checkout.Persist)
	}
	if cfg.Redis.ReceiptTTL != 30*time.Second || cfg.Redis.PendingTTL != time.Hour {
		t.Fatalf("unexpected redis ttls %+v", cfg.Redis)
	}
	if cfg.Checkout.TokenSymbol != "PYUSD" {
		t.Fatalf("unexpected token symbol %q", cfg.Checkout.TokenSymbol)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PAYMENT_TIMEOUT_SECONDS", "5")
	t.Setenv("ORDER_STORE", " Airtable ")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example, ,https://admin.example")
	t.Setenv("AIRTABLE_API_URL", "http://airtable.local/")

	cfg := FromEnv()
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.Checkout.PaymentTimeout != 5*time.Second {
		t.Fatalf("unexpected payment timeout %s", cfg.Checkout.PaymentTimeout)
	}
	if cfg.OrderStore != OrderStoreAirtable {
		t.Fatalf("unexpected order store %q", cfg.OrderStore)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://admin.example" {
		t.Fatalf("unexpected origins %v", cfg.CORSOrigins)
	}
	if cfg.Airtable.BaseURL != "http://airtable.local" {
		t.Fatalf("unexpected airtable url %q", cfg.Airtable.BaseURL)
	}
}
