package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ShippingAddress struct {
	FullName string `json:"fullName"`
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
	Country  string `json:"country"`
	Email    string `json:"email"`
}

// MissingFields lists the json names of blank fields.
func (a ShippingAddress) MissingFields() []string {
	fields := []struct {
		name  string
		value string
	}{
		{"fullName", a.FullName},
		{"email", a.Email},
		{"street", a.Street},
		{"city", a.City},
		{"state", a.State},
		{"zipCode", a.ZipCode},
		{"country", a.Country},
	}
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// PendingOrder is the checkout snapshot held between payment and order submission.
type PendingOrder struct {
	Lines           []CartLine      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	TransactionHash string          `json:"txnHash"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Order is the immutable record kept by the order store.
type Order struct {
	OrderID         string          `json:"orderId"`
	WalletAddress   string          `json:"walletAddress"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	Items           []CartLine      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	TransactionHash string          `json:"transactionHash"`
	OrderDate       time.Time       `json:"date"`
}
