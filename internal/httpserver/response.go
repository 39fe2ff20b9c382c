package httpserver

import (
	"time"

	"storefront/internal/domain"
	checkoutsvc "storefront/internal/service/checkout"

	"github.com/shopspring/decimal"
)

type productResponse struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	Image       string   `json:"image"`
	Sizes       []string `json:"sizes,omitempty"`
}

type lineResponse struct {
	ItemID    int    `json:"id"`
	Name      string `json:"name"`
	UnitPrice string `json:"price"`
	Image     string `json:"image,omitempty"`
	Size      string `json:"size,omitempty"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type cartResponse struct {
	Lines     []lineResponse `json:"lines"`
	Total     string         `json:"total"`
	IsOpen    bool           `json:"isOpen"`
	ItemCount int            `json:"itemCount"`
}

type orderResponse struct {
	OrderID         string                 `json:"orderId"`
	Date            string                 `json:"date"`
	Total           string                 `json:"total"`
	Items           []lineResponse         `json:"items"`
	TransactionHash string                 `json:"transactionHash"`
	WalletAddress   string                 `json:"walletAddress"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
}

type attemptResponse struct {
	Status          string                `json:"status"`
	TransactionHash string                `json:"transactionHash,omitempty"`
	Total           string                `json:"total"`
	Reason          string                `json:"reason,omitempty"`
	Redirect        string                `json:"redirect,omitempty"`
	Confirmation    *confirmationResponse `json:"confirmation,omitempty"`
}

type confirmationResponse struct {
	Status          string                 `json:"status"`
	OrderID         string                 `json:"orderId,omitempty"`
	TransactionHash string                 `json:"transactionHash"`
	Total           string                 `json:"total"`
	Items           []lineResponse         `json:"items"`
	ShippingAddress domain.ShippingAddress `json:"shippingAddress"`
	Warning         string                 `json:"warning,omitempty"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	SessionID string `json:"sessionId"`
	ExpiresIn int    `json:"expiresIn"`
}

type errorBody struct {
	Error           string   `json:"error"`
	Message         string   `json:"message"`
	Fields          []string `json:"fields,omitempty"`
	TransactionHash string   `json:"transactionHash,omitempty"`
	Redirect        string   `json:"redirect,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toProduct(it domain.CatalogItem) productResponse {
	return productResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       money(it.UnitPrice),
		Image:       it.ImageRef,
		Sizes:       it.SizeVariants,
	}
}

func toLines(lines []domain.CartLine) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{
			ItemID:    l.ItemID,
			Name:      l.Name,
			UnitPrice: money(l.UnitPrice),
			Image:     l.ImageRef,
			Size:      l.Size,
			Quantity:  l.Quantity,
			Subtotal:  money(l.Subtotal()),
		})
	}
	return out
}

func toCart(s domain.CartState) cartResponse {
	return cartResponse{
		Lines:     toLines(s.Lines),
		Total:     money(s.Total),
		IsOpen:    s.IsOpen,
		ItemCount: s.ItemCount(),
	}
}

func toOrder(o domain.Order) orderResponse {
	return orderResponse{
		OrderID:         o.OrderID,
		Date:            o.OrderDate.UTC().Format(time.DateOnly),
		Total:           money(o.Total),
		Items:           toLines(o.Items),
		TransactionHash: o.TransactionHash,
		WalletAddress:   o.WalletAddress,
		ShippingAddress: o.ShippingAddress,
	}
}

func toAttempt(a *checkoutsvc.Attempt) attemptResponse {
	resp := attemptResponse{
		Status:          a.Status.String(),
		TransactionHash: a.TxHash,
		Total:           money(a.Total),
		Reason:          a.Reason,
	}
	if a.Confirmation != nil {
		conf := toConfirmation(a.Confirmation)
		resp.Confirmation = &conf
	}
	return resp
}

func toConfirmation(c *checkoutsvc.Confirmation) confirmationResponse {
	return confirmationResponse{
		Status:          c.Status.String(),
		OrderID:         c.OrderID,
		TransactionHash: c.TxHash,
		Total:           money(c.Total),
		Items:           toLines(c.Items),
		ShippingAddress: c.ShippingAddress,
		Warning:         c.Warning,
	}
}
