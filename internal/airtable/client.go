// Package airtable stores orders in a spreadsheet table through the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultBaseURL = "https://api.airtable.com"

// Client calls the Airtable API with a personal access token.
type Client struct {
	baseURL    string
	apiKey     string
	baseID     string
	table      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL, apiKey, baseID, table string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		baseID:     baseID,
		table:      table,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type record struct {
	ID     string      `json:"id,omitempty"`
	Fields orderFields `json:"fields"`
}

type orderFields struct {
	OrderID         string      `json:"Order ID"`
	CustomerName    string      `json:"Customer Name"`
	Email           string      `json:"Email"`
	StreetAddress   string      `json:"Street Address"`
	City            string      `json:"City"`
	State           string      `json:"State"`
	ZipCode         string      `json:"Zip Code"`
	Country         string      `json:"Country"`
	OrderTotal      json.Number `json:"Order Total"`
	TransactionHash string      `json:"Transaction Hash"`
	OrderDate       string      `json:"Order Date"`
	OrderItems      string      `json:"Order Items"`
	WalletAddress   string      `json:"Wallet Address"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset"`
}

type createRequest struct {
	Records  []record `json:"records"`
	Typecast bool     `json:"typecast"`
}

// Create appends the order unless a row with the same transaction hash already exists,
// in which case that row is returned.
func (c *Client) Create(ctx context.Context, o domain.Order) (*domain.Order, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	existing, err := c.list(ctx, "{Transaction Hash} = "+quote(o.TransactionHash), 1)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		c.logger.Info("order already recorded",
			zap.String("tx_hash", o.TransactionHash), zap.String("order_id", existing[0].OrderID))
		return &existing[0], nil
	}

	fields, err := toFields(o)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(createRequest{Records: []record{{Fields: fields}}, Typecast: true})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp listResponse
	if err := c.do(req, &resp); err != nil {
		c.logger.Warn("airtable create failed", zap.Error(err), zap.String("tx_hash", o.TransactionHash))
		return nil, err
	}
	if len(resp.Records) == 0 {
		return nil, fmt.Errorf("airtable create returned no records")
	}
	return fromFields(resp.Records[0].Fields)
}

// ListByWallet returns every order for the wallet, newest order date first.
func (c *Client) ListByWallet(ctx context.Context, walletAddress string) ([]domain.Order, error) {
	if err := c.configured(); err != nil {
		return nil, err
	}
	return c.list(ctx, "{Wallet Address} = "+quote(walletAddress), 0)
}

func (c *Client) list(ctx context.Context, formula string, maxRecords int) ([]domain.Order, error) {
	var (
		orders []domain.Order
		offset string
	)
	for {
		u, err := url.Parse(c.tableURL())
		if err != nil {
			return nil, err
		}
		q := u.Query()
		q.Set("filterByFormula", formula)
		q.Set("sort[0][field]", "Order Date")
		q.Set("sort[0][direction]", "desc")
		if maxRecords > 0 {
			q.Set("maxRecords", fmt.Sprintf("%d", maxRecords))
		}
		if offset != "" {
			q.Set("offset", offset)
		}
		u.RawQuery = q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		var page listResponse
		if err := c.do(req, &page); err != nil {
			c.logger.Warn("airtable list failed", zap.Error(err))
			return nil, err
		}
		for _, r := range page.Records {
			o, err := fromFields(r.Fields)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", r.ID, err)
			}
			orders = append(orders, *o)
		}
		if page.Offset == "" || (maxRecords > 0 && len(orders) >= maxRecords) {
			return orders, nil
		}
		offset = page.Offset
	}
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("airtable returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode airtable response: %w", err)
	}
	return nil
}

func (c *Client) configured() error {
	if c.apiKey == "" || c.baseID == "" || c.table == "" {
		return fmt.Errorf("airtable client not configured: api key, base id and table required")
	}
	return nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/v0/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
}

func toFields(o domain.Order) (orderFields, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return orderFields{}, fmt.Errorf("marshal order items: %w", err)
	}
	return orderFields{
		OrderID:         o.OrderID,
		CustomerName:    o.ShippingAddress.FullName,
		Email:           o.ShippingAddress.Email,
		StreetAddress:   o.ShippingAddress.Street,
		City:            o.ShippingAddress.City,
		State:           o.ShippingAddress.State,
		ZipCode:         o.ShippingAddress.ZipCode,
		Country:         o.ShippingAddress.Country,
		OrderTotal:      json.Number(o.Total.String()),
		TransactionHash: o.TransactionHash,
		OrderDate:       o.OrderDate.UTC().Format(time.DateOnly),
		OrderItems:      string(items),
		WalletAddress:   o.WalletAddress,
	}, nil
}

func fromFields(f orderFields) (*domain.Order, error) {
	o := &domain.Order{
		OrderID:       f.OrderID,
		WalletAddress: f.WalletAddress,
		ShippingAddress: domain.ShippingAddress{
			FullName: f.CustomerName,
			Street:   f.StreetAddress,
			City:     f.City,
			State:    f.State,
			ZipCode:  f.ZipCode,
			Country:  f.Country,
			Email:    f.Email,
		},
		TransactionHash: f.TransactionHash,
	}
	if f.OrderTotal != "" {
		total, err := decimal.NewFromString(f.OrderTotal.String())
		if err != nil {
			return nil, fmt.Errorf("parse order total %q: %w", f.OrderTotal, err)
		}
		o.Total = total
	}
	if f.OrderDate != "" {
		date, err := time.Parse(time.DateOnly, f.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("parse order date %q: %w", f.OrderDate, err)
		}
		o.OrderDate = date
	}
	if f.OrderItems != "" {
		if err := json.Unmarshal([]byte(f.OrderItems), &o.Items); err != nil {
			return nil, fmt.Errorf("parse order items: %w", err)
		}
	}
	return o, nil
}

// quote renders s as a formula string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
