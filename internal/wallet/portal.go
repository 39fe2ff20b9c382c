package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	DefaultPortalURL = "https://api.portalhq.io"
	DefaultChainID   = "solana:EtWTRABZaYq6iMfeYKouRu166VU2xqa1"
)

// PortalClient is a Gateway backed by the Portal custody API and its signer.
type PortalClient struct {
	baseURL    string
	signerURL  string
	apiKey     string
	chainID    string
	httpClient *http.Client
	logger     *zap.Logger

	mu      sync.RWMutex
	address string
}

func NewPortalClient(baseURL, signerURL, apiKey, chainID string, logger *zap.Logger) *PortalClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultPortalURL
	}
	if chainID == "" {
		chainID = DefaultChainID
	}
	return &PortalClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		signerURL:  strings.TrimSuffix(signerURL, "/"),
		apiKey:     apiKey,
		chainID:    chainID,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type clientResponse struct {
	ID       string `json:"id"`
	Metadata struct {
		Namespaces struct {
			Solana struct {
				Address string `json:"address"`
			} `json:"solana"`
		} `json:"namespaces"`
	} `json:"metadata"`
}

type tokenBalance struct {
	Balance string `json:"balance"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

type assetsResponse struct {
	NativeBalance tokenBalance   `json:"nativeBalance"`
	TokenBalances []tokenBalance `json:"tokenBalances"`
}

type buildTransactionRequest struct {
	To     string `json:"to"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type buildTransactionResponse struct {
	Transaction string `json:"transaction"`
}

type signRequest struct {
	Method  string `json:"method"`
	Params  string `json:"params"`
	ChainID string `json:"chainId"`
}

type signResponse struct {
	Data string `json:"data"`
}

// Init makes sure the client has a wallet and resolves its Solana address.
// Every other call fails with ErrNotReady until Init succeeds.
func (c *PortalClient) Init(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("portal client not configured: api key required")
	}
	addr, err := c.fetchAddress(ctx)
	if err != nil {
		return err
	}
	if addr == "" {
		c.logger.Info("no wallet for client, generating one")
		if err := c.post(ctx, c.signerURL+"/v1/generate", struct{}{}, nil); err != nil {
			return fmt.Errorf("generate wallet: %w", err)
		}
		if addr, err = c.fetchAddress(ctx); err != nil {
			return err
		}
	}
	if err := ValidateAddress(addr); err != nil {
		return err
	}

	c.mu.Lock()
	c.address = addr
	c.mu.Unlock()
	c.logger.Info("wallet ready", zap.String("address", addr), zap.String("chain_id", c.chainID))
	return nil
}

func (c *PortalClient) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address != ""
}

func (c *PortalClient) Address(_ context.Context) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.address == "" {
		return "", ErrNotReady
	}
	return c.address, nil
}

// Balance returns the balance of tokenSymbol, or "0" when the wallet holds none.
func (c *PortalClient) Balance(ctx context.Context, tokenSymbol string) (string, error) {
	if !c.Ready() {
		return "", ErrNotReady
	}
	var assets assetsResponse
	if err := c.get(ctx, c.baseURL+"/api/v3/clients/me/chains/"+c.chainID+"/assets", &assets); err != nil {
		return "", err
	}
	if strings.EqualFold(assets.NativeBalance.Symbol, tokenSymbol) {
		return assets.NativeBalance.Balance, nil
	}
	for _, tb := range assets.TokenBalances {
		if strings.EqualFold(tb.Symbol, tokenSymbol) {
			return tb.Balance, nil
		}
	}
	c.logger.Warn("token balance not found", zap.String("symbol", tokenSymbol))
	return "0", nil
}

// SendPayment builds a transfer of amount tokenID to the recipient, signs and submits it,
// and returns the transaction signature.
func (c *PortalClient) SendPayment(ctx context.Context, to, tokenID string, amount decimal.Decimal) (string, error) {
	if !c.Ready() {
		return "", ErrNotReady
	}
	if err := ValidateAddress(to); err != nil {
		return "", err
	}
	if err := ValidateAddress(tokenID); err != nil {
		return "", fmt.Errorf("token mint: %w", err)
	}
	if !amount.IsPositive() {
		return "", fmt.Errorf("payment amount must be positive, got %s", amount)
	}

	var built buildTransactionResponse
	err := c.post(ctx, c.baseURL+"/api/v3/clients/me/chains/"+c.chainID+"/assets/send/build-transaction",
		buildTransactionRequest{To: to, Token: tokenID, Amount: amount.String()}, &built)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}
	if built.Transaction == "" {
		return "", fmt.Errorf("build transaction: empty transaction")
	}

	var signed signResponse
	err = c.post(ctx, c.signerURL+"/v1/sign",
		signRequest{Method: "sol_signAndSendTransaction", Params: built.Transaction, ChainID: c.chainID}, &signed)
	if err != nil {
		return "", fmt.Errorf("sign and send: %w", err)
	}
	sig, err := solana.SignatureFromBase58(signed.Data)
	if err != nil {
		return "", fmt.Errorf("signer returned invalid signature %q: %w", signed.Data, err)
	}

	c.logger.Info("payment sent",
		zap.String("to", to), zap.String("token", tokenID),
		zap.String("amount", amount.String()), zap.String("signature", sig.String()))
	return sig.String(), nil
}

func (c *PortalClient) fetchAddress(ctx context.Context) (string, error) {
	var me clientResponse
	if err := c.get(ctx, c.baseURL+"/api/v3/clients/me", &me); err != nil {
		return "", fmt.Errorf("fetch client: %w", err)
	}
	return me.Metadata.Namespaces.Solana.Address, nil
}

func (c *PortalClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *PortalClient) post(ctx context.Context, url string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *PortalClient) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("portal request failed", zap.Error(err), zap.String("path", req.URL.Path))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("portal returned %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode portal response: %w", err)
	}
	return nil
}
