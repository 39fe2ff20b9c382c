package wallet

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortal struct {
	address   string
	generated atomic.Int32
	signed    atomic.Int32
	signature string
	lastBuild buildTransactionRequest
	lastSign  signRequest
}

func (f *fakePortal) server(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/clients/me", func(w http.ResponseWriter, r *http.Request) {
		var resp clientResponse
		resp.ID = "client-1"
		resp.Metadata.Namespaces.Solana.Address = f.address
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("POST /signer/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		f.generated.Add(1)
		f.address = solana.NewWallet().PublicKey().String()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/v3/clients/me/chains/{chain}/assets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(assetsResponse{
			NativeBalance: tokenBalance{Balance: "1.5", Symbol: "SOL"},
			TokenBalances: []tokenBalance{{Balance: "120.25", Symbol: "PYUSD"}},
		})
	})
	mux.HandleFunc("POST /api/v3/clients/me/chains/{chain}/assets/send/build-transaction", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&f.lastBuild)
		_ = json.NewEncoder(w).Encode(buildTransactionResponse{Transaction: "AQID"})
	})
	mux.HandleFunc("POST /signer/v1/sign", func(w http.ResponseWriter, r *http.Request) {
		f.signed.Add(1)
		_ = json.NewDecoder(r.Body).Decode(&f.lastSign)
		_ = json.NewEncoder(w).Encode(signResponse{Data: f.signature})
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer pk" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func validSignature() string {
	var sig solana.Signature
	for i := range sig {
		sig[i] = byte(i + 1)
	}
	return sig.String()
}

func newReadyClient(t *testing.T, f *fakePortal) *PortalClient {
	srv := f.server(t)
	c := NewPortalClient(srv.URL, srv.URL+"/signer", "pk", "", nil)
	require.NoError(t, c.Init(context.Background()))
	return c
}

func TestCallsBeforeInitAreNotReady(t *testing.T) {
	c := NewPortalClient("http://unused", "http://unused", "pk", "", nil)
	ctx := context.Background()

	_, err := c.Address(ctx)
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = c.Balance(ctx, "PYUSD")
	assert.ErrorIs(t, err, ErrNotReady)
	_, err = c.SendPayment(ctx, solana.NewWallet().PublicKey().String(), solana.NewWallet().PublicKey().String(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestInit_ExistingWallet(t *testing.T) {
	addr := solana.NewWallet().PublicKey().String()
	f := &fakePortal{address: addr}
	c := newReadyClient(t, f)

	got, err := c.Address(context.Background())
	require.NoError(t, err)
	assert.Equal(t, addr, got)
	assert.Zero(t, f.generated.Load())
}

func TestInit_GeneratesMissingWallet(t *testing.T) {
	f := &fakePortal{}
	c := newReadyClient(t, f)

	got, err := c.Address(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.Equal(t, int32(1), f.generated.Load())
}

func TestInit_RequiresAPIKey(t *testing.T) {
	c := NewPortalClient("http://unused", "", "", "", nil)
	assert.Error(t, c.Init(context.Background()))
	assert.False(t, c.Ready())
}

func TestBalance(t *testing.T) {
	f := &fakePortal{address: solana.NewWallet().PublicKey().String()}
	c := newReadyClient(t, f)
	ctx := context.Background()

	bal, err := c.Balance(ctx, "PYUSD")
	require.NoError(t, err)
	assert.Equal(t, "120.25", bal)

	bal, err = c.Balance(ctx, "sol")
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal)

	bal, err = c.Balance(ctx, "USDC")
	require.NoError(t, err)
	assert.Equal(t, "0", bal)
}

func TestSendPayment(t *testing.T) {
	f := &fakePortal{address: solana.NewWallet().PublicKey().String(), signature: validSignature()}
	c := newReadyClient(t, f)
	to := solana.NewWallet().PublicKey().String()
	mint := solana.NewWallet().PublicKey().String()

	hash, err := c.SendPayment(context.Background(), to, mint, decimal.RequireFromString("50.00"))
	require.NoError(t, err)
	assert.Equal(t, validSignature(), hash)
	assert.Equal(t, buildTransactionRequest{To: to, Token: mint, Amount: "50"}, f.lastBuild)
	assert.Equal(t, "sol_signAndSendTransaction", f.lastSign.Method)
	assert.Equal(t, "AQID", f.lastSign.Params)
	assert.Equal(t, DefaultChainID, f.lastSign.ChainID)
}

func TestSendPayment_RejectsBadInput(t *testing.T) {
	f := &fakePortal{address: solana.NewWallet().PublicKey().String(), signature: validSignature()}
	c := newReadyClient(t, f)
	ctx := context.Background()
	good := solana.NewWallet().PublicKey().String()

	_, err := c.SendPayment(ctx, "not-an-address", good, decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = c.SendPayment(ctx, good, "0x1234", decimal.NewFromInt(1))
	assert.Error(t, err)
	_, err = c.SendPayment(ctx, good, good, decimal.Zero)
	assert.Error(t, err)
	assert.Zero(t, f.signed.Load())
}

func TestSendPayment_InvalidSignature(t *testing.T) {
	f := &fakePortal{address: solana.NewWallet().PublicKey().String(), signature: "garbage!"}
	c := newReadyClient(t, f)
	good := solana.NewWallet().PublicKey().String()

	_, err := c.SendPayment(context.Background(), good, good, decimal.NewFromInt(5))
	assert.ErrorContains(t, err, "invalid signature")
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress(solana.NewWallet().PublicKey().String()))
	assert.Error(t, ValidateAddress(""))
	assert.Error(t, ValidateAddress("abc123"))
}
