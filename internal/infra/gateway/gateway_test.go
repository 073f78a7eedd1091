package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"commerce-service/internal/domain"
)

const secret = "whsec_test"

func hexMAC(parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write([]byte(p))
	}
	return hex.EncodeToString(mac.Sum(nil))
}

func testOrder() *domain.Order {
	return &domain.Order{ID: 7, Number: "0b6f3c1e", Total: decimal.RequireFromString("123.45")}
}

func requireGatewayError(t *testing.T, err error, transient bool) {
	t.Helper()
	require.Error(t, err)
	var gwErr *domain.GatewayError
	require.True(t, errors.As(err, &gwErr), "expected GatewayError, got %T", err)
	assert.Equal(t, transient, gwErr.Transient)
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestClient_Classification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       bool
		wantTransient bool
	}{
		{name: "ok", status: http.StatusOK, body: `{"txid":"tx-1"}`},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: true, wantTransient: true},
		{name: "server error", status: http.StatusBadGateway, wantErr: true, wantTransient: true},
		{name: "declined", status: http.StatusUnprocessableEntity, body: `{"error":"declined"}`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer key-1", r.Header.Get("Authorization"))
				assert.Equal(t, "/cob", r.URL.Path)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			g := NewPixGateway(Config{BaseURL: srv.URL, APIKey: "key-1"})
			ref, err := g.Charge(context.Background(), testOrder(), domain.MethodPix)
			if tt.wantErr {
				requireGatewayError(t, err, tt.wantTransient)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tx-1", ref)
		})
	}
}

func TestClient_TransportFailureIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	g := NewWalletGateway(Config{BaseURL: url})
	_, err := g.Charge(context.Background(), testOrder(), domain.MethodWallet)
	requireGatewayError(t, err, true)
}

func TestClient_TimeoutIsTransient(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	g := NewBoletoGateway(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := g.Charge(context.Background(), testOrder(), domain.MethodBoleto)
	requireGatewayError(t, err, true)
}

func TestClient_NotConfigured(t *testing.T) {
	g := NewPixGateway(Config{})
	_, err := g.Charge(context.Background(), testOrder(), domain.MethodPix)
	requireGatewayError(t, err, false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCardGateway_ChargeSendsCents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req cardChargeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(12345), req.AmountCents)
		assert.Equal(t, "debit_card", req.Method)
		_, _ = w.Write([]byte(`{"id":"pi_1","status":"requires_action"}`))
	}))
	defer srv.Close()

	g := NewCardGateway(Config{BaseURL: srv.URL})
	ref, err := g.Charge(context.Background(), testOrder(), domain.MethodDebitCard)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", ref)
}

func TestPixGateway_HandleWebhook(t *testing.T) {
	body := `{"txid":"tx-1","status":"CONCLUIDA"}`
	tests := []struct {
		name       string
		body       string
		signature  string
		wantStatus domain.PaymentStatus
		wantErr    error
	}{
		{name: "paid", body: body, signature: hexMAC(body), wantStatus: domain.PaymentPaid},
		{name: "bad signature", body: body, signature: hexMAC("other"), wantErr: ErrInvalidSignature},
		{name: "missing signature", body: body, wantErr: ErrInvalidSignature},
		{name: "unknown status", body: `{"txid":"tx-1","status":"X"}`, signature: hexMAC(`{"txid":"tx-1","status":"X"}`), wantErr: ErrUnknownStatus},
		{name: "malformed", body: `nope`, signature: hexMAC(`nope`)},
	}

	g := NewPixGateway(Config{WebhookSecret: secret})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.signature != "" {
				h.Set("X-Pix-Signature", tt.signature)
			}
			res, err := g.HandleWebhook(context.Background(), h, []byte(tt.body))
			if tt.wantStatus == "" {
				requireGatewayError(t, err, false)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tx-1", res.ExternalRef)
			assert.Equal(t, tt.wantStatus, res.Status)
		})
	}
}

func TestCardGateway_HandleWebhook(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	body := `{"type":"payment_intent.succeeded","data":{"id":"pi_1"}}`
	ts := strconv.FormatInt(now.Unix(), 10)
	old := strconv.FormatInt(now.Add(-6*time.Minute).Unix(), 10)

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{name: "valid", header: "t=" + ts + ",v1=" + hexMAC(ts, ".", body)},
		{name: "stale timestamp", header: "t=" + old + ",v1=" + hexMAC(old, ".", body), wantErr: true},
		{name: "signature over body only", header: "t=" + ts + ",v1=" + hexMAC(body), wantErr: true},
		{name: "missing v1", header: "t=" + ts, wantErr: true},
	}

	g := NewCardGateway(Config{WebhookSecret: secret})
	g.now = func() time.Time { return now }

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			h.Set("X-Card-Signature", tt.header)
			res, err := g.HandleWebhook(context.Background(), h, []byte(body))
			if tt.wantErr {
				requireGatewayError(t, err, false)
				assert.ErrorIs(t, err, ErrInvalidSignature)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, &WebhookResult{ExternalRef: "pi_1", Status: domain.PaymentPaid}, res)
		})
	}
}

func TestBoletoGateway_HandleWebhook(t *testing.T) {
	body := `{"id":"bol-9","situacao":"VENCIDO"}`
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))

	g := NewBoletoGateway(Config{WebhookSecret: secret})

	h := http.Header{}
	h.Set("X-Boleto-Signature", base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	res, err := g.HandleWebhook(context.Background(), h, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentFailed, res.Status)
	assert.Equal(t, "bol-9", res.ExternalRef)

	h.Set("X-Boleto-Signature", hexMAC(body))
	_, err = g.HandleWebhook(context.Background(), h, []byte(body))
	requireGatewayError(t, err, false)
}

func TestWalletGateway_HandleWebhook(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ts := strconv.FormatInt(now.Unix(), 10)
	body := `{"payment_id":"w-3","event":"REFUNDED"}`

	g := NewWalletGateway(Config{WebhookSecret: secret})
	g.now = func() time.Time { return now }

	h := http.Header{}
	h.Set("X-Wallet-Timestamp", ts)
	h.Set("X-Wallet-Signature", hexMAC(ts, body))
	res, err := g.HandleWebhook(context.Background(), h, []byte(body))
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, res.Status)

	h.Set("X-Wallet-Timestamp", strconv.FormatInt(now.Unix()+1, 10))
	_, err = g.HandleWebhook(context.Background(), h, []byte(body))
	requireGatewayError(t, err, false)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestWebhook_WithoutSecretIsRejected(t *testing.T) {
	g := NewPixGateway(Config{BaseURL: "http://pix.local"})
	_, err := g.HandleWebhook(context.Background(), http.Header{}, []byte(`{}`))
	requireGatewayError(t, err, false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(
		NewPixGateway(Config{}),
		NewCardGateway(Config{}),
		NewBoletoGateway(Config{}),
		NewWalletGateway(Config{}),
	)

	tests := []struct {
		method domain.PaymentMethod
		want   string
	}{
		{domain.MethodPix, PixName},
		{domain.MethodCreditCard, CardName},
		{domain.MethodDebitCard, CardName},
		{domain.MethodBoleto, BoletoName},
		{domain.MethodWallet, WalletName},
	}
	for _, tt := range tests {
		g, ok := r.ForMethod(tt.method)
		require.True(t, ok, tt.method)
		assert.Equal(t, tt.want, g.Name())
	}

	_, ok := r.ForMethod("cash")
	assert.False(t, ok)

	g, ok := r.ByName(BoletoName)
	require.True(t, ok)
	assert.True(t, g.Supports(domain.MethodBoleto))
	assert.Equal(t, []string{BoletoName, CardName, PixName, WalletName}, r.Names())
}
