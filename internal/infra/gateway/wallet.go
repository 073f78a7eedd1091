package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"commerce-service/internal/domain"
)

const WalletName = "wallet"

type walletChargeRequest struct {
	OrderRef string `json:"order_ref"`
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type walletChargeResponse struct {
	PaymentID   string `json:"payment_id"`
	RedirectURL string `json:"redirect_url"`
}

type walletWebhook struct {
	PaymentID string `json:"payment_id"`
	Event     string `json:"event"`
}

// WalletGateway signs webhooks with hex HMAC-SHA256 of timestamp + body, the
// timestamp travelling in its own header.
type WalletGateway struct {
	client *client
	secret string
	now    func() time.Time
}

var _ Gateway = (*WalletGateway)(nil)

func NewWalletGateway(cfg Config) *WalletGateway {
	return &WalletGateway{client: newClient(WalletName, cfg), secret: cfg.WebhookSecret, now: time.Now}
}

func (g *WalletGateway) Name() string { return WalletName }

func (g *WalletGateway) Supports(method domain.PaymentMethod) bool {
	return method == domain.MethodWallet
}

func (g *WalletGateway) Charge(ctx context.Context, order *domain.Order, _ domain.PaymentMethod) (string, error) {
	req := walletChargeRequest{
		OrderRef: order.Number,
		Amount:   order.Total.StringFixed(2),
		Currency: "BRL",
	}
	var resp walletChargeResponse
	if err := g.client.post(ctx, "/payments", req, &resp); err != nil {
		return "", err
	}
	if resp.PaymentID == "" {
		return "", permanent(WalletName, fmt.Errorf("response without payment_id"))
	}
	return resp.PaymentID, nil
}

func (g *WalletGateway) HandleWebhook(_ context.Context, header http.Header, payload []byte) (*WebhookResult, error) {
	if g.secret == "" {
		return nil, permanent(WalletName, ErrNotConfigured)
	}
	ts := header.Get("X-Wallet-Timestamp")
	if err := checkTimestamp(ts, g.now()); err != nil {
		return nil, permanent(WalletName, err)
	}
	if err := verifyHex(g.secret, header.Get("X-Wallet-Signature"), []byte(ts), payload); err != nil {
		return nil, permanent(WalletName, err)
	}

	var hook walletWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.PaymentID == "" {
		return nil, permanent(WalletName, fmt.Errorf("malformed payload: %v", err))
	}

	status, ok := map[string]domain.PaymentStatus{
		"CREATED":   domain.PaymentPending,
		"COMPLETED": domain.PaymentPaid,
		"DECLINED":  domain.PaymentFailed,
		"VOIDED":    domain.PaymentCancelled,
		"REFUNDED":  domain.PaymentRefunded,
	}[hook.Event]
	if !ok {
		return nil, unknownStatus(WalletName, hook.Event)
	}
	return &WebhookResult{ExternalRef: hook.PaymentID, Status: status}, nil
}
