package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"commerce-service/internal/domain"
)

const CardName = "card"

type cardChargeRequest struct {
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"payment_method_type"`
	Reference   string `json:"metadata_order"`
}

type cardChargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type cardWebhook struct {
	Type string `json:"type"`
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

// CardGateway signs webhooks as "t=<unix>,v1=<hex>" over "<t>.<body>".
type CardGateway struct {
	client *client
	secret string
	now    func() time.Time
}

var _ Gateway = (*CardGateway)(nil)

func NewCardGateway(cfg Config) *CardGateway {
	return &CardGateway{client: newClient(CardName, cfg), secret: cfg.WebhookSecret, now: time.Now}
}

func (g *CardGateway) Name() string { return CardName }

func (g *CardGateway) Supports(method domain.PaymentMethod) bool {
	return method == domain.MethodCreditCard || method == domain.MethodDebitCard
}

func (g *CardGateway) Charge(ctx context.Context, order *domain.Order, method domain.PaymentMethod) (string, error) {
	req := cardChargeRequest{
		AmountCents: order.Total.Shift(2).Round(0).IntPart(),
		Currency:    "brl",
		Method:      string(method),
		Reference:   order.Number,
	}
	var resp cardChargeResponse
	if err := g.client.post(ctx, "/v1/payment_intents", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", permanent(CardName, fmt.Errorf("response without id"))
	}
	return resp.ID, nil
}

func (g *CardGateway) HandleWebhook(_ context.Context, header http.Header, payload []byte) (*WebhookResult, error) {
	if err := g.verify(header.Get("X-Card-Signature"), payload); err != nil {
		return nil, permanent(CardName, err)
	}

	var hook cardWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.Data.ID == "" {
		return nil, permanent(CardName, fmt.Errorf("malformed payload: %v", err))
	}

	status, ok := map[string]domain.PaymentStatus{
		"payment_intent.processing":     domain.PaymentPending,
		"payment_intent.succeeded":      domain.PaymentPaid,
		"payment_intent.payment_failed": domain.PaymentFailed,
		"payment_intent.canceled":       domain.PaymentCancelled,
		"charge.refunded":               domain.PaymentRefunded,
	}[hook.Type]
	if !ok {
		return nil, unknownStatus(CardName, hook.Type)
	}
	return &WebhookResult{ExternalRef: hook.Data.ID, Status: status}, nil
}

func (g *CardGateway) verify(header string, payload []byte) error {
	if g.secret == "" {
		return ErrNotConfigured
	}

	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts = value
		case "v1":
			sig = value
		}
	}
	if ts == "" || sig == "" {
		return ErrInvalidSignature
	}
	if err := checkTimestamp(ts, g.now()); err != nil {
		return err
	}
	return verifyHex(g.secret, sig, []byte(ts), []byte("."), payload)
}
