package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"commerce-service/internal/domain"
)

const PixName = "pix"

type pixChargeRequest struct {
	Reference   string `json:"reference"`
	Amount      string `json:"valor"`
	PayerName   string `json:"nomePagador,omitempty"`
	ExpiresInS  int    `json:"expiracao"`
	Description string `json:"solicitacaoPagador,omitempty"`
}

type pixChargeResponse struct {
	TxID   string `json:"txid"`
	Status string `json:"status"`
	QRCode string `json:"pixCopiaECola"`
}

type pixWebhook struct {
	TxID   string `json:"txid"`
	Status string `json:"status"`
}

// PixGateway signs webhooks with a hex HMAC-SHA256 of the raw body.
type PixGateway struct {
	client *client
	secret string
}

var _ Gateway = (*PixGateway)(nil)

func NewPixGateway(cfg Config) *PixGateway {
	return &PixGateway{client: newClient(PixName, cfg), secret: cfg.WebhookSecret}
}

func (g *PixGateway) Name() string { return PixName }

func (g *PixGateway) Supports(method domain.PaymentMethod) bool {
	return method == domain.MethodPix
}

func (g *PixGateway) Charge(ctx context.Context, order *domain.Order, _ domain.PaymentMethod) (string, error) {
	req := pixChargeRequest{
		Reference:   order.Number,
		Amount:      order.Total.StringFixed(2),
		PayerName:   order.Guest.Name,
		ExpiresInS:  3600,
		Description: fmt.Sprintf("Pedido %s", order.Number),
	}
	var resp pixChargeResponse
	if err := g.client.post(ctx, "/cob", req, &resp); err != nil {
		return "", err
	}
	if resp.TxID == "" {
		return "", permanent(PixName, fmt.Errorf("response without txid"))
	}
	return resp.TxID, nil
}

func (g *PixGateway) HandleWebhook(_ context.Context, header http.Header, payload []byte) (*WebhookResult, error) {
	if err := verifyHex(g.secret, header.Get("X-Pix-Signature"), payload); err != nil {
		return nil, permanent(PixName, err)
	}

	var hook pixWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.TxID == "" {
		return nil, permanent(PixName, fmt.Errorf("malformed payload: %v", err))
	}

	status, ok := map[string]domain.PaymentStatus{
		"ATIVA":                           domain.PaymentPending,
		"CONCLUIDA":                       domain.PaymentPaid,
		"REMOVIDA_PELO_USUARIO_RECEBEDOR": domain.PaymentCancelled,
		"REMOVIDA_PELO_PSP":               domain.PaymentFailed,
		"DEVOLVIDA":                       domain.PaymentRefunded,
	}[hook.Status]
	if !ok {
		return nil, unknownStatus(PixName, hook.Status)
	}
	return &WebhookResult{ExternalRef: hook.TxID, Status: status}, nil
}
