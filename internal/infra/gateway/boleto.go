package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"commerce-service/internal/domain"
)

const BoletoName = "boleto"

type boletoPayer struct {
	Name  string `json:"nome,omitempty"`
	Email string `json:"email,omitempty"`
}

type boletoChargeRequest struct {
	OurNumber string      `json:"nosso_numero"`
	Amount    string      `json:"valor"`
	DueDate   string      `json:"vencimento"`
	Payer     boletoPayer `json:"pagador"`
}

type boletoChargeResponse struct {
	ID          string `json:"id"`
	DigitLine   string `json:"linha_digitavel"`
	DownloadURL string `json:"url_pdf"`
}

type boletoWebhook struct {
	ID     string `json:"id"`
	Status string `json:"situacao"`
}

// BoletoGateway signs webhooks with a base64 HMAC-SHA256 of the raw body.
type BoletoGateway struct {
	client  *client
	secret  string
	dueDays int
	now     func() time.Time
}

var _ Gateway = (*BoletoGateway)(nil)

func NewBoletoGateway(cfg Config) *BoletoGateway {
	return &BoletoGateway{client: newClient(BoletoName, cfg), secret: cfg.WebhookSecret, dueDays: 3, now: time.Now}
}

func (g *BoletoGateway) Name() string { return BoletoName }

func (g *BoletoGateway) Supports(method domain.PaymentMethod) bool {
	return method == domain.MethodBoleto
}

func (g *BoletoGateway) Charge(ctx context.Context, order *domain.Order, _ domain.PaymentMethod) (string, error) {
	req := boletoChargeRequest{
		OurNumber: order.Number,
		Amount:    order.Total.StringFixed(2),
		DueDate:   g.now().AddDate(0, 0, g.dueDays).Format("2006-01-02"),
		Payer:     boletoPayer{Name: order.Guest.Name, Email: order.Guest.Email},
	}
	var resp boletoChargeResponse
	if err := g.client.post(ctx, "/boletos", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", permanent(BoletoName, fmt.Errorf("response without id"))
	}
	return resp.ID, nil
}

func (g *BoletoGateway) HandleWebhook(_ context.Context, header http.Header, payload []byte) (*WebhookResult, error) {
	if err := verifyBase64(g.secret, header.Get("X-Boleto-Signature"), payload); err != nil {
		return nil, permanent(BoletoName, err)
	}

	var hook boletoWebhook
	if err := json.Unmarshal(payload, &hook); err != nil || hook.ID == "" {
		return nil, permanent(BoletoName, fmt.Errorf("malformed payload: %v", err))
	}

	status, ok := map[string]domain.PaymentStatus{
		"REGISTRADO": domain.PaymentPending,
		"PAGO":       domain.PaymentPaid,
		"VENCIDO":    domain.PaymentFailed,
		"CANCELADO":  domain.PaymentCancelled,
		"ESTORNADO":  domain.PaymentRefunded,
	}[hook.Status]
	if !ok {
		return nil, unknownStatus(BoletoName, hook.Status)
	}
	return &WebhookResult{ExternalRef: hook.ID, Status: status}, nil
}
