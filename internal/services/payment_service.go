package services

import (
	"context"
	"errors"
	"log"
	"net/http"

	"commerce-service/internal/domain"
	"commerce-service/internal/infra/gateway"
	"commerce-service/internal/repository"
)

type GatewayRegistry interface {
	ByName(name string) (gateway.Gateway, bool)
	ForMethod(method domain.PaymentMethod) (gateway.Gateway, bool)
}

// PaymentApplier is the part of OrderService webhooks drive.
type PaymentApplier interface {
	ApplyPaymentStatus(ctx context.Context, orderID uint64, status domain.PaymentStatus, externalRef string) (*domain.Order, error)
}

type PaymentService struct {
	repos    Repositories
	gateways GatewayRegistry
	orders   PaymentApplier
}

func NewPaymentService(repos Repositories, gateways GatewayRegistry, orders PaymentApplier) *PaymentService {
	return &PaymentService{repos: repos, gateways: gateways, orders: orders}
}

// Charge opens a payment for a pending order with the gateway serving method.
// Gateway errors are returned as they are so callers can tell transient ones.
func (s *PaymentService) Charge(ctx context.Context, orderID uint64, method domain.PaymentMethod) (*domain.Payment, error) {
	if !method.Valid() {
		return nil, domain.NewValidationError("method", "must be one of: pix credit_card debit_card boleto wallet")
	}

	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, serviceError("charge", notFound("order", orderID, err))
	}
	if order.Status != domain.StatusPending || order.PaymentStatus == domain.PaymentPaid {
		return nil, &domain.ConflictError{Entity: "order", ID: order.ID, Reason: "order is not awaiting payment"}
	}

	gw, ok := s.gateways.ForMethod(method)
	if !ok {
		return nil, domain.NewValidationError("method", "no gateway configured for "+string(method))
	}

	ref, err := gw.Charge(ctx, order, method)
	if err != nil {
		log.Printf("[payment] charge order %d via %s failed: %v", order.ID, gw.Name(), err)
		return nil, err
	}

	payment := &domain.Payment{
		OrderID:     order.ID,
		Method:      method,
		Gateway:     gw.Name(),
		ExternalRef: ref,
		Amount:      order.Total,
		Status:      domain.PaymentPending,
	}
	if err := s.repos.Payments.Create(ctx, payment); err != nil {
		return nil, serviceError("store payment", err)
	}

	log.Printf("[payment] order %d charged via %s, ref=%s amount=%s", order.ID, gw.Name(), ref, payment.Amount)
	return payment, nil
}

// HandleWebhook verifies a provider notification and applies it to the
// payment and its order. Replays and stale notifications succeed without
// side effects.
func (s *PaymentService) HandleWebhook(ctx context.Context, gatewayName string, header http.Header, payload []byte) (*domain.Order, error) {
	gw, ok := s.gateways.ByName(gatewayName)
	if !ok {
		return nil, &domain.NotFoundError{Entity: "gateway", ID: gatewayName}
	}

	res, err := gw.HandleWebhook(ctx, header, payload)
	if err != nil {
		log.Printf("[payment] rejected %s webhook: %v", gatewayName, err)
		return nil, err
	}

	payment, err := s.repos.Payments.FindByExternalRef(ctx, gw.Name(), res.ExternalRef)
	if err != nil {
		return nil, serviceError("webhook", notFound("payment", res.ExternalRef, err))
	}

	if res.Status.Supersedes(payment.Status) {
		err := s.repos.Payments.UpdateStatus(ctx, payment.ID, payment.Status, res.Status)
		switch {
		case err == nil:
			payment.Status = res.Status
		case errors.Is(err, repository.ErrStaleState):
			log.Printf("[payment] payment %d changed concurrently, leaving it to the newer notification", payment.ID)
		default:
			return nil, serviceError("webhook", err)
		}
	}

	return s.orders.ApplyPaymentStatus(ctx, payment.OrderID, res.Status, res.ExternalRef)
}
