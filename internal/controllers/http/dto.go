package http

import (
	"commerce-service/internal/domain"
	"commerce-service/internal/services"
)

type ErrorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details []domain.FieldError `json:"details,omitempty"`
}

type TransitionStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

type FulfillItemsRequest struct {
	Items []services.ItemFulfillment `json:"items"`
}

type ChargeRequest struct {
	Method domain.PaymentMethod `json:"method"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type WebhookResponse struct {
	OrderID       uint64               `json:"orderId"`
	Status        domain.OrderStatus   `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
}
