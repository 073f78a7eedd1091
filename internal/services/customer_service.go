package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"commerce-service/internal/auth"
	"commerce-service/internal/domain"
	"commerce-service/internal/notification"
	"commerce-service/internal/repository"
	"commerce-service/internal/validation"
)

type AddressInput struct {
	domain.Address
	Type      domain.AddressType `json:"type,omitempty" validate:"omitempty,oneof=home work other"`
	IsDefault bool               `json:"isDefault"`
}

type CreateCustomerInput struct {
	Name             string         `json:"name" validate:"required,max=150"`
	Email            string         `json:"email" validate:"required,email,max=255"`
	Phone            string         `json:"phone,omitempty" validate:"max=32"`
	AcceptsMarketing bool           `json:"acceptsMarketing"`
	Tags             []string       `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	Addresses        []AddressInput `json:"addresses,omitempty" validate:"dive"`
}

type CustomerService struct {
	repos    Repositories
	notifier notification.Notifier
	secret   string
	resetTTL time.Duration
	now      func() time.Time
}

func NewCustomerService(repos Repositories, notifier notification.Notifier, jwtSecret string, resetTTL time.Duration) *CustomerService {
	return &CustomerService{
		repos:    repos,
		notifier: notifier,
		secret:   jwtSecret,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, in CreateCustomerInput) (*domain.Customer, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	customer := &domain.Customer{
		Name:             strings.TrimSpace(in.Name),
		Email:            strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:            strings.TrimSpace(in.Phone),
		AcceptsMarketing: in.AcceptsMarketing,
		Tags:             domain.StringList(in.Tags),
	}
	if customer.Tags == nil {
		customer.Tags = domain.StringList{}
	}

	hasDefault := false
	for _, a := range in.Addresses {
		if a.IsDefault && !hasDefault {
			hasDefault = true
			customer.Addresses = append(customer.Addresses, newCustomerAddress(a, true))
			continue
		}
		customer.Addresses = append(customer.Addresses, newCustomerAddress(a, false))
	}
	if !hasDefault && len(customer.Addresses) > 0 {
		customer.Addresses[0].IsDefault = true
	}

	if err := s.repos.Customers.Create(ctx, customer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &domain.ConflictError{Entity: "customer", ID: customer.Email, Reason: "email already registered"}
		}
		return nil, serviceError("create customer", err)
	}

	log.Printf("[customer] created customer %d", customer.ID)
	if s.notifier != nil {
		s.notifier.Notify(ctx, notification.Message{
			To:   customer.Email,
			Kind: notification.KindWelcome,
			Data: map[string]any{"Name": customer.Name},
		})
	}
	return customer, nil
}

func (s *CustomerService) GetCustomer(ctx context.Context, id uint64) (*domain.Customer, error) {
	c, err := s.repos.Customers.FindByID(ctx, id)
	if err != nil {
		return nil, serviceError("get customer", notFound("customer", id, err))
	}
	return c, nil
}

// AddAddress stores a validated address. The first address of a customer is
// always the default one.
func (s *CustomerService) AddAddress(ctx context.Context, customerID uint64, in AddressInput) (*domain.CustomerAddress, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	var address domain.CustomerAddress
	err := s.repos.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.repos.Customers.FindByID(ctx, customerID)
		if err != nil {
			return notFound("customer", customerID, err)
		}
		address = newCustomerAddress(in, in.IsDefault || len(c.Addresses) == 0)
		address.CustomerID = customerID
		return s.repos.Customers.AddAddress(ctx, &address)
	})
	if err != nil {
		return nil, serviceError("add address", notFound("customer", customerID, err))
	}
	return &address, nil
}

// RequestPasswordReset mails a signed reset token. Unknown emails are not
// reported to the caller.
func (s *CustomerService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Var(email, "required,email"); err != nil {
		return domain.NewValidationError("email", "must be a valid email address")
	}

	c, err := s.repos.Customers.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.Printf("[customer] password reset requested for unknown address")
		return nil
	}
	if err != nil {
		return serviceError("password reset", err)
	}

	expires := s.now().Add(s.resetTTL)
	token, err := auth.Issue(s.secret, auth.Claims{
		CustomerID: c.ID,
		Email:      c.Email,
		Role:       auth.RoleCustomer,
		Purpose:    auth.PurposePasswordReset,
		ExpiresAt:  expires,
	})
	if err != nil {
		return serviceError("password reset", fmt.Errorf("sign token: %w", err))
	}

	if s.notifier != nil {
		s.notifier.Notify(ctx, notification.Message{
			To:   c.Email,
			Kind: notification.KindPasswordReset,
			Data: map[string]any{
				"Name":      c.Name,
				"Token":     token,
				"ExpiresAt": expires.UTC().Format(time.RFC1123),
			},
		})
	}
	return nil
}

// VerifyResetToken returns the customer a reset token was issued to.
func (s *CustomerService) VerifyResetToken(token string) (uint64, error) {
	claims, err := auth.Parse(s.secret, token)
	if err != nil || claims.Purpose != auth.PurposePasswordReset || claims.CustomerID == 0 {
		return 0, domain.NewValidationError("token", "is invalid or expired")
	}
	return claims.CustomerID, nil
}

func newCustomerAddress(in AddressInput, isDefault bool) domain.CustomerAddress {
	a := domain.CustomerAddress{
		Address:   in.Address,
		Type:      in.Type,
		IsDefault: isDefault,
	}
	if a.Type == "" {
		a.Type = domain.AddressHome
	}
	if a.Country == "" {
		a.Country = "BR"
	}
	a.State = strings.ToUpper(a.State)
	return a
}
