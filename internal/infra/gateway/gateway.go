// Package gateway talks to the payment providers: outbound charges and
// signed inbound webhooks.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"commerce-service/internal/domain"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrNotConfigured    = errors.New("gateway not configured")
	ErrUnknownStatus    = errors.New("unknown provider status")
)

// signatureTolerance bounds the age of timestamped webhook signatures.
const signatureTolerance = 5 * time.Minute

type WebhookResult struct {
	ExternalRef string
	Status      domain.PaymentStatus
}

type Gateway interface {
	Name() string
	Supports(method domain.PaymentMethod) bool
	Charge(ctx context.Context, order *domain.Order, method domain.PaymentMethod) (string, error)
	HandleWebhook(ctx context.Context, header http.Header, payload []byte) (*WebhookResult, error)
}

type Config struct {
	BaseURL       string
	APIKey        string
	WebhookSecret string
	Timeout       time.Duration
}

func (c Config) Enabled() bool {
	return c.BaseURL != "" || c.WebhookSecret != ""
}

func permanent(name string, err error) error {
	return &domain.GatewayError{Gateway: name, Err: err}
}

func transient(name string, err error) error {
	return &domain.GatewayError{Gateway: name, Transient: true, Err: err}
}

func unknownStatus(name, status string) error {
	return permanent(name, fmt.Errorf("%w %q", ErrUnknownStatus, status))
}

type Registry struct {
	byName map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{byName: make(map[string]Gateway, len(gateways))}
	for _, g := range gateways {
		r.byName[g.Name()] = g
	}
	return r
}

func (r *Registry) ByName(name string) (Gateway, bool) {
	g, ok := r.byName[name]
	return g, ok
}

// ForMethod returns the first gateway, by name, that supports method.
func (r *Registry) ForMethod(method domain.PaymentMethod) (Gateway, bool) {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if g := r.byName[name]; g.Supports(method) {
			return g, true
		}
	}
	return nil, false
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
