// Package notification delivers transactional emails off the request path.
package notification

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindOrderConfirmation Kind = "order-confirmation"
	KindOrderStatusUpdate Kind = "order-status-update"
	KindPasswordReset     Kind = "password-reset"
	KindWelcome           Kind = "welcome"
)

type Message struct {
	To   string
	Kind Kind
	Data map[string]any
}

type Transport interface {
	Send(ctx context.Context, msg Message) error
}

// Notifier is what the services depend on. Notify never blocks on delivery.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

var ErrPermanent = errors.New("permanent delivery failure")

type permanentError struct {
	err error
}

func (e *permanentError) Error() string        { return fmt.Sprintf("permanent: %v", e.err) }
func (e *permanentError) Unwrap() error        { return e.err }
func (e *permanentError) Is(target error) bool { return target == ErrPermanent }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}
