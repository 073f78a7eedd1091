package services

import (
	"context"
	"errors"
	"log"
	"regexp"
	"strings"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"
)

// Repositories bundles the stores every service reads from. Tx must be the
// transactor the repositories join.
type Repositories struct {
	Tx         repository.Transactor
	Products   repository.ProductRepository
	Categories repository.CategoryRepository
	Customers  repository.CustomerRepository
	Orders     repository.OrderRepository
	Payments   repository.PaymentRepository
	Coupons    repository.CouponRepository
	Uploads    repository.UploadRepository
}

// ProductCache is the read-through product cache; *cache.ProductCache
// implements it.
type ProductCache interface {
	FindByID(ctx context.Context, id uint64) (*domain.Product, error)
	Invalidate(ctx context.Context, ids ...uint64)
}

// OrderListCache caches a customer's order list. Set only stores the list if
// no Invalidate ran since Generation was read; *cache.OrderListCache
// implements it.
type OrderListCache interface {
	Get(ctx context.Context, customerID uint64) ([]domain.Order, bool)
	Generation(ctx context.Context, customerID uint64) int64
	Set(ctx context.Context, customerID uint64, generation int64, orders []domain.Order)
	Invalidate(ctx context.Context, customerID uint64)
}

// serviceError passes domain errors through and turns anything else into an
// InternalError after logging it.
func serviceError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, domain.ErrGateway),
		errors.Is(err, domain.ErrInternal):
		return err
	case errors.Is(err, repository.ErrStaleState):
		return &domain.ConflictError{Reason: "modified concurrently, reload and retry"}
	case errors.Is(err, repository.ErrDuplicate):
		return &domain.ConflictError{Reason: "already exists"}
	}
	log.Printf("[service] %s failed: %v", op, err)
	return domain.NewInternalError(op, err)
}

func notFound(entity string, id any, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.NotFoundError{Entity: entity, ID: id}
	}
	return err
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	replacer := strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
		"é", "e", "ê", "e", "è", "e",
		"í", "i", "î", "i",
		"ó", "o", "ô", "o", "õ", "o", "ö", "o",
		"ú", "u", "ü", "u",
		"ç", "c", "ñ", "n",
	)
	s = replacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Trim(slugInvalid.ReplaceAllString(s, "-"), "-")
}
