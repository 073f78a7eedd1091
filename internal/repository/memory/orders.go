package memory

import (
	"context"
	"slices"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"
)

type orderRepo struct{ s *Store }

func (r orderRepo) Create(ctx context.Context, order *domain.Order) error {
	defer r.s.lock(ctx)()
	order.ID = r.s.nextID()
	now := time.Now()
	order.CreatedAt, order.UpdatedAt = now, now

	for i := range order.Items {
		it := &order.Items[i]
		it.ID = r.s.nextID()
		it.OrderID = order.ID
		it.CreatedAt = now
		r.s.t.items[it.ID] = *it
	}

	stored := *order
	stored.Items = nil
	r.s.t.orders[order.ID] = stored
	return nil
}

func (r orderRepo) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	defer r.s.lock(ctx)()
	o, ok := r.s.t.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o.Items = r.itemsOf(id)
	return &o, nil
}

func (r orderRepo) FindByCustomerID(ctx context.Context, customerID uint64) ([]domain.Order, error) {
	defer r.s.lock(ctx)()
	var out []domain.Order
	for _, o := range r.s.t.orders {
		if o.CustomerID != nil && *o.CustomerID == customerID {
			o.Items = r.itemsOf(o.ID)
			out = append(out, o)
		}
	}
	// newest first; ids grow with creation time
	slices.SortFunc(out, func(a, b domain.Order) int {
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r orderRepo) itemsOf(orderID uint64) []domain.OrderItem {
	var items []domain.OrderItem
	for _, it := range r.s.t.items {
		if it.OrderID == orderID {
			items = append(items, it)
		}
	}
	sortByID(items, func(it domain.OrderItem) uint64 { return it.ID })
	return items
}

func (r orderRepo) UpdateState(ctx context.Context, id uint64, from, to domain.OrderState) error {
	defer r.s.lock(ctx)()
	o, ok := r.s.t.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	if o.State() != from {
		return repository.ErrStaleState
	}
	o.Apply(to)
	o.UpdatedAt = time.Now()
	r.s.t.orders[id] = o
	return nil
}

func (r orderRepo) UpdateItems(ctx context.Context, items []domain.OrderItem) error {
	defer r.s.lock(ctx)()
	for _, it := range items {
		stored, ok := r.s.t.items[it.ID]
		if !ok {
			return repository.ErrNotFound
		}
		stored.FulfilledQuantity = it.FulfilledQuantity
		stored.Restocked = it.Restocked
		r.s.t.items[it.ID] = stored
	}
	return nil
}

func (r orderRepo) SetCancelledAt(ctx context.Context, order *domain.Order) error {
	defer r.s.lock(ctx)()
	o, ok := r.s.t.orders[order.ID]
	if !ok {
		return repository.ErrNotFound
	}
	o.CancelledAt = order.CancelledAt
	r.s.t.orders[order.ID] = o
	return nil
}

func (r orderRepo) AddStatusChange(ctx context.Context, change *domain.StatusChange) error {
	defer r.s.lock(ctx)()
	change.ID = r.s.nextID()
	change.CreatedAt = time.Now()
	r.s.t.changes = append(r.s.t.changes, *change)
	return nil
}

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	defer r.s.lock(ctx)()
	for _, p := range r.s.t.payments {
		if p.Gateway == payment.Gateway && p.ExternalRef == payment.ExternalRef {
			return repository.ErrDuplicate
		}
	}
	payment.ID = r.s.nextID()
	now := time.Now()
	payment.CreatedAt, payment.UpdatedAt = now, now
	r.s.t.payments[payment.ID] = *payment
	return nil
}

func (r paymentRepo) FindByExternalRef(ctx context.Context, gateway, externalRef string) (*domain.Payment, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.t.payments {
		if p.Gateway == gateway && p.ExternalRef == externalRef {
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r paymentRepo) FindByOrderID(ctx context.Context, orderID uint64) ([]domain.Payment, error) {
	defer r.s.lock(ctx)()
	var out []domain.Payment
	for _, p := range r.s.t.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	sortByID(out, func(p domain.Payment) uint64 { return p.ID })
	return out, nil
}

func (r paymentRepo) UpdateStatus(ctx context.Context, id uint64, from, to domain.PaymentStatus) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.t.payments[id]
	if !ok || p.Status != from {
		return repository.ErrStaleState
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	r.s.t.payments[id] = p
	return nil
}

func (r paymentRepo) RecordEvent(ctx context.Context, event *domain.PaymentEvent) error {
	defer r.s.lock(ctx)()
	key := eventKey{orderID: event.OrderID, externalRef: event.ExternalRef, status: event.Status}
	if _, ok := r.s.t.events[key]; ok {
		return repository.ErrDuplicate
	}
	event.ID = r.s.nextID()
	event.CreatedAt = time.Now()
	r.s.t.events[key] = *event
	return nil
}
