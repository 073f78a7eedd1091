package memory

import (
	"context"
	"time"

	"commerce-service/internal/domain"
	"commerce-service/internal/repository"
)

type customerRepo struct{ s *Store }

func (r customerRepo) Create(ctx context.Context, customer *domain.Customer) error {
	defer r.s.lock(ctx)()
	for _, c := range r.s.t.customers {
		if equalFold(c.Email, customer.Email) {
			return repository.ErrDuplicate
		}
	}
	customer.ID = r.s.nextID()
	now := time.Now()
	customer.CreatedAt, customer.UpdatedAt = now, now

	for i := range customer.Addresses {
		a := &customer.Addresses[i]
		a.ID = r.s.nextID()
		a.CustomerID = customer.ID
		a.CreatedAt = now
		r.s.t.addresses[a.ID] = *a
	}

	stored := *customer
	stored.Addresses = nil
	r.s.t.customers[customer.ID] = stored
	return nil
}

func (r customerRepo) FindByID(ctx context.Context, id uint64) (*domain.Customer, error) {
	defer r.s.lock(ctx)()
	c, ok := r.s.t.customers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, a := range r.s.t.addresses {
		if a.CustomerID == id {
			c.Addresses = append(c.Addresses, a)
		}
	}
	sortByID(c.Addresses, func(a domain.CustomerAddress) uint64 { return a.ID })
	return &c, nil
}

func (r customerRepo) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	defer r.s.lock(ctx)()
	for _, c := range r.s.t.customers {
		if equalFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r customerRepo) AddAddress(ctx context.Context, address *domain.CustomerAddress) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.t.customers[address.CustomerID]; !ok {
		return repository.ErrNotFound
	}
	if address.IsDefault {
		for id, a := range r.s.t.addresses {
			if a.CustomerID == address.CustomerID && a.IsDefault {
				a.IsDefault = false
				r.s.t.addresses[id] = a
			}
		}
	}
	address.ID = r.s.nextID()
	address.CreatedAt = time.Now()
	r.s.t.addresses[address.ID] = *address
	return nil
}

type uploadRepo struct{ s *Store }

func (r uploadRepo) Create(ctx context.Context, upload *domain.Upload) error {
	defer r.s.lock(ctx)()
	upload.ID = r.s.nextID()
	upload.CreatedAt = time.Now()
	r.s.t.uploads[upload.ID] = *upload
	return nil
}

func (r uploadRepo) FindByID(ctx context.Context, id uint64) (*domain.Upload, error) {
	defer r.s.lock(ctx)()
	u, ok := r.s.t.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}
