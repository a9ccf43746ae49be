package order

import (
	"context"
	"sync"

	"storefront/internal/domain"
	"storefront/internal/storage"
)

// Repository is the append-only order history.
type Repository interface {
	List(ctx context.Context) ([]domain.Order, error)
	Append(ctx context.Context, order domain.Order) error
}

type slotRepo struct {
	mu    sync.Mutex
	slots storage.Slots
}

func NewSlots(slots storage.Slots) Repository {
	return &slotRepo{slots: slots}
}

func (r *slotRepo) List(ctx context.Context) ([]domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

// Append reads the stored list, adds order at the end and writes it back.
// The mutex keeps concurrent appends from losing each other.
func (r *slotRepo) Append(ctx context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	orders, err := r.load(ctx)
	if err != nil {
		return err
	}
	orders = append(orders, order)
	return storage.SaveJSON(ctx, r.slots, storage.KeyOrders, orders)
}

func (r *slotRepo) load(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if _, err := storage.LoadJSON(ctx, r.slots, storage.KeyOrders, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}
