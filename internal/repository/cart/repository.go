package cart

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/storage"
)

// Repository persists the cart's line items. Derived totals are never stored.
type Repository interface {
	Load(ctx context.Context) ([]domain.LineItem, error)
	Save(ctx context.Context, items []domain.LineItem) error
}

type slotRepo struct {
	slots storage.Slots
}

func NewSlots(slots storage.Slots) Repository {
	return &slotRepo{slots: slots}
}

func (r *slotRepo) Load(ctx context.Context) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if _, err := storage.LoadJSON(ctx, r.slots, storage.KeyCart, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.LineItem{}
	}
	return items, nil
}

func (r *slotRepo) Save(ctx context.Context, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	return storage.SaveJSON(ctx, r.slots, storage.KeyCart, items)
}
