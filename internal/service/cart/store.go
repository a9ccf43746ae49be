package cart

import (
	"context"
	"sync"

	"storefront/internal/domain"
	cartrepo "storefront/internal/repository/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Store is the in-memory cart aggregate. Every mutation recomputes the
// derived totals from the item list and then writes the items through to
// the repository. Mutations never fail; persistence errors are logged.
type Store struct {
	mu     sync.Mutex
	cart   domain.Cart
	repo   cartrepo.Repository
	logger logrus.FieldLogger
}

// Summary is the read view handed to the boundary layer.
type Summary struct {
	Items []domain.LineItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

// Open builds a Store seeded from the persisted items. A missing or
// unreadable slot yields an empty cart.
func Open(ctx context.Context, repo cartrepo.Repository, logger logrus.FieldLogger) *Store {
	items, err := repo.Load(ctx)
	if err != nil {
		logger.WithError(err).Warn("cart: could not load persisted items, starting empty")
		items = []domain.LineItem{}
	}
	s := &Store{repo: repo, logger: logger}
	s.cart = domain.Cart{Items: items}
	s.cart.Recalculate()
	return s
}

// Replace overwrites the whole cart. Derived fields are recomputed from the
// incoming items; whatever totals the caller sent are ignored.
func (s *Store) Replace(ctx context.Context, next domain.Cart) domain.Cart {
	return s.mutate(ctx, func(c *domain.Cart) {
		*c = next.Clone()
		if c.Items == nil {
			c.Items = []domain.LineItem{}
		}
	})
}

// Add merges item into the cart. An existing line with the same ProductID
// has its quantity increased; otherwise the item is appended.
func (s *Store) Add(ctx context.Context, item domain.LineItem) domain.Cart {
	return s.mutate(ctx, func(c *domain.Cart) {
		if idx := c.Find(item.ProductID); idx >= 0 {
			c.Items[idx].Quantity += item.Quantity
			return
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		c.Items = append(c.Items, item)
	})
}

// Remove drops the line for productID. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, productID int) domain.Cart {
	return s.mutate(ctx, func(c *domain.Cart) {
		kept := c.Items[:0]
		for _, item := range c.Items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		c.Items = kept
	})
}

// SetQuantity overwrites the quantity for productID. The value is not
// checked; callers must keep it >= 1. Unknown ids are a no-op.
func (s *Store) SetQuantity(ctx context.Context, productID, quantity int) domain.Cart {
	return s.mutate(ctx, func(c *domain.Cart) {
		if idx := c.Find(productID); idx >= 0 {
			c.Items[idx].Quantity = quantity
		}
	})
}

// Clear resets the cart to empty.
func (s *Store) Clear(ctx context.Context) domain.Cart {
	return s.mutate(ctx, func(c *domain.Cart) {
		*c = domain.Cart{Items: []domain.LineItem{}}
	})
}

// Settle hands the current cart to fn while holding the lock and clears the
// cart only when fn succeeds. No mutation can slip in between the read and
// the clear.
func (s *Store) Settle(ctx context.Context, fn func(domain.Cart) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(s.cart.Clone()); err != nil {
		return err
	}
	s.cart = domain.Cart{Items: []domain.LineItem{}}
	s.cart.Recalculate()
	if err := s.repo.Save(ctx, s.cart.Items); err != nil {
		s.logger.WithError(err).Error("cart: persist failed")
	}
	return nil
}

// Snapshot returns a copy of the current cart.
func (s *Store) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Store) Summary() Summary {
	c := s.Snapshot()
	return Summary{Items: c.Items, Total: c.Total, Count: len(c.Items)}
}

// mutate applies fn to a private copy, recomputes the totals, swaps the
// result in and persists it while still holding the lock so that writes
// reach the repository in mutation order.
func (s *Store) mutate(ctx context.Context, fn func(c *domain.Cart)) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cart.Clone()
	fn(&next)
	next.Recalculate()
	s.cart = next

	if err := s.repo.Save(ctx, next.Items); err != nil {
		s.logger.WithError(err).WithField("items", len(next.Items)).Error("cart: persist failed")
	}
	return next.Clone()
}
