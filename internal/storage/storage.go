// Package storage holds the durable key-value slots that back the cart,
// the credential pair and the order history. Slots are scoped by a
// namespace so several storefronts can share one backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"
)

// Slot keys.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyCart         = "cart"
	KeyOrders       = "orders"
)

// Slots is a namespaced key-value store. Get returns domain.ErrNotFound for
// an empty slot.
type Slots interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// LoadJSON decodes the slot into dest. It reports false when the slot is empty.
func LoadJSON(ctx context.Context, s Slots, key string, dest any) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode slot %q: %w", key, err)
	}
	return true, nil
}

// SaveJSON encodes value and writes it to the slot.
func SaveJSON(ctx context.Context, s Slots, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode slot %q: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// LoadString reads a plain string slot. An empty slot yields "".
func LoadString(ctx context.Context, s Slots, key string) (string, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return string(raw), nil
}
