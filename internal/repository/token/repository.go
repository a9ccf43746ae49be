package token

import (
	"context"

	"storefront/internal/domain"
	"storefront/internal/storage"
)

// Repository holds the credential pair in the token and refreshToken slots.
// Missing tokens read as empty strings.
type Repository interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Save(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

type slotRepo struct {
	slots storage.Slots
}

func NewSlots(slots storage.Slots) Repository {
	return &slotRepo{slots: slots}
}

func (r *slotRepo) AccessToken(ctx context.Context) (string, error) {
	return storage.LoadString(ctx, r.slots, storage.KeyToken)
}

func (r *slotRepo) RefreshToken(ctx context.Context) (string, error) {
	return storage.LoadString(ctx, r.slots, storage.KeyRefreshToken)
}

// Save writes the access token, and the refresh token when one is given.
func (r *slotRepo) Save(ctx context.Context, cred domain.Credential) error {
	if err := r.slots.Set(ctx, storage.KeyToken, []byte(cred.AccessToken)); err != nil {
		return err
	}
	if cred.RefreshToken == "" {
		return nil
	}
	return r.slots.Set(ctx, storage.KeyRefreshToken, []byte(cred.RefreshToken))
}

func (r *slotRepo) Clear(ctx context.Context) error {
	return r.slots.Delete(ctx, storage.KeyToken, storage.KeyRefreshToken)
}
