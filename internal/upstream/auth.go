package upstream

import (
	"context"

	"storefront/internal/domain"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken  string `json:"refreshToken"`
	ExpiresInMins int    `json:"expiresInMins,omitempty"`
}

func (c *Client) Login(ctx context.Context, username, password string) (domain.Credential, error) {
	var resp tokenResponse
	if err := c.postJSON(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential(resp), nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string, expiresInMins int) (domain.Credential, error) {
	var resp tokenResponse
	if err := c.postJSON(ctx, "/auth/refresh", refreshRequest{RefreshToken: refreshToken, ExpiresInMins: expiresInMins}, &resp); err != nil {
		return domain.Credential{}, err
	}
	return domain.Credential(resp), nil
}

func (c *Client) AddUser(ctx context.Context, user domain.User) (domain.User, error) {
	var created domain.User
	if err := c.postJSON(ctx, "/users/add", user, &created); err != nil {
		return domain.User{}, err
	}
	return created, nil
}
