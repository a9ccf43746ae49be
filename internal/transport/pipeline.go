// Package transport implements the authenticated request pipeline used for
// every upstream call: it attaches the stored bearer token and recovers
// from a 401 with a single shared credential refresh.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
)

// CredentialStore is where the pipeline reads and writes the token pair.
// Missing tokens read as "".
type CredentialStore interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	Save(ctx context.Context, cred domain.Credential) error
	Clear(ctx context.Context) error
}

// Refresher exchanges a refresh token for a new credential. It must not go
// through the pipeline itself.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (domain.Credential, error)
}

type Option func(*Pipeline)

func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.client = c }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithAuthRequiredHook registers fn to run whenever the user must log in
// again (no refresh token, or the refresh failed).
func WithAuthRequiredHook(fn func()) Option {
	return func(p *Pipeline) { p.onAuthRequired = fn }
}

// Pipeline decorates requests with the current access token. On the first
// 401 of a request it refreshes the credential and resubmits once. At most
// one refresh runs at a time; requests that hit a 401 meanwhile wait in
// FIFO order and are resubmitted with the refreshed token.
type Pipeline struct {
	client         *http.Client
	creds          CredentialStore
	refresher      Refresher
	logger         logrus.FieldLogger
	onAuthRequired func()

	mu         sync.Mutex
	refreshing bool
	waiters    []chan refreshOutcome
	// gen counts successful refreshes; latest is the token the last one
	// produced.
	gen    uint64
	latest string
}

type refreshOutcome struct {
	token string
	err   error
}

func New(creds CredentialStore, refresher Refresher, opts ...Option) *Pipeline {
	p := &Pipeline{
		client:    http.DefaultClient,
		creds:     creds,
		refresher: refresher,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do sends req with the stored bearer token. Responses other than 401 are
// returned untouched, as are transport errors. A 401 on the resubmitted
// request is also returned untouched.
func (p *Pipeline) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if err := bufferBody(req); err != nil {
		return nil, err
	}

	p.mu.Lock()
	gen := p.gen
	p.mu.Unlock()

	sent, err := p.creds.AccessToken(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("transport: read access token")
		sent = ""
	}

	resp, err := p.send(req, sent)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	original := newStatusError(resp)
	token, err := p.recoverToken(ctx, sent, gen, original)
	if err != nil {
		return nil, err
	}
	return p.send(req, token)
}

func (p *Pipeline) send(req *http.Request, token string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("rewind request body: %w", err)
		}
		out.Body = body
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return p.client.Do(out)
}

// recoverToken returns the token to resubmit with. The caller either joins
// the refresh in flight, picks up a token refreshed after its request was
// sent, or runs the refresh itself. gen is the refresh generation observed
// before the request was sent.
func (p *Pipeline) recoverToken(ctx context.Context, sent string, gen uint64, original error) (string, error) {
	current, err := p.creds.AccessToken(ctx)
	if err != nil {
		current = ""
	}

	p.mu.Lock()
	if p.refreshing {
		ch := make(chan refreshOutcome, 1)
		p.waiters = append(p.waiters, ch)
		p.mu.Unlock()

		select {
		case out := <-ch:
			return out.token, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if p.gen != gen && p.latest != "" {
		token := p.latest
		p.mu.Unlock()
		return token, nil
	}
	if current != "" && current != sent {
		p.mu.Unlock()
		return current, nil
	}
	p.refreshing = true
	p.mu.Unlock()

	token, err := p.refresh(ctx, original)

	p.mu.Lock()
	if err == nil {
		p.gen++
		p.latest = token
	}
	waiters := p.waiters
	p.waiters = nil
	p.refreshing = false
	p.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshOutcome{token: token, err: err}
	}
	return token, err
}

func (p *Pipeline) refresh(ctx context.Context, original error) (string, error) {
	// A started refresh runs to completion even if the triggering
	// request is cancelled; other requests may be waiting on it.
	ctx = context.WithoutCancel(ctx)

	refreshToken, err := p.creds.RefreshToken(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("transport: read refresh token")
	}
	if refreshToken == "" {
		p.authRequired()
		return "", fmt.Errorf("%w: %w", ErrAuthRequired, original)
	}

	cred, err := p.refresher.Refresh(ctx, refreshToken)
	if err == nil && cred.AccessToken == "" {
		err = errors.New("refresh returned empty access token")
	}
	if err != nil {
		p.logger.WithError(err).Warn("transport: credential refresh failed, clearing session")
		if cerr := p.creds.Clear(ctx); cerr != nil {
			p.logger.WithError(cerr).Error("transport: clear credentials")
		}
		p.authRequired()
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	if err := p.creds.Save(ctx, cred); err != nil {
		p.logger.WithError(err).Error("transport: store refreshed credential")
	}
	p.logger.Debug("transport: credential refreshed")
	return cred.AccessToken, nil
}

func (p *Pipeline) authRequired() {
	if p.onAuthRequired != nil {
		p.onAuthRequired()
	}
}

// bufferBody makes a one-shot body replayable so the request can be
// resubmitted after a refresh.
func bufferBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(data))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}
	return nil
}
