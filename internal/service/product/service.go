package product

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/domain"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLimit    = 20
	DefaultFeatured = 6

	listStaleTime     = 5 * time.Minute
	featuredStaleTime = 10 * time.Minute
	categoryStaleTime = 5 * time.Minute
	detailStaleTime   = 10 * time.Minute
	searchStaleTime   = 5 * time.Minute
)

type catalogAPI interface {
	Products(ctx context.Context, limit, skip int) (domain.ProductPage, error)
	Product(ctx context.Context, id int) (domain.Product, error)
	ProductsByCategory(ctx context.Context, slug string) ([]domain.Product, error)
	Search(ctx context.Context, query string, limit, skip int) (domain.ProductPage, error)
}

// Service serves catalog reads from a cache, refetching once an entry is
// older than its stale time. Concurrent misses for one key share a fetch.
type Service struct {
	api    catalogAPI
	cache  cache.Cache
	group  singleflight.Group
	logger logrus.FieldLogger
}

func New(api catalogAPI, c cache.Cache, logger logrus.FieldLogger) *Service {
	return &Service{api: api, cache: c, logger: logger}
}

// List returns one page of products. Non-positive limits fall back to
// DefaultLimit; negative skips to 0.
func (s *Service) List(ctx context.Context, limit, skip int) (domain.ProductPage, error) {
	limit, skip = normalizePage(limit, skip)
	key := fmt.Sprintf("products:list:limit=%d:skip=%d", limit, skip)
	return cached(ctx, s, key, listStaleTime, func(ctx context.Context) (domain.ProductPage, error) {
		return s.api.Products(ctx, limit, skip)
	})
}

// Featured returns the first limit products of the catalog.
func (s *Service) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = DefaultFeatured
	}
	key := fmt.Sprintf("products:list:featured:limit=%d", limit)
	return cached(ctx, s, key, featuredStaleTime, func(ctx context.Context) ([]domain.Product, error) {
		page, err := s.api.Products(ctx, limit, 0)
		if err != nil {
			return nil, err
		}
		return page.Products, nil
	})
}

// ByCategory lists a category. An empty slug or "all" is not a category
// filter and yields no products without calling upstream.
func (s *Service) ByCategory(ctx context.Context, slug string) ([]domain.Product, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || slug == "all" {
		return []domain.Product{}, nil
	}
	return cached(ctx, s, "products:list:category="+slug, categoryStaleTime, func(ctx context.Context) ([]domain.Product, error) {
		return s.api.ProductsByCategory(ctx, slug)
	})
}

// Get returns one product. Ids <= 0 are reported as not found.
func (s *Service) Get(ctx context.Context, id int) (domain.Product, error) {
	if id <= 0 {
		return domain.Product{}, domain.ErrNotFound
	}
	return cached(ctx, s, "products:detail:"+strconv.Itoa(id), detailStaleTime, func(ctx context.Context) (domain.Product, error) {
		return s.api.Product(ctx, id)
	})
}

// Search runs a full-text query. A blank query returns an empty page.
func (s *Service) Search(ctx context.Context, query string, limit, skip int) (domain.ProductPage, error) {
	query = strings.TrimSpace(query)
	limit, skip = normalizePage(limit, skip)
	if query == "" {
		return domain.ProductPage{Products: []domain.Product{}, Limit: limit, Skip: skip}, nil
	}
	key := fmt.Sprintf("products:list:query=%s:limit=%d:skip=%d", query, limit, skip)
	return cached(ctx, s, key, searchStaleTime, func(ctx context.Context) (domain.ProductPage, error) {
		return s.api.Search(ctx, query, limit, skip)
	})
}

func normalizePage(limit, skip int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}

// cached is the read-through used by every query. Cache failures are
// logged and treated as misses.
func cached[T any](ctx context.Context, s *Service, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var out T
	if ok, err := s.cache.Get(ctx, key, &out); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("product: cache read failed")
	} else if ok {
		return out, nil
	}

	// The shared fetch outlives any one caller; each caller stops waiting
	// when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		fetched, err := fetch(shared)
		if err != nil {
			return fetched, err
		}
		if err := s.cache.Set(shared, key, fetched, ttl); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("product: cache write failed")
		}
		return fetched, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
