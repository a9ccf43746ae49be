package category

import (
	"context"
	"time"

	"storefront/internal/cache"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	cacheKey  = "categories:list"
	staleTime = 10 * time.Minute
)

type categoryAPI interface {
	Categories(ctx context.Context) ([]string, error)
}

type Service struct {
	api    categoryAPI
	cache  cache.Cache
	group  singleflight.Group
	logger logrus.FieldLogger
}

func New(api categoryAPI, c cache.Cache, logger logrus.FieldLogger) *Service {
	return &Service{api: api, cache: c, logger: logger}
}

// List returns category slugs, cached for ten minutes.
func (s *Service) List(ctx context.Context) ([]string, error) {
	var slugs []string
	if ok, err := s.cache.Get(ctx, cacheKey, &slugs); err != nil {
		s.logger.WithError(err).Warn("category: cache read failed")
	} else if ok {
		return slugs, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(cacheKey, func() (any, error) {
		slugs, err := s.api.Categories(shared)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(shared, cacheKey, slugs, staleTime); err != nil {
			s.logger.WithError(err).Warn("category: cache write failed")
		}
		return slugs, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]string), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
