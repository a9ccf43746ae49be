package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/httpserver"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	orderrepo "storefront/internal/repository/order"
	tokenrepo "storefront/internal/repository/token"
	authsvc "storefront/internal/service/auth"
	cartsvc "storefront/internal/service/cart"
	categorysvc "storefront/internal/service/category"
	"storefront/internal/service/checkout"
	productsvc "storefront/internal/service/product"
	"storefront/internal/storage"
	"storefront/internal/transport"
	"storefront/internal/upstream"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	slots, closeSlots, err := storage.Open(ctx, storage.Options{
		Driver:        cfg.StorageDriver,
		Namespace:     cfg.StorageNamespace,
		DSN:           cfg.DBConnString,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("open storage")
	}
	defer closeSlots()

	catalogCache, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		logger.WithError(err).Fatal("open cache")
	}
	defer closeCache()

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	tokens := tokenrepo.NewSlots(slots)

	// Login and refresh must bypass the pipeline.
	authAPI := upstream.New(cfg.UpstreamBaseURL, httpClient)
	authService := authsvc.New(authAPI, tokens, cfg.RefreshExpiresMins, logger)

	pipeline := transport.New(tokens, authService,
		transport.WithHTTPClient(httpClient),
		transport.WithLogger(logger),
		transport.WithAuthRequiredHook(func() {
			logger.WithField("login_path", cfg.LoginPath).Warn("session expired, user must log in again")
		}),
	)
	catalogAPI := upstream.New(cfg.UpstreamBaseURL, pipeline)

	productService := productsvc.New(catalogAPI, catalogCache, logger)
	categoryService := categorysvc.New(catalogAPI, catalogCache, logger)
	cartStore := cartsvc.Open(ctx, cartrepo.NewSlots(slots), logger)
	checkoutService := checkout.New(cartStore, orderrepo.NewSlots(slots), logger)

	srv := httpserver.New(cfg.HTTPAddr, logger, slots, httpserver.Deps{
		ProductSvc:  productService,
		CategorySvc: categoryService,
		CartSvc:     cartStore,
		CheckoutSvc: checkoutService,
		AuthSvc:     authService,
	}, httpserver.Options{
		LoginPath:      cfg.LoginPath,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.WithField("signal", sig.String()).Info("shutting down")
	case err := <-serverErr:
		logger.WithError(err).Error("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	} else {
		logger.Info("server stopped")
	}
}

func openCache(ctx context.Context, cfg config.Config) (cache.Cache, func(), error) {
	if cfg.CacheDriver != "redis" {
		return cache.NewMemory(), func() {}, nil
	}
	client, err := storage.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	return cache.NewRedis(client, cfg.StorageNamespace), func() { _ = client.Close() }, nil
}
