package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/importer"
	"storefront/internal/logging"
	cartrepo "storefront/internal/repository/cart"
	cartsvc "storefront/internal/service/cart"
	"storefront/internal/storage"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to cart CSV (productId,title,name,image,price,quantity)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat).WithField("cmd", "importer")
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.WithError(err).Fatal("open file")
	}
	defer f.Close()

	store := cartsvc.Open(ctx, cartrepo.NewSlots(slots), logger)
	imp := importer.NewCSVImporter(f, store)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.WithError(err).WithField("imported", count).Fatal("import failed")
	}

	summary := store.Summary()
	fmt.Printf("Imported %d rows into namespace %s in %s (%d lines, total %s)\n",
		count, cfg.StorageNamespace, time.Since(start).Truncate(time.Millisecond), summary.Count, summary.Total.StringFixed(2))
}
