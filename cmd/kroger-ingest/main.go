package main

import (
	"context"
	"flag"
	"os"

	"github.com/staplewatch/grocery-price-tracker/internal/catalog"
	"github.com/staplewatch/grocery-price-tracker/internal/config"
	"github.com/staplewatch/grocery-price-tracker/internal/database"
	"github.com/staplewatch/grocery-price-tracker/internal/ingest"
	"github.com/staplewatch/grocery-price-tracker/pkg/logger"
)

func main() {
	var (
		endpoint    = flag.String("endpoint", "", "Weekly-ad JSON endpoint, captured from browser network traffic")
		zip         = flag.String("zip", "", "ZIP code the endpoint's store serves")
		catalogPath = flag.String("catalog", "configs/items.json", "Path to the staple catalog JSON")
		storeTag    = flag.String("store-tag", "kroger_ad", "Store tag recorded with each price row")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if *endpoint == "" || *zip == "" {
		log.Error("both -endpoint and -zip are required")
		os.Exit(1)
	}

	entries, err := catalog.Load(*catalogPath)
	if err != nil {
		log.Error("failed to load catalog", "path", *catalogPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	ingester := ingest.New(database.NewPriceStore(db), *storeTag)
	res, err := ingester.Run(ctx, *endpoint, *zip, entries)
	if err != nil {
		log.Error("ingest failed", "error", err)
		os.Exit(1)
	}

	log.Info("ingest finished", "scanned", res.Scanned, "saved", res.Saved, "misses", res.Misses)
}
