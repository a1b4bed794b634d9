package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/staplewatch/grocery-price-tracker/internal/browser"
	"github.com/staplewatch/grocery-price-tracker/internal/config"
	"github.com/staplewatch/grocery-price-tracker/internal/database"
	"github.com/staplewatch/grocery-price-tracker/internal/detect"
	"github.com/staplewatch/grocery-price-tracker/internal/models"
	"github.com/staplewatch/grocery-price-tracker/internal/scrape"
	"github.com/staplewatch/grocery-price-tracker/internal/session"
	"github.com/staplewatch/grocery-price-tracker/internal/sink"
	"github.com/staplewatch/grocery-price-tracker/pkg/logger"
)

func main() {
	var (
		zips       = flag.String("zips", "", "Comma-separated ZIP codes to scrape (overrides WALMART_ZIPS)")
		productURL = flag.String("url", "", "Product page URL (overrides WALMART_PRODUCT_URL)")
		headless   = flag.Bool("headless", false, "Run the browser headless")
		dryRun     = flag.Bool("dry-run", false, "Scrape without writing to the database")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if *zips != "" {
		cfg.Walmart.Zips = splitZips(*zips)
	}
	if *productURL != "" {
		cfg.Walmart.ProductURL = *productURL
	}
	if *headless {
		cfg.Browser.Headless = true
	}

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("received shutdown signal")
		cancel()
	}()

	product := models.CanonicalProduct{
		StableID:      cfg.Product.StableID,
		Name:          cfg.Product.Name,
		Brand:         cfg.Product.Brand,
		ExpectedCount: cfg.Product.ExpectedCount,
		UnitSizeStd:   cfg.Product.UnitSizeStd,
	}

	var prices *sink.Sink
	if !*dryRun {
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

		store := database.NewPriceStore(db)
		prices = sink.New(store, product, cfg.Walmart.StoreTag, cfg.Walmart.ProductURL)
	}

	sessions, err := session.NewStore(cfg.Scraper.SessionDir)
	if err != nil {
		log.Error("failed to prepare session store", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Scraper.ScreenshotDir, 0o755); err != nil {
		log.Error("failed to prepare screenshot dir", "error", err)
		os.Exit(1)
	}

	engine, err := browser.NewEngine(&browser.Options{
		Headless:       cfg.Browser.Headless,
		Timeout:        cfg.Browser.Timeout,
		UserAgent:      cfg.Browser.UserAgent,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		Locale:         cfg.Browser.Locale,
		TimezoneID:     cfg.Browser.TimezoneID,
		HomeURL:        cfg.Walmart.HomeURL,
	})
	if err != nil {
		log.Error("failed to start browser engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	pages := scrape.PageFactoryFunc(func(region, statePath string) (scrape.ProductPage, error) {
		return engine.NewRegionPage(region, statePath)
	})

	orchestrator := scrape.NewOrchestrator(
		pages,
		sessions,
		detect.New(cfg.Scraper.FailClosedBotCheck),
		scrape.NewConsoleOperator(os.Stdin, os.Stdout),
		scrape.OrchestratorOptions{
			Product:       product,
			ProductURL:    cfg.Walmart.ProductURL,
			ScreenshotDir: cfg.Scraper.ScreenshotDir,
			WaitBase:      cfg.Scraper.PageWaitBase,
			WaitJitter:    cfg.Scraper.PageWaitJitter,
		},
	)

	runner := scrape.NewRunner(orchestrator, cfg.Scraper.DelayBase, cfg.Scraper.DelayJitter)

	log.Info("starting batch", "regions", len(cfg.Walmart.Zips), "url", cfg.Walmart.ProductURL)
	outcomes := runner.Run(ctx, cfg.Walmart.Zips)

	byStatus := map[models.Status]int{}
	for _, outcome := range outcomes {
		byStatus[outcome.Status]++
	}
	log.Info("batch finished",
		"ok", byStatus[models.StatusOK],
		"mismatch", byStatus[models.StatusMismatch],
		"missing", byStatus[models.StatusMissing],
		"captcha", byStatus[models.StatusCaptcha],
		"error", byStatus[models.StatusError])

	if prices != nil {
		if err := prices.RecordAll(ctx, outcomes); err != nil {
			log.Error("failed to record some outcomes", "error", err)
			os.Exit(1)
		}
		log.Info("outcomes recorded", "count", len(outcomes))
	}
}

func splitZips(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
