package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oDuPrado/web-busca/browser"
	"github.com/oDuPrado/web-busca/config"
	"github.com/oDuPrado/web-busca/models"
	"github.com/oDuPrado/web-busca/monitor"
	"github.com/oDuPrado/web-busca/notify"
	"github.com/oDuPrado/web-busca/scraper/liga"
	"github.com/oDuPrado/web-busca/storage"
	"github.com/oDuPrado/web-busca/utils"
	"github.com/oDuPrado/web-busca/watchlist"
)

func main() {
	cardsCSV := flag.String("cards", "", "one-shot scrape of the card watch-list CSV (nome;colecao;numero)")
	addURL := flag.String("add", "", "register a product URL for monitoring")
	removeURL := flag.String("remove", "", "unregister a monitored product URL")
	renameURL := flag.String("rename", "", "re-key a monitored product URL (use with -to)")
	renameTo := flag.String("to", "", "new product URL for -rename")
	flag.Parse()

	logger := utils.NewLogger()
	cfg := config.Load()

	store, closeStore := openStore(cfg, logger)
	defer closeStore()
	defer browser.CloseAll()

	switch {
	case *addURL != "":
		// a zero-price record marks the URL as watched; the first real
		// observation backfills the first-seen price
		if err := store.Upsert(context.Background(), *addURL, 0, time.Now()); err != nil {
			logger.Error("Failed to register %s: %v", *addURL, err)
			os.Exit(1)
		}
		logger.Info("Registered %s for monitoring", *addURL)

	case *removeURL != "":
		if err := store.Remove(context.Background(), *removeURL); err != nil {
			logger.Error("Failed to unregister %s: %v", *removeURL, err)
			os.Exit(1)
		}
		logger.Info("Unregistered %s", *removeURL)

	case *renameURL != "":
		if *renameTo == "" {
			logger.Error("-rename needs -to <new url>")
			os.Exit(1)
		}
		if err := store.Rename(context.Background(), *renameURL, *renameTo); err != nil {
			logger.Error("Failed to rename %s: %v", *renameURL, err)
			os.Exit(1)
		}
		logger.Info("Renamed %s -> %s (price history kept)", *renameURL, *renameTo)

	case *cardsCSV != "":
		scrapeCards(cfg, logger, *cardsCSV)

	default:
		runMonitor(cfg, logger, store)
	}
}

func openStore(cfg *config.Config, logger *utils.Logger) (storage.PriceStore, func()) {
	if cfg.PostgresHost == "" {
		logger.Warn("POSTGRES_HOST not set — price history will not survive restarts")
		return storage.NewMemoryStore(), func() {}
	}
	store, err := storage.NewPostgresStore(cfg.DSN())
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		os.Exit(1)
	}
	return store, func() { _ = store.Close() }
}

func sessionFactory(cfg *config.Config) func() (browser.Session, error) {
	return func() (browser.Session, error) {
		return browser.Open(browser.Options{
			Headless:    cfg.Headless,
			ExecPath:    cfg.ChromeBin,
			PageTimeout: time.Duration(cfg.PageTimeoutS) * time.Second,
			WaitTimeout: time.Duration(cfg.WaitTimeoutS) * time.Second,
		})
	}
}

func buildSink(cfg *config.Config, logger *utils.Logger) notify.Sink {
	if cfg.TelegramToken != "" && len(cfg.TelegramChatIDs) > 0 {
		logger.Info("Alerts go to Telegram (%d chats)", len(cfg.TelegramChatIDs))
		return notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatIDs, nil, logger)
	}
	logger.Info("No Telegram token configured — alerts go to the log")
	return notify.NewLogSink(logger)
}

// scrapeCards runs the one-shot batch over the card watch-list.
func scrapeCards(cfg *config.Config, logger *utils.Logger, path string) {
	items, err := watchlist.Load(path)
	if err != nil {
		logger.Error("Failed to load watch-list: %v", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		logger.Error("Watch-list has no valid rows. Exiting.")
		os.Exit(1)
	}
	logger.Info("Scraping %d cards (condition %s, %d workers)",
		len(items), cfg.CardCondition, cfg.MaxConcurrency)

	ex := liga.New(cfg.BaseURL, liga.DefaultSelectors(), liga.Policy{
		ConditionToken: cfg.CardCondition,
		CartAttempts:   cfg.CartAttempts,
		CartBackoff:    time.Duration(cfg.CartBackoffS) * time.Second,
	}, logger)

	batch := liga.NewBatch(ex, liga.SessionFactory(sessionFactory(cfg)), cfg.MaxConcurrency, logger)
	batch.SetProgress(func(percent int, status string) {
		logger.Info("[%3d%%] %s", percent, status)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := batch.Run(ctx, items)
	if err != nil {
		logger.Error("Batch scrape failed: %v", err)
		os.Exit(1)
	}

	succeeded := 0
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		succeeded++
		fmt.Printf("%s;%s;%s;%s;%d;%.2f;%.2f;%s\n",
			r.Item.Name, r.Item.Collection, r.Item.Number, r.Offer.Condition,
			r.Offer.Quantity, r.Offer.UnitPrice, r.Offer.TotalPrice, r.Offer.Language)
	}
	logger.Info("Done: %d/%d cards priced", succeeded, len(items))
}

// runMonitor watches every registered product URL until interrupted.
func runMonitor(cfg *config.Config, logger *utils.Logger, store storage.PriceStore) {
	keys, err := store.Keys(context.Background())
	if err != nil {
		logger.Error("Failed to list monitored products: %v", err)
		os.Exit(1)
	}
	if len(keys) == 0 {
		logger.Error("No products registered. Use -add <url> first.")
		os.Exit(1)
	}

	ex := liga.New(cfg.BaseURL, liga.DefaultSelectors(), liga.Policy{
		ConditionToken:      cfg.ProductCondition,
		FallbackFirstSeller: true,
		CartAttempts:        cfg.CartAttempts,
		CartBackoff:         time.Duration(cfg.CartBackoffS) * time.Second,
	}, logger)

	sched := monitor.New(monitor.Config{
		BaseInterval: time.Duration(cfg.MonitorBaseS) * time.Second,
		Jitter:       time.Duration(cfg.MonitorJitterS) * time.Second,
	}, ex, monitor.SessionFactory(sessionFactory(cfg)), store, buildSink(cfg, logger), logger)

	items := make([]models.Item, 0, len(keys))
	for _, k := range keys {
		items = append(items, models.Item{URL: k})
	}

	if err := sched.Start(items); err != nil {
		logger.Error("Failed to start monitoring: %v", err)
		os.Exit(1)
	}
	logger.Info("Monitoring %d products — Ctrl+C to exit", len(items))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("Shutting down...")
	sched.Stop()
}
