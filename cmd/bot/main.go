package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"stock-bot/internal/config"
	"stock-bot/internal/inventory"
	"stock-bot/internal/navigator"
	"stock-bot/internal/scheduler"
	"stock-bot/internal/screen"
	"stock-bot/internal/session"
	"stock-bot/internal/storage"
	"stock-bot/internal/telegram"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	cfg := config.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init inventory storage: %v", err)
	}
	defer closeRepo()

	store := inventory.NewStore(repo)
	if err := store.Load(ctx); err != nil {
		log.Printf("⚠️ starting with empty inventory: %v", err)
	}
	seedInventory(ctx, store, cfg.InitialInventoryPath)

	var rec storage.Recorder
	if cfg.JournalFilePath != "" {
		fr, err := storage.NewFileRecorder(cfg.JournalFilePath)
		if err != nil {
			log.Printf("failed to init movement journal: %v", err)
		} else {
			rec = fr
			defer func() { _ = fr.Close() }()
		}
	}

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	delivery := telegram.NewDelivery(api)

	machine := navigator.New(store, session.NewRegistry(), delivery, rec, navigator.Options{
		NewColorQuantity: cfg.NewColorQuantity,
		Step:             cfg.IncrementStep,
		Threshold:        cfg.LowStockThreshold,
	})

	if cfg.AdminUserID != 0 && cfg.ReportSchedule != "" {
		sched := scheduler.New(cfg.ReportSchedule)
		report := scheduler.StockReport{
			Store:    store,
			Journal:  rec,
			Renderer: screen.NewRenderer(cfg.LowStockThreshold, cfg.IncrementStep),
			Notifier: delivery,
			AdminID:  cfg.AdminUserID,
		}
		sched.SetReportFunction(report.Run)
		if err := sched.Start(); err != nil {
			log.Printf("failed to start scheduler: %v", err)
		} else {
			defer sched.Stop()
		}
	}

	telegram.New(api, machine).Start(ctx)
}

func newRepository(ctx context.Context, cfg *config.Config) (inventory.Repository, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("⚠️ redis at %s not reachable yet: %v", cfg.RedisAddr, err)
		}
		return inventory.NewRedisRepository(client, cfg.RedisKey), func() { _ = client.Close() }, nil
	default:
		repo, err := inventory.NewFileRepository(cfg.InventoryFilePath)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}

func seedInventory(ctx context.Context, store *inventory.Store, path string) {
	if path == "" || store.Len() > 0 {
		return
	}
	seed, err := inventory.LoadSeed(path)
	if err != nil {
		log.Printf("failed to read initial inventory %s: %v", path, err)
		return
	}
	if len(seed) == 0 {
		return
	}
	n, err := store.Merge(ctx, seed)
	if err != nil {
		log.Printf("⚠️ initial inventory not persisted: %v", err)
	}
	log.Printf("Seeded %d articles (%d colors) from %s", len(seed), n, path)
}
