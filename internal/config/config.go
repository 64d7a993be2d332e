package config

import (
	"log"

	"github.com/caarlos0/env/v6"
)

type StorageBackend string

const (
	BackendFile  StorageBackend = "file"
	BackendRedis StorageBackend = "redis"
)

type Config struct {
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN,required"`
	AdminUserID      int64  `env:"ADMIN_USER"`

	// Storage
	StorageBackend       StorageBackend `env:"STORAGE_BACKEND" envDefault:"file"`
	InventoryFilePath    string         `env:"INVENTORY_FILE_PATH" envDefault:"data/inventory.json"`
	InitialInventoryPath string         `env:"INITIAL_INVENTORY_PATH" envDefault:"data/initial_inventory.json"`
	JournalFilePath      string         `env:"JOURNAL_FILE_PATH" envDefault:"logs/movements.jsonl"`

	// Redis (STORAGE_BACKEND=redis)
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisKey      string `env:"REDIS_KEY" envDefault:"stock:inventory"`

	// Stock rules
	LowStockThreshold int `env:"LOW_STOCK_THRESHOLD" envDefault:"6"`
	IncrementStep     int `env:"INCREMENT_STEP" envDefault:"6"`
	NewColorQuantity  int `env:"NEW_COLOR_QUANTITY" envDefault:"6"`

	// Daily admin report, UTC cron spec; empty disables
	ReportSchedule string `env:"REPORT_SCHEDULE" envDefault:"0 21 * * *"`
}

func New() *Config {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Parse reads the config from the environment and fixes values that would
// break stock invariants.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.IncrementStep <= 0 {
		log.Printf("INCREMENT_STEP must be positive, using 6")
		cfg.IncrementStep = 6
	}
	if cfg.NewColorQuantity < 0 {
		log.Printf("NEW_COLOR_QUANTITY must not be negative, using 0")
		cfg.NewColorQuantity = 0
	}
	return cfg, nil
}
