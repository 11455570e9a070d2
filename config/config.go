package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	// TelegramToken пустой: бот не запускается, работает только HTTP API.
	TelegramToken string
	DBPath        string
	// HTTPAddr пустой: HTTP API выключен.
	HTTPAddr          string
	Timezone          string
	WorkerPoolSize    int
	WorkerQueueSize   int
	AutomationEnabled bool
}

func LoadConfig() (*Config, error) {
	_ = godotenv.Load()
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
		DBPath:        getEnv("DB_PATH", "attendance.db"),
		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		Timezone:      getEnv("SHIFT_TIMEZONE", "Asia/Tashkent"),
	}
	var err error
	if cfg.WorkerPoolSize, err = getInt("WORKER_POOL_SIZE", 4); err != nil {
		return nil, err
	}
	if cfg.WorkerQueueSize, err = getInt("WORKER_QUEUE_SIZE", 32); err != nil {
		return nil, err
	}
	if cfg.AutomationEnabled, err = getBool("AUTOMATION_ENABLED", true); err != nil {
		return nil, err
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, ErrInvalidEnv{Key: "SHIFT_TIMEZONE", Value: cfg.Timezone, Reason: err.Error()}
	}
	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		return nil, ErrInvalidEnv{Key: "TELEGRAM_TOKEN", Reason: "нужен токен бота или HTTP_ADDR"}
	}
	return cfg, nil
}

// Location: таймзона смен. Значение проверено в LoadConfig.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, ErrInvalidEnv{Key: key, Value: v, Reason: "нужно положительное целое"}
	}
	return n, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ErrInvalidEnv{Key: key, Value: v, Reason: "нужно true или false"}
	}
	return b, nil
}

type ErrInvalidEnv struct {
	Key    string
	Value  string
	Reason string
}

func (e ErrInvalidEnv) Error() string {
	return fmt.Sprintf("некорректное значение %s=%q: %s", e.Key, e.Value, e.Reason)
}
