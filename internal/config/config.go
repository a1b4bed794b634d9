package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
	Walmart  WalmartConfig
	Product  ProductConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	// DelayBase plus a uniform random share of DelayJitter separates
	// consecutive region runs.
	DelayBase      time.Duration
	DelayJitter    time.Duration
	PageWaitBase   time.Duration
	PageWaitJitter time.Duration
	SessionDir     string
	ScreenshotDir  string
	// FailClosedBotCheck treats a failed bot-wall probe as a wall
	// instead of letting the run proceed.
	FailClosedBotCheck bool
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type LoggingConfig struct {
	Level  string
	Format string
}

type WalmartConfig struct {
	HomeURL    string
	ProductURL string
	StoreTag   string
	Zips       []string
}

// ProductConfig is the canonical product the scraper verifies against.
type ProductConfig struct {
	StableID      string
	Name          string
	Brand         string
	ExpectedCount int
	UnitSizeStd   float64
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8000"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			DelayBase:          getDurationOrDefault("SCRAPER_DELAY_BASE", 8*time.Second),
			DelayJitter:        getDurationOrDefault("SCRAPER_DELAY_JITTER", 7*time.Second),
			PageWaitBase:       getDurationOrDefault("SCRAPER_PAGE_WAIT_BASE", 4*time.Second),
			PageWaitJitter:     getDurationOrDefault("SCRAPER_PAGE_WAIT_JITTER", 3*time.Second),
			SessionDir:         getEnvOrDefault("SCRAPER_SESSION_DIR", "sessions"),
			ScreenshotDir:      getEnvOrDefault("SCRAPER_SCREENSHOT_DIR", "screenshots"),
			FailClosedBotCheck: getBoolOrDefault("SCRAPER_FAIL_CLOSED_BOT_CHECK", false),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", false),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			UserAgent:      getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-US"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "America/New_York"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "grocery_tracker"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
		Walmart: WalmartConfig{
			HomeURL:    getEnvOrDefault("WALMART_HOME_URL", "https://www.walmart.com"),
			ProductURL: getEnvOrDefault("WALMART_PRODUCT_URL", "https://www.walmart.com/ip/Great-Value-Large-White-Eggs-12-Count/145051970"),
			StoreTag:   getEnvOrDefault("WALMART_STORE_TAG", "walmart"),
			Zips:       getStringSliceOrDefault("WALMART_ZIPS", []string{"30328", "10001", "60614"}),
		},
		Product: ProductConfig{
			StableID:      getEnvOrDefault("PRODUCT_STABLE_ID", "walmart_gv_eggs_12ct"),
			Name:          getEnvOrDefault("PRODUCT_NAME", "Great Value Large White Eggs, 12 Count"),
			Brand:         getEnvOrDefault("PRODUCT_BRAND", "Great Value"),
			ExpectedCount: getIntOrDefault("PRODUCT_EXPECTED_COUNT", 12),
			UnitSizeStd:   getFloatOrDefault("PRODUCT_UNIT_SIZE_STD", 12),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.DelayBase < 0 || c.Scraper.DelayJitter < 0 {
		return fmt.Errorf("scraper delays cannot be negative")
	}

	if c.Walmart.ProductURL == "" {
		return fmt.Errorf("WALMART_PRODUCT_URL is required")
	}

	if len(c.Walmart.Zips) == 0 {
		return fmt.Errorf("WALMART_ZIPS must name at least one region")
	}

	if c.Product.ExpectedCount < 1 {
		return fmt.Errorf("PRODUCT_EXPECTED_COUNT must be at least 1")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
