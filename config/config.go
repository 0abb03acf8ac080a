package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Validation errors returned by Config.Validate.
var (
	ErrInvalidListingPages = errors.New("MAX_LISTING_PAGES must be at least 1")
	ErrInvalidReviewsPage  = errors.New("REVIEWS_PER_PAGE must be at least 1")
	ErrNoUserAgents        = errors.New("USER_AGENTS must contain at least one entry")
	ErrInvalidJitterRange  = errors.New("JITTER_MIN_MS must not exceed JITTER_MAX_MS")
	ErrNegativeDuration    = errors.New("delays and timeouts must be non-negative")
	ErrMissingOutputRoot   = errors.New("OUTPUT_ROOT is required")
	ErrMissingListingURL   = errors.New("LISTING_URL is required")
	ErrInvalidFetchMode    = errors.New("FETCH_MODE must be 'http' or 'browser'")
	ErrInvalidMaxRetries   = errors.New("MAX_RETRIES must be non-negative")
	ErrInvalidConcurrency  = errors.New("MAX_CONCURRENCY must be non-negative")
)

// Fetch modes.
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// DefaultUserAgents is the pool a random User-Agent is drawn from for every work unit.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:108.0) Gecko/20100101 Firefox/108.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 13_1.0) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
	"Mozilla/5.0 (Linux; Android 13; Pixel 6 Pro) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Mobile Safari/537.36",
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SiteBaseURL     string
	ListingURL      string
	MaxListingPages int
	ReviewsPerPage  int
	UserAgents      []string
	SelectorsFile   string

	// Per-unit jitter: (page/(page/100+1))*JitterPageStep + rand[JitterMin, JitterMax] + JitterPageStep.
	JitterMin      time.Duration
	JitterMax      time.Duration
	JitterPageStep time.Duration

	CompanyCooldown time.Duration
	ListingDelay    time.Duration

	MaxConcurrency  int
	MaxRetries      int
	BackoffBase     time.Duration
	BackoffMax      time.Duration
	RequestTimeout  time.Duration
	// Minimum gap between page fetches of one company, on top of the jitter.
	RequestInterval time.Duration

	FetchMode        string
	CloudflareBypass bool
	ChromeBin        string

	OutputRoot string
	LogLevel   string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	NominatimURL       string
	GeocodeUserAgent   string
	GeocodeCachePath   string
	GeocodeMinInterval time.Duration
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SiteBaseURL:     getEnv("SITE_BASE_URL", "https://fr.trustpilot.com"),
		ListingURL:      getEnv("LISTING_URL", "https://fr.trustpilot.com/categories/business_services?subcategories=shipping_logistics"),
		MaxListingPages: getEnvInt("MAX_LISTING_PAGES", 11),
		ReviewsPerPage:  getEnvInt("REVIEWS_PER_PAGE", 20),
		UserAgents:      getEnvList("USER_AGENTS", DefaultUserAgents),
		SelectorsFile:   getEnv("SELECTORS_FILE", ""),

		JitterMin:      getEnvMs("JITTER_MIN_MS", 5000),
		JitterMax:      getEnvMs("JITTER_MAX_MS", 15000),
		JitterPageStep: getEnvMs("JITTER_PAGE_STEP_MS", 1000),

		CompanyCooldown: getEnvMs("COMPANY_COOLDOWN_MS", 20000),
		ListingDelay:    getEnvMs("LISTING_DELAY_MS", 20000),

		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 0),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		BackoffBase:     getEnvMs("BACKOFF_BASE_MS", 10000),
		BackoffMax:      getEnvMs("BACKOFF_MAX_MS", 120000),
		RequestTimeout:  getEnvMs("REQUEST_TIMEOUT_MS", 30000),
		RequestInterval: getEnvMs("REQUEST_INTERVAL_MS", 0),

		FetchMode:        strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		CloudflareBypass: getEnvBool("CLOUDFLARE_BYPASS", false),
		ChromeBin:        getEnv("CHROME_BIN", ""),

		OutputRoot: getEnv("OUTPUT_ROOT", "./scrapping_results"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "reviews_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		NominatimURL:       getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		GeocodeUserAgent:   getEnv("GEOCODE_USER_AGENT", "review-scraper-geocoder/0.1"),
		GeocodeCachePath:   getEnv("GEOCODE_CACHE_PATH", "./scrapping_results/geocode_cache.json"),
		GeocodeMinInterval: getEnvMs("GEOCODE_MIN_INTERVAL_MS", 1000),
	}
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	if c.MaxListingPages < 1 {
		return ErrInvalidListingPages
	}
	if c.ReviewsPerPage < 1 {
		return ErrInvalidReviewsPage
	}
	if len(c.UserAgents) == 0 {
		return ErrNoUserAgents
	}
	for _, d := range []time.Duration{
		c.JitterMin, c.JitterMax, c.JitterPageStep, c.CompanyCooldown,
		c.ListingDelay, c.BackoffBase, c.BackoffMax, c.RequestTimeout, c.RequestInterval,
	} {
		if d < 0 {
			return ErrNegativeDuration
		}
	}
	if c.JitterMin > c.JitterMax {
		return ErrInvalidJitterRange
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.MaxConcurrency < 0 {
		return ErrInvalidConcurrency
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		return ErrMissingOutputRoot
	}
	if strings.TrimSpace(c.ListingURL) == "" {
		return ErrMissingListingURL
	}
	if c.FetchMode != FetchModeHTTP && c.FetchMode != FetchModeBrowser {
		return ErrInvalidFetchMode
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvMs(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

// getEnvList splits a "|"-separated value; User-Agent strings contain commas.
func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(val, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
