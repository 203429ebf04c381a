package config

import (
	"fmt"
	"os"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
	DriverFixtures = "fixtures"
)

type Config struct {
	Server   ServerConfig
	Source   SourceConfig
	Display  DisplayConfig
	Geo      GeoConfig
	Logger   LoggerConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// SourceConfig selects the backend the analytics resources are read from.
type SourceConfig struct {
	Driver      string
	URL         string
	APIKey      string `json:"-"`
	DatabaseURL string `json:"-"`
	FixturesDir string
	Timeout     time.Duration
	LoadTimeout time.Duration
	Concurrency int
}

type DisplayConfig struct {
	DefaultYear        string
	LabelThreshold     int64
	ShowAllLabels      bool
	ShowTopProductName bool
	Currency           string
	Locale             string
}

type GeoConfig struct {
	File string
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
	AllowedOrigins  []string
	TrustedProxies  []string
}

var yearPattern = regexp.MustCompile(`^\d{4}$`)

// Load reads the configuration from the environment. A .env file in the
// working directory, when present, is applied first without overriding
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Source: SourceConfig{
			Driver:      strings.ToLower(getEnvString("SOURCE_DRIVER", DriverREST)),
			URL:         getEnvString("SUPABASE_URL", ""),
			APIKey:      getEnvString("SUPABASE_ANON_KEY", ""),
			DatabaseURL: getEnvString("DATABASE_URL", ""),
			FixturesDir: getEnvString("FIXTURES_DIR", "fixtures"),
			Timeout:     getEnvDuration("SOURCE_TIMEOUT", 15*time.Second),
			LoadTimeout: getEnvDuration("LOAD_TIMEOUT", 60*time.Second),
			Concurrency: getEnvInt("SOURCE_CONCURRENCY", 8),
		},
		Display: DisplayConfig{
			DefaultYear:        strings.ToLower(getEnvString("DEFAULT_YEAR", "all")),
			LabelThreshold:     int64(getEnvInt("MAP_LABEL_THRESHOLD", 1000)),
			ShowAllLabels:      getEnvBool("MAP_SHOW_ALL_LABELS", false),
			ShowTopProductName: getEnvBool("MAP_SHOW_TOP_PRODUCT", true),
			Currency:           strings.ToUpper(getEnvString("CURRENCY", "USD")),
			Locale:             getEnvString("LOCALE", runtimeLocale()),
		},
		Geo: GeoConfig{
			File: getEnvString("GEO_FILE", ""),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
			AllowedOrigins:  getEnvStringSlice("SECURITY_ALLOWED_ORIGINS", []string{"http://localhost:8084"}),
			TrustedProxies:  getEnvStringSlice("SECURITY_TRUSTED_PROXIES", []string{"127.0.0.1"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	switch c.Source.Driver {
	case DriverREST:
		if c.Source.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the %q source driver", DriverREST)
		}
	case DriverPostgres:
		if c.Source.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %q source driver", DriverPostgres)
		}
	case DriverFixtures:
		if c.Source.FixturesDir == "" {
			return fmt.Errorf("FIXTURES_DIR cannot be empty for the %q source driver", DriverFixtures)
		}
	default:
		return fmt.Errorf("invalid source driver %q, must be one of: %s", c.Source.Driver,
			strings.Join([]string{DriverREST, DriverPostgres, DriverFixtures}, ", "))
	}

	if c.Source.Timeout <= 0 || c.Source.LoadTimeout <= 0 {
		return fmt.Errorf("source timeouts must be positive")
	}

	if c.Source.Concurrency <= 0 {
		return fmt.Errorf("source concurrency must be positive")
	}

	if c.Display.DefaultYear != "all" && !yearPattern.MatchString(c.Display.DefaultYear) {
		return fmt.Errorf("default year must be \"all\" or a 4-digit year, got %q", c.Display.DefaultYear)
	}

	if c.Display.LabelThreshold < 0 {
		return fmt.Errorf("map label threshold cannot be negative")
	}

	if len(c.Display.Currency) != 3 {
		return fmt.Errorf("currency must be a 3-letter ISO code, got %q", c.Display.Currency)
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 {
		return fmt.Errorf("rate limit RPS must be positive")
	}

	if c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit burst must be positive")
	}

	return nil
}

// runtimeLocale derives a BCP 47 tag from the POSIX locale variables,
// e.g. "pt_BR.UTF-8" becomes "pt-BR".
func runtimeLocale() string {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		value := os.Getenv(key)
		if value == "" || value == "C" || value == "POSIX" {
			continue
		}
		if i := strings.IndexAny(value, ".@"); i >= 0 {
			value = value[:i]
		}
		if value == "" || value == "C" {
			continue
		}
		return strings.ReplaceAll(value, "_", "-")
	}
	return "en-US"
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
