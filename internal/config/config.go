package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	SQLitePath        string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Sheets   SheetsConfig
	Catalog  CatalogConfig
	Discount DiscountConfig
	Sync     SyncConfig
	Quote    QuoteConfig
	Email    EmailConfig
}

// SheetsConfig addresses the remote spreadsheet tables.
type SheetsConfig struct {
	CredentialsFile string
	SpreadsheetID   string
	PartsSheet      string
	DiscountsSheet  string
	OrdersSheet     string
	RetryAttempts   int
}

// CatalogConfig carries the parts search business rules.
type CatalogConfig struct {
	SearchMinimumChars   int
	MaxSearchResults     int
	CaseSensitiveSearch  bool
	InactivePartsVisible bool
	DefaultPriceFallback float64
}

// DiscountConfig carries the discount business rules.
type DiscountConfig struct {
	DefaultDiscount       float64
	MaxDiscountPercentage float64
	GlobalPriority        bool
	DomainMatching        bool
	RoundingPlaces        int
	ResolveTimeoutSeconds int
}

// SyncConfig controls the catalog sync schedule.
type SyncConfig struct {
	IntervalHours int
	DailyTime     string
}

// QuoteConfig controls quotation summaries and links.
type QuoteConfig struct {
	Currency      string
	VATRate       float64
	AcceptBaseURL string
	CompanyName   string
	CompanyEmail  string
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	FromName     string
	Enabled      bool
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "partdesk"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),

		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:     getenv("DATABASE_TYPE", "sqlite"),
		DBHost:     getenv("DATABASE_HOST", "localhost"),
		DBPort:     getenv("DATABASE_PORT", "5432"),
		DBName:     getenv("DATABASE_NAME", "partdesk"),
		DBUser:     getenv("DATABASE_USER", "partdesk"),
		DBPassword: getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:  getenv("DATABASE_SSLMODE", "disable"),
		SQLitePath: getenv("SQLITE_PATH", "data/parts_cache.db"),

		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONNS", 2),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONNS", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME_MINUTES", 30),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_MINUTES", 5),

		Sheets: SheetsConfig{
			CredentialsFile: getenv("SHEETS_CREDENTIALS_FILE", "credentials.json"),
			SpreadsheetID:   getenv("SHEETS_SPREADSHEET_ID", ""),
			PartsSheet:      getenv("SHEETS_PARTS_SHEET", "Parts Database"),
			DiscountsSheet:  getenv("SHEETS_DISCOUNTS_SHEET", "Customer Discounts"),
			OrdersSheet:     getenv("SHEETS_ORDERS_SHEET", "Orders Intake"),
			RetryAttempts:   getenvInt("SHEETS_RETRY_ATTEMPTS", 3),
		},
		Catalog: CatalogConfig{
			SearchMinimumChars:   getenvInt("SEARCH_MINIMUM_CHARS", 2),
			MaxSearchResults:     getenvInt("MAX_SEARCH_RESULTS", 50),
			CaseSensitiveSearch:  getenvBool("CASE_SENSITIVE_SEARCH", false),
			InactivePartsVisible: getenvBool("INACTIVE_PARTS_VISIBLE", true),
			DefaultPriceFallback: getenvFloat("DEFAULT_PRICE_FALLBACK", 0.0),
		},
		Discount: DiscountConfig{
			DefaultDiscount:       getenvFloat("DEFAULT_DISCOUNT", 0.0),
			MaxDiscountPercentage: getenvFloat("MAX_DISCOUNT_PERCENTAGE", 50.0),
			GlobalPriority:        getenvBool("GLOBAL_DISCOUNT_PRIORITY", true),
			DomainMatching:        getenvBool("DOMAIN_MATCHING_ENABLED", true),
			RoundingPlaces:        getenvInt("DISCOUNT_ROUNDING", 2),
			ResolveTimeoutSeconds: getenvInt("DISCOUNT_RESOLVE_TIMEOUT_SECONDS", 5),
		},
		Sync: SyncConfig{
			IntervalHours: getenvInt("SYNC_INTERVAL_HOURS", 24),
			DailyTime:     getenv("DAILY_SYNC_TIME", "02:00"),
		},
		Quote: QuoteConfig{
			Currency:      getenv("QUOTE_CURRENCY", "EUR"),
			VATRate:       getenvFloat("QUOTE_VAT_RATE", 0.23),
			AcceptBaseURL: getenv("QUOTE_ACCEPT_BASE_URL", "http://localhost:8080"),
			CompanyName:   getenv("COMPANY_NAME", "PartDesk"),
			CompanyEmail:  getenv("COMPANY_EMAIL", "sales@partdesk.local"),
		},
		Email: EmailConfig{
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 587),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
			SMTPFrom:     getenv("SMTP_FROM", "sales@partdesk.local"),
			FromName:     getenv("SMTP_FROM_NAME", "PartDesk"),
			Enabled:      getenvBool("EMAIL_ENABLED", false),
		},
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
