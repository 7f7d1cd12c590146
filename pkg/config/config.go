package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	// PartnerAPISecret authenticates the settlement partner's callbacks.
	PartnerAPISecret string

	// External rate source.
	RateSourceURL       string
	RateSourceTimeout   time.Duration
	RateRefreshInterval time.Duration
	// RateMaxAge bounds how old a rate may be for loan admission.
	RateMaxAge time.Duration

	// Custody gateway fronting the collateral contract.
	ChainGatewayURL     string
	ChainGatewayAPIKey  string
	ChainGatewayTimeout time.Duration

	// Lending parameters.
	LTVRatio           decimal.Decimal
	CollateralCurrency string
	LoanCurrency       string
	LoanTermDays       int
	CollateralScale    int32
	LoanScale          int32
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "micro-lending-app")
	viper.SetDefault("PARTNER_API_SECRET", "")
	viper.SetDefault("RATE_SOURCE_URL", "http://localhost:9100/rates")
	viper.SetDefault("RATE_SOURCE_TIMEOUT", "5s")
	viper.SetDefault("RATE_REFRESH_INTERVAL", "1m")
	viper.SetDefault("RATE_MAX_AGE", "5m")
	viper.SetDefault("CHAIN_GATEWAY_URL", "http://localhost:9200")
	viper.SetDefault("CHAIN_GATEWAY_API_KEY", "")
	viper.SetDefault("CHAIN_GATEWAY_TIMEOUT", "10s")
	viper.SetDefault("LTV_RATIO", "0.5")
	viper.SetDefault("COLLATERAL_CURRENCY", "GLD")
	viper.SetDefault("LOAN_CURRENCY", "IDR")
	viper.SetDefault("LOAN_TERM_DAYS", 30)
	viper.SetDefault("COLLATERAL_SCALE", 6)
	viper.SetDefault("LOAN_SCALE", 2)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTExpiryDuration = parseDuration("JWT_EXPIRY_DURATION", time.Hour)
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.PartnerAPISecret = viper.GetString("PARTNER_API_SECRET")
	if cfg.PartnerAPISecret == "" {
		log.Println("Warning: PARTNER_API_SECRET not set. Partner callbacks will be rejected.")
	}

	cfg.RateSourceURL = viper.GetString("RATE_SOURCE_URL")
	cfg.RateSourceTimeout = parseDuration("RATE_SOURCE_TIMEOUT", 5*time.Second)
	cfg.RateRefreshInterval = parseDuration("RATE_REFRESH_INTERVAL", time.Minute)
	cfg.RateMaxAge = parseDuration("RATE_MAX_AGE", 5*time.Minute)

	cfg.ChainGatewayURL = viper.GetString("CHAIN_GATEWAY_URL")
	cfg.ChainGatewayAPIKey = viper.GetString("CHAIN_GATEWAY_API_KEY")
	cfg.ChainGatewayTimeout = parseDuration("CHAIN_GATEWAY_TIMEOUT", 10*time.Second)

	ltvRatio, err := decimal.NewFromString(viper.GetString("LTV_RATIO"))
	if err != nil {
		return nil, fmt.Errorf("invalid LTV_RATIO: %w", err)
	}
	if ltvRatio.IsNegative() || ltvRatio.IsZero() || ltvRatio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("LTV_RATIO must be in (0, 1], got %s", ltvRatio)
	}
	cfg.LTVRatio = ltvRatio

	cfg.CollateralCurrency = viper.GetString("COLLATERAL_CURRENCY")
	cfg.LoanCurrency = viper.GetString("LOAN_CURRENCY")
	cfg.LoanTermDays = viper.GetInt("LOAN_TERM_DAYS")
	if cfg.LoanTermDays <= 0 {
		return nil, fmt.Errorf("LOAN_TERM_DAYS must be positive, got %d", cfg.LoanTermDays)
	}
	cfg.CollateralScale = viper.GetInt32("COLLATERAL_SCALE")
	cfg.LoanScale = viper.GetInt32("LOAN_SCALE")

	return cfg, nil
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
