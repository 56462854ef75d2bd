package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or an env-file loaded at startup).
// No business logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Vapi     VapiConfig
	Campaign CampaignConfig
	SMTP     SMTPConfig
}

type AppConfig struct {
	Env  string
	Port int
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for hosted-Postgres posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host string
	Port int
}

type AuthConfig struct {
	JWTSecret      string
	JWTIssuer      string
	JWTAudience    string
	AccessTokenTTL time.Duration

	// Operator credentials for the management API (campaign trigger, report download).
	OperatorUser     string
	OperatorPassword string
}

// VapiConfig holds the outbound voice provider credentials and endpoints.
type VapiConfig struct {
	APIKey        string
	PhoneNumberID string

	// BaseURL is the provider API root, e.g. https://api.vapi.ai
	BaseURL string

	// ServerURL is this process's public base URL; the provider posts
	// webhook events to ServerURL + /vapi-webhook.
	ServerURL string
}

// CampaignConfig bounds the per-call reconciliation work.
type CampaignConfig struct {
	// PollMaxAttempts caps status queries per call before the call is
	// stamped polling-timeout.
	PollMaxAttempts int

	// PollInterval is the fixed wait between status queries.
	PollInterval time.Duration

	// SettleTimeout bounds the post-dispatch settle phase before the
	// report snapshot is exported.
	SettleTimeout time.Duration

	// MaxConcurrentPolls caps in-flight poll loops across the process.
	MaxConcurrentPolls int
}

// SMTPConfig is optional; when Host is empty, report email delivery is skipped.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	// Duration env vars are optional; defaults applied in Validate().
	c.Auth.AccessTokenTTL = optDuration("JWT_ACCESS_TTL")
	c.Auth.OperatorUser = strings.TrimSpace(os.Getenv("OPERATOR_USER"))
	c.Auth.OperatorPassword = os.Getenv("OPERATOR_PASSWORD")

	c.Vapi.APIKey = os.Getenv("VAPI_API_KEY")
	c.Vapi.PhoneNumberID = strings.TrimSpace(os.Getenv("VAPI_PHONE_NUMBER_ID"))
	c.Vapi.BaseURL = strings.TrimSpace(os.Getenv("VAPI_BASE_URL"))
	c.Vapi.ServerURL = strings.TrimSpace(os.Getenv("SERVER_BASE_URL"))

	c.Campaign.PollMaxAttempts = optInt("CAMPAIGN_POLL_MAX_ATTEMPTS")
	c.Campaign.PollInterval = optDuration("CAMPAIGN_POLL_INTERVAL")
	c.Campaign.SettleTimeout = optDuration("CAMPAIGN_SETTLE_TIMEOUT")
	c.Campaign.MaxConcurrentPolls = optInt("CAMPAIGN_MAX_CONCURRENT_POLLS")

	c.SMTP.Host = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	c.SMTP.Port = optInt("SMTP_PORT")
	c.SMTP.User = strings.TrimSpace(os.Getenv("SMTP_USER"))
	c.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	c.SMTP.From = strings.TrimSpace(os.Getenv("REPORT_FROM_EMAIL"))
	c.SMTP.To = strings.TrimSpace(os.Getenv("REPORT_TO_EMAIL"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.OperatorUser == "" {
		errs = append(errs, errors.New("OPERATOR_USER is required"))
	}
	if c.Auth.OperatorPassword == "" {
		errs = append(errs, errors.New("OPERATOR_PASSWORD is required"))
	}
	if c.IsProduction() {
		if c.Auth.JWTIssuer == "" {
			errs = append(errs, errors.New("JWT_ISSUER is required in production"))
		}
		if c.Auth.JWTAudience == "" {
			errs = append(errs, errors.New("JWT_AUDIENCE is required in production"))
		}
	}
	if c.Auth.AccessTokenTTL <= 0 {
		// Default: short-lived access tokens.
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}

	if c.Vapi.APIKey == "" {
		errs = append(errs, errors.New("VAPI_API_KEY is required"))
	}
	if c.Vapi.PhoneNumberID == "" {
		errs = append(errs, errors.New("VAPI_PHONE_NUMBER_ID is required"))
	}
	if c.Vapi.BaseURL == "" {
		c.Vapi.BaseURL = "https://api.vapi.ai"
	}
	if c.Vapi.ServerURL == "" {
		errs = append(errs, errors.New("SERVER_BASE_URL is required (public URL the provider posts webhooks to)"))
	}

	if c.Campaign.PollMaxAttempts <= 0 {
		c.Campaign.PollMaxAttempts = 60
	}
	if c.Campaign.PollInterval <= 0 {
		c.Campaign.PollInterval = 5 * time.Second
	}
	if c.Campaign.SettleTimeout <= 0 {
		c.Campaign.SettleTimeout = 2 * time.Minute
	}
	if c.Campaign.MaxConcurrentPolls <= 0 {
		c.Campaign.MaxConcurrentPolls = 100
	}

	// SMTP is optional as a block, but an incomplete block is a config mistake.
	if c.SMTP.Host != "" {
		if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
			errs = append(errs, fmt.Errorf("SMTP_PORT must be a valid port, got %d", c.SMTP.Port))
		}
		if c.SMTP.From == "" {
			errs = append(errs, errors.New("REPORT_FROM_EMAIL is required when SMTP_HOST is set"))
		}
		if c.SMTP.To == "" {
			errs = append(errs, errors.New("REPORT_TO_EMAIL is required when SMTP_HOST is set"))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// WebhookURL is the full callback URL handed to the provider at call placement.
func (c Config) WebhookURL() string {
	return strings.TrimRight(c.Vapi.ServerURL, "/") + "/vapi-webhook"
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func optDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
