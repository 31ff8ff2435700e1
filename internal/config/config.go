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
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Twilio    TwilioConfig
	JSONVoice JSONVoiceConfig
	Routing   RoutingConfig
	AI        AIConfig
}

type AppConfig struct {
	Env  string
	Port int

	// LogFile is optional; when set, logs are also written to a rotating file.
	LogFile string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// SSLMode is kept explicit for AWS-ready posture.
	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string

	// Pool sizes; zero keeps the pool defaults.
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host string
	Port int
}

type TwilioConfig struct {
	AuthToken string

	// ValidateSignature enables X-Twilio-Signature checks on the voice webhook.
	ValidateSignature bool

	// PublicBaseURL is the externally visible scheme+host Twilio signs against
	// (e.g. https://crm.example.com). Required when ValidateSignature is on.
	PublicBaseURL string
}

type JSONVoiceConfig struct {
	// SigningSecret enables signed-webhook verification when non-empty.
	SigningSecret string
	Issuer        string
}

type RoutingConfig struct {
	// CounterBackend selects where rule trigger counters are incremented: postgres or redis.
	CounterBackend string
	CounterTimeout time.Duration

	// PhoneLineCacheTTL enables the Redis read-through cache for phone lines when > 0.
	PhoneLineCacheTTL time.Duration

	// Business hours drive the after_hours condition. Empty Days disables it.
	BusinessDays     []string
	BusinessStart    string
	BusinessEnd      string
	BusinessTimezone string

	// NewCallerWindow enables Redis-backed new_caller detection when > 0:
	// a caller is new if they have not called the line within the window.
	NewCallerWindow time.Duration
}

type AIConfig struct {
	// RequestTimeout bounds each call to an AI voice-agent vendor.
	RequestTimeout time.Duration
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
	c.App.LogFile = strings.TrimSpace(os.Getenv("LOG_FILE"))

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
	{
		n, err := optionalInt("DB_MAX_OPEN_CONNS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.MaxOpenConns = n
	}
	{
		n, err := optionalInt("DB_MAX_IDLE_CONNS")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.MaxIdleConns = n
	}

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	{
		b, err := optionalBool("TWILIO_VALIDATE_SIGNATURE")
		b, parseErrs = appendParseErr(parseErrs, b, err)
		c.Twilio.ValidateSignature = b
	}
	c.Twilio.PublicBaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("TWILIO_PUBLIC_BASE_URL")), "/")

	c.JSONVoice.SigningSecret = os.Getenv("JSONVOICE_SIGNING_SECRET")
	c.JSONVoice.Issuer = strings.TrimSpace(os.Getenv("JSONVOICE_ISSUER"))

	c.Routing.CounterBackend = strings.ToLower(strings.TrimSpace(os.Getenv("ROUTING_COUNTER_BACKEND")))
	{
		d, err := optionalDuration("ROUTING_COUNTER_TIMEOUT")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Routing.CounterTimeout = d
	}
	{
		d, err := optionalDuration("ROUTING_PHONE_LINE_CACHE_TTL")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Routing.PhoneLineCacheTTL = d
	}
	c.Routing.BusinessDays = splitList(os.Getenv("ROUTING_BUSINESS_DAYS"))
	c.Routing.BusinessStart = strings.TrimSpace(os.Getenv("ROUTING_BUSINESS_START"))
	c.Routing.BusinessEnd = strings.TrimSpace(os.Getenv("ROUTING_BUSINESS_END"))
	c.Routing.BusinessTimezone = strings.TrimSpace(os.Getenv("ROUTING_BUSINESS_TZ"))
	{
		d, err := optionalDuration("ROUTING_NEW_CALLER_WINDOW")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.Routing.NewCallerWindow = d
	}

	{
		d, err := optionalDuration("AI_REQUEST_TIMEOUT")
		d, parseErrs = appendParseErr(parseErrs, d, err)
		c.AI.RequestTimeout = d
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
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

	if c.DB.MaxOpenConns < 0 || c.DB.MaxIdleConns < 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must not be negative"))
	}
	if c.DB.MaxOpenConns > 0 && c.DB.MaxIdleConns > c.DB.MaxOpenConns {
		errs = append(errs, fmt.Errorf("DB_MAX_IDLE_CONNS (%d) must not exceed DB_MAX_OPEN_CONNS (%d)", c.DB.MaxIdleConns, c.DB.MaxOpenConns))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Twilio.ValidateSignature {
		if c.Twilio.AuthToken == "" {
			errs = append(errs, errors.New("TWILIO_AUTH_TOKEN is required when TWILIO_VALIDATE_SIGNATURE is on"))
		}
		if c.Twilio.PublicBaseURL == "" {
			errs = append(errs, errors.New("TWILIO_PUBLIC_BASE_URL is required when TWILIO_VALIDATE_SIGNATURE is on"))
		}
	} else if c.IsProduction() {
		errs = append(errs, errors.New("TWILIO_VALIDATE_SIGNATURE must be on in production"))
	}
	if c.IsProduction() && c.JSONVoice.SigningSecret == "" {
		errs = append(errs, errors.New("JSONVOICE_SIGNING_SECRET is required in production"))
	}

	switch c.Routing.CounterBackend {
	case "":
		c.Routing.CounterBackend = "postgres"
	case "postgres", "redis":
	default:
		errs = append(errs, fmt.Errorf("ROUTING_COUNTER_BACKEND must be one of postgres, redis, got %q", c.Routing.CounterBackend))
	}
	if c.Routing.CounterTimeout <= 0 {
		// Counter updates run off the response path; keep them bounded anyway.
		c.Routing.CounterTimeout = 2 * time.Second
	}
	if len(c.Routing.BusinessDays) > 0 {
		if c.Routing.BusinessStart == "" || c.Routing.BusinessEnd == "" {
			errs = append(errs, errors.New("ROUTING_BUSINESS_START and ROUTING_BUSINESS_END are required with ROUTING_BUSINESS_DAYS"))
		}
		if c.Routing.BusinessTimezone == "" {
			c.Routing.BusinessTimezone = "UTC"
		}
		if _, err := time.LoadLocation(c.Routing.BusinessTimezone); err != nil {
			errs = append(errs, fmt.Errorf("ROUTING_BUSINESS_TZ is invalid: %w", err))
		}
	}

	if c.Routing.NewCallerWindow < 0 {
		errs = append(errs, fmt.Errorf("ROUTING_NEW_CALLER_WINDOW must not be negative, got %s", c.Routing.NewCallerWindow))
	}

	if c.AI.RequestTimeout <= 0 {
		// Vendors give the whole webhook single-digit seconds; AI resolution must fail fast.
		c.AI.RequestTimeout = 3 * time.Second
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

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 30s or 720h, got %q", key, v)
	}
	return d, nil
}

func optionalBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be true or false, got %q", key, v)
	}
	return b, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func appendParseErr[T any](errs []error, v T, err error) (T, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
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
