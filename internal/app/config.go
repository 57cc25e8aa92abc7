package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"lockerd/internal/retry"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvSeconds reads a duration given as whole seconds.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	secs, err := strconv.Atoi(value)
	if err != nil {
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric duration")
		return defaultValue
	}
	return time.Duration(secs) * time.Second
}

// Config gathers everything the server needs from the environment.
type Config struct {
	ListenAddr      string
	CredentialsFile string

	Term string

	ContactSheet string
	RequestSheet string
	LockersSheet string
	LedgerSheet  string

	ContactTTL  time.Duration
	RequestTTL  time.Duration
	LockersTTL  time.Duration
	LedgerTTL   time.Duration
	SnapshotTTL time.Duration

	ContactFormURL string
	RequestFormURL string
	SignupFormURL  string

	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string

	Fetch retry.Policy
}

// LoadConfig reads the full configuration, exiting on missing required keys.
func LoadConfig() Config {
	return Config{
		ListenAddr:      GetEnvWithDefault("LISTEN_ADDR", ":8080"),
		CredentialsFile: GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json"),

		Term: GetRequiredEnv("RENTAL_TERM"),

		ContactSheet: GetRequiredEnv("CONTACT_SHEET"),
		RequestSheet: GetRequiredEnv("REQUEST_SHEET"),
		LockersSheet: GetEnvWithDefault("LOCKERS_SHEET", "Lockers"),
		LedgerSheet:  GetEnvWithDefault("LEDGER_SHEET", "Locker_Rentals"),

		ContactTTL:  getEnvSeconds("CONTACT_TTL_SECONDS", 120*time.Second),
		RequestTTL:  getEnvSeconds("REQUEST_TTL_SECONDS", 120*time.Second),
		LockersTTL:  getEnvSeconds("LOCKERS_TTL_SECONDS", 120*time.Second),
		LedgerTTL:   getEnvSeconds("LEDGER_TTL_SECONDS", 30*time.Second),
		SnapshotTTL: getEnvSeconds("SNAPSHOT_TTL_SECONDS", 30*time.Second),

		ContactFormURL: GetRequiredEnv("CONTACT_FORM_URL"),
		RequestFormURL: GetRequiredEnv("REQUEST_FORM_URL"),
		SignupFormURL:  GetEnvWithDefault("SIGNUP_FORM_URL", ""),

		OAuthClientID:     GetRequiredEnv("OAUTH_CLIENT_ID"),
		OAuthClientSecret: GetRequiredEnv("OAUTH_CLIENT_SECRET"),
		OAuthRedirectURL:  GetRequiredEnv("OAUTH_REDIRECT_URL"),

		Fetch: retry.Policy{
			Attempts:  3,
			BaseDelay: 2 * time.Second,
			MaxDelay:  30 * time.Second,
			Timeout:   15 * time.Second,
		},
	}
}
