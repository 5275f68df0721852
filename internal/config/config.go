package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Game    GameConfig
	Clock   ClockConfig
	NATS    NATSConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port      string
	Host      string
	Env       string // "development" or "production"
	PublicURL string // Base URL used in invite links; empty derives it from the request
}

// GameConfig holds game-related configuration
type GameConfig struct {
	DefaultDurationMinutes     int
	MinParticipants            int
	MaxParticipants            int
	FakeArtistFirstBiasPercent int
	AccessCodeAttempts         int
	StaleSessionTimeout        time.Duration
	BaseLocale                 string
	WordBankDir                string // Empty uses the embedded word banks
	RandomSeed                 int64  // 0 seeds from the current time
}

// ClockConfig holds reference clock configuration
type ClockConfig struct {
	ReferenceURL string // Empty makes this server its own reference
	SyncInterval time.Duration
}

// NATSConfig holds event publishing configuration
type NATSConfig struct {
	URL           string // Empty disables NATS publishing
	SubjectPrefix string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// Load reads an optional .env file and then the environment, applying
// defaults for anything unset
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FromEnv(), nil
}

// FromEnv builds the configuration from environment variables only
func FromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:      getEnv("PORT", "8080"),
			Host:      getEnv("HOST", "0.0.0.0"),
			Env:       getEnv("ENV", "development"),
			PublicURL: strings.TrimRight(getEnv("PUBLIC_URL", ""), "/"),
		},
		Game: GameConfig{
			DefaultDurationMinutes:     getEnvInt("DEFAULT_DURATION_MINUTES", 10),
			MinParticipants:            getEnvInt("MIN_PARTICIPANTS", 2),
			MaxParticipants:            getEnvInt("MAX_PARTICIPANTS", 10),
			FakeArtistFirstBiasPercent: getEnvInt("FAKE_ARTIST_FIRST_BIAS_PERCENT", 99),
			AccessCodeAttempts:         getEnvInt("ACCESS_CODE_ATTEMPTS", 10),
			StaleSessionTimeout:        time.Duration(getEnvInt("STALE_SESSION_TIMEOUT_MINUTES", 120)) * time.Minute,
			BaseLocale:                 getEnv("BASE_LOCALE", "en"),
			WordBankDir:                getEnv("WORD_BANK_DIR", ""),
			RandomSeed:                 int64(getEnvInt("RANDOM_SEED", 0)),
		},
		Clock: ClockConfig{
			ReferenceURL: getEnv("REFERENCE_CLOCK_URL", ""),
			SyncInterval: time.Duration(getEnvInt("CLOCK_SYNC_INTERVAL_SECONDS", 60)) * time.Second,
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "fakeartist"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// getEnv returns an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an environment variable as an integer or a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}
