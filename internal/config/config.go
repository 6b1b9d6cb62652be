package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Advisory AdvisoryConfig
	Jira     JiraConfig
	Email    EmailConfig
	Auth     AuthConfig
	Logger   LoggerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreDriver selects the ticket store backend.
type StoreDriver string

const (
	StoreDriverFile     StoreDriver = "file"
	StoreDriverPostgres StoreDriver = "postgres"
	StoreDriverRedis    StoreDriver = "redis"
)

// StoreConfig holds persistence settings for all supported backends.
type StoreConfig struct {
	Driver   StoreDriver
	DataDir  string
	Postgres PostgresConfig
	Redis    RedisConfig
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AdvisoryConfig configures the AI advisory client. An empty APIKey selects
// the deterministic local stand-in.
type AdvisoryConfig struct {
	APIKey         string
	Model          string
	Endpoint       string
	TimeoutSeconds int
}

// Configured reports whether a remote advisory capability is available.
func (a AdvisoryConfig) Configured() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

// Timeout returns the outbound call timeout.
func (a AdvisoryConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// JiraConfig holds the issue tracker sync target settings.
type JiraConfig struct {
	BaseURL        string
	Email          string
	APIToken       string
	ProjectKey     string
	TimeoutSeconds int
}

// Configured reports whether Jira sync can be attempted.
func (j JiraConfig) Configured() bool {
	return strings.TrimSpace(j.BaseURL) != "" &&
		strings.TrimSpace(j.Email) != "" &&
		strings.TrimSpace(j.APIToken) != ""
}

// Timeout returns the outbound call timeout.
func (j JiraConfig) Timeout() time.Duration {
	if j.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(j.TimeoutSeconds) * time.Second
}

// EmailConfig holds SMTP sender settings.
type EmailConfig struct {
	SMTPServer   string
	SMTPPort     int
	Address      string
	Password     string
	OpsRecipient string
}

// Configured reports whether the email side channel can send.
func (e EmailConfig) Configured() bool {
	return strings.TrimSpace(e.Address) != "" && strings.TrimSpace(e.Password) != ""
}

// SeedUser is one account in the static user directory.
type SeedUser struct {
	Username string
	Password string
	Role     string
	Name     string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	Users                 []SeedUser
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// defaultUsers mirrors the shipped demo accounts; override with AUTH_USERS.
var defaultUsers = []SeedUser{
	{Username: "tech1", Password: "tech123", Role: "technician", Name: "Alex Rivera"},
	{Username: "tech2", Password: "tech123", Role: "technician", Name: "Jordan Chen"},
	{Username: "engineer1", Password: "eng123", Role: "engineer", Name: "Sam Taylor"},
	{Username: "admin", Password: "admin123", Role: "admin", Name: "Admin User"},
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := StoreDriver(getEnv("STORE_DRIVER", string(StoreDriverFile)))
	switch driver {
	case StoreDriverFile, StoreDriverPostgres, StoreDriverRedis:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", driver)
	}

	users, err := parseUsers(os.Getenv("AUTH_USERS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "axis-ticket-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 60),
		},
		Store: StoreConfig{
			Driver:  driver,
			DataDir: getEnv("STORE_DATA_DIR", "user_data"),
			Postgres: PostgresConfig{
				DSN:            os.Getenv("POSTGRES_DSN"),
				MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
				MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
				ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
				ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			},
			Redis: RedisConfig{
				Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
				Password: os.Getenv("REDIS_PASSWORD"),
				DB:       redisDB,
			},
		},
		Advisory: AdvisoryConfig{
			APIKey:         strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY")),
			Model:          getEnv("OPENROUTER_MODEL", "nvidia/nemotron-nano-12b-v2-vl:free"),
			Endpoint:       getEnv("OPENROUTER_ENDPOINT", "https://openrouter.ai/api/v1/chat/completions"),
			TimeoutSeconds: getEnvAsInt("OPENROUTER_TIMEOUT_SECONDS", 30),
		},
		Jira: JiraConfig{
			BaseURL:        strings.TrimSpace(os.Getenv("JIRA_BASE_URL")),
			Email:          strings.TrimSpace(os.Getenv("JIRA_EMAIL")),
			APIToken:       strings.TrimSpace(os.Getenv("JIRA_API_TOKEN")),
			ProjectKey:     getEnv("JIRA_PROJECT_KEY", "AXIS"),
			TimeoutSeconds: getEnvAsInt("JIRA_TIMEOUT_SECONDS", 30),
		},
		Email: EmailConfig{
			SMTPServer:   getEnv("SMTP_SERVER", "smtp.gmail.com"),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			Address:      strings.TrimSpace(os.Getenv("EMAIL_ADDRESS")),
			Password:     strings.TrimSpace(os.Getenv("EMAIL_PASSWORD")),
			OpsRecipient: strings.TrimSpace(os.Getenv("EMAIL_OPS_RECIPIENT")),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			Users:                 users,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// parseUsers decodes "username:password:role:name" entries separated by
// commas. An empty value keeps the shipped demo accounts.
func parseUsers(raw string) ([]SeedUser, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultUsers, nil
	}
	var users []SeedUser
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(entry), ":", 4)
		if len(parts) < 3 {
			return nil, fmt.Errorf("invalid AUTH_USERS entry %q", entry)
		}
		user := SeedUser{Username: parts[0], Password: parts[1], Role: parts[2]}
		if len(parts) == 4 {
			user.Name = parts[3]
		}
		users = append(users, user)
	}
	return users, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
