package common

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	App       AppConfig       `toml:"app"`
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Database  DatabaseConfig  `toml:"database"`
	Supabase  SupabaseConfig  `toml:"supabase"`
	Scrapers  ScrapersConfig  `toml:"scrapers"`
	Google    GoogleConfig    `toml:"google"`
	ETL       ETLConfig       `toml:"etl"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	SMTP      SMTPConfig      `toml:"smtp"`
}

type AppConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"` // "development" or "production"
	SecretKey   string `toml:"secret_key"`  // HS256 signing key for locally issued session tokens
}

type ServerConfig struct {
	Host         string        `toml:"host"`
	Port         int           `toml:"port" validate:"gte=1,lte=65535"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
	IdleTimeout  time.Duration `toml:"idle_timeout"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// DatabaseConfig holds the Postgres connection settings. With Supabase the
// host is the project's pooler endpoint; any plain Postgres works for dev.
type DatabaseConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port" validate:"gte=1,lte=65535"`
	Name     string `toml:"name"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode" validate:"oneof=disable require verify-ca verify-full prefer"`
	MinConns int    `toml:"min_conns"`
	MaxConns int    `toml:"max_conns"`
}

// DSN assembles a pgx connection string from the configured parts.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Name, d.SSLMode)
}

type SupabaseConfig struct {
	URL        string `toml:"url"`
	AnonKey    string `toml:"anon_key"`
	ServiceKey string `toml:"service_key"`
	JWTSecret  string `toml:"jwt_secret"` // Verifies Supabase access tokens locally; GoTrue introspection is used when empty
}

type ScrapersConfig struct {
	Headless        bool          `toml:"headless"`
	PageLoadTimeout time.Duration `toml:"page_load_timeout"`
	ElementTimeout  time.Duration `toml:"element_timeout"`
	NavDelay        time.Duration `toml:"nav_delay"`    // Minimum delay between page navigations
	RateLimit       float64       `toml:"rate_limit"`   // Navigations per second per vendor
	PoolSize        int           `toml:"pool_size"`    // Pre-warmed browser contexts
	DataDir         string        `toml:"data_dir"`     // Snapshot/screenshot spool root
	SnapshotTTL     time.Duration `toml:"snapshot_ttl"` // Spool retention before GC

	Trackman TrackmanConfig `toml:"trackman"`
	Arccos   ArccosConfig   `toml:"arccos"`
	SkyTrak  SkyTrakConfig  `toml:"skytrak"`
}

type TrackmanConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type ArccosConfig struct {
	URL      string `toml:"url"`
	Email    string `toml:"email"`
	Password string `toml:"password"`
}

type SkyTrakConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type GoogleConfig struct {
	OAuth  GoogleOAuthConfig  `toml:"oauth"`
	Sheets GoogleSheetsConfig `toml:"sheets"`
}

type GoogleOAuthConfig struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

type GoogleSheetsConfig struct {
	APIKey        string `toml:"api_key"`
	SpreadsheetID string `toml:"spreadsheet_id"`
}

type ETLConfig struct {
	DailySchedule  string `toml:"daily_schedule"`  // Cron expression for the daily scrape run
	WeeklySchedule string `toml:"weekly_schedule"` // Cron expression for weekly report generation
	SessionLimit   int    `toml:"session_limit"`   // Max sessions/rounds fetched per vendor per run
	OutputDir      string `toml:"output_dir"`      // Generated report files
}

type SchedulerConfig struct {
	Enabled   bool `toml:"enabled"`
	DailyETL  bool `toml:"daily_etl"`
	WeeklyPDF bool `toml:"weekly_pdf"`
	SpoolGC   bool `toml:"spool_gc"`
	AutoStart bool `toml:"auto_start"`
}

type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// NewDefaultConfig creates a configuration with default values.
// Only user-facing settings belong in golfstats.toml; technical parameters
// are hardcoded here for production stability.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "GolfStats",
			Environment: "development",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			Name:     "golfstats",
			User:     "postgres",
			SSLMode:  "prefer",
			MinConns: 2,
			MaxConns: 10,
		},
		Scrapers: ScrapersConfig{
			Headless:        true,
			PageLoadTimeout: 30 * time.Second,
			ElementTimeout:  20 * time.Second,
			NavDelay:        2 * time.Second,
			RateLimit:       0.5, // One navigation per two seconds keeps vendor dashboards happy
			PoolSize:        2,
			DataDir:         "./data",
			SnapshotTTL:     30 * 24 * time.Hour,
			Trackman: TrackmanConfig{
				URL: "https://mytrackman.com",
			},
			Arccos: ArccosConfig{
				URL: "https://dashboard.arccosgolf.com",
			},
			SkyTrak: SkyTrakConfig{
				URL: "https://app.skytrakgolf.com",
			},
		},
		Google: GoogleConfig{
			OAuth: GoogleOAuthConfig{
				RedirectURI: "http://localhost:8000/auth/google/callback",
			},
		},
		ETL: ETLConfig{
			DailySchedule:  "0 0 * * *", // Midnight daily
			WeeklySchedule: "0 0 * * 0", // Midnight Sunday
			SessionLimit:   20,
			OutputDir:      "./data/reports",
		},
		Scheduler: SchedulerConfig{
			Enabled:   false,
			DailyETL:  true,
			WeeklyPDF: true,
			SpoolGC:   true,
			AutoStart: true,
		},
		SMTP: SMTPConfig{
			Port: 587,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files. A .env file in the working directory is loaded into the
// process environment first so env overrides pick it up.
func LoadFromFiles(paths ...string) (*Config, error) {
	// .env is optional; absence is not an error
	_ = godotenv.Load()

	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// App-level settings use the GOLFSTATS_ prefix; vendor credentials and
// Supabase/Google settings use their conventional unprefixed names.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("GOLFSTATS_ENV"); env != "" {
		config.App.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.App.Environment = env
	}
	if key := os.Getenv("SECRET_KEY"); key != "" {
		config.App.SecretKey = key
	}

	// Server configuration
	if port := os.Getenv("GOLFSTATS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	} else if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("GOLFSTATS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("GOLFSTATS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("GOLFSTATS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Database configuration
	if host := os.Getenv("DB_HOST"); host != "" {
		config.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Database.Port = p
		}
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		config.Database.Name = name
	}
	if user := os.Getenv("DB_USER"); user != "" {
		config.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		config.Database.Password = password
	}
	if sslMode := os.Getenv("DB_SSL_MODE"); sslMode != "" {
		config.Database.SSLMode = sslMode
	}

	// Supabase configuration
	if supabaseURL := os.Getenv("SUPABASE_URL"); supabaseURL != "" {
		config.Supabase.URL = supabaseURL
	}
	if key := os.Getenv("SUPABASE_API_KEY"); key != "" {
		config.Supabase.AnonKey = key
	} else if key := os.Getenv("SUPABASE_KEY"); key != "" {
		config.Supabase.AnonKey = key
	}
	if key := os.Getenv("SUPABASE_SERVICE_KEY"); key != "" {
		config.Supabase.ServiceKey = key
	}
	if secret := os.Getenv("SUPABASE_JWT_SECRET"); secret != "" {
		config.Supabase.JWTSecret = secret
	}

	// Scraper configuration
	if headless := os.Getenv("GOLFSTATS_SCRAPER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Scrapers.Headless = h
		}
	}
	if dataDir := os.Getenv("GOLFSTATS_DATA_DIR"); dataDir != "" {
		config.Scrapers.DataDir = dataDir
	}
	if username := os.Getenv("TRACKMAN_USERNAME"); username != "" {
		config.Scrapers.Trackman.Username = username
	}
	if password := os.Getenv("TRACKMAN_PASSWORD"); password != "" {
		config.Scrapers.Trackman.Password = password
	}
	if email := os.Getenv("ARCCOS_EMAIL"); email != "" {
		config.Scrapers.Arccos.Email = email
	}
	if password := os.Getenv("ARCCOS_PASSWORD"); password != "" {
		config.Scrapers.Arccos.Password = password
	}
	if username := os.Getenv("SKYTRAK_USERNAME"); username != "" {
		config.Scrapers.SkyTrak.Username = username
	}
	if password := os.Getenv("SKYTRAK_PASSWORD"); password != "" {
		config.Scrapers.SkyTrak.Password = password
	}

	// Google configuration
	if clientID := os.Getenv("GOOGLE_CLIENT_ID"); clientID != "" {
		config.Google.OAuth.ClientID = clientID
	}
	if clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET"); clientSecret != "" {
		config.Google.OAuth.ClientSecret = clientSecret
	}
	if redirectURI := os.Getenv("GOOGLE_REDIRECT_URI"); redirectURI != "" {
		config.Google.OAuth.RedirectURI = redirectURI
	}
	if apiKey := os.Getenv("GOOGLE_SHEETS_API_KEY"); apiKey != "" {
		config.Google.Sheets.APIKey = apiKey
	}
	if spreadsheetID := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"); spreadsheetID != "" {
		config.Google.Sheets.SpreadsheetID = spreadsheetID
	}

	// ETL configuration
	if schedule := os.Getenv("GOLFSTATS_ETL_DAILY_SCHEDULE"); schedule != "" {
		config.ETL.DailySchedule = schedule
	}
	if schedule := os.Getenv("GOLFSTATS_ETL_WEEKLY_SCHEDULE"); schedule != "" {
		config.ETL.WeeklySchedule = schedule
	}
	if limit := os.Getenv("GOLFSTATS_ETL_SESSION_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.ETL.SessionLimit = l
		}
	}
	if outputDir := os.Getenv("GOLFSTATS_ETL_OUTPUT_DIR"); outputDir != "" {
		config.ETL.OutputDir = outputDir
	}

	// Scheduler configuration
	if enabled := os.Getenv("GOLFSTATS_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}

	// SMTP configuration
	if host := os.Getenv("SMTP_HOST"); host != "" {
		config.SMTP.Host = host
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.SMTP.Port = p
		}
	}
	if username := os.Getenv("SMTP_USERNAME"); username != "" {
		config.SMTP.Username = username
	}
	if password := os.Getenv("SMTP_PASSWORD"); password != "" {
		config.SMTP.Password = password
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		config.SMTP.From = from
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
// Command-line flags have highest priority.
func ApplyFlagOverrides(config *Config, port int, logLevel string, headless *bool) {
	if port > 0 {
		config.Server.Port = port
	}
	if logLevel != "" {
		config.Logging.Level = logLevel
	}
	if headless != nil {
		config.Scrapers.Headless = *headless
	}
}

// Validate checks the configuration using go-playground/validator tags
// plus the cron schedule fields.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := ValidateSchedule(c.ETL.DailySchedule); err != nil {
		return fmt.Errorf("invalid etl.daily_schedule: %w", err)
	}
	if err := ValidateSchedule(c.ETL.WeeklySchedule); err != nil {
		return fmt.Errorf("invalid etl.weekly_schedule: %w", err)
	}
	return nil
}

// ValidateSchedule validates a cron schedule expression and ensures a
// minimum 5-minute interval.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]

	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.App.Environment))
	return env == "production" || env == "prod"
}
