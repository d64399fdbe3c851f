package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"aqsensor-cloud/internal/analytics/domain/uptime"
	masterdata "aqsensor-cloud/internal/masterdata/domain"
	"aqsensor-cloud/internal/period"
)

const (
	defaultCleanLevel = "Level 1"
	defaultRawLevel   = "Level 0"
)

// UptimeConfig selects the threshold policies of the uptime engine.
type UptimeConfig struct {
	Policy          string  `yaml:"policy"`
	DailyPolicy     string  `yaml:"daily_policy"`
	NormalizedRatio float64 `yaml:"normalized_ratio"`
}

// DatabaseConfig selects the status store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ScheduleConfig defines when scheduled runs fire.
type ScheduleConfig struct {
	DailyAt         string `yaml:"daily_at"`
	RunDays         []int  `yaml:"run_days"`
	FebruaryRunDays []int  `yaml:"february_run_days"`
}

// AlertConfig selects where off-twice alerts are sent.
type AlertConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

// Config is the service configuration.
type Config struct {
	DataRoot    string            `yaml:"data_root"`
	SensorsDir  string            `yaml:"sensors_dir"`
	ReportDir   string            `yaml:"report_dir"`
	Period      string            `yaml:"period"`
	Countries   []string          `yaml:"countries"`
	RawLevel    string            `yaml:"raw_level"`
	CleanLevels map[string]string `yaml:"clean_levels"`
	Workers     int               `yaml:"workers"`
	HTTPAddr    string            `yaml:"http_addr"`
	Uptime      UptimeConfig      `yaml:"uptime"`
	Database    DatabaseConfig    `yaml:"database"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Alerts      AlertConfig       `yaml:"alerts"`
}

// Load builds the configuration from defaults, an optional .env file,
// environment variables and an optional YAML file named by AQ_CONFIG.
func Load() (Config, error) {
	envFile := getenvDefault("AQ_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load %s: %w", envFile, err)
	}

	cfg := Config{
		DataRoot:    getenvDefault("AQ_DATA_ROOT", "Central Asian Data"),
		SensorsDir:  getenvDefault("AQ_SENSORS_DIR", "sensors_info"),
		ReportDir:   os.Getenv("AQ_REPORT_DIR"),
		Period:      os.Getenv("AQ_PERIOD"),
		Countries:   splitCSV(getenvDefault("AQ_COUNTRIES", "KZ,KG,UZ")),
		RawLevel:    getenvDefault("AQ_RAW_LEVEL", defaultRawLevel),
		CleanLevels: map[string]string{"KZ": "Level 2"},
		Workers:     getenvIntDefault("AQ_WORKERS", 4),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		Uptime: UptimeConfig{
			Policy:          getenvDefault("AQ_UPTIME_POLICY", uptime.PolicyRawCount),
			DailyPolicy:     getenvDefault("AQ_DAILY_POLICY", uptime.PolicyNormalized),
			NormalizedRatio: getenvFloatDefault("AQ_NORMALIZED_RATIO", uptime.DefaultNormalizedRatio),
		},
		Database: DatabaseConfig{
			Driver: getenvDefault("DATABASE_DRIVER", "pgx"),
			DSN:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		},
		Schedule: ScheduleConfig{
			DailyAt:         getenvDefault("AQ_DAILY_AT", "02:00"),
			RunDays:         splitInts(getenvDefault("AQ_RUN_DAYS", "17,30")),
			FebruaryRunDays: splitInts(getenvDefault("AQ_FEBRUARY_RUN_DAYS", "15,28")),
		},
		Alerts: AlertConfig{
			WebhookURL: os.Getenv("AQ_ALERT_WEBHOOK_URL"),
		},
	}

	if path := os.Getenv("AQ_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks configuration invariants.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataRoot) == "" {
		return errors.New("config: data root required")
	}
	if len(c.Countries) == 0 {
		return errors.New("config: at least one country required")
	}
	for _, country := range c.Countries {
		if !masterdata.KnownCountry(country) {
			return fmt.Errorf("config: unknown country %q", country)
		}
	}
	if c.Workers <= 0 {
		return errors.New("config: workers must be positive")
	}
	if c.Period != "" {
		if _, err := period.Parse(c.Period); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if _, _, err := c.Policies(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := time.Parse("15:04", c.Schedule.DailyAt); err != nil {
		return fmt.Errorf("config: schedule daily_at %q: %w", c.Schedule.DailyAt, err)
	}
	return nil
}

// CleanLevel returns the output level folder of the cleaning run for a country.
func (c Config) CleanLevel(country string) string {
	if level, ok := c.CleanLevels[strings.ToUpper(country)]; ok && level != "" {
		return level
	}
	return defaultCleanLevel
}

// PeriodAt returns the configured period, or the period containing now.
func (c Config) PeriodAt(now time.Time) period.Period {
	if c.Period != "" {
		if p, err := period.Parse(c.Period); err == nil {
			return p
		}
	}
	return period.ForDate(now)
}

// Policies resolves the uptime and daily threshold policies.
func (c Config) Policies() (uptime.ThresholdPolicy, uptime.ThresholdPolicy, error) {
	up, err := uptime.PolicyByName(c.Uptime.Policy, c.Uptime.NormalizedRatio)
	if err != nil {
		return nil, nil, err
	}
	daily, err := uptime.PolicyByName(c.Uptime.DailyPolicy, c.Uptime.NormalizedRatio)
	if err != nil {
		return nil, nil, err
	}
	return up, daily, nil
}

// RunDays returns the scheduled run days for a month.
func (c Config) RunDays(month time.Month) []int {
	if month == time.February && len(c.Schedule.FebruaryRunDays) > 0 {
		return c.Schedule.FebruaryRunDays
	}
	return c.Schedule.RunDays
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, strings.ToUpper(part))
		}
	}
	return result
}

func splitInts(value string) []int {
	var result []int
	for _, part := range splitCSV(value) {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 31 {
			continue
		}
		result = append(result, n)
	}
	return result
}
