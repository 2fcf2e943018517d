package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/opscheduler/shiftcheck/pkg/core/fatigue"
	"github.com/opscheduler/shiftcheck/pkg/core/model"
)

const configFileName = "shift_config.yaml"

// DefaultExclusiveJobs are the console and outside positions that can only be held by
// one trained operator at a time
var DefaultExclusiveJobs = []string{
	"FCC Console",
	"VRU Console",
	"#1 Out",
	"#2 Out",
	"#3 Out",
	"Tank Farm",
}

// DefaultTeams are the rotation pattern start dates of the four shift teams
var DefaultTeams = map[string]string{
	"A": "2024-08-06",
	"B": "2024-08-05",
	"C": "2024-08-09",
	"D": "2024-08-09",
}

// Config represents the application configuration
type Config struct {
	DatabaseURL string `yaml:"databaseURL,omitempty" validate:"required_without=SQLitePath"`
	SQLitePath  string `yaml:"sqlitePath,omitempty" validate:"required_without=DatabaseURL"`

	Timezone        string `yaml:"timezone,omitempty"`
	DayShiftStart   string `yaml:"dayShiftStart,omitempty" validate:"omitempty,clock"`
	NightShiftStart string `yaml:"nightShiftStart,omitempty" validate:"omitempty,clock"`

	ExclusiveJobs       []string `yaml:"exclusiveJobs,omitempty" validate:"dive,required"`
	WindowExtensionDays int      `yaml:"windowExtensionDays,omitempty" validate:"min=0,max=31"`

	// AtomicRanges wraps a whole multi-day creation in one storage transaction
	AtomicRanges    bool   `yaml:"atomicRanges,omitempty"`
	RangeRecurrence string `yaml:"rangeRecurrence,omitempty"`

	// Teams maps a team name to the date its rotation pattern starts (YYYY-MM-DD)
	Teams         map[string]string   `yaml:"teams,omitempty" validate:"dive,keys,required,endkeys,datetime=2006-01-02"`
	GeneratedJob  string              `yaml:"generatedJob,omitempty"`
	DefaultPolicy *model.PolicyConfig `yaml:"defaultPolicy,omitempty"`
	ListenAddr    string              `yaml:"listenAddr,omitempty" validate:"omitempty,hostname_port"`
	LogsDir       string              `yaml:"logsDir,omitempty"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := model.ParseClock(fl.Field().String())
		return err == nil
	})
}

// Load loads and validates the configuration from shift_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	configPath, err := findConfigFile(configFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadWithEnv loads shift_config.<env>.yaml, falling back to shift_config.yaml
func LoadWithEnv(env string) (*Config, error) {
	if env != "" {
		envFile := fmt.Sprintf("shift_config.%s.yaml", env)
		if configPath, err := findConfigFile(envFile); err == nil {
			return LoadFromPath(configPath)
		}
	}
	return Load()
}

// LoadFromPath loads and validates the configuration from a specific path.
// A .env file next to the config (or in the working directory) may set DATABASE_URL,
// which overrides databaseURL from the file.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := loadDotEnv(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}

	cfg.applyDefaults()

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct, the timezone, the policy defaults and
// the rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
		}
	}

	if cfg.DefaultPolicy != nil {
		if err := ValidatePolicy(*cfg.DefaultPolicy); err != nil {
			return fmt.Errorf("invalid defaultPolicy: %w", err)
		}
	}

	if cfg.RangeRecurrence != "" {
		if _, err := rrule.StrToROption(cfg.RangeRecurrence); err != nil {
			return fmt.Errorf("invalid rrule in rangeRecurrence: %w", err)
		}
	}

	return nil
}

// ValidatePolicy checks fatigue thresholds before they are stored
func ValidatePolicy(p model.PolicyConfig) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("policy validation failed: %w", err)
	}
	if p.ShiftLengthHours > p.MaxHoursInDay {
		return fmt.Errorf("policy validation failed: shiftLengthHours (%d) exceeds maxHoursInDay (%d)",
			p.ShiftLengthHours, p.MaxHoursInDay)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Timezone == "" {
		c.Timezone = "America/Chicago"
	}
	if c.DayShiftStart == "" {
		c.DayShiftStart = "04:45"
	}
	if c.NightShiftStart == "" {
		c.NightShiftStart = "16:45"
	}
	if len(c.ExclusiveJobs) == 0 {
		c.ExclusiveJobs = append([]string(nil), DefaultExclusiveJobs...)
	}
	if len(c.Teams) == 0 {
		c.Teams = make(map[string]string, len(DefaultTeams))
		for team, start := range DefaultTeams {
			c.Teams[team] = start
		}
	}
	if c.GeneratedJob == "" {
		c.GeneratedJob = "Generated"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogsDir == "" {
		c.LogsDir = "logs"
	}
}

// Location returns the configured timezone, UTC if it cannot be loaded
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShiftClock returns the local start times of Day and Night shifts
func (c *Config) ShiftClock() model.ShiftClock {
	clock := model.DefaultShiftClock(c.Location())
	if day, err := model.ParseClock(c.DayShiftStart); err == nil {
		clock.DayStart = day
	}
	if night, err := model.ParseClock(c.NightShiftStart); err == nil {
		clock.NightStart = night
	}
	return clock
}

func (c *Config) ExclusiveJobSet() fatigue.JobSet {
	if len(c.ExclusiveJobs) == 0 {
		return fatigue.NewJobSet(DefaultExclusiveJobs...)
	}
	return fatigue.NewJobSet(c.ExclusiveJobs...)
}

// TeamStartDates parses the team pattern start dates in the configured timezone
func (c *Config) TeamStartDates() (map[string]time.Time, error) {
	loc := c.Location()
	dates := make(map[string]time.Time, len(c.Teams))
	for team, raw := range c.Teams {
		d, err := time.ParseInLocation("2006-01-02", raw, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid start date for team %s: %w", team, err)
		}
		dates[team] = d
	}
	return dates, nil
}

func loadDotEnv(dir string) error {
	for _, p := range []string{filepath.Join(dir, ".env"), ".env"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
		return nil
	}
	return nil
}

// findConfigFile searches for name in current directory and home directory
func findConfigFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homeConfigPath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homeConfigPath); err == nil {
		return homeConfigPath, nil
	}

	return "", fmt.Errorf("config file %s not found in current directory or home directory", name)
}
