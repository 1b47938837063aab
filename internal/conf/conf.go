package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration
type Config struct {
	// Feishu configuration
	Feishu FeishuConfig

	// OpenAI-compatible relevance filter (optional)
	OpenAI OpenAIConfig

	// State storage configuration
	State StateConfig

	// Admin API configuration
	API APIConfig

	// Log configuration
	Log LogConfig

	// Bot texts and schedules (loaded from YAML)
	Bots *BotsConfig

	// Location used for schedules and alarm conversion
	Location *time.Location

	// Admins seeds the command allow-list
	Admins []string

	// Outbound platform calls per minute, 0 for unlimited
	RateLimitPerMinute int

	// DryRun logs writes instead of sending them
	DryRun bool

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID          string
	AppSecret      string
	TimelineChatID string // Chat acting as the bot's public timeline
}

// OpenAIConfig contains relevance filter configuration
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// StateConfig contains state storage configuration
type StateConfig struct {
	DBPath string
}

// APIConfig contains admin API configuration
type APIConfig struct {
	Port int
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// State DB path
	stateDBPath := os.Getenv("STATE_DB_PATH")
	if stateDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		stateDBPath = filepath.Join(homeDir, ".robotzoo", "state.db")
	}

	tz := os.Getenv("TIMEZONE")
	if tz == "" {
		tz = "Europe/Amsterdam"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &ConfigError{Field: "TIMEZONE", Message: err.Error()}
	}

	apiPort, err := intEnv("API_PORT", 9877)
	if err != nil {
		return nil, err
	}
	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 60)
	if err != nil {
		return nil, err
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	// Load bot texts from YAML
	bots, err := LoadBotsConfig(os.Getenv("BOTS_CONFIG_PATH"))
	if err != nil {
		return nil, err
	}

	return &Config{
		Feishu: FeishuConfig{
			AppID:          os.Getenv("FEISHU_APP_ID"),
			AppSecret:      os.Getenv("FEISHU_APP_SECRET"),
			TimelineChatID: os.Getenv("TIMELINE_CHAT_ID"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			Model:   os.Getenv("OPENAI_MODEL"),
		},
		State: StateConfig{
			DBPath: stateDBPath,
		},
		API: APIConfig{
			Port: apiPort,
		},
		Log: LogConfig{
			Level:  logLevel,
			Format: logFormat,
		},
		Bots:               bots,
		Location:           loc,
		Admins:             splitList(os.Getenv("ADMINS")),
		RateLimitPerMinute: rateLimit,
		DryRun:             os.Getenv("DRY_RUN") == "true",
		Debug:              os.Getenv("DEBUG") == "true",
	}, nil
}

func intEnv(name string, def int) (int, error) {
	val := os.Getenv(name)
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, &ConfigError{Field: name, Message: "must be an integer"}
	}
	return parsed, nil
}

func splitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// HasPlatform reports whether Feishu credentials are configured
func (c *Config) HasPlatform() bool {
	return c.Feishu.AppID != "" && c.Feishu.AppSecret != ""
}

// Validate validates the configuration. Dry runs may go without credentials.
func (c *Config) Validate() error {
	if !c.DryRun {
		if !c.HasPlatform() {
			return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
		}
		if c.Feishu.TimelineChatID == "" {
			return &ConfigError{Field: "TIMELINE_CHAT_ID", Message: "required"}
		}
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return &ConfigError{Field: "API_PORT", Message: "out of range"}
	}
	if c.RateLimitPerMinute < 0 {
		return &ConfigError{Field: "RATE_LIMIT_PER_MINUTE", Message: "must not be negative"}
	}
	if c.Bots != nil {
		return c.Bots.Validate()
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
