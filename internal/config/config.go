package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "RECORDSYNC_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	logLevelEnv       = "RECORDSYNC_LOG_LEVEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"

	defaultSearchURL = "https://www.wam.go.jp/sfkohyoout/COP000100E0000.do"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Directory     DirectoryConfig    `yaml:"directory"`
	State         StateConfig        `yaml:"state"`
	Paths         PathsConfig        `yaml:"paths"`
	Submission    SubmissionConfig   `yaml:"submission"`
	Notifications NotificationConfig `yaml:"notifications"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DirectoryConfig describes the facility directory the lookup batch searches.
type DirectoryConfig struct {
	Source          string            `yaml:"source"`
	SearchURL       string            `yaml:"searchUrl"`
	QueryParam      string            `yaml:"queryParam"`
	RequestInterval time.Duration     `yaml:"requestInterval"`
	Timeout         time.Duration     `yaml:"timeout"`
	UserAgent       string            `yaml:"userAgent"`
	Options         map[string]string `yaml:"options"`
}

// StateConfig picks where the lookup job log lives.
type StateConfig struct {
	Driver  string `yaml:"driver"`
	Path    string `yaml:"path"`
	DSN     string `yaml:"dsn"`
	JobName string `yaml:"jobName"`
}

// PathsConfig groups input and working directories.
type PathsConfig struct {
	Input   string `yaml:"input"`
	DataDir string `yaml:"dataDir"`
}

// SubmissionConfig controls how prepared records reach the billing app.
type SubmissionConfig struct {
	DryRun *bool `yaml:"dryRun"`
}

// DryRunEnabled reports whether dry-run mode is on; it defaults to true.
func (s SubmissionConfig) DryRunEnabled() bool {
	return s.DryRun == nil || *s.DryRun
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// Configured reports whether both token and chat are present.
func (t TelegramConfig) Configured() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

// ResultPath is the job log document used by the file backend.
func (c Config) ResultPath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	return filepath.Join(c.Paths.DataDir, "result.json")
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.State.DSN = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Directory.Source != "" {
		base.Directory.Source = override.Directory.Source
	}
	if override.Directory.SearchURL != "" {
		base.Directory.SearchURL = override.Directory.SearchURL
	}
	if override.Directory.QueryParam != "" {
		base.Directory.QueryParam = override.Directory.QueryParam
	}
	if override.Directory.RequestInterval > 0 {
		base.Directory.RequestInterval = override.Directory.RequestInterval
	}
	if override.Directory.Timeout > 0 {
		base.Directory.Timeout = override.Directory.Timeout
	}
	if override.Directory.UserAgent != "" {
		base.Directory.UserAgent = override.Directory.UserAgent
	}
	if len(override.Directory.Options) > 0 {
		base.Directory.Options = override.Directory.Options
	}

	if override.State.Driver != "" {
		base.State.Driver = override.State.Driver
	}
	if override.State.Path != "" {
		base.State.Path = override.State.Path
	}
	if override.State.DSN != "" {
		base.State.DSN = override.State.DSN
	}
	if override.State.JobName != "" {
		base.State.JobName = override.State.JobName
	}

	if override.Paths.Input != "" {
		base.Paths.Input = override.Paths.Input
	}
	if override.Paths.DataDir != "" {
		base.Paths.DataDir = override.Paths.DataDir
	}

	if override.Submission.DryRun != nil {
		base.Submission.DryRun = override.Submission.DryRun
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Directory: DirectoryConfig{
			Source:          "wam",
			SearchURL:       defaultSearchURL,
			QueryParam:      "searchtext",
			RequestInterval: 3 * time.Second,
			Timeout:         30 * time.Second,
			UserAgent:       "RecordSync/1.0",
		},
		State: StateConfig{
			Driver:  "file",
			JobName: "wam-search",
		},
		Paths: PathsConfig{
			Input:   "./input.csv",
			DataDir: "./data",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{BotToken: "", ChatID: ""},
		},
	}
}
