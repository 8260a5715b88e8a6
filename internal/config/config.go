package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "config/config.yaml"

	ReissueAllowMultiple       = "allow-multiple"
	ReissueInvalidateOnReissue = "invalidate-on-reissue"
)

type EmailConfig struct {
	SMTPHost        string   `yaml:"smtp_host"`
	SMTPPort        int      `yaml:"smtp_port"`
	SMTPUser        string   `yaml:"smtp_user"`
	SMTPPassword    string   `yaml:"smtp_password"`
	FromEmail       string   `yaml:"from_email"`
	SupportInbox    string   `yaml:"support_inbox"`
	AdminRecipients []string `yaml:"admin_recipients"`
	AppBaseURL      string   `yaml:"app_base_url"`
}

type ResetConfig struct {
	CodeTTL           time.Duration `yaml:"code_ttl"`
	ReissuePolicy     string        `yaml:"reissue_policy"`
	MinPasswordLength int           `yaml:"min_password_length"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl"`
}

type RedisConfig struct {
	URL            string        `yaml:"url"`
	IssuanceLimit  int           `yaml:"issuance_limit"`
	IssuanceWindow time.Duration `yaml:"issuance_window"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	OpsChatID int64  `yaml:"ops_chat_id"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Database struct {
		DSN          string `yaml:"url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"database"`
	Email    EmailConfig    `yaml:"email"`
	Reset    ResetConfig    `yaml:"reset"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Log      LogConfig      `yaml:"log"`
}

// LoadConfig reads the YAML file named by EXPERTGATE_CONFIG (or the default
// path), then applies environment overrides and defaults.
func LoadConfig() (*Config, error) {
	path := os.Getenv("EXPERTGATE_CONFIG")
	if path == "" {
		path = DefaultPath
	}
	return Load(path)
}

func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// env-only deployments
	default:
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	applyEnv(&cfg)
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setString(&cfg.Email.SMTPHost, "SMTP_HOST")
	setString(&cfg.Email.SMTPUser, "SMTP_USER")
	setString(&cfg.Email.SMTPPassword, "SMTP_PASSWORD")
	setString(&cfg.Email.FromEmail, "MAIL_FROM")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")

	if v, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil {
		cfg.Email.SMTPPort = v
	}
	if v, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Server.Port = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 20
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Reset.CodeTTL == 0 {
		c.Reset.CodeTTL = 15 * time.Minute
	}
	if c.Reset.ReissuePolicy == "" {
		c.Reset.ReissuePolicy = ReissueAllowMultiple
	}
	if c.Reset.MinPasswordLength == 0 {
		c.Reset.MinPasswordLength = 6
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = time.Hour
	}
	if c.Redis.IssuanceLimit == 0 {
		c.Redis.IssuanceLimit = 5
	}
	if c.Redis.IssuanceWindow == 0 {
		c.Redis.IssuanceWindow = 15 * time.Minute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	switch c.Reset.ReissuePolicy {
	case ReissueAllowMultiple, ReissueInvalidateOnReissue:
	default:
		return fmt.Errorf("reset.reissue_policy: unknown policy %q", c.Reset.ReissuePolicy)
	}
	if c.Reset.CodeTTL < 0 {
		return fmt.Errorf("reset.code_ttl must be positive")
	}
	return nil
}
