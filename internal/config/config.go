package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"crypto-sentinel/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Etherscan EtherscanConfig `mapstructure:"etherscan"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name string `mapstructure:"name"`
}

// EtherscanConfig covers the transaction source.
type EtherscanConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	ChainID        int64         `mapstructure:"chain_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// ScanConfig holds classification thresholds.
type ScanConfig struct {
	MinEth     float64 `mapstructure:"min_eth"`
	IdleMonths int     `mapstructure:"idle_months"`
}

// AlertingConfig defines report delivery channels.
type AlertingConfig struct {
	Subject  string         `mapstructure:"subject"`
	Timeout  time.Duration  `mapstructure:"timeout"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Email    EmailConfig    `mapstructure:"email"`
}

// TelegramConfig 描述 Telegram 告警参数。
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// Configured reports whether every credential needed to send is present.
func (t TelegramConfig) Configured() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// EmailConfig 描述 SMTP 告警参数。
type EmailConfig struct {
	SMTPHost    string `mapstructure:"smtp_host"`
	SMTPPort    int    `mapstructure:"smtp_port"`
	ImplicitTLS bool   `mapstructure:"implicit_tls"`
	From        string `mapstructure:"from"`
	Password    string `mapstructure:"password"`
	To          string `mapstructure:"to"`
}

// Configured reports whether every credential needed to send is present.
func (e EmailConfig) Configured() bool {
	return e.From != "" && e.Password != "" && e.To != ""
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from .env, file, environment, and defaults.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("SENTINEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "crypto-sentinel")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("etherscan.base_url", "https://api.etherscan.io/v2/api")
	v.SetDefault("etherscan.api_key", "")
	v.SetDefault("etherscan.chain_id", 1)
	v.SetDefault("etherscan.request_timeout", "15s")
	v.SetDefault("etherscan.user_agent", "")

	v.SetDefault("scan.min_eth", 100.0)
	v.SetDefault("scan.idle_months", 12)

	v.SetDefault("alerting.subject", "🛡 Crypto Sentinel Alert")
	v.SetDefault("alerting.timeout", "10s")
	v.SetDefault("alerting.telegram.bot_token", "")
	v.SetDefault("alerting.telegram.chat_id", "")
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")
	v.SetDefault("alerting.email.smtp_host", "smtp.gmail.com")
	v.SetDefault("alerting.email.smtp_port", 465)
	v.SetDefault("alerting.email.implicit_tls", true)
	v.SetDefault("alerting.email.from", "")
	v.SetDefault("alerting.email.password", "")
	v.SetDefault("alerting.email.to", "")

	v.SetDefault("export.max_data_points", 10000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.StringToTimeDurationHookFunc()
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scan.MinEth < 0 {
		return fmt.Errorf("scan.min_eth cannot be negative")
	}
	if c.Scan.IdleMonths <= 0 {
		return fmt.Errorf("scan.idle_months must be greater than zero")
	}
	if c.Etherscan.RequestTimeout <= 0 {
		return fmt.Errorf("etherscan.request_timeout must be greater than zero")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Email.Configured() && c.Alerting.Email.SMTPHost == "" {
		return fmt.Errorf("alerting.email.smtp_host 必须配置")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
