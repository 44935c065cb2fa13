package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Exchange struct {
		BaseURL    string `yaml:"base_url"`
		APIKey     string `yaml:"api_key"`
		SecretKey  string `yaml:"secret_key"`
		Passphrase string `yaml:"passphrase"`
	} `yaml:"exchange"`
	// Zero values in Trading and Schedule mean "unset" and are replaced
	// by the defaults in Load. An explicit zero cannot be configured;
	// in particular a funding band of 0 falls back to -0.5 / 1.5.
	Trading struct {
		MinFundingRate float64 `yaml:"min_funding_rate"`
		MaxFundingRate float64 `yaml:"max_funding_rate"`
		AmountUSDT     float64 `yaml:"amount_usdt"`
		Leverage       int     `yaml:"leverage"`
	} `yaml:"trading"`
	Schedule struct {
		BoundaryCron    string `yaml:"boundary_cron"`
		Timezone        string `yaml:"timezone"`
		ScanLeadMinutes int    `yaml:"scan_lead_minutes"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
		RedisAddr  string `yaml:"redis_addr"`
	} `yaml:"database"`
	Ledger struct {
		StateFile string `yaml:"state_file"`
	} `yaml:"ledger"`
	Proxy string `yaml:"proxy"`
}

// ScanLead returns the scan lead as a duration.
func (c *Config) ScanLead() time.Duration {
	return time.Duration(c.Schedule.ScanLeadMinutes) * time.Minute
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("BITGET_BASE_URL"); v != "" {
		cfg.Exchange.BaseURL = v
	}
	if v := os.Getenv("BITGET_APIKEY"); v != "" {
		cfg.Exchange.APIKey = v
	}
	if v := os.Getenv("BITGET_SECRET_KEY"); v != "" {
		cfg.Exchange.SecretKey = v
	}
	if v := os.Getenv("BITGET_PASSPHRASE"); v != "" {
		cfg.Exchange.Passphrase = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Database.RedisAddr = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("AMOUNT_USDT"); v != "" {
		var amount float64
		if _, err := fmt.Sscanf(v, "%f", &amount); err == nil {
			cfg.Trading.AmountUSDT = amount
		}
	}

	// Defaults
	if cfg.Exchange.BaseURL == "" {
		cfg.Exchange.BaseURL = "https://api.bitget.com"
	}
	if cfg.Trading.MinFundingRate == 0 {
		cfg.Trading.MinFundingRate = -0.5
	}
	if cfg.Trading.MaxFundingRate == 0 {
		cfg.Trading.MaxFundingRate = 1.5
	}
	if cfg.Trading.AmountUSDT == 0 {
		cfg.Trading.AmountUSDT = 10
	}
	if cfg.Trading.Leverage == 0 {
		cfg.Trading.Leverage = 5
	}
	if cfg.Schedule.BoundaryCron == "" {
		cfg.Schedule.BoundaryCron = "0 0 2,10,18 * * *"
	}
	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "Europe/Amsterdam"
	}
	if cfg.Schedule.ScanLeadMinutes == 0 {
		cfg.Schedule.ScanLeadMinutes = 5
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/funding_sentinel.db"
	}
	if cfg.Ledger.StateFile == "" {
		cfg.Ledger.StateFile = "data/pnl_ledger.json"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and coherent.
func (c *Config) Validate() error {
	if c.Exchange.APIKey == "" {
		return fmt.Errorf("exchange.api_key is required")
	}
	if c.Exchange.SecretKey == "" {
		return fmt.Errorf("exchange.secret_key is required")
	}
	if c.Exchange.Passphrase == "" {
		return fmt.Errorf("exchange.passphrase is required")
	}
	if c.Trading.MinFundingRate >= c.Trading.MaxFundingRate {
		return fmt.Errorf("trading.min_funding_rate must be below max_funding_rate")
	}
	if c.Trading.AmountUSDT <= 0 {
		return fmt.Errorf("trading.amount_usdt must be positive")
	}
	if c.Trading.Leverage <= 0 {
		return fmt.Errorf("trading.leverage must be positive")
	}
	if c.Schedule.ScanLeadMinutes <= 0 {
		return fmt.Errorf("schedule.scan_lead_minutes must be positive")
	}
	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	return nil
}
