// internal/config/config.go
//
// Package config 集中讀取執行期設定。
// Config 只在程式啟動時建立一次，再明確傳給各元件；沒有任何全域可變設定。
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// SMTPSettings 為寄送 email 所需的設定。
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// DiscordSettings 為鏡像通知到 Discord 頻道的設定；兩者皆有值才啟用。
type DiscordSettings struct {
	Token     string
	ChannelID string
}

// Enabled 回報是否設定完整。
func (d DiscordSettings) Enabled() bool { return d.Token != "" && d.ChannelID != "" }

// Config 為整個服務的執行期設定，由 Load 建立。
type Config struct {
	TestingMode bool
	SMTP        SMTPSettings
	Discord     DiscordSettings

	Store    string // json | sqlite | postgres | mysql
	DataFile string
	DSN      string

	Addr     string
	BankName string

	MinInitialDeposit decimal.Decimal
	WithdrawLimit     decimal.Decimal
	InterestRate      decimal.Decimal
	LargeDeposit      decimal.Decimal
	AlertThreshold    decimal.Decimal

	Reconcile bool
}

// Load 先嘗試載入 .env（不存在不算錯），再從環境變數組出 Config。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv 以 getenv 讀取設定，方便測試注入。
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}
	cfg := &Config{
		TestingMode: p.bool("BANK_TESTING_MODE", true),
		SMTP: SMTPSettings{
			Host:     p.str("BANK_SMTP_HOST", "smtp.gmail.com"),
			Port:     p.int("BANK_SMTP_PORT", 587),
			Username: p.str("BANK_SMTP_USERNAME", ""),
			Password: p.str("BANK_SMTP_PASSWORD", ""),
			From:     p.str("BANK_SMTP_FROM", ""),
		},
		Discord: DiscordSettings{
			Token:     p.str("BANK_DISCORD_TOKEN", ""),
			ChannelID: p.str("BANK_DISCORD_CHANNEL_ID", ""),
		},
		Store:             strings.ToLower(p.str("BANK_STORE", "json")),
		DataFile:          p.str("BANK_DATA_FILE", "bank_accounts.json"),
		DSN:               p.str("BANK_DSN", ""),
		Addr:              p.str("BANK_ADDR", ":8080"),
		BankName:          p.str("BANK_NAME", "Cy_Bank"),
		MinInitialDeposit: p.decimal("BANK_MIN_INITIAL_DEPOSIT", "10"),
		WithdrawLimit:     p.decimal("BANK_WITHDRAW_LIMIT", "2000"),
		InterestRate:      p.decimal("BANK_INTEREST_RATE", "0.01"),
		LargeDeposit:      p.decimal("BANK_LARGE_DEPOSIT", "10000"),
		AlertThreshold:    p.decimal("BANK_DEFAULT_ALERT_THRESHOLD", "100"),
		Reconcile:         p.bool("BANK_RECONCILE", false),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Store {
	case "json":
		if c.DataFile == "" {
			errs = append(errs, errors.New("BANK_DATA_FILE is not set"))
		}
	case "sqlite", "postgres", "mysql":
		if c.DSN == "" {
			errs = append(errs, fmt.Errorf("BANK_DSN is required for store %q", c.Store))
		}
	default:
		errs = append(errs, fmt.Errorf("BANK_STORE: unknown store %q", c.Store))
	}
	if !c.TestingMode && (c.SMTP.Host == "" || c.SMTP.Username == "") {
		errs = append(errs, errors.New("BANK_SMTP_HOST and BANK_SMTP_USERNAME are required outside testing mode"))
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("BANK_SMTP_PORT: %d out of range", c.SMTP.Port))
	}
	for name, v := range map[string]decimal.Decimal{
		"BANK_MIN_INITIAL_DEPOSIT":     c.MinInitialDeposit,
		"BANK_WITHDRAW_LIMIT":          c.WithdrawLimit,
		"BANK_LARGE_DEPOSIT":           c.LargeDeposit,
		"BANK_DEFAULT_ALERT_THRESHOLD": c.AlertThreshold,
	} {
		if v.IsNegative() {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if !c.InterestRate.IsPositive() || c.InterestRate.GreaterThan(decimal.NewFromInt(1)) {
		errs = append(errs, errors.New("BANK_INTEREST_RATE must be within (0, 1]"))
	}
	return errors.Join(errs...)
}

// parser 收集所有解析錯誤，一次回報。
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) bool(key string, def bool) bool {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p *parser) int(key string, def int) int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (p *parser) decimal(key, def string) decimal.Decimal {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a number", key, v))
		return decimal.RequireFromString(def)
	}
	return d
}
