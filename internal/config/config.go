package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/betbot/copybot/clob/types"
)

// SizingStrategy selects how copied trades are sized.
type SizingStrategy string

const (
	// SizingSource sizes copies from the source trade's dollar value.
	SizingSource SizingStrategy = "source"
	// SizingBalance sizes copies from the bot's own balance.
	SizingBalance SizingStrategy = "balance"
)

var addressPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// Config is the full bot configuration. It loads from the environment
// (after an optional .env file) with an optional YAML file underneath.
type Config struct {
	// Wallet. Exactly one of PrivateKey or Mnemonic is required.
	PrivateKey     string `yaml:"private_key"`
	Mnemonic       string `yaml:"mnemonic"`
	DerivationPath string `yaml:"derivation_path"`
	ProxyAddress   string `yaml:"proxy_address"`
	SignatureType  int    `yaml:"signature_type"`
	ChainID        int    `yaml:"chain_id"`

	// Endpoints.
	ClobHost string `yaml:"clob_host"`
	RTDSUrl  string `yaml:"rtds_url"`
	ProxyURL string `yaml:"proxy_url"`

	// Watchlist.
	TargetWallets []string `yaml:"target_wallets"`

	// Sizing.
	Strategy        SizingStrategy `yaml:"sizing_strategy"`
	SizeMultiplier  float64        `yaml:"size_multiplier"`
	MinTradeAmount  float64        `yaml:"min_trade_amount"`
	MaxTradeAmount  float64        `yaml:"max_trade_amount"`
	MaxBalanceUsage float64        `yaml:"max_balance_usage"`

	// Intake.
	DedupRetention time.Duration `yaml:"dedup_retention"`
	SweepInterval  time.Duration `yaml:"sweep_interval"`

	// Ambient.
	LogLevel    string `yaml:"log_level"`
	LogFile     string `yaml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr"`
	Bell        bool   `yaml:"bell"`
}

// ApplyDefaults fills unset fields with production defaults.
func (c *Config) ApplyDefaults() {
	if c.DerivationPath == "" {
		c.DerivationPath = "m/44'/60'/0'/0/0"
	}
	if c.ChainID == 0 {
		c.ChainID = int(types.ChainPolygon)
	}
	if c.ClobHost == "" {
		c.ClobHost = "https://clob.polymarket.com"
	}
	if c.RTDSUrl == "" {
		c.RTDSUrl = "wss://ws-live-data.polymarket.com"
	}
	if c.Strategy == "" {
		c.Strategy = SizingSource
	}
	if c.SizeMultiplier == 0 {
		c.SizeMultiplier = 0.01
	}
	if c.MaxTradeAmount == 0 {
		c.MaxTradeAmount = 5.0
	}
	if c.MaxBalanceUsage == 0 {
		c.MaxBalanceUsage = 0.8
	}
	if c.DedupRetention == 0 {
		c.DedupRetention = 120 * time.Second
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 120 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects configurations the bot cannot run with. It is called
// once at startup; a failure here is fatal.
func (c *Config) Validate() error {
	if c.PrivateKey == "" && c.Mnemonic == "" {
		return fmt.Errorf("PRIVATE_KEY or MNEMONIC is required")
	}
	if len(c.TargetWallets) == 0 {
		return fmt.Errorf("at least one target wallet is required")
	}
	for _, w := range c.TargetWallets {
		if !addressPattern.MatchString(w) {
			return fmt.Errorf("invalid target wallet address: %s", w)
		}
	}
	if c.ProxyAddress != "" && !addressPattern.MatchString(c.ProxyAddress) {
		return fmt.Errorf("invalid proxy address: %s", c.ProxyAddress)
	}
	if c.SizeMultiplier <= 0 {
		return fmt.Errorf("size multiplier must be positive, got %v", c.SizeMultiplier)
	}
	if c.MinTradeAmount < 0 {
		return fmt.Errorf("min trade amount must not be negative, got %v", c.MinTradeAmount)
	}
	if c.MaxTradeAmount < c.MinTradeAmount {
		return fmt.Errorf("max trade amount %v is below min trade amount %v", c.MaxTradeAmount, c.MinTradeAmount)
	}
	if c.MaxBalanceUsage <= 0 || c.MaxBalanceUsage > 1 {
		return fmt.Errorf("max balance usage must be in (0, 1], got %v", c.MaxBalanceUsage)
	}
	switch c.Strategy {
	case SizingSource, SizingBalance:
	default:
		return fmt.Errorf("unknown sizing strategy %q", c.Strategy)
	}
	if c.SignatureType < 0 || c.SignatureType > 2 {
		return fmt.Errorf("signature type must be 0, 1 or 2, got %d", c.SignatureType)
	}
	return nil
}

// Load builds the configuration: YAML file (when path is non-empty) first,
// environment variables on top, then defaults and validation.
func Load(yamlPath string) (*Config, error) {
	cfg := &Config{Bell: true}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.loadEnv()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadEnv() {
	setString(&c.PrivateKey, "PRIVATE_KEY")
	setString(&c.Mnemonic, "MNEMONIC")
	setString(&c.DerivationPath, "DERIVATION_PATH")
	setString(&c.ProxyAddress, "POLYMARKET_PROXY_ADDRESS")
	setInt(&c.SignatureType, "SIGNATURE_TYPE")
	setInt(&c.ChainID, "CHAIN_ID")
	setString(&c.ClobHost, "POLYMARKET_HOST")
	setString(&c.RTDSUrl, "RTDS_URL")
	setString(&c.ProxyURL, "PROXY_URL")

	// TARGET_WALLET_ADDRESSES takes precedence over the singular form.
	if v := os.Getenv("TARGET_WALLET_ADDRESSES"); v != "" {
		c.TargetWallets = splitList(v)
	} else if v := os.Getenv("TARGET_WALLET_ADDRESS"); v != "" {
		c.TargetWallets = splitList(v)
	}

	if v := os.Getenv("SIZING_STRATEGY"); v != "" {
		c.Strategy = SizingStrategy(strings.ToLower(strings.TrimSpace(v)))
	}
	setFloat(&c.SizeMultiplier, "SIZE_MULTIPLIER")
	setFloat(&c.MinTradeAmount, "MIN_TRADE_AMOUNT")
	setFloat(&c.MaxTradeAmount, "MAX_TRADE_AMOUNT")
	setFloat(&c.MaxBalanceUsage, "MAX_BALANCE_USAGE")

	setSeconds(&c.DedupRetention, "DEDUP_RETENTION_SECONDS")
	setSeconds(&c.SweepInterval, "SWEEP_INTERVAL_SECONDS")

	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFile, "LOG_FILE")
	setString(&c.MetricsAddr, "METRICS_ADDR")
	if v := os.Getenv("NOTIFY_BELL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Bell = b
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*dst = f
		}
	}
}

func setSeconds(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			*dst = time.Duration(n) * time.Second
		}
	}
}
