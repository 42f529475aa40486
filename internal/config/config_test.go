package config

import (
	"testing"
	"time"
)

const (
	testKey    = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testWallet = "0x56687bf447db6ffa42ffe2204a05edaa20f55839"
)

func validConfig() *Config {
	c := &Config{
		PrivateKey:    testKey,
		TargetWallets: []string{testWallet},
	}
	c.ApplyDefaults()
	return c
}

func TestApplyDefaults(t *testing.T) {
	c := &Config{}
	c.ApplyDefaults()

	if c.SizeMultiplier != 0.01 {
		t.Errorf("SizeMultiplier: got %v, want 0.01", c.SizeMultiplier)
	}
	if c.MaxTradeAmount != 5.0 {
		t.Errorf("MaxTradeAmount: got %v, want 5.0", c.MaxTradeAmount)
	}
	if c.MaxBalanceUsage != 0.8 {
		t.Errorf("MaxBalanceUsage: got %v, want 0.8", c.MaxBalanceUsage)
	}
	if c.DedupRetention != 120*time.Second {
		t.Errorf("DedupRetention: got %v, want 120s", c.DedupRetention)
	}
	if c.SweepInterval != 120*time.Second {
		t.Errorf("SweepInterval: got %v, want 120s", c.SweepInterval)
	}
	if c.Strategy != SizingSource {
		t.Errorf("Strategy: got %q, want %q", c.Strategy, SizingSource)
	}
	if c.ChainID != 137 {
		t.Errorf("ChainID: got %d, want 137", c.ChainID)
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no key", func(c *Config) { c.PrivateKey = ""; c.Mnemonic = "" }},
		{"no targets", func(c *Config) { c.TargetWallets = nil }},
		{"bad target address", func(c *Config) { c.TargetWallets = []string{"0x123"} }},
		{"bad proxy address", func(c *Config) { c.ProxyAddress = "not-an-address" }},
		{"zero multiplier", func(c *Config) { c.SizeMultiplier = 0 }},
		{"negative multiplier", func(c *Config) { c.SizeMultiplier = -1 }},
		{"negative min", func(c *Config) { c.MinTradeAmount = -0.5 }},
		{"max below min", func(c *Config) { c.MinTradeAmount = 10; c.MaxTradeAmount = 5 }},
		{"balance usage negative", func(c *Config) { c.MaxBalanceUsage = -1 }},
		{"balance usage above one", func(c *Config) { c.MaxBalanceUsage = 1.5 }},
		{"unknown strategy", func(c *Config) { c.Strategy = "martingale" }},
		{"bad signature type", func(c *Config) { c.SignatureType = 3 }},
	}

	for _, tc := range cases {
		c := validConfig()
		tc.mutate(c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("PRIVATE_KEY", testKey)
	t.Setenv("TARGET_WALLET_ADDRESSES", testWallet+" , 0x56687BF447db6ffa42ffe2204a05edaa20f55840")
	t.Setenv("SIZE_MULTIPLIER", "0.05")
	t.Setenv("MIN_TRADE_AMOUNT", "1.0")
	t.Setenv("MAX_TRADE_AMOUNT", "25")
	t.Setenv("SIZING_STRATEGY", "Balance")
	t.Setenv("DEDUP_RETENTION_SECONDS", "60")
	t.Setenv("NOTIFY_BELL", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(cfg.TargetWallets) != 2 {
		t.Fatalf("TargetWallets: got %d, want 2", len(cfg.TargetWallets))
	}
	if cfg.SizeMultiplier != 0.05 {
		t.Errorf("SizeMultiplier: got %v, want 0.05", cfg.SizeMultiplier)
	}
	if cfg.MinTradeAmount != 1.0 {
		t.Errorf("MinTradeAmount: got %v, want 1.0", cfg.MinTradeAmount)
	}
	if cfg.MaxTradeAmount != 25.0 {
		t.Errorf("MaxTradeAmount: got %v, want 25.0", cfg.MaxTradeAmount)
	}
	if cfg.Strategy != SizingBalance {
		t.Errorf("Strategy: got %q, want balance", cfg.Strategy)
	}
	if cfg.DedupRetention != 60*time.Second {
		t.Errorf("DedupRetention: got %v, want 60s", cfg.DedupRetention)
	}
	if cfg.Bell {
		t.Error("Bell: got true, want false")
	}
}

func TestSignerFromPrivateKey(t *testing.T) {
	c := validConfig()
	key, err := c.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if key == nil {
		t.Fatal("Signer returned nil key")
	}

	// 0x prefix must be accepted too.
	c.PrivateKey = "0x" + testKey
	key2, err := c.Signer()
	if err != nil {
		t.Fatalf("Signer with prefix: %v", err)
	}
	if key.PublicKey.X.Cmp(key2.PublicKey.X) != 0 {
		t.Error("prefix changed the derived key")
	}
}

func TestSignerFromMnemonic(t *testing.T) {
	c := &Config{
		Mnemonic:      "tag volcano eight thank tide danger coast health above argue embrace heavy",
		TargetWallets: []string{testWallet},
	}
	c.ApplyDefaults()

	key, err := c.Signer()
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if key == nil {
		t.Fatal("Signer returned nil key")
	}
}
