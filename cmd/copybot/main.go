package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/copybot/clob/client"
	"github.com/betbot/copybot/clob/rtds"
	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/internal/config"
	"github.com/betbot/copybot/internal/metrics"
	"github.com/betbot/copybot/internal/monitor"
	"github.com/betbot/copybot/internal/notify"
	"github.com/betbot/copybot/internal/trader"
	"github.com/betbot/copybot/pkg/logger"
	"github.com/betbot/copybot/pkg/shutdown"
)

var (
	configPath = flag.String("config", "", "YAML config file (environment variables override it)")
	envPath    = flag.String("env", ".env", "dotenv file to load before reading the environment")
	verbose    = flag.Bool("verbose", false, "debug logging")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envPath, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		logrus.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	key, err := cfg.Signer()
	if err != nil {
		return fmt.Errorf("wallet: %w", err)
	}

	clob, err := client.NewClient(client.Config{
		Host:          cfg.ClobHost,
		PrivateKey:    key,
		ChainID:       types.Chain(cfg.ChainID),
		Funder:        cfg.ProxyAddress,
		SignatureType: types.SignatureType(cfg.SignatureType),
	})
	if err != nil {
		return fmt.Errorf("clob client: %w", err)
	}

	logrus.Info("🚀 copybot starting")
	logrus.Infof("   signer: %s", clob.Address().Hex())
	logrus.Infof("   funder: %s", clob.Funder().Hex())
	for _, w := range cfg.TargetWallets {
		logrus.Infof("   watching: %s", w)
	}
	logrus.Infof("   strategy: %s, multiplier: %v, clamp: [%v, %v]",
		cfg.Strategy, cfg.SizeMultiplier, cfg.MinTradeAmount, cfg.MaxTradeAmount)

	creds, err := clob.CreateOrDeriveAPICreds(rootCtx)
	if err != nil {
		return fmt.Errorf("api credentials: %w", err)
	}
	clob.SetCreds(creds)
	logrus.Infof("   api key: %s", creds.Key)

	if balance, err := clob.GetCollateralBalance(rootCtx); err != nil {
		logrus.Warnf("balance check failed: %v", err)
	} else {
		logrus.Infof("   balance: $%s USDC", balance.StringFixed(2))
	}

	stream := rtds.NewClientWithConfig(&rtds.ClientConfig{
		URL:       cfg.RTDSUrl,
		ProxyURL:  cfg.ProxyURL,
		Reconnect: true,
	})

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Bell {
		notifier = notify.NewBellNotifier()
	}

	exec := trader.New(cfg, clob)
	mon := monitor.New(monitor.Config{
		TargetWallets:  cfg.TargetWallets,
		DedupRetention: cfg.DedupRetention,
		SweepInterval:  cfg.SweepInterval,
	}, stream, exec, notifier)

	if err := mon.Start(rootCtx); err != nil {
		return fmt.Errorf("monitor: %w", err)
	}

	if cfg.MetricsAddr != "" {
		if _, err := metrics.StartAsync(rootCtx, cfg.MetricsAddr); err != nil {
			logrus.Warnf("metrics server: %v", err)
		}
	}

	mgr := shutdown.NewManager()
	mgr.OnShutdown(func(ctx context.Context, wg *sync.WaitGroup) {
		if err := mon.Stop(); err != nil {
			logrus.Warnf("monitor stop: %v", err)
		}
	})

	logrus.Info("✅ copybot running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logrus.Info("stop signal received, shutting down")
	rootCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mgr.Shutdown(shutdownCtx)

	logrus.Info("copybot stopped")
	return nil
}
