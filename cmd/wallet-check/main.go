// wallet-check derives the signer from the configured key or mnemonic and
// verifies it against the exchange: address, API credentials and balance.
// Run it after editing the configuration, before starting the bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/copybot/clob/client"
	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/internal/config"
)

var (
	configPath = flag.String("config", "", "YAML config file")
	envPath    = flag.String("env", ".env", "dotenv file")
	offline    = flag.Bool("offline", false, "only derive the address, skip exchange checks")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		fatal(fmt.Errorf("load %s: %w", *envPath, err))
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}

	key, err := cfg.Signer()
	if err != nil {
		fatal(fmt.Errorf("derive signer: %w", err))
	}

	clob, err := client.NewClient(client.Config{
		Host:          cfg.ClobHost,
		PrivateKey:    key,
		ChainID:       types.Chain(cfg.ChainID),
		Funder:        cfg.ProxyAddress,
		SignatureType: types.SignatureType(cfg.SignatureType),
	})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("signer:  %s\n", clob.Address().Hex())
	fmt.Printf("funder:  %s\n", clob.Funder().Hex())
	if *offline {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := clob.Healthcheck(ctx); err != nil {
		fatal(fmt.Errorf("exchange unreachable: %w", err))
	}

	creds, err := clob.CreateOrDeriveAPICreds(ctx)
	if err != nil {
		fatal(fmt.Errorf("api credentials: %w", err))
	}
	clob.SetCreds(creds)
	fmt.Printf("api key: %s\n", creds.Key)

	balance, err := clob.GetCollateralBalance(ctx)
	if err != nil {
		fatal(fmt.Errorf("balance: %w", err))
	}
	fmt.Printf("balance: $%s USDC\n", balance.StringFixed(2))
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
