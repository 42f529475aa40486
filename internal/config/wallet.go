package config

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"

	"github.com/betbot/copybot/clob/signing"
)

// Signer resolves the signing key: the raw private key when configured,
// otherwise derivation from the mnemonic.
func (c *Config) Signer() (*ecdsa.PrivateKey, error) {
	if c.PrivateKey != "" {
		key, err := signing.PrivateKeyFromHex(c.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
		return key, nil
	}

	mnemonic := strings.TrimSpace(c.Mnemonic)
	if mnemonic == "" {
		return nil, fmt.Errorf("no private key or mnemonic configured")
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		return nil, fmt.Errorf("invalid mnemonic: %w", err)
	}

	path, err := hdwallet.ParseDerivationPath(c.DerivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation path: %w", err)
	}

	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("derive account: %w", err)
	}

	keyHex, err := w.PrivateKeyHex(acct)
	if err != nil {
		return nil, fmt.Errorf("extract private key: %w", err)
	}

	return signing.PrivateKeyFromHex(keyHex)
}
