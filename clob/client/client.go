package client

import (
	"context"
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/betbot/copybot/clob/signing"
	"github.com/betbot/copybot/clob/types"
	"github.com/betbot/copybot/pkg/httpx"
)

var log = logrus.WithField("component", "clob")

// Config configures a CLOB client.
type Config struct {
	Host          string
	PrivateKey    *ecdsa.PrivateKey
	ChainID       types.Chain
	Funder        string // proxy wallet holding the funds; empty means the signer address
	SignatureType types.SignatureType
}

// Client talks to the Polymarket CLOB REST API. It signs L1 requests with
// the configured private key and L2 requests with derived API credentials.
type Client struct {
	http          *httpx.Client
	host          string
	privateKey    *ecdsa.PrivateKey
	address       common.Address
	funder        common.Address
	chainID       types.Chain
	signatureType types.SignatureType
	creds         *types.ApiKeyCreds
}

// NewClient creates a CLOB client. Credentials are not derived yet; call
// CreateOrDeriveAPICreds before using L2 endpoints.
func NewClient(cfg Config) (*Client, error) {
	if cfg.PrivateKey == nil {
		return nil, errors.New("private key is required")
	}
	host := cfg.Host
	if host == "" {
		host = DefaultHost
	}
	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = types.ChainPolygon
	}

	address := signing.GetAddressFromPrivateKey(cfg.PrivateKey)
	funder := address
	if cfg.Funder != "" {
		funder = common.HexToAddress(cfg.Funder)
	}

	return &Client{
		http:          httpx.NewClient(host),
		host:          host,
		privateKey:    cfg.PrivateKey,
		address:       address,
		funder:        funder,
		chainID:       chainID,
		signatureType: cfg.SignatureType,
	}, nil
}

// Address returns the signer address.
func (c *Client) Address() common.Address { return c.address }

// Funder returns the address that holds the funds.
func (c *Client) Funder() common.Address { return c.funder }

// SetCreds installs existing API credentials instead of deriving them.
func (c *Client) SetCreds(creds *types.ApiKeyCreds) { c.creds = creds }

// Creds returns the active API credentials, or nil before bootstrap.
func (c *Client) Creds() *types.ApiKeyCreds { return c.creds }

// CreateOrDeriveAPICreds creates fresh API credentials, falling back to
// deriving the existing ones when the key already exists.
func (c *Client) CreateOrDeriveAPICreds(ctx context.Context) (*types.ApiKeyCreds, error) {
	creds, err := c.createAPICreds(ctx)
	if err == nil {
		log.Debug("created new API credentials")
		c.creds = creds
		return creds, nil
	}

	log.WithError(err).Debug("creating API credentials failed, deriving existing")
	creds, err = c.deriveAPICreds(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "derive API creds")
	}
	c.creds = creds
	return creds, nil
}

func (c *Client) createAPICreds(ctx context.Context) (*types.ApiKeyCreds, error) {
	nonce := int64(0)
	headers, err := signing.CreateL1Headers(c.privateKey, c.chainID, &nonce, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sign L1 request")
	}

	var creds types.ApiKeyCreds
	resp, err := c.http.DoRequest(ctx, "POST", endpointCreateAPIKey, &httpx.RequestOptions{
		Headers: l1HeaderMap(headers),
	}, &creds)
	if err := httpx.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if creds.Key == "" {
		return nil, errors.New("empty API key in response")
	}
	return &creds, nil
}

func (c *Client) deriveAPICreds(ctx context.Context) (*types.ApiKeyCreds, error) {
	headers, err := signing.CreateL1Headers(c.privateKey, c.chainID, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "sign L1 request")
	}

	var creds types.ApiKeyCreds
	resp, err := c.http.DoRequest(ctx, "GET", endpointDeriveAPIKey, &httpx.RequestOptions{
		Headers: l1HeaderMap(headers),
	}, &creds)
	if err := httpx.CheckResponse(resp, err); err != nil {
		return nil, err
	}
	if creds.Key == "" {
		return nil, errors.New("empty API key in response")
	}
	return &creds, nil
}

func l1HeaderMap(h *types.L1PolyHeader) map[string]string {
	return map[string]string{
		"POLY_ADDRESS":   h.PolyAddress,
		"POLY_SIGNATURE": h.PolySignature,
		"POLY_TIMESTAMP": h.PolyTimestamp,
		"POLY_NONCE":     h.PolyNonce,
	}
}

// l2Headers builds the header map for an API-key authenticated request.
func (c *Client) l2Headers(method, path string, body *string) (map[string]string, error) {
	if c.creds == nil {
		return nil, errors.New("API credentials not initialized")
	}
	h, err := signing.CreateL2Headers(c.privateKey, c.creds, &types.L2HeaderArgs{
		Method:      method,
		RequestPath: path,
		Body:        body,
	}, nil)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"POLY_ADDRESS":    h.PolyAddress,
		"POLY_SIGNATURE":  h.PolySignature,
		"POLY_TIMESTAMP":  h.PolyTimestamp,
		"POLY_API_KEY":    h.PolyAPIKey,
		"POLY_PASSPHRASE": h.PolyPassphrase,
	}, nil
}

// Healthcheck hits /time to verify connectivity and warm the connection.
func (c *Client) Healthcheck(ctx context.Context) error {
	resp, err := c.http.DoRequest(ctx, "GET", endpointTime, nil, nil)
	if err := httpx.CheckResponse(resp, err); err != nil {
		return fmt.Errorf("clob healthcheck: %w", err)
	}
	return nil
}
