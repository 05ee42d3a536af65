// Package etherscan checks contract source verification through the Etherscan API.
package etherscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opensource-finance/preflight/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Etherscan mainnet API.
const DefaultBaseURL = "https://api.etherscan.io/api"

// DefaultRequestsPerSecond matches the free-tier allowance.
const DefaultRequestsPerSecond = 5

// placeholderKey ships in sample env files and is treated as no key.
const placeholderKey = "YourEtherscanApiKeyHere"

// Config configures the client.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// Client implements domain.ContractVerificationProvider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

var _ domain.ContractVerificationProvider = (*Client)(nil)

// New creates a client. Missing fields take package defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// ErrUpstream reports an Etherscan NOTOK reply that is not a verification answer.
var ErrUpstream = errors.New("etherscan error reply")

type apiResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// HasKey reports whether a usable API key is configured.
func (c *Client) HasKey() bool {
	return c.apiKey != "" && !strings.Contains(c.apiKey, placeholderKey)
}

// CheckVerified asks for the contract ABI: a published ABI means the source is
// verified. Without a usable key, or when the key is rejected, the status is
// unknown rather than unverified.
func (c *Client) CheckVerified(ctx context.Context, address string) (domain.Verification, error) {
	if !c.HasKey() {
		return domain.VerificationUnknown, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.VerificationUnknown, fmt.Errorf("etherscan rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("module", "contract")
	params.Set("action", "getabi")
	params.Set("address", address)
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.VerificationUnknown, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.VerificationUnknown, fmt.Errorf("etherscan request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.VerificationUnknown, fmt.Errorf("etherscan returned HTTP %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.VerificationUnknown, fmt.Errorf("failed to decode etherscan response: %w", err)
	}

	switch {
	case body.Status == "1":
		return domain.VerificationVerified, nil
	case strings.Contains(body.Result, "Invalid API Key"):
		return domain.VerificationUnknown, nil
	case strings.Contains(strings.ToLower(body.Result), "not verified"):
		return domain.VerificationUnverified, nil
	}
	// Throttling and other NOTOK replies say nothing about the contract.
	return domain.VerificationUnknown, fmt.Errorf("%w: %s", ErrUpstream, body.Result)
}
