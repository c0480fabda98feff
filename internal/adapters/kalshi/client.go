package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/surebet/internal/domain"
)

const (
	defaultAPIBase = "https://api.elections.kalshi.com"
	tradeAPIPrefix = "/trade-api/v2"

	// Kalshi allows 10 reads/s on the basic tier; stay under it.
	readRatePerSec = 8

	marketFetchLimit = 200
)

// Client is the Kalshi venue adapter. Public market data works without
// credentials; when an API key is configured, requests carry RSA-signed
// auth headers (see auth.go).
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
	auth    *signer // nil when unauthenticated
}

// NewClient creates a Client against the given API base URL. An empty base
// uses production.
func NewClient(apiBase string) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    apiBase,
		limiter: rate.NewLimiter(readRatePerSec, 4),
	}
}

// SetCredentials configures RSA-signed authentication from a Kalshi API key
// id and a PEM-encoded private key.
func (c *Client) SetCredentials(apiKeyID string, privateKeyPEM []byte) error {
	s, err := newSigner(apiKeyID, privateKeyPEM)
	if err != nil {
		return fmt.Errorf("kalshi.SetCredentials: %w", err)
	}
	c.auth = s
	return nil
}

// Venue identifies this adapter.
func (c *Client) Venue() domain.Venue {
	return domain.VenueKalshi
}

// ListOpportunities fetches open markets and normalizes the ones whose YES
// mid-price lies within [low, high].
func (c *Client) ListOpportunities(ctx context.Context, low, high float64) ([]domain.Opportunity, error) {
	path := fmt.Sprintf("%s/markets?limit=%d&status=open", tradeAPIPrefix, marketFetchLimit)

	var resp marketsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("kalshi.ListOpportunities: %w", err)
	}

	opps := make([]domain.Opportunity, 0, len(resp.Markets))
	for _, m := range resp.Markets {
		opp, ok := mapMarket(m, low, high)
		if !ok {
			continue
		}
		if err := opp.Validate(); err != nil {
			slog.Debug("skipping malformed kalshi record", "ticker", m.Ticker, "err", err)
			continue
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

// CurrentPrice returns the latest YES mid-price for the given market ticker.
// Kalshi quotes the YES leg only; a NO position marks against 1 - yes.
func (c *Client) CurrentPrice(ctx context.Context, marketID string, side domain.Side) (float64, bool, error) {
	path := fmt.Sprintf("%s/markets/%s", tradeAPIPrefix, url.PathEscape(marketID))

	var resp marketResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return 0, false, fmt.Errorf("kalshi.CurrentPrice: %s: %w", marketID, err)
	}

	price, ok := midPrice(resp.Market)
	if !ok {
		return 0, false, nil
	}
	if side == domain.SideNo {
		price = 1 - price
	}
	return price, true, nil
}

// get performs a rate-limited, optionally signed GET against the API.
func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	if c.auth != nil {
		// The signature covers the path without query parameters.
		if err := c.auth.sign(req, http.MethodGet, req.URL.Path); err != nil {
			return fmt.Errorf("sign request: %w", err)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
