package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/surebet/internal/domain"
)

const (
	defaultGammaBase = "https://gamma-api.polymarket.com"

	// Gamma /markets: 300/10s documented; run at 60% of that.
	gammaRatePerSec = 18

	marketFetchLimit = 200

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Client is the Polymarket venue adapter, backed by the Gamma API with rate
// limiting and retries.
type Client struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewClient creates a Client against the given Gamma base URL. An empty base
// uses production.
func NewClient(gammaBase string) *Client {
	if gammaBase == "" {
		gammaBase = defaultGammaBase
	}
	return &Client{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    gammaBase,
		limiter: rate.NewLimiter(gammaRatePerSec, 10),
	}
}

// Venue identifies this adapter.
func (c *Client) Venue() domain.Venue {
	return domain.VenuePolymarket
}

// ListOpportunities fetches active markets and normalizes the ones whose YES
// or NO leg is quoted within [low, high].
func (c *Client) ListOpportunities(ctx context.Context, low, high float64) ([]domain.Opportunity, error) {
	url := fmt.Sprintf("%s/markets?limit=%d&active=true&closed=false", c.base, marketFetchLimit)

	var markets []gammaMarket
	if err := c.get(ctx, url, &markets); err != nil {
		return nil, fmt.Errorf("polymarket.ListOpportunities: %w", err)
	}

	opps := make([]domain.Opportunity, 0, len(markets))
	for _, m := range markets {
		opp, ok := mapMarket(m, low, high)
		if !ok {
			continue
		}
		if err := opp.Validate(); err != nil {
			slog.Debug("skipping malformed polymarket record",
				"condition_id", m.ConditionID, "err", err)
			continue
		}
		opps = append(opps, opp)
	}
	return opps, nil
}

// CurrentPrice returns the latest quoted price of the given leg, or ok=false
// when the market no longer resolves to a usable quote.
func (c *Client) CurrentPrice(ctx context.Context, marketID string, side domain.Side) (float64, bool, error) {
	url := fmt.Sprintf("%s/markets?condition_ids=%s", c.base, marketID)

	var markets []gammaMarket
	if err := c.get(ctx, url, &markets); err != nil {
		return 0, false, fmt.Errorf("polymarket.CurrentPrice: %s: %w", marketID, err)
	}
	if len(markets) == 0 {
		return 0, false, nil
	}

	yes, no, err := parseOutcomePrices(markets[0].OutcomePrices)
	if err != nil {
		return 0, false, nil
	}
	if side == domain.SideNo {
		return no, true, nil
	}
	return yes, true, nil
}

// get performs a GET with rate limiting and retries on 429/5xx.
func (c *Client) get(ctx context.Context, url string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			slog.Warn("polymarket request retried", "status", resp.StatusCode, "attempt", attempt+1)
			c.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

// sleep waits with exponential backoff, respecting the context.
func (c *Client) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}
