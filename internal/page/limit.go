package page

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

type limitedClient struct {
	Client
	limiter *rate.Limiter
}

// WithRateLimit spaces page opens to at most rps per second. A non-positive rps
// returns c unchanged.
func WithRateLimit(c Client, rps float64) Client {
	if rps <= 0 {
		return c
	}
	return &limitedClient{
		Client:  c,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *limitedClient) Open(ctx context.Context, path string) (Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait open budget: %w", err)
	}
	return c.Client.Open(ctx, path)
}
