package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// JobName is the Pushgateway job the crawl pushes under.
const JobName = "recipe_crawler"

// Push replaces the crawler's group on a Pushgateway with the default registry.
func Push(ctx context.Context, gatewayURL string) error {
	Init()
	pusher := push.New(gatewayURL, JobName).Gatherer(prometheus.DefaultGatherer)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", gatewayURL, err)
	}
	return nil
}
