package llm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// fanOut issues one QueryModel call per unique model and collects every
// outcome. Failures resolve to nil entries after a logged diagnostic; no
// error ever escapes and no call can cancel or delay its siblings, so the
// whole fan-out settles within the slowest individual timeout.
//
// A plain errgroup (not WithContext) is used deliberately: the group gives a
// structured join over all launched calls without coupling their lifetimes.
func fanOut(ctx context.Context, c Client, models []string, messages []Message, timeout time.Duration) FanOutResult {
	results := make(FanOutResult, len(models))
	var mu sync.Mutex

	var g errgroup.Group
	seen := make(map[string]bool, len(models))
	for _, model := range models {
		if seen[model] {
			continue // duplicates collapse to one logical call
		}
		seen[model] = true

		model := model
		g.Go(func() error {
			response, err := c.QueryModel(ctx, model, messages, timeout)
			if err != nil {
				log.WithField("model", model).Warnf("query failed: %v", err)
				response = nil
			}
			mu.Lock()
			results[model] = response
			mu.Unlock()
			return nil
		})
	}

	g.Wait() // no goroutine returns an error
	return results
}
