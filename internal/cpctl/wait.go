package cpctl

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// waitHTTP polls url until it answers with want or the timeout passes.
func waitHTTP(url string, want int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	client := &http.Client{Timeout: 2 * time.Second}
	last := 0
	for {
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			last = resp.StatusCode
			if resp.StatusCode == want {
				return nil
			}
			debug("[wait] %s -> %d", url, resp.StatusCode)
		}
		select {
		case <-time.After(250 * time.Millisecond):
		case <-ctx.Done():
			if last != 0 {
				return fmt.Errorf("timed out waiting for %s to return %d (last %d)", url, want, last)
			}
			return fmt.Errorf("timed out waiting for %s to return %d", url, want)
		}
	}
}
