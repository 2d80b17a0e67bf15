package utils

import (
	"context"
	"log"
	"net/http"
	"time"
)

// HTTPWithRetry calls f until it returns without a transport error,
// at most count times, sleeping delay between attempts. Responses
// with an error status are returned as they are.
func HTTPWithRetry(ctx context.Context, count int, delay time.Duration, f func() (*http.Response, error)) (*http.Response, error) {
	if count < 1 {
		count = 1
	}
	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < count; i++ {
		resp, err = f()
		if err == nil {
			return resp, nil
		}
		log.Printf("[utils] [HTTPWithRetry] Attempt %d/%d failed: %v\n", i+1, count, err)
		if i == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return resp, err
}
