package utils

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPWithRetryEventuallySucceeds(t *testing.T) {
	calls := 0
	resp, err := HTTPWithRetry(context.Background(), 3, time.Millisecond, func() (*http.Response, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return &http.Response{StatusCode: http.StatusOK}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, calls)
}

func TestHTTPWithRetryGivesUp(t *testing.T) {
	calls := 0
	_, err := HTTPWithRetry(context.Background(), 2, time.Millisecond, func() (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 2, calls)
}

func TestHTTPWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := HTTPWithRetry(ctx, 5, time.Hour, func() (*http.Response, error) {
		calls++
		return nil, errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
