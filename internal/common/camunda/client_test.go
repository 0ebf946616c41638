package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-orchestrator/internal/common/errors"
)

func testClient() *Client {
	return &Client{config: &ClientConfig{
		RequestTimeout: time.Second,
		RetryConfig:    &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
	}}
}

func TestExecuteWithRetry(t *testing.T) {
	t.Run("recovers from transient errors", func(t *testing.T) {
		calls := 0
		res, err := testClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			if calls < 3 {
				return nil, stderrors.New("rpc error: code = Unavailable")
			}
			return "ok", nil
		}, "topology")

		require.NoError(t, err)
		assert.Equal(t, "ok", res)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		_, err := testClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("context deadline exceeded")
		}, "topology")

		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBrokerUnavailable))
		assert.Contains(t, err.Error(), "after 3 attempts")
	})

	t.Run("does not retry rejections", func(t *testing.T) {
		calls := 0
		_, err := testClient().ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
			calls++
			return nil, stderrors.New("rpc error: code = NotFound desc = process not found")
		}, "create-instance")

		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBrokerRejected))
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		c := testClient()
		c.config.RetryConfig.BaseDelay = time.Hour
		c.config.RetryConfig.MaxDelay = time.Hour
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
			return nil, stderrors.New("connection refused")
		}, "topology")

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("dial tcp: connection refused")))
	assert.True(t, isRetryableZeebeError(stderrors.New("Unavailable")))
	assert.False(t, isRetryableZeebeError(stderrors.New("permission denied")))
}
