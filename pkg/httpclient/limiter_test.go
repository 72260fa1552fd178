package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/shouni/go-admission-watch/pkg/retry"
)

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, NewLimiter(0).Limit())
	assert.Equal(t, rate.Every(time.Second), NewLimiter(time.Second).Limit())
}

func TestNewLimitedDoer_NilLimiter(t *testing.T) {
	doer := new(MockDoer)
	assert.Equal(t, doer, NewLimitedDoer(doer, nil))
}

func TestFetch_EveryRetryConsumesRateToken(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	// 補充は1時間に1回・バースト2: 3回目の送信はトークンを待てない
	limiter := rate.NewLimiter(rate.Every(time.Hour), 2)
	client := New(time.Second,
		WithLimiter(limiter),
		WithRetryConfig(retry.Config{MaxRetries: 5, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := client.Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "リクエスト間隔の待機に失敗しました")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "再送もトークンを1つ消費する")
	assert.Less(t, limiter.Tokens(), 1.0)
}

func TestLimitedDoer_CancelledContext(t *testing.T) {
	doer := new(MockDoer)
	limited := NewLimitedDoer(doer, rate.NewLimiter(rate.Every(time.Hour), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://example.ac.in", nil)
	require.NoError(t, err)

	_, err = limited.Do(req)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, isRetryable(err))
	doer.AssertNotCalled(t, "Do", mock.Anything)
}
