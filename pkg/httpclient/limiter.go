package httpclient

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// NewLimiter は、delay ごとに1リクエストを許可するリミッターを返します。
// delay が 0 以下なら制限しません。
func NewLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// LimitedDoer は、リクエストを送るたびにリミッターのトークンを1つ消費する Doer です。
// リトライによる再送も1リクエストとして数えます。
type LimitedDoer struct {
	doer    Doer
	limiter *rate.Limiter
}

// NewLimitedDoer は doer を limiter で包みます。limiter が nil なら doer をそのまま返します。
func NewLimitedDoer(doer Doer, limiter *rate.Limiter) Doer {
	if limiter == nil {
		return doer
	}
	return &LimitedDoer{doer: doer, limiter: limiter}
}

// Do はトークンを待ってからリクエストを送ります。
func (d *LimitedDoer) Do(req *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(req.Context()); err != nil {
		return nil, &permanentError{err: fmt.Errorf("リクエスト間隔の待機に失敗しました: %w", err)}
	}
	return d.doer.Do(req)
}
