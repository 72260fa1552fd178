package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shouni/go-admission-watch/pkg/retry"
)

const (
	DefaultHTTPTimeout = 10 * time.Second
	MaxBodySize        = int64(10 * 1024 * 1024) // 10MB

	// errorBodyPreview は、エラーメッセージに含めるボディの最大バイト数です。
	errorBodyPreview = 256

	// DefaultUserAgent は、一般的なブラウザを名乗るクライアント識別子です。
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Doer は、*http.Client.Do と互換性のあるインターフェースです。
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Response は1回のフェッチ結果です。
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError は、2xx 以外のステータスコードを受け取ったことを示します。
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("HTTPステータスコードエラー: %d", e.StatusCode)
	}
	if len(body) > errorBodyPreview {
		body = body[:errorBodyPreview] + "..."
	}
	return fmt.Sprintf("HTTPステータスコードエラー: %d, ボディ: %s", e.StatusCode, body)
}

// Retryable は 5xx と 429 をリトライ対象とします。
func (e *StatusError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Client は、ページ取得と指数バックオフによるリトライを管理します。
type Client struct {
	httpClient  Doer
	retryConfig retry.Config
	userAgent   string
	limiter     *rate.Limiter
}

// Option は Client の設定を行う関数です。
type Option func(*Client)

// WithHTTPClient は、実際にリクエストを送る Doer を差し替えます。
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.httpClient = doer
		}
	}
}

// WithMaxRetries は最大リトライ回数を設定します。
func WithMaxRetries(max uint64) Option {
	return func(c *Client) {
		c.retryConfig.MaxRetries = max
	}
}

// WithRetryConfig はリトライ設定全体を差し替えます。
func WithRetryConfig(cfg retry.Config) Option {
	return func(c *Client) {
		c.retryConfig = cfg
	}
}

// WithLimiter は、再送を含むすべてのリクエストを limiter で間引きます。
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithUserAgent は User-Agent ヘッダーを設定します。
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New は新しい Client を生成します。timeout が 0 以下の場合は DefaultHTTPTimeout を使います。
func New(timeout time.Duration, options ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultHTTPTimeout
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		retryConfig: retry.DefaultConfig(),
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range options {
		opt(c)
	}
	c.httpClient = NewLimitedDoer(c.httpClient, c.limiter)
	return c
}

// Fetch は URL を GET し、ステータスコードとボディを返します。
// 2xx 以外は *StatusError として返されます。
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	var resp *Response

	op := func() error {
		var fetchErr error
		resp, fetchErr = c.doFetch(ctx, url)
		return fetchErr
	}

	err := retry.Do(ctx, c.retryConfig, fmt.Sprintf("URL(%s)のフェッチ", url), op, isRetryable)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FetchBytes は Fetch のボディだけを返します。
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// doFetch は1回分の HTTP GET を実行します。
func (c *Client) doFetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &permanentError{err: fmt.Errorf("GETリクエスト作成に失敗しました: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストに失敗しました (ネットワーク/接続エラー): %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, MaxBodySize))
	if err != nil {
		return nil, fmt.Errorf("レスポンスボディの読み込みに失敗しました: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &StatusError{StatusCode: res.StatusCode, Body: body}
	}

	return &Response{
		StatusCode:  res.StatusCode,
		ContentType: res.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// permanentError は、リトライしても結果が変わらないエラーです (不正なURLなど)。
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// isRetryable は retry.ShouldRetryFunc を満たします。
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}

	// 呼び出し元のコンテキストが終わっていればリトライしても無駄
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// ネットワークエラーはリトライ対象
	return true
}
