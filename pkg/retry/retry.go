package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultMaxRetries は、初回の試行に加えて行う最大リトライ回数です。
	DefaultMaxRetries = 2

	InitialBackoffInterval = 500 * time.Millisecond
	MaxBackoffInterval     = 5 * time.Second
)

// Operation はリトライ可能な処理です。成功時は nil を返します。
type Operation func() error

// ShouldRetryFunc は、エラーがリトライ対象かどうかを判定します。
type ShouldRetryFunc func(error) bool

// Config はリトライ動作の設定です。
type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返します。
func DefaultConfig() Config {
	return Config{
		MaxRetries:      DefaultMaxRetries,
		InitialInterval: InitialBackoffInterval,
		MaxInterval:     MaxBackoffInterval,
	}
}

// newBackOffPolicy は、設定とコンテキストを反映したバックオフ方針を組み立てます。
func newBackOffPolicy(ctx context.Context, cfg Config) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.InitialInterval
	b.MaxInterval = cfg.MaxInterval
	// 試行回数で打ち切るため、経過時間による打ち切りは無効にする
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, cfg.MaxRetries), ctx)
}

// Do は指数バックオフで op をリトライします。
// shouldRetry が false を返したエラーは即座に返し、それ以上リトライしません。
func Do(ctx context.Context, cfg Config, operationName string, op Operation, shouldRetry ShouldRetryFunc) error {
	var (
		lastErr error
		stopped bool
	)

	attempt := func() error {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			stopped = true
			lastErr = permanent.Err
			return err
		}
		if !shouldRetry(err) {
			stopped = true
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("operation", operationName).Dur("wait", wait).Msg("一時的なエラーのためリトライします")
	}

	err := backoff.RetryNotify(attempt, newBackOffPolicy(ctx, cfg), notify)
	if err == nil {
		return nil
	}

	if stopped {
		return lastErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%sに失敗しました: コンテキストタイムアウト/キャンセル: %w", operationName, err)
	}

	return fmt.Errorf("%sに失敗しました: 最大リトライ回数 (%d回) に到達: %w", operationName, cfg.MaxRetries, lastErr)
}
