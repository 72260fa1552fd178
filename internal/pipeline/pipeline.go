package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/shouni/go-admission-watch/internal/config"
	"github.com/shouni/go-admission-watch/pkg/crawler"
	"github.com/shouni/go-admission-watch/pkg/discover"
	"github.com/shouni/go-admission-watch/pkg/httpclient"
)

// NewLimiter は、パス全体で共有するフェッチ間隔のリミッターを設定から生成します。
func NewLimiter(cfg *config.Config) *rate.Limiter {
	return httpclient.NewLimiter(cfg.PolitenessDelay)
}

// NewFetcher は、ターゲットページ取得用のHTTPクライアントを設定から生成します。
// 再送を含むすべてのリクエストが limiter のトークンを消費します。
func NewFetcher(cfg *config.Config, limiter *rate.Limiter) *httpclient.Client {
	return httpclient.New(
		cfg.Timeout(),
		httpclient.WithMaxRetries(uint64(cfg.MaxRetries)),
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithLimiter(limiter),
	)
}

// NewDiscoverer は、設定に応じて検索とフィードによる追加URLの供給元を組み立てます。
// 検索リクエストも limiter を共有します。どちらも無効な場合は nil を返します。
func NewDiscoverer(cfg *config.Config, pageFetcher discover.Fetcher, limiter *rate.Limiter) (discover.Discoverer, error) {
	var sources []discover.Discoverer

	if cfg.Search.Enabled {
		searchFetcher := httpkit.New(
			cfg.Timeout(),
			httpkit.WithMaxRetries(uint64(cfg.MaxRetries)),
			httpkit.WithHTTPClient(httpclient.NewLimitedDoer(&http.Client{Timeout: cfg.Timeout()}, limiter)),
		)
		search, err := discover.NewSearchDiscoverer(searchFetcher, cfg.Search.Endpoint, cfg.DiscoverLimit)
		if err != nil {
			return nil, err
		}
		sources = append(sources, search)
	}

	if len(cfg.Search.Feeds) > 0 {
		feeds, err := discover.NewFeedDiscoverer(pageFetcher, cfg.DiscoverLimit, cfg.Search.Feeds...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, feeds)
	}

	if len(sources) == 0 {
		return nil, nil
	}
	return discover.NewChain(cfg.DiscoverLimit, sources...), nil
}

// NewCrawler は、設定からすべての協調オブジェクトを組み立てた Crawler を返します。
func NewCrawler(cfg *config.Config) (*crawler.Crawler, error) {
	limiter := NewLimiter(cfg)
	fetcher := NewFetcher(cfg, limiter)

	var opts []crawler.Option
	d, err := NewDiscoverer(cfg, fetcher, limiter)
	if err != nil {
		return nil, fmt.Errorf("Discovererの初期化エラー: %w", err)
	}
	if d != nil {
		opts = append(opts, crawler.WithDiscoverer(d))
	}

	return crawler.New(fetcher, crawler.Config{
		Timeout:     cfg.Timeout(),
		Concurrency: cfg.Concurrency,
		SearchQuery: cfg.Search.Query,
	}, opts...)
}

// RunPass は cfg のターゲットに対して1回のパスを実行します。
func RunPass(ctx context.Context, cfg *config.Config) (*crawler.Pass, error) {
	c, err := NewCrawler(cfg)
	if err != nil {
		return nil, fmt.Errorf("Crawlerの初期化エラー: %w", err)
	}
	return c.Run(ctx, cfg.Targets)
}

// Run は既定の設定 (環境変数と設定ファイルを含む) で1回のパスを実行します。
func Run(ctx context.Context) (*crawler.Pass, error) {
	cfg, err := config.Load(viper.New(), "")
	if err != nil {
		return nil, err
	}
	return RunPass(ctx, cfg)
}
