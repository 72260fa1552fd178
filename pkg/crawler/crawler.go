package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/shouni/go-admission-watch/pkg/deadline"
	"github.com/shouni/go-admission-watch/pkg/discover"
	"github.com/shouni/go-admission-watch/pkg/document"
	"github.com/shouni/go-admission-watch/pkg/httpclient"
	"github.com/shouni/go-admission-watch/pkg/site"
	"github.com/shouni/go-admission-watch/pkg/types"
)

const (
	// DefaultTimeout は、1ターゲットあたりのフェッチのタイムアウトです。
	DefaultTimeout = 10 * time.Second
	// DefaultConcurrency は同時に処理するターゲット数です。1 は逐次処理になります。
	DefaultConcurrency = 1

	// TimestampLayout は CrawlResult.Timestamp の書式です。
	TimestampLayout = "2006-01-02 15:04:05"
)

// ErrPassInProgress は、同じ Crawler でパスが実行中の場合に返されます。
var ErrPassInProgress = errors.New("crawler: 別のパスが実行中です")

// Fetcher は、URL を取得してステータスとボディを返す機能です。
// 2xx 以外はエラーとして返すことを期待します。フェッチ間隔の制御 (httpclient.WithLimiter) は
// Fetcher 側の責務で、再送を含むすべてのリクエストに適用されます。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*httpclient.Response, error)
}

// ParseFunc は、レスポンスボディを Document に変換します。
type ParseFunc func(body []byte, contentType string) (*document.Document, error)

// Config は Crawler の動作設定です。
type Config struct {
	Timeout     time.Duration // 1フェッチあたりのタイムアウト
	Concurrency int           // 同時実行数
	SearchQuery string        // 追加URL探索の検索語
}

// DefaultConfig は逐次処理の設定を返します。
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		SearchQuery: discover.DefaultQuery,
	}
}

// Crawler は、ターゲットの一覧を1回のパスとして処理します。
type Crawler struct {
	fetcher    Fetcher
	parse      ParseFunc
	extractor  *deadline.Extractor
	sites      *site.Registry
	discoverer discover.Discoverer
	cfg        Config
	now        func() time.Time

	running atomic.Bool
}

// Option は Crawler の設定を行う関数です。
type Option func(*Crawler)

// WithDiscoverer は、静的ターゲットの後にクロールする追加URLの供給元を設定します。
func WithDiscoverer(d discover.Discoverer) Option {
	return func(c *Crawler) { c.discoverer = d }
}

// WithSiteRegistry は、サイト固有抽出のルール表を差し替えます。
func WithSiteRegistry(r *site.Registry) Option {
	return func(c *Crawler) {
		if r != nil {
			c.sites = r
		}
	}
}

// WithParser は Document Parser を差し替えます。
func WithParser(p ParseFunc) Option {
	return func(c *Crawler) {
		if p != nil {
			c.parse = p
		}
	}
}

// WithClock は、タイムスタンプに使う時刻関数を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(c *Crawler) {
		if now != nil {
			c.now = now
		}
	}
}

// New は Crawler を初期化します。
func New(fetcher Fetcher, cfg Config, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("crawler.New: Fetcher cannot be nil")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.SearchQuery == "" {
		cfg.SearchQuery = discover.DefaultQuery
	}

	c := &Crawler{
		fetcher:   fetcher,
		parse:     document.ParseWithContentType,
		extractor: deadline.NewExtractor(),
		sites:     site.DefaultRegistry(),
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Pass は1回のパスの結果です。Results は列挙順 (静的ターゲット、続いて追加URL) に並びます。
type Pass struct {
	Results    []types.CrawlResult
	StartedAt  time.Time
	FinishedAt time.Time
}

// Failed は、エラーで終わったターゲットの数を返します。
func (p *Pass) Failed() int {
	n := 0
	for _, r := range p.Results {
		if !r.Status.OK() {
			n++
		}
	}
	return n
}

// Run は1回のパスを実行します。静的ターゲットをすべて処理した後、
// Discoverer が供給したURLを "Additional Link" として同じ手順で処理します。
// 個々のターゲットの失敗でパスは中断せず、結果はターゲットごとに必ず1件です。
func (c *Crawler) Run(ctx context.Context, targets []types.Target) (*Pass, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, ErrPassInProgress
	}
	defer c.running.Store(false)

	pass := &Pass{StartedAt: c.now()}
	log.Info().Int("targets", len(targets)).Int("concurrency", c.cfg.Concurrency).Msg("クロールを開始します")

	pass.Results = append(pass.Results, c.crawlAll(ctx, targets)...)

	extra := c.discoverTargets(ctx)
	log.Info().Int("additional_links", len(extra)).Msg("追加リンクをクロールします")
	pass.Results = append(pass.Results, c.crawlAll(ctx, extra)...)

	pass.FinishedAt = c.now()
	log.Info().
		Int("results", len(pass.Results)).
		Int("failed", pass.Failed()).
		Dur("elapsed", pass.FinishedAt.Sub(pass.StartedAt)).
		Msg("クロールが完了しました")

	if err := ctx.Err(); err != nil {
		return pass, fmt.Errorf("パスが中断されました: %w", err)
	}
	return pass, nil
}

// crawlAll は targets を最大 Concurrency 件ずつ処理し、列挙順のスロットに結果を格納します。
func (c *Crawler) crawlAll(ctx context.Context, targets []types.Target) []types.CrawlResult {
	results := make([]types.CrawlResult, len(targets))

	var g errgroup.Group
	g.SetLimit(c.cfg.Concurrency)
	for i, target := range targets {
		g.Go(func() error {
			results[i] = c.CrawlTarget(ctx, target)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// discoverTargets は追加URLを取得します。失敗した場合は空の一覧になります。
func (c *Crawler) discoverTargets(ctx context.Context) []types.Target {
	if c.discoverer == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("追加URLの探索を中止しました")
		return nil
	}

	links, err := c.discoverer.Discover(ctx, c.cfg.SearchQuery)
	if err != nil {
		log.Warn().Err(err).Str("query", c.cfg.SearchQuery).Msg("追加URLの探索に失敗しました")
		return nil
	}

	targets := make([]types.Target, 0, len(links))
	for _, link := range links {
		targets = append(targets, types.Target{Name: types.AdditionalLinkName, URL: link})
	}
	return targets
}

// CrawlTarget は1つのターゲットを取得・抽出し、CrawlResult を返します。
// フェッチと解析の失敗はエラーステータスの結果に変換され、呼び出し元には伝播しません。
func (c *Crawler) CrawlTarget(ctx context.Context, target types.Target) types.CrawlResult {
	logger := log.With().Str("name", target.Name).Str("url", target.URL).Logger()

	if err := ctx.Err(); err != nil {
		logger.Warn().Err(err).Msg("フェッチ前に中断されました")
		return c.errorResult(target, err)
	}

	logger.Debug().Msg("フェッチします")
	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.fetcher.Fetch(fetchCtx, target.URL)
	if err != nil {
		logger.Warn().Err(err).Msg("フェッチに失敗しました")
		return c.errorResult(target, err)
	}

	doc, err := c.parse(resp.Body, resp.ContentType)
	if err != nil {
		logger.Warn().Err(err).Msg("ドキュメントの解析に失敗しました")
		return c.errorResult(target, err)
	}

	mentions := c.extractor.Extract(doc.PlainText())
	field := c.sites.Extract(target.URL, doc.Tree)
	logger.Debug().
		Str("title", doc.Title()).
		Int("mentions", len(mentions)).
		Bool("specific_field", field != "").
		Msg("抽出しました")

	return types.CrawlResult{
		Target:           target,
		Status:           types.StatusOK(),
		DeadlineMentions: mentions,
		SpecificField:    field,
		Timestamp:        c.now().Format(TimestampLayout),
	}
}

func (c *Crawler) errorResult(target types.Target, err error) types.CrawlResult {
	return types.CrawlResult{
		Target:           target,
		Status:           types.StatusError(err.Error()),
		DeadlineMentions: []types.DeadlineMention{},
		Timestamp:        c.now().Format(TimestampLayout),
	}
}
