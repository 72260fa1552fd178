package discover

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// FeedDiscoverer は、RSS/Atom フィード (大学のお知らせなど) の記事リンクを追加URLとして供給します。
// フィードは検索語を使いません。
type FeedDiscoverer struct {
	fetcher  Fetcher
	feedURLs []string
	limit    int
}

// NewFeedDiscoverer は FeedDiscoverer を作成します。
func NewFeedDiscoverer(fetcher Fetcher, limit int, feedURLs ...string) (*FeedDiscoverer, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("discover.NewFeedDiscoverer: Fetcher cannot be nil")
	}
	return &FeedDiscoverer{fetcher: fetcher, feedURLs: feedURLs, limit: limit}, nil
}

// FetchAndParse は1つのフィードを取得してパースします。
func (f *FeedDiscoverer) FetchAndParse(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	body, err := f.fetcher.FetchBytes(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("フィードの取得失敗 (URL: %s): %w", feedURL, err)
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("フィードのパース失敗 (URL: %s): %w", feedURL, err)
	}
	return feed, nil
}

// Discover はすべてのフィードを順に読み、関連ドメインの記事リンクを返します。
// 1件でも読めたフィードがあれば、他のフィードの失敗はエラーにしません。
func (f *FeedDiscoverer) Discover(ctx context.Context, _ string) ([]string, error) {
	var (
		links   []string
		lastErr error
		okCount int
	)
	for _, feedURL := range f.feedURLs {
		feed, err := f.FetchAndParse(ctx, feedURL)
		if err != nil {
			lastErr = err
			continue
		}
		okCount++
		links = append(links, FeedLinks(feed)...)
	}

	if okCount == 0 && lastErr != nil {
		return nil, lastErr
	}
	return FilterRelevant(links, f.limit), nil
}

// FeedLinks は、フィードの記事から空でないリンクを出現順に取り出します。
func FeedLinks(feed *gofeed.Feed) []string {
	if feed == nil || len(feed.Items) == 0 {
		return []string{}
	}
	urls := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item != nil && item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls
}
