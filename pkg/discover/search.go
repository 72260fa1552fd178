package discover

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultSearchEndpoint は、APIキー不要の DuckDuckGo HTML 版です。
const DefaultSearchEndpoint = "https://html.duckduckgo.com/html/"

// SearchDiscoverer は、Web検索の結果ページからリンクを集めます。
type SearchDiscoverer struct {
	fetcher  Fetcher
	endpoint string
	limit    int
}

// NewSearchDiscoverer は SearchDiscoverer を作成します。endpoint が空なら DefaultSearchEndpoint です。
func NewSearchDiscoverer(fetcher Fetcher, endpoint string, limit int) (*SearchDiscoverer, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("discover.NewSearchDiscoverer: Fetcher cannot be nil")
	}
	if endpoint == "" {
		endpoint = DefaultSearchEndpoint
	}
	return &SearchDiscoverer{fetcher: fetcher, endpoint: endpoint, limit: limit}, nil
}

// Discover は検索結果ページのすべての a[href] を走査し、関連ドメインのものを返します。
func (s *SearchDiscoverer) Discover(ctx context.Context, query string) ([]string, error) {
	searchURL := s.endpoint + "?q=" + url.QueryEscape(query)

	body, err := s.fetcher.FetchBytes(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("検索結果の取得に失敗しました (query: %s): %w", query, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("検索結果のHTML解析に失敗しました: %w", err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if link := resolveResultLink(href); link != "" {
			links = append(links, link)
		}
	})

	return FilterRelevant(links, s.limit), nil
}

// resolveResultLink は、検索エンジンのリダイレクトリンク (uddg パラメータ) を
// 実際の遷移先に展開し、スキームのないリンクには https を補います。
func resolveResultLink(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}
