package discover

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultLimit は、1回のパスで追加するURLの上限です。
	DefaultLimit = 5
	// DefaultQuery は、補助的なURL探索に使う検索語です。
	DefaultQuery = "phd admission part time bangalore 2025"
)

// RelevantDomains は、追加URLとして採用するドメインの部分文字列です。
var RelevantDomains = []string{"edu.in", "ac.in", "university"}

// Fetcher は、URL から生のバイト配列を取得する機能です。
// *httpkit.Client と *httpclient.Client の両方がこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// Discoverer は、検索語から追加のクロール対象URLを供給します。
type Discoverer interface {
	Discover(ctx context.Context, query string) ([]string, error)
}

// IsRelevant は、URL が RelevantDomains のいずれかを含むかを返します。
func IsRelevant(link string) bool {
	for _, domain := range RelevantDomains {
		if strings.Contains(link, domain) {
			return true
		}
	}
	return false
}

// FilterRelevant は、関連ドメインを含むリンクを出現順に最大 limit 件返します。
// 同じURLは1度だけ採用します。limit が 0 以下なら DefaultLimit を使います。
func FilterRelevant(links []string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	seen := make(map[string]struct{}, len(links))
	out := make([]string, 0, limit)
	for _, link := range links {
		if len(out) >= limit {
			break
		}
		if link == "" || !IsRelevant(link) {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, link)
	}
	return out
}

// Chain は複数の Discoverer を順に呼び出し、結果を連結します。
// 失敗した Discoverer はログに記録して読み飛ばします。
type Chain struct {
	discoverers []Discoverer
	limit       int
}

// NewChain は Chain を作成します。
func NewChain(limit int, discoverers ...Discoverer) *Chain {
	return &Chain{discoverers: discoverers, limit: limit}
}

// Discover は Discoverer インターフェースを実装します。エラーは返しません。
func (c *Chain) Discover(ctx context.Context, query string) ([]string, error) {
	var all []string
	for _, d := range c.discoverers {
		links, err := d.Discover(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("追加URLの探索に失敗しました")
			continue
		}
		all = append(all, links...)
	}
	return FilterRelevant(all, c.limit), nil
}
