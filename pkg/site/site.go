package site

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

// MatchOn は、正規表現を要素のどこに適用するかを表します。
type MatchOn int

const (
	// MatchText は、要素の単一テキスト (子が1つの文字列だけの要素) に適用します。
	MatchText MatchOn = iota
	// MatchClass は、要素の class 属性に適用します。
	MatchClass
)

// Rule は、1つのサイト向けの抽出ヒューリスティクスです。
type Rule struct {
	Name    string         // ログに出す名前
	Domain  string         // URL に含まれていれば、このルールを選択する
	Tags    string         // goquery セレクター形式のタグ名フィルタ
	MatchOn MatchOn        // 正規表現の適用対象
	Pattern *regexp.Regexp // 大文字小文字を区別しないパターン
}

// Extract は、ルールにマッチする最初の要素 (文書順) のテキストを加工せずに返します。
// マッチする要素がなければ ok は false です。
func (r Rule) Extract(doc *goquery.Document) (field string, ok bool) {
	if doc == nil || r.Pattern == nil {
		return "", false
	}

	doc.Find(r.Tags).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !r.matches(s) {
			return true
		}
		field = s.Text()
		ok = true
		return false
	})
	return field, ok
}

func (r Rule) matches(s *goquery.Selection) bool {
	switch r.MatchOn {
	case MatchClass:
		class, exists := s.Attr("class")
		return exists && r.Pattern.MatchString(class)
	default:
		text, exists := singleString(s)
		return exists && r.Pattern.MatchString(text)
	}
}

// singleString は、子ノードが1つだけの間それを辿り、最後に文字列に行き着いた場合にそれを返します。
// 複数の子を持つ要素は「単一テキスト」を持たないものとして扱います。
func singleString(s *goquery.Selection) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	node := s.Get(0)
	for node != nil {
		child := node.FirstChild
		if child == nil || child.NextSibling != nil {
			return "", false
		}
		if child.Type == html.TextNode {
			return child.Data, true
		}
		node = child
	}
	return "", false
}

// ----------------------------------------------------------------------
// レジストリ
// ----------------------------------------------------------------------

// Registry は、ドメインのシグネチャから抽出ルールを引く表です。先に登録したものが優先されます。
type Registry struct {
	rules []Rule
}

// NewRegistry は、与えられた優先順のルールでレジストリを作成します。
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: append([]Rule(nil), rules...)}
}

// Lookup は、URL に最初にマッチしたドメインのルールを返します。
func (r *Registry) Lookup(rawURL string) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}
	for _, rule := range r.rules {
		if rule.Domain != "" && strings.Contains(rawURL, rule.Domain) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Extract は URL に対応するルールで1つのフィールドを抽出します。
// 対応するルールがない場合や、要素が見つからない場合は空文字列を返します。エラーにはなりません。
func (r *Registry) Extract(rawURL string, doc *goquery.Document) string {
	rule, ok := r.Lookup(rawURL)
	if !ok {
		return ""
	}
	field, found := rule.Extract(doc)
	log.Debug().Str("rule", rule.Name).Str("url", rawURL).Bool("found", found).Msg("サイト固有の情報を抽出しました")
	return field
}

// DefaultRegistry は、既知の大学サイト向けのルールを優先順に登録したレジストリを返します。
func DefaultRegistry() *Registry {
	return NewRegistry(
		Rule{
			Name:    "iisc",
			Domain:  "iisc.ac.in",
			Tags:    "p",
			MatchOn: MatchText,
			Pattern: regexp.MustCompile(`(?i)deadline|last date`),
		},
		Rule{
			Name:    "reva",
			Domain:  "reva.edu.in",
			Tags:    "span, div",
			MatchOn: MatchClass,
			Pattern: regexp.MustCompile(`(?i)date|deadline`),
		},
		Rule{
			Name:    "christ",
			Domain:  "christuniversity.in",
			Tags:    "div",
			MatchOn: MatchText,
			Pattern: regexp.MustCompile(`(?i)important dates|admission`),
		},
		Rule{
			Name:    "pes",
			Domain:  "pes.edu",
			Tags:    "p, div",
			MatchOn: MatchText,
			Pattern: regexp.MustCompile(`(?i)admission|apply`),
		},
	)
}
