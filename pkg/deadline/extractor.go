package deadline

import (
	"strings"
	"unicode/utf8"

	textUtils "github.com/shouni/go-utils/text"

	"github.com/shouni/go-admission-watch/pkg/types"
)

const (
	// MaxContextLength は、保存するコンテキストの最大文字数 (ルーン数) です。
	MaxContextLength = 200
	// ContextSuffix は、コンテキストの末尾に常に付与されるマーカーです。
	ContextSuffix = "..."
)

// Keywords は、締切を示すキーワードの語彙です。この順に評価されます。
var Keywords = []string{
	"last date",
	"deadline",
	"application closes",
	"submission date",
	"final date",
	"closing date",
	"due date",
	"apply by",
	"before",
}

// Extractor は、プレーンテキストから締切の言及を抽出します。
type Extractor struct {
	keywords []string
	patterns []DatePattern
}

// NewExtractor は、既定のキーワードと日付パターンを使う Extractor を返します。
func NewExtractor() *Extractor {
	return &Extractor{
		keywords: Keywords,
		patterns: DatePatterns,
	}
}

// Extract は、デフォルト設定の Extractor で text を処理します。
func Extract(text string) []types.DeadlineMention {
	return NewExtractor().Extract(text)
}

// Extract は text を文に分割し、キーワードと日付の両方を含む文ごとに言及を生成します。
// 1つの文が複数のキーワードにマッチした場合は、キーワードの数だけ言及を返します。
// 結果はキーワード順、その中では文の出現順です。
func (e *Extractor) Extract(text string) []types.DeadlineMention {
	mentions := []types.DeadlineMention{}
	if text == "" {
		return mentions
	}

	sentences := SplitSentences(text)
	lowered := make([]string, len(sentences))
	for i, s := range sentences {
		lowered[i] = strings.ToLower(s)
	}

	for _, keyword := range e.keywords {
		kw := strings.ToLower(keyword)
		for i, sentence := range sentences {
			if !strings.Contains(lowered[i], kw) {
				continue
			}
			dates := matchDates(e.patterns, sentence)
			if len(dates) == 0 {
				continue
			}
			mentions = append(mentions, types.DeadlineMention{
				Keyword: keyword,
				Dates:   dates,
				Context: buildContext(sentence),
			})
		}
	}
	return mentions
}

// buildContext は空白を1つに詰め、先頭 MaxContextLength 文字に切り詰めてから
// ContextSuffix を付けます。文が短くても ContextSuffix は必ず付きます。
func buildContext(sentence string) string {
	collapsed := textUtils.NormalizeText(sentence)
	if utf8.RuneCountInString(collapsed) > MaxContextLength {
		collapsed = string([]rune(collapsed)[:MaxContextLength])
	}
	return collapsed + ContextSuffix
}
