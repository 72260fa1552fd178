package deadline

import "regexp"

// SentenceBoundary は、文末記号の直後に空白 (Unicode の空白を含む) が続く位置を文の区切りとみなします。
// 略語や番号付きリストで誤分割することがありますが、既知の制約として受け入れています。
var SentenceBoundary = regexp.MustCompile(`[.!?]` + space + `+`)

// SplitSentences は text を文らしき単位に分割します。
// 区切りの記号と空白は取り除かれ、各セグメント前後の空白はそのまま残ります。
// 区切りがない場合は text 全体を1つのセグメントとして返します。
func SplitSentences(text string) []string {
	return SentenceBoundary.Split(text, -1)
}
