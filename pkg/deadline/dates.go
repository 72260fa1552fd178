package deadline

import "regexp"

// DatePattern は、日付らしき文字列を検出するための書式パターンです。
type DatePattern struct {
	Name string
	Expr *regexp.Regexp
}

// monthAbbr は、月名の先頭3文字です。続く英字は任意 (例: "Aug", "August")。
const monthAbbr = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*`

// space は、ノーブレークスペース (&nbsp;) などの Unicode 空白も含む空白文字クラスです。
// RE2 の \s は ASCII の空白にしかマッチしません。
const space = `[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]`

// DatePatterns は、試行順に並べた日付パターンの表です。
// 暦としての妥当性 (月 <= 12 など) は検証しません。数字は ASCII の 0-9 のみを対象とします。
var DatePatterns = []DatePattern{
	{Name: "day-month-year", Expr: regexp.MustCompile(`(?i)\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)},
	{Name: "year-month-day", Expr: regexp.MustCompile(`(?i)\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`)},
	{Name: "day-monthname-year", Expr: regexp.MustCompile(`(?i)\b(\d{1,2})` + space + `+` + monthAbbr + `,?` + space + `+(\d{4})\b`)},
	{Name: "monthname-day-year", Expr: regexp.MustCompile(`(?i)\b` + monthAbbr + space + `+(\d{1,2}),?` + space + `+(\d{4})\b`)},
}

// MatchDates は、text に含まれる日付らしき部分文字列をすべて返します。
// パターンの試行順、パターン内では左から右の順に並びます。複数のパターンが
// 同じ箇所にマッチした場合も重複は除去しません。見つからなければ空スライスです。
func MatchDates(text string) []string {
	return matchDates(DatePatterns, text)
}

func matchDates(patterns []DatePattern, text string) []string {
	dates := []string{}
	for _, p := range patterns {
		dates = append(dates, p.Expr.FindAllString(text, -1)...)
	}
	return dates
}
