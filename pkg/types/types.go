package types

import "strings"

// AdditionalLinkName は、検索などで動的に追加されたターゲットに付与される名前です。
const AdditionalLinkName = "Additional Link"

// Target は、1回のパスでクロールする名前付きURLです。パスに投入された後は変更されません。
type Target struct {
	Name string
	URL  string
}

// DeadlineMention は、1つの文の中で見つかったキーワードと日付の組です。
// Dates はマッチした文字列そのもので、日付としての解釈や正規化は行いません。
type DeadlineMention struct {
	Keyword string
	Dates   []string
	Context string
}

// Status は、ターゲット単位の処理結果です。ゼロ値は成功 (Ok) を表します。
type Status struct {
	Err string // 空文字列なら成功
}

// StatusOK は成功ステータスを返します。
func StatusOK() Status { return Status{} }

// StatusError は、メッセージ付きの失敗ステータスを返します。
func StatusError(msg string) Status {
	if strings.TrimSpace(msg) == "" {
		msg = "unknown error"
	}
	return Status{Err: msg}
}

// OK は成功ステータスかどうかを返します。
func (s Status) OK() bool { return s.Err == "" }

// String はレポートに表示するステータス文字列を返します。
func (s Status) String() string {
	if s.OK() {
		return "Successfully crawled"
	}
	return "Error: " + s.Err
}

// CrawlResult は、1回のパスにおけるターゲット1件分の結果です。
// パス内で1ターゲットにつき1度だけ生成され、生成後は変更されません。
type CrawlResult struct {
	Target           Target
	Status           Status
	DeadlineMentions []DeadlineMention
	SpecificField    string // 空文字列は「なし」
	Timestamp        string
}

// HasSpecificField は、サイト固有フィールドが抽出されたかどうかを返します。
func (r CrawlResult) HasSpecificField() bool {
	return r.SpecificField != ""
}
