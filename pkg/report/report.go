package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"

	"github.com/shouni/go-admission-watch/pkg/types"
)

// ----------------------------------------------------------------------
// 表形式ビュー
// ----------------------------------------------------------------------

// Columns は表形式ビューの列名です。
var Columns = []string{"University", "URL", "Status", "Last_Updated", "Deadline_Keyword", "Found_Dates", "Context"}

const (
	noneValue        = "None"
	noDeadlineFound  = "No deadline information found"
	datesSeparator   = ", "
	flashcardDivider = "---"
)

// Row は、表形式ビューの1行です。
type Row struct {
	University      string
	URL             string
	Status          string
	LastUpdated     string
	DeadlineKeyword string
	FoundDates      string
	Context         string
}

// Values は Columns の順に値を返します。
func (r Row) Values() []string {
	return []string{r.University, r.URL, r.Status, r.LastUpdated, r.DeadlineKeyword, r.FoundDates, r.Context}
}

// Rows は結果を言及1件につき1行に展開します。言及のない結果は1行のプレースホルダーになります。
// 入力は変更しません。
func Rows(results []types.CrawlResult) []Row {
	rows := make([]Row, 0, len(results))
	for _, r := range results {
		base := Row{
			University:  r.Target.Name,
			URL:         r.Target.URL,
			Status:      r.Status.String(),
			LastUpdated: r.Timestamp,
		}
		if len(r.DeadlineMentions) == 0 {
			base.DeadlineKeyword = noneValue
			base.FoundDates = noneValue
			base.Context = noDeadlineFound
			rows = append(rows, base)
			continue
		}
		for _, m := range r.DeadlineMentions {
			row := base
			row.DeadlineKeyword = m.Keyword
			row.FoundDates = strings.Join(m.Dates, datesSeparator)
			row.Context = m.Context
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteCSV は表形式ビューをヘッダー付きの CSV として書き出します。
func WriteCSV(w io.Writer, results []types.CrawlResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("CSVヘッダーの書き込みに失敗しました: %w", err)
	}
	for _, row := range Rows(results) {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("CSV行の書き込みに失敗しました: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV は結果を filename に保存します。結果が空の場合は何もしません。
func SaveCSV(filename string, results []types.CrawlResult) error {
	if len(results) == 0 {
		log.Info().Msg("保存する結果がありません")
		return nil
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("CSVファイルの作成に失敗しました (%s): %w", filename, err)
	}
	if err := writeAndClose(f, filename, results); err != nil {
		return err
	}
	log.Info().Str("file", filename).Int("results", len(results)).Msg("結果を保存しました")
	return nil
}

// writeAndClose は CSV を書き込んでから wc を閉じます。書き込みに成功してもクローズの失敗はエラーです。
func writeAndClose(wc io.WriteCloser, filename string, results []types.CrawlResult) error {
	writeErr := WriteCSV(wc, results)
	closeErr := wc.Close()
	if writeErr != nil {
		return fmt.Errorf("CSVファイルの書き込みに失敗しました (%s): %w", filename, writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("CSVファイルのクローズに失敗しました (%s): %w", filename, closeErr)
	}
	return nil
}

// ----------------------------------------------------------------------
// Markdown ビュー
// ----------------------------------------------------------------------

// Markdown は、大学ごとに1枚のフラッシュカード (見出し + 詳細 + 区切り線) を並べた Markdown を返します。
func Markdown(results []types.CrawlResult) string {
	cards := make([]string, 0, len(results))
	for _, r := range results {
		var lines []string
		lines = append(lines,
			fmt.Sprintf("**URL:** %s \n\n", r.Target.URL),
			fmt.Sprintf("**Status:** %s\n\n", r.Status),
			fmt.Sprintf("**Last Updated:** %s\n\n", r.Timestamp),
		)

		if len(r.DeadlineMentions) > 0 {
			lines = append(lines, "📅 **Found Deadline Information:**\n\n")
			for _, m := range r.DeadlineMentions {
				lines = append(lines,
					fmt.Sprintf("- **Keyword:** %s\n\n", m.Keyword),
					fmt.Sprintf("- **Dates:** %s\n\n", strings.Join(m.Dates, datesSeparator)),
					fmt.Sprintf("- **Context:** %s\n\n", m.Context),
				)
			}
		} else {
			lines = append(lines, "❌ No specific deadline information found \n\n")
		}

		if r.HasSpecificField() {
			lines = append(lines, fmt.Sprintf("🎯 **Specific Info:** %s", r.SpecificField))
		}

		question := "PhD Admission Deadlines for " + r.Target.Name
		cards = append(cards, fmt.Sprintf("## %s\n\n%s\n\n%s", question, strings.Join(lines, "\n"), flashcardDivider))
	}
	return strings.Join(cards, "\n")
}

// ----------------------------------------------------------------------
// コンソールビュー
// ----------------------------------------------------------------------

// RenderConsole は、結果の要約表と各大学の言及一覧を w に出力します。
func RenderConsole(w io.Writer, results []types.CrawlResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "University", "Status", "Mentions", "Last Updated"})
	for i, r := range results {
		t.AppendRow(table.Row{i + 1, r.Target.Name, r.Status.String(), len(r.DeadlineMentions), r.Timestamp})
	}
	t.Render()

	for _, r := range results {
		fmt.Fprintf(w, "\n📍 %s\n", r.Target.Name)
		fmt.Fprintf(w, "   URL: %s\n", r.Target.URL)
		if len(r.DeadlineMentions) == 0 {
			fmt.Fprintln(w, "   ❌ No specific deadline information found")
		}
		for _, m := range r.DeadlineMentions {
			fmt.Fprintf(w, "   • Keyword: %s\n", m.Keyword)
			fmt.Fprintf(w, "   • Dates: %s\n", strings.Join(m.Dates, datesSeparator))
			fmt.Fprintf(w, "   • Context: %s\n\n", m.Context)
		}
		if r.HasSpecificField() {
			fmt.Fprintf(w, "   🎯 Specific Info: %s\n", r.SpecificField)
		}
	}
}
