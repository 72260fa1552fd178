package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shouni/go-admission-watch/internal/pipeline"
	"github.com/shouni/go-admission-watch/pkg/report"
)

var (
	csvOut      string
	markdownOut string
	noSearch    bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "登録された大学ページを巡回し、出願締切の記述を一覧表示します",
	Long:  `設定されたすべてのターゲットと検索で見つかった追加リンクを1回ずつ取得し、締切の記述を抽出して表示・保存します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("設定が初期化されていません")
		}
		if cmd.Flags().Changed("csv") {
			cfg.Output.CSV = csvOut
		}
		if cmd.Flags().Changed("markdown") {
			cfg.Output.Markdown = markdownOut
		}
		if noSearch {
			cfg.Search.Enabled = false
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		pass, err := pipeline.RunPass(ctx, cfg)
		if err != nil && pass == nil {
			return fmt.Errorf("クロールの実行エラー: %w", err)
		}
		if err != nil {
			log.Warn().Err(err).Msg("パスは途中で中断されました")
		}

		report.RenderConsole(cmd.OutOrStdout(), pass.Results)

		if cfg.Output.CSV != "" {
			if err := report.SaveCSV(cfg.Output.CSV, pass.Results); err != nil {
				return err
			}
		}
		return writeMarkdown(cmd, cfg.Output.Markdown, report.Markdown(pass.Results))
	},
}

// writeMarkdown は path に Markdown を書き出します。path が "-" なら標準出力です。
func writeMarkdown(cmd *cobra.Command, path, md string) error {
	switch path {
	case "":
		return nil
	case "-":
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("Markdownファイルの書き込みに失敗しました (%s): %w", path, err)
	}
	log.Info().Str("file", path).Msg("Markdownを保存しました")
	return nil
}

func init() {
	crawlCmd.Flags().StringVar(&csvOut, "csv", "", "結果を保存するCSVファイル (空文字列で保存しない)")
	crawlCmd.Flags().StringVar(&markdownOut, "markdown", "", "フラッシュカード形式のMarkdownの出力先 (- で標準出力)")
	crawlCmd.Flags().BoolVar(&noSearch, "no-search", false, "検索による追加リンクの探索を行わない")
}
