package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/shouni/go-admission-watch/internal/config"
	"github.com/shouni/go-admission-watch/internal/pipeline"
	"github.com/shouni/go-admission-watch/pkg/report"
	"github.com/shouni/go-admission-watch/pkg/types"
)

var scanURL string

// scanTargetName は、単発スキャンの結果に付ける名前です。
const scanTargetName = "Scan"

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "指定されたURLを1件だけ取得し、締切の記述を表示します",
	Long:  `--url で指定されたURL、または標準入力から読み込んだURLを取得し、締切の記述とサイト固有の情報を表示します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("設定が初期化されていません")
		}

		urlToProcess := scanURL
		if urlToProcess == "" {
			log.Info().Msg("URLが指定されていないため、標準入力からURLを読み込みます...")
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(cmd.ErrOrStderr(), "処理するURLを入力してください: ")
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("標準入力の読み取りエラー: %w", err)
				}
				return fmt.Errorf("URLが入力されていません")
			}
			urlToProcess = strings.TrimSpace(scanner.Text())
		}

		target, err := config.NormalizeTarget(types.Target{Name: scanTargetName, URL: urlToProcess})
		if err != nil {
			return fmt.Errorf("URLの処理エラー: %w", err)
		}

		c, err := pipeline.NewCrawler(cfg)
		if err != nil {
			return err
		}

		result := c.CrawlTarget(context.Background(), target)
		report.RenderConsole(cmd.OutOrStdout(), []types.CrawlResult{result})
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanURL, "url", "u", "", "スキャン対象のURL")
}
