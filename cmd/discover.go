package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shouni/go-admission-watch/internal/pipeline"
)

var discoverQuery string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "検索とフィードから追加のクロール対象リンクを一覧表示します",
	Long:  `crawl が静的ターゲットの後に巡回する追加リンク (関連ドメインのみ、最大件数まで) を表示します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("設定が初期化されていません")
		}
		query := cfg.Search.Query
		if discoverQuery != "" {
			query = discoverQuery
		}

		limiter := pipeline.NewLimiter(cfg)
		d, err := pipeline.NewDiscoverer(cfg, pipeline.NewFetcher(cfg, limiter), limiter)
		if err != nil {
			return fmt.Errorf("Discovererの初期化エラー: %w", err)
		}
		if d == nil {
			return fmt.Errorf("検索もフィードも無効になっています")
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout()*2)
		defer cancel()

		links, err := d.Discover(ctx, query)
		if err != nil {
			return fmt.Errorf("追加リンクの探索エラー: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "--- 追加リンク (%d件, 検索語: %s) ---\n", len(links), query)
		for i, link := range links {
			fmt.Fprintf(out, "[%d] %s\n", i+1, link)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverQuery, "query", "q", "", "検索語 (既定: 設定の search.query)")
}
