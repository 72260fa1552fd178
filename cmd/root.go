package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shouni/go-admission-watch/internal/config"
)

// --- グローバル定数 ---

const appName = "admission-watch"

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持します。
type AppFlags struct {
	ConfigFile  string // --config 設定ファイル
	TimeoutSec  int    // --timeout タイムアウト
	MaxRetries  int    // --max-retries リトライ回数
	Concurrency int    // --concurrency 同時実行数
}

var (
	Flags     AppFlags
	v         = viper.New()
	appConfig *config.Config
)

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加し、viper に結び付けます。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&Flags.ConfigFile, "config", "", "設定ファイル (既定: ./config.yaml)")
	pf.IntVar(&Flags.TimeoutSec, "timeout", config.DefaultTimeoutSec, "HTTPリクエストのタイムアウト時間（秒）")
	pf.IntVar(&Flags.MaxRetries, "max-retries", config.DefaultMaxRetries, "HTTPリクエストのリトライ最大回数")
	pf.IntVar(&Flags.Concurrency, "concurrency", config.DefaultConcurrency, "同時にクロールするターゲット数")

	bindings := map[string]string{
		"timeout_seconds": "timeout",
		"max_retries":     "max-retries",
		"concurrency":     "concurrency",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			log.Fatal().Err(err).Str("flag", flag).Msg("フラグのバインドに失敗しました")
		}
	}
}

// initAppPreRunE は、clibase 共通処理の後に実行されるアプリケーション固有の PersistentPreRunE です。
// ロガーを設定し、設定を読み込みます。
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	setupLogger(zerolog.InfoLevel)

	cfg, err := config.Load(v, Flags.ConfigFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みエラー: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if clibase.Flags.Verbose {
		level = zerolog.DebugLevel
	}
	setupLogger(level)

	log.Debug().
		Dur("timeout", cfg.Timeout()).
		Int("max_retries", cfg.MaxRetries).
		Int("concurrency", cfg.Concurrency).
		Int("targets", len(cfg.Targets)).
		Msg("設定を読み込みました")

	appConfig = cfg
	return nil
}

func setupLogger(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()
}

// GetConfig は、PreRun で読み込まれた設定を返します。
func GetConfig() *config.Config {
	return appConfig
}

// --- エントリポイント ---

// Execute は、clibase を使ってルートコマンドとサブコマンドを実行します。
func Execute() {
	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		crawlCmd,
		scanCmd,
		discoverCmd,
	)
}
