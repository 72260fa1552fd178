package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/shouni/go-admission-watch/pkg/discover"
	"github.com/shouni/go-admission-watch/pkg/types"
)

const (
	// EnvPrefix は環境変数の接頭辞です (例: ADMISSION_WATCH_TIMEOUT_SECONDS)。
	EnvPrefix = "ADMISSION_WATCH"

	DefaultTimeoutSec      = 10
	DefaultMaxRetries      = 2
	DefaultConcurrency     = 1
	DefaultPolitenessDelay = time.Second
	DefaultCSVFile         = "phd_admissions_bangalore.csv"
)

// SearchConfig は追加URL探索の設定です。
type SearchConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Query    string   `mapstructure:"query"`
	Endpoint string   `mapstructure:"endpoint"`
	Feeds    []string `mapstructure:"feeds"`
}

// OutputConfig は出力ファイルの設定です。空文字列は出力しないことを表します。
type OutputConfig struct {
	CSV      string `mapstructure:"csv"`
	Markdown string `mapstructure:"markdown"`
}

// Config はアプリケーション全体の設定です。
type Config struct {
	TimeoutSeconds  int            `mapstructure:"timeout_seconds"`
	MaxRetries      int            `mapstructure:"max_retries"`
	Concurrency     int            `mapstructure:"concurrency"`
	PolitenessDelay time.Duration  `mapstructure:"politeness_delay"`
	UserAgent       string         `mapstructure:"user_agent"`
	DiscoverLimit   int            `mapstructure:"discover_limit"`
	LogLevel        string         `mapstructure:"log_level"`
	Search          SearchConfig   `mapstructure:"search"`
	Output          OutputConfig   `mapstructure:"output"`
	Targets         []types.Target `mapstructure:"targets"`
}

// Timeout は1フェッチあたりのタイムアウトを返します。
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultTargets は、既定で巡回するバンガロールの大学の博士課程入学ページです。
func DefaultTargets() []types.Target {
	return []types.Target{
		{Name: "IISc Bangalore", URL: "https://iisc.ac.in/admissions/external-registration-programme-ph-d/"},
		{Name: "REVA University", URL: "https://www.reva.edu.in/phd-admissions/"},
		{Name: "Christ University", URL: "https://christuniversity.in/bangalore-central-campus-phd-programmes"},
		{Name: "PES University", URL: "https://pes.edu/phd/"},
		{Name: "CMR Institute of Technology", URL: "https://www.cmrit.ac.in/admissions/doctoral-programmes/"},
		{Name: "Bangalore University", URL: "https://bangaloreuniversity.karnataka.gov.in/381/phd/en"},
		{Name: "Jain University", URL: "https://www.jainuniversity.ac.in/program/phd/doctor-of-philosophy-phd"},
		{Name: "Dayananda Sagar University", URL: "https://www.dsu.edu.in/dsu-research/phd-admission"},
	}
}

// SetDefaults は v に既定値を登録します。
func SetDefaults(v *viper.Viper) {
	v.SetDefault("timeout_seconds", DefaultTimeoutSec)
	v.SetDefault("max_retries", DefaultMaxRetries)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("politeness_delay", DefaultPolitenessDelay)
	v.SetDefault("user_agent", "")
	v.SetDefault("discover_limit", discover.DefaultLimit)
	v.SetDefault("log_level", "info")
	v.SetDefault("search.enabled", true)
	v.SetDefault("search.query", discover.DefaultQuery)
	v.SetDefault("search.endpoint", discover.DefaultSearchEndpoint)
	v.SetDefault("search.feeds", []string{})
	v.SetDefault("output.csv", DefaultCSVFile)
	v.SetDefault("output.markdown", "")
}

// Load は .env、環境変数、設定ファイル、既定値の順に設定を読み込みます。
// cfgFile が空の場合は ./config.yaml または ./config/config.yaml を探し、見つからなくてもエラーにしません。
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg(".env ファイルは読み込まれませんでした")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("設定ファイルの読み込みに失敗しました: %w", err)
		}
		log.Debug().Msg("設定ファイルが見つからないため、既定値と環境変数を使用します")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("設定の展開に失敗しました: %w", err)
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = DefaultTargets()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate は設定値を検証し、ターゲットURLのスキームを補完します。
func (c *Config) Validate() error {
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds は1以上である必要があります: %d", c.TimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries は0以上である必要があります: %d", c.MaxRetries)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency は1以上である必要があります: %d", c.Concurrency)
	}
	if c.PolitenessDelay < 0 {
		return fmt.Errorf("politeness_delay は0以上である必要があります: %s", c.PolitenessDelay)
	}

	for i, t := range c.Targets {
		normalized, err := NormalizeTarget(t)
		if err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		c.Targets[i] = normalized
	}
	return nil
}

// NormalizeTarget は、名前と URL の前後の空白を除き、スキームのない URL に https:// を補います。
// スキームは http か https、ホストは空でないことを要求します。
func NormalizeTarget(t types.Target) (types.Target, error) {
	t.Name = strings.TrimSpace(t.Name)
	t.URL = strings.TrimSpace(t.URL)
	if t.Name == "" {
		return t, fmt.Errorf("name が空です (url: %s)", t.URL)
	}
	if t.URL == "" {
		return t, fmt.Errorf("%s: url が空です", t.Name)
	}

	raw := t.URL
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return t, fmt.Errorf("%s: URLのパースエラー: %w", t.Name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return t, fmt.Errorf("%s: 無効なURLスキームです。httpまたはhttpsを指定してください: %s", t.Name, t.URL)
	}
	if u.Host == "" {
		return t, fmt.Errorf("%s: URLにホストがありません: %s", t.Name, t.URL)
	}

	t.URL = raw
	return t, nil
}
