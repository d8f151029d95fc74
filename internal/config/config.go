package config

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/go-comico-kit/pkg/config"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
)

// StoreBackend はコミックレコードの保存先です。
type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StoreRedis    StoreBackend = "redis"
	StoreSupabase StoreBackend = "supabase"
)

// デフォルト値の定義
const (
	DefaultPort           = "8080"
	DefaultLogLevel       = "info"
	DefaultStoreBackend   = StoreMemory
	DefaultSupabaseBucket = "comic-photos"
	DefaultHTTPTimeout    = 60 * time.Second
	DefaultOutputDir      = "output"
	DefaultEnvFile        = ".env"
)

// Config はアプリケーション全体の環境設定（APIキーや保存先）を保持する構造体です。
type Config struct {
	Comic config.Config

	StoreBackend       StoreBackend
	RedisURL           string
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string

	Port     string
	LogLevel string

	Options GenerateOptions
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータです。
type GenerateOptions struct {
	// 入力関連
	StoryFile   string   // --story-file
	Photos      []string // --photo (ファイルパス or URL)
	Description string   // --description
	PanelNumber int      // --number

	// 生成関連
	Panels int    // --panels
	Style  string // --style

	// 出力関連
	OutputDir string // --output-dir

	// 実行制御
	HTTPTimeout time.Duration // --http-timeout
	Port        string        // --port
	Verbose     bool          // --verbose
	LogJSON     bool          // --log-json
}

// LoadConfig は .env (任意) と環境変数から設定を読み込みます。
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil {
		slog.Debug(".env を読み込まずに続行します", "error", err)
	}
	return FromEnv()
}

// FromEnv は環境変数だけから設定を組み立てます。
func FromEnv() (*Config, error) {
	provider := config.Provider(strings.ToLower(envutil.GetEnv("AI_PROVIDER", string(config.DefaultProvider))))

	var comic config.Config
	switch provider {
	case config.ProviderOpenAI:
		comic = config.DefaultConfig()
	case config.ProviderGemini:
		comic = config.DefaultGeminiConfig()
	default:
		return nil, fmt.Errorf("AI_PROVIDER %q はサポートされていません (openai|gemini)", provider)
	}

	comic.OpenAIAPIKey = envutil.GetEnv("OPENAI_API_KEY", "")
	comic.OpenAIBaseURL = envutil.GetEnv("OPENAI_BASE_URL", "")
	comic.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", "")
	comic.ChatModel = envutil.GetEnv("CHAT_MODEL", comic.ChatModel)
	comic.VisionModel = envutil.GetEnv("VISION_MODEL", comic.VisionModel)
	comic.ImageModel = envutil.GetEnv("IMAGE_MODEL", comic.ImageModel)

	interval, err := time.ParseDuration(envutil.GetEnv("PANEL_RATE_INTERVAL", comic.RateInterval.String()))
	if err != nil {
		return nil, fmt.Errorf("PANEL_RATE_INTERVAL の解析に失敗しました: %w", err)
	}
	if interval < 0 {
		return nil, fmt.Errorf("PANEL_RATE_INTERVAL は 0 以上である必要があります: %s", interval)
	}
	comic.RateInterval = interval

	requestTimeout, err := time.ParseDuration(envutil.GetEnv("REQUEST_TIMEOUT", comic.RequestTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("REQUEST_TIMEOUT の解析に失敗しました: %w", err)
	}
	comic.RequestTimeout = requestTimeout

	perPage, err := strconv.Atoi(envutil.GetEnv("PANELS_PER_PAGE", strconv.Itoa(comic.PanelsPerPage)))
	if err != nil || perPage < 1 {
		return nil, fmt.Errorf("PANELS_PER_PAGE は 1 以上の整数である必要があります")
	}
	comic.PanelsPerPage = perPage

	backend := StoreBackend(strings.ToLower(envutil.GetEnv("STORE_BACKEND", string(DefaultStoreBackend))))
	switch backend {
	case StoreMemory, StoreRedis, StoreSupabase:
	default:
		return nil, fmt.Errorf("STORE_BACKEND %q はサポートされていません (memory|redis|supabase)", backend)
	}

	cfg := &Config{
		Comic:              comic,
		StoreBackend:       backend,
		RedisURL:           envutil.GetEnv("REDIS_URL", ""),
		SupabaseURL:        envutil.GetEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: envutil.GetEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:     envutil.GetEnv("SUPABASE_BUCKET", DefaultSupabaseBucket),
		Port:               envutil.GetEnv("PORT", DefaultPort),
		LogLevel:           envutil.GetEnv("LOG_LEVEL", DefaultLogLevel),
	}

	if backend == StoreRedis && cfg.RedisURL == "" {
		return nil, fmt.Errorf("STORE_BACKEND=redis には REDIS_URL が必要です")
	}
	if backend == StoreSupabase && (cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "") {
		return nil, fmt.Errorf("STORE_BACKEND=supabase には SUPABASE_URL と SUPABASE_SERVICE_KEY が必要です")
	}
	return cfg, nil
}

// HasStorage は写真アップロード用の Supabase Storage が設定されているかを返します。
func (c *Config) HasStorage() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// SlogLevel は LOG_LEVEL を slog.Level に変換します。不明な値は Info として扱います。
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
