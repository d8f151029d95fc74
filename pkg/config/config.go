package config

import (
	"time"
)

// Provider は利用する AI プロバイダーの識別子です。
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// デフォルト値の定義
const (
	DefaultProvider          = ProviderOpenAI
	DefaultOpenAIChatModel   = "gpt-4-turbo-preview"
	DefaultOpenAIVisionModel = "gpt-4o"
	DefaultOpenAIImageModel  = "dall-e-3"
	DefaultOpenAIProxyModel  = "gpt-4o-mini"
	DefaultGeminiChatModel   = "gemini-3-flash-preview"
	DefaultGeminiImageModel  = "gemini-3-pro-image-preview"

	DefaultImageSize    = "1024x1024"
	DefaultImageQuality = "hd"
	DefaultImageStyle   = "vivid"

	DefaultStyle = "comic"

	// DefaultRateInterval はパネル生成の呼び出し間隔です (DALL-E は毎分50リクエスト程度)。
	DefaultRateInterval  = 1500 * time.Millisecond
	DefaultPanelsPerPage = 2
	// MaxPromptLength は画像プロンプトの最大文字数です (DALL-E の上限 4000 に余裕を持たせる)。
	MaxPromptLength = 3900

	DefaultStoryTemperature  = 0.8
	DefaultStoryMaxTokens    = 1500
	DefaultVisionMaxTokens   = 400
	DefaultProxyVisionTokens = 300

	DefaultDescriptionCacheTTL = 30 * time.Minute
	DefaultRequestTimeout      = 5 * time.Minute
)

// Config は go-comico-kit の各コンポーネントを動作させるための基本設定です。
type Config struct {
	// --- AI Provider Settings ---
	Provider      Provider
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string

	// --- AI Model Settings ---
	ChatModel   string // 物語生成用
	VisionModel string // 写真解析用
	ImageModel  string // パネル画像生成用
	ProxyModel  string // analyze-photo / generate-story エンドポイント用

	// --- Image Settings ---
	ImageSize    string
	ImageQuality string
	ImageStyle   string

	// --- Generation Settings ---
	RateInterval     time.Duration
	PanelsPerPage    int
	MaxPromptLength  int
	StoryTemperature float32
	StoryMaxTokens   int
	VisionMaxTokens  int
	ProxyMaxTokens   int

	// --- Cache ---
	DescriptionCacheTTL time.Duration

	// --- Timeout ---
	RequestTimeout time.Duration
}

// DefaultConfig は推奨されるデフォルト設定を返すヘルパー関数です。
func DefaultConfig() Config {
	return Config{
		Provider:            DefaultProvider,
		ChatModel:           DefaultOpenAIChatModel,
		VisionModel:         DefaultOpenAIVisionModel,
		ImageModel:          DefaultOpenAIImageModel,
		ProxyModel:          DefaultOpenAIProxyModel,
		ImageSize:           DefaultImageSize,
		ImageQuality:        DefaultImageQuality,
		ImageStyle:          DefaultImageStyle,
		RateInterval:        DefaultRateInterval,
		PanelsPerPage:       DefaultPanelsPerPage,
		MaxPromptLength:     MaxPromptLength,
		StoryTemperature:    DefaultStoryTemperature,
		StoryMaxTokens:      DefaultStoryMaxTokens,
		VisionMaxTokens:     DefaultVisionMaxTokens,
		ProxyMaxTokens:      DefaultProxyVisionTokens,
		DescriptionCacheTTL: DefaultDescriptionCacheTTL,
		RequestTimeout:      DefaultRequestTimeout,
	}
}

// DefaultGeminiConfig は Gemini 向けにモデル名を差し替えたデフォルト設定を返します。
func DefaultGeminiConfig() Config {
	cfg := DefaultConfig()
	cfg.Provider = ProviderGemini
	cfg.ChatModel = DefaultGeminiChatModel
	cfg.VisionModel = DefaultGeminiChatModel
	cfg.ImageModel = DefaultGeminiImageModel
	cfg.ProxyModel = DefaultGeminiChatModel
	return cfg
}

// APIKey は選択中のプロバイダーの API キーを返します。
func (c Config) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}
