package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shouni/go-comico-kit/pkg/ai"
	"github.com/shouni/go-comico-kit/pkg/asset"

	"github.com/patrickmn/go-cache"
	imgdom "github.com/shouni/gemini-image-kit/pkg/domain"
	imageKit "github.com/shouni/gemini-image-kit/pkg/generator"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"google.golang.org/genai"
)

const (
	providerName      = "gemini"
	defaultImageMIME  = "image/png"
	defaultImageRatio = "1:1"

	// 参照画像のキャッシュ設定 (gemini-image-kit の GeminiImageCore 用)
	defaultCacheExpiration = 30 * time.Minute
	cacheCleanupInterval   = 1 * time.Hour
	defaultTTL             = 5 * time.Minute
)

// contentGenerator は go-gemini-client のうち、このパッケージが使う呼び出しです。
type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt, model string) (*gemini.Response, error)
	GenerateWithParts(ctx context.Context, model string, parts []*genai.Part, opts gemini.GenerateOptions) (*gemini.Response, error)
}

// panelImageGenerator は gemini-image-kit の ImageGenerator のうち、単一パネル生成の呼び出しです。
type panelImageGenerator interface {
	GenerateMangaPanel(ctx context.Context, req imgdom.ImageGenerationRequest) (*imgdom.ImageResponse, error)
}

// ClientArgs は Client の初期化に必要な依存関係です。
type ClientArgs struct {
	APIKey string
	// Temperature はテキスト生成の温度です。go-gemini-client ではクライアント単位で指定します。
	Temperature float32
	// ImageModel はパネル画像の生成に使うモデルです。
	ImageModel string
	// HTTPClient は gemini-image-kit が参照画像を取得する際に使います。
	HTTPClient httpkit.ClientInterface
	// Fetcher は写真解析の際にリモート URL の画像を取得します。
	Fetcher asset.Fetcher
}

// Client は go-gemini-client と gemini-image-kit を使って ai.Provider を実装します。
// 画像は URL ではなくバイト列で返ります。
type Client struct {
	aiClient contentGenerator
	images   panelImageGenerator
	fetcher  asset.Fetcher
}

var _ ai.Provider = (*Client)(nil)

// NewClient は Gemini API クライアントと画像生成エンジンを初期化します。
func NewClient(ctx context.Context, args ClientArgs) (*Client, error) {
	if args.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if args.HTTPClient == nil {
		return nil, fmt.Errorf("HTTPClient は必須です")
	}
	if args.Fetcher == nil {
		return nil, fmt.Errorf("Fetcher は必須です")
	}

	aiClient, err := gemini.NewClient(ctx, gemini.Config{
		APIKey:      args.APIKey,
		Temperature: genai.Ptr(args.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	images, err := initializeImageGenerator(args.HTTPClient, aiClient, args.ImageModel)
	if err != nil {
		return nil, err
	}

	return &Client{aiClient: aiClient, images: images, fetcher: args.Fetcher}, nil
}

// initializeImageGenerator は gemini-image-kit の ImageGenerator を初期化します。
func initializeImageGenerator(httpClient httpkit.ClientInterface, aiClient gemini.GenerativeModel, model string) (imageKit.ImageGenerator, error) {
	imgCache := cache.New(defaultCacheExpiration, cacheCleanupInterval)
	core, err := imageKit.NewGeminiImageCore(
		httpClient,
		imgCache,
		defaultTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiImageCoreの初期化に失敗しました: %w", err)
	}

	imgGen, err := imageKit.NewGeminiGenerator(
		core,
		aiClient,
		model,
	)
	if err != nil {
		return nil, fmt.Errorf("GeminiGeneratorの初期化に失敗しました: %w", err)
	}
	return imgGen, nil
}

func (c *Client) Name() string {
	return providerName
}

// Complete はテキストを生成します。
// JSON 応答の指定は go-gemini-client に無いため、コードフェンス付きの応答は parser 側で取り除きます。
func (c *Client) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	var (
		resp *gemini.Response
		err  error
	)
	if req.SystemPrompt != "" {
		parts := []*genai.Part{{Text: req.Prompt}}
		resp, err = c.aiClient.GenerateWithParts(ctx, req.Model, parts, gemini.GenerateOptions{SystemPrompt: req.SystemPrompt})
	} else {
		resp, err = c.aiClient.GenerateContent(ctx, req.Prompt, req.Model)
	}
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp)
}

// DescribeImage は画像を取得してインラインデータとして送り、説明文を生成します。
func (c *Client) DescribeImage(ctx context.Context, req ai.VisionRequest) (string, error) {
	imagePart, err := c.imagePart(ctx, req.Image)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{{Text: req.Prompt}, imagePart}
	resp, err := c.aiClient.GenerateWithParts(ctx, req.Model, parts, gemini.GenerateOptions{})
	if err != nil {
		return "", classifyError(err)
	}
	return responseText(resp)
}

// GenerateImage は gemini-image-kit でパネル画像を1枚生成し、バイト列で返します。
// モデルは初期化時の ImageModel を使います。Quality, Style は使わず、スタイルはプロンプト側で指定します。
func (c *Client) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.ImageResult, error) {
	resp, err := c.images.GenerateMangaPanel(ctx, imgdom.ImageGenerationRequest{
		Prompt:      req.Prompt,
		AspectRatio: aspectRatioFor(req.Size),
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: no image data", ai.ErrEmptyResponse)
	}

	mimeType := resp.MimeType
	if mimeType == "" {
		mimeType = defaultImageMIME
	}
	return &ai.ImageResult{Data: resp.Data, MIMEType: mimeType}, nil
}

func (c *Client) imagePart(ctx context.Context, ref ai.ImageRef) (*genai.Part, error) {
	data, mimeType := ref.Data, ref.MIMEType
	if len(data) == 0 {
		if ref.URL == "" {
			return nil, fmt.Errorf("image reference is empty")
		}
		fetched, err := c.fetcher.FetchBytes(ctx, ref.URL)
		if err != nil {
			return nil, err
		}
		data = fetched
		mimeType = ""
	}
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unsupported image content type: %s", mimeType)
	}
	return &genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}, nil
}

// responseText は go-gemini-client の応答からテキストを取り出します。
// 生の応答があれば最初の候補のテキストパートを連結し、無ければ Text を使います。
func responseText(resp *gemini.Response) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", ai.ErrEmptyResponse)
	}
	if resp.RawResponse != nil {
		return extractText(resp.RawResponse)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: no text", ai.ErrEmptyResponse)
	}
	return text, nil
}

// extractText は最初の候補のテキストパートを連結して返します。
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no candidates", ai.ErrEmptyResponse)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text", ai.ErrEmptyResponse)
	}
	return text, nil
}

func aspectRatioFor(size string) string {
	switch size {
	case "1792x1024":
		return "16:9"
	case "1024x1792":
		return "9:16"
	default:
		return defaultImageRatio
	}
}

// classifyError は genai の APIError を ai パッケージの分類でラップします。
func classifyError(err error) error {
	code, status, message := 0, "", ""

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status, message = apiErr.Code, apiErr.Status, apiErr.Message
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, status, message = apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message
	default:
		return err
	}

	switch {
	case strings.Contains(strings.ToLower(message), "billing"):
		return fmt.Errorf("%w: %w", ai.ErrBillingLimit, err)
	case code == http.StatusUnauthorized || code == http.StatusForbidden || status == "PERMISSION_DENIED" || status == "UNAUTHENTICATED":
		return fmt.Errorf("%w: %w", ai.ErrUnauthorized, err)
	case code == http.StatusTooManyRequests || status == "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
	}
	return err
}
