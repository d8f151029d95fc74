package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/ai"

	goopenai "github.com/sashabaranov/go-openai"
)

const (
	providerName        = "openai"
	billingErrorCode    = "billing_hard_limit_reached"
	defaultImageCount   = 1
	systemRole          = goopenai.ChatMessageRoleSystem
	userRole            = goopenai.ChatMessageRoleUser
	imageDetail         = goopenai.ImageURLDetailAuto
	imageResponseFormat = goopenai.CreateImageResponseFormatURL
)

// Client は go-openai を使って ai.Provider を実装します。
type Client struct {
	client *goopenai.Client
}

var _ ai.Provider = (*Client)(nil)

// NewClient は API キーと任意のベース URL から Client を初期化します。
// httpClient が nil の場合は SDK のデフォルトを使います。
func NewClient(apiKey, baseURL string, httpClient *http.Client) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}

	return &Client{client: goopenai.NewClientWithConfig(cfg)}, nil
}

func (c *Client) Name() string {
	return providerName
}

// Complete はチャットモデルでテキストを生成します。
func (c *Client) Complete(ctx context.Context, req ai.ChatRequest) (string, error) {
	var messages []goopenai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{Role: systemRole, Content: req.SystemPrompt})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{Role: userRole, Content: req.Prompt})

	chatReq := goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	return c.createChatCompletion(ctx, chatReq)
}

// DescribeImage はビジョンモデルで画像を説明します。
func (c *Client) DescribeImage(ctx context.Context, req ai.VisionRequest) (string, error) {
	imageURL := req.Image.AsURL()
	if imageURL == "" {
		return "", fmt.Errorf("image reference is empty")
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role: userRole,
				MultiContent: []goopenai.ChatMessagePart{
					{Type: goopenai.ChatMessagePartTypeText, Text: req.Prompt},
					{
						Type: goopenai.ChatMessagePartTypeImageURL,
						ImageURL: &goopenai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: imageDetail,
						},
					},
				},
			},
		},
		MaxTokens: req.MaxTokens,
	}

	return c.createChatCompletion(ctx, chatReq)
}

// GenerateImage は画像生成モデルで1枚生成し、その URL を返します。
func (c *Client) GenerateImage(ctx context.Context, req ai.ImageRequest) (*ai.ImageResult, error) {
	resp, err := c.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         req.Prompt,
		Model:          req.Model,
		N:              defaultImageCount,
		Size:           req.Size,
		Quality:        req.Quality,
		Style:          req.Style,
		ResponseFormat: imageResponseFormat,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return nil, fmt.Errorf("%w: no image URL returned", ai.ErrEmptyResponse)
	}

	data := resp.Data[0]
	if data.RevisedPrompt != "" {
		slog.Debug("Image prompt was revised by the provider", "revised_prompt", data.RevisedPrompt)
	}
	return &ai.ImageResult{URL: data.URL, RevisedPrompt: data.RevisedPrompt}, nil
}

func (c *Client) createChatCompletion(ctx context.Context, req goopenai.ChatCompletionRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ai.ErrEmptyResponse)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: no content", ai.ErrEmptyResponse)
	}
	return content, nil
}

// classifyError は SDK のエラーを ai パッケージの分類でラップします。元のエラーも連鎖に残します。
func classifyError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		switch {
		case code == billingErrorCode || strings.Contains(strings.ToLower(apiErr.Message), "billing"):
			return fmt.Errorf("%w: %w", ai.ErrBillingLimit, err)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ai.ErrUnauthorized, err)
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
		}
		return err
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %w", ai.ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", ai.ErrRateLimited, err)
		}
	}

	if strings.Contains(strings.ToLower(err.Error()), "billing") {
		return fmt.Errorf("%w: %w", ai.ErrBillingLimit, err)
	}
	return err
}
