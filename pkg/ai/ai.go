package ai

import (
	"context"

	"github.com/shouni/go-comico-kit/pkg/domain"
)

// ImageRef はモデルに渡す画像です。URL か Data のどちらかを持ちます。
type ImageRef struct {
	URL      string
	Data     []byte
	MIMEType string
}

// ImageRefFromPhoto は PhotoInput からモデル向けの参照を作ります。
func ImageRefFromPhoto(p domain.PhotoInput) ImageRef {
	ref := ImageRef{MIMEType: p.ContentType}
	switch p.Kind {
	case domain.PhotoKindRemoteURL:
		ref.URL = p.URL
	case domain.PhotoKindInlineData:
		ref.URL = p.URL
		ref.Data = p.Data
	default:
		ref.Data = p.Data
	}
	return ref
}

// AsURL は URL を返し、無ければ Data を data: URL に変換して返します。
func (r ImageRef) AsURL() string {
	if r.URL != "" {
		return r.URL
	}
	if len(r.Data) == 0 {
		return ""
	}
	return domain.EncodeDataURL(r.MIMEType, r.Data)
}

// VisionRequest は画像1枚の解析リクエストです。
type VisionRequest struct {
	Model     string
	Prompt    string
	Image     ImageRef
	MaxTokens int
}

// ChatRequest はテキスト生成リクエストです。JSON が true の場合は JSON オブジェクトでの応答を要求します。
type ChatRequest struct {
	Model        string
	SystemPrompt string
	Prompt       string
	Temperature  float32
	MaxTokens    int
	JSON         bool
}

// ImageRequest は画像生成リクエストです。
type ImageRequest struct {
	Model   string
	Prompt  string
	Size    string
	Quality string
	Style   string
}

// ImageResult は生成された画像です。プロバイダーによって URL か Data のどちらかが入ります。
type ImageResult struct {
	URL           string
	Data          []byte
	MIMEType      string
	RevisedPrompt string
}

// VisionModel は画像を説明するモデルです。
type VisionModel interface {
	DescribeImage(ctx context.Context, req VisionRequest) (string, error)
}

// ChatModel はテキストを生成するモデルです。
type ChatModel interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// ImageModel は画像を生成するモデルです。
type ImageModel interface {
	GenerateImage(ctx context.Context, req ImageRequest) (*ImageResult, error)
}

// Provider は1つのプロバイダーが提供するモデル群をまとめたものです。
type Provider interface {
	VisionModel
	ChatModel
	ImageModel
	Name() string
}
