package ai

import (
	"context"
	"fmt"
)

// Unconfigured は API キーが未設定のプロバイダーの代わりに使います。
// すべての呼び出しが ErrNotConfigured で失敗します。
type Unconfigured struct {
	Label string // エラーメッセージに使う表示名 ("OpenAI" など)
}

var _ Provider = Unconfigured{}

func (u Unconfigured) Name() string { return "unconfigured" }

func (u Unconfigured) err() error {
	return fmt.Errorf("%s %w", u.Label, ErrNotConfigured)
}

func (u Unconfigured) DescribeImage(context.Context, VisionRequest) (string, error) {
	return "", u.err()
}

func (u Unconfigured) Complete(context.Context, ChatRequest) (string, error) {
	return "", u.err()
}

func (u Unconfigured) GenerateImage(context.Context, ImageRequest) (*ImageResult, error) {
	return nil, u.err()
}
