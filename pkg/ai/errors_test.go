package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	t.Run("課金上限はラップされていても専用メッセージになる", func(t *testing.T) {
		err := fmt.Errorf("panel 2: %w", fmt.Errorf("%w: hard limit", ErrBillingLimit))
		assert.True(t, IsBillingLimit(err))
		assert.Contains(t, UserMessage(err), "billing")
	})

	t.Run("分類できないエラーはそのまま", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, IsBillingLimit(err))
		assert.Equal(t, "boom", UserMessage(err))
	})

	t.Run("nil は空文字", func(t *testing.T) {
		assert.Empty(t, UserMessage(nil))
	})

	t.Run("認証エラーとレート制限はそれぞれのメッセージ", func(t *testing.T) {
		assert.Contains(t, UserMessage(ErrUnauthorized), "API key")
		assert.Contains(t, UserMessage(ErrRateLimited), "too many requests")
	})
}

func TestImageRef_AsURL(t *testing.T) {
	assert.Equal(t, "https://x/y.png", ImageRef{URL: "https://x/y.png", Data: []byte("z")}.AsURL())
	assert.Equal(t, "data:image/png;base64,aGk=", ImageRef{Data: []byte("hi"), MIMEType: "image/png"}.AsURL())
	assert.Empty(t, ImageRef{}.AsURL())
}

func TestUnconfigured(t *testing.T) {
	p := Unconfigured{Label: "OpenAI"}
	_, err := p.Complete(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Equal(t, "OpenAI API key not configured", UserMessage(err))

	_, err = p.GenerateImage(context.Background(), ImageRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
