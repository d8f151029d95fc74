// Package aitest はテスト用の ai.Provider 実装を提供します。
package aitest

import (
	"context"
	"fmt"
	"sync"

	"github.com/shouni/go-comico-kit/pkg/ai"
)

// FakeProvider は呼び出しを記録し、関数で応答を差し替えられる ai.Provider です。
// 関数が nil の場合は固定の成功応答を返します。
type FakeProvider struct {
	DescribeFunc func(req ai.VisionRequest) (string, error)
	CompleteFunc func(req ai.ChatRequest) (string, error)
	ImageFunc    func(req ai.ImageRequest) (*ai.ImageResult, error)

	mu             sync.Mutex
	VisionRequests []ai.VisionRequest
	ChatRequests   []ai.ChatRequest
	ImageRequests  []ai.ImageRequest
}

var _ ai.Provider = (*FakeProvider)(nil)

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) DescribeImage(_ context.Context, req ai.VisionRequest) (string, error) {
	f.mu.Lock()
	f.VisionRequests = append(f.VisionRequests, req)
	f.mu.Unlock()

	if f.DescribeFunc != nil {
		return f.DescribeFunc(req)
	}
	return "A brown dog with a red collar.", nil
}

func (f *FakeProvider) Complete(_ context.Context, req ai.ChatRequest) (string, error) {
	f.mu.Lock()
	f.ChatRequests = append(f.ChatRequests, req)
	f.mu.Unlock()

	if f.CompleteFunc != nil {
		return f.CompleteFunc(req)
	}
	return `{"title":"The Key","narrative":"A dog found a key.","panelCaptions":["one","two","three","four"]}`, nil
}

func (f *FakeProvider) GenerateImage(_ context.Context, req ai.ImageRequest) (*ai.ImageResult, error) {
	f.mu.Lock()
	f.ImageRequests = append(f.ImageRequests, req)
	n := len(f.ImageRequests)
	f.mu.Unlock()

	if f.ImageFunc != nil {
		return f.ImageFunc(req)
	}
	return &ai.ImageResult{URL: fmt.Sprintf("https://img.example.com/%d.png", n)}, nil
}

// Calls は各モデルの呼び出し回数を返します。
func (f *FakeProvider) Calls() (vision, chat, image int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.VisionRequests), len(f.ChatRequests), len(f.ImageRequests)
}
