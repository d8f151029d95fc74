package asset

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/shouni/go-http-kit/pkg/httpkit"
)

const defaultFetchTimeout = 30 * time.Second

// Fetcher は URL から画像データを取得します。httpkit.ClientInterface もこれを満たします。
type Fetcher interface {
	FetchBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPFetcher は SSRF 対策の URL 検証を行ってから、委譲先のクライアントで画像を取得します。
type HTTPFetcher struct {
	client       Fetcher
	allowPrivate bool
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher は HTTPFetcher を初期化します。client が nil の場合は httpkit のクライアントを作成します。
func NewHTTPFetcher(client Fetcher) *HTTPFetcher {
	if client == nil {
		client = httpkit.New(defaultFetchTimeout)
	}
	return &HTTPFetcher{client: client}
}

// AllowPrivateNetworks はプライベートアドレスへのアクセスを許可します。テストやローカル開発用です。
func (f *HTTPFetcher) AllowPrivateNetworks() *HTTPFetcher {
	f.allowPrivate = true
	return f
}

// FetchBytes は URL の内容を取得します。
func (f *HTTPFetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	if !f.allowPrivate {
		if safe, err := IsSafeURL(rawURL); err != nil || !safe {
			return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
		}
	}

	data, err := f.client.FetchBytes(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("画像の取得に失敗しました (url: %s): %w", rawURL, err)
	}
	return data, nil
}

// IsSafeURL は、SSRF (Server-Side Request Forgery) 対策として URL を検証します。
// 許可されたスキーム (http, https) かつ、プライベートIPやループバックアドレスを
// ターゲットにしていないことを確認します。
func IsSafeURL(rawURL string) (bool, error) {
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", parsedURL.Scheme)
	}

	ips, err := net.LookupIP(parsedURL.Hostname())
	if err != nil {
		return false, fmt.Errorf("ホスト '%s' の名前解決に失敗しました: %w", parsedURL.Hostname(), err)
	}

	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", ip.String())
		}
	}

	return true, nil
}
