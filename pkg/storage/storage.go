package storage

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

// ErrNotManaged は削除対象の URL がこのストレージの管理外である場合のエラーです。
var ErrNotManaged = errors.New("url is not managed by this storage")

// Uploader は画像をオブジェクトストレージに保存し、公開 URL を返します。
type Uploader interface {
	Upload(ctx context.Context, data []byte, objectPath, contentType string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// PhotoPath は comics/{userID}/{comicID}/photo-{ts}-{rand}{ext} 形式の保存先を返します。
func PhotoPath(userID, comicID, ext string, now time.Time) string {
	return fmt.Sprintf("comics/%s/%s/photo-%d-%s%s", userID, comicID, now.UnixMilli(), randomSuffix(), ext)
}

// GeneratedPath は {prefix}/panel-{n}-{ts}-{rand}{ext} 形式の生成画像の保存先を返します。
func GeneratedPath(prefix string, panelNumber int, ext string, now time.Time) string {
	return fmt.Sprintf("%s/panel-%d-%d-%s%s", prefix, panelNumber, now.UnixMilli(), randomSuffix(), ext)
}

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomSuffix() string {
	b := make([]byte, 7)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}
