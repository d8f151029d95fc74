package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

const storageAPIPath = "/storage/v1"

// SupabaseUploader は supabase-community/storage-go を使って Supabase Storage に画像を保存します。
type SupabaseUploader struct {
	baseURL    string
	serviceKey string
	bucket     string
	upsert     bool
}

var _ Uploader = (*SupabaseUploader)(nil)

// NewSupabaseUploader は SupabaseUploader を初期化します。
func NewSupabaseUploader(baseURL, serviceKey, bucket string) (*SupabaseUploader, error) {
	if baseURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("supabase url and service key are required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("supabase bucket is required")
	}
	return &SupabaseUploader{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		upsert:     true,
	}, nil
}

// newClient は呼び出しごとに storage-go のクライアントを作成します。
// storage-go はファイルオプションをクライアント共有のヘッダーに書き込むため、使い回しません。
func (u *SupabaseUploader) newClient() *storage_go.Client {
	return storage_go.NewClient(u.baseURL+storageAPIPath, u.serviceKey, nil)
}

// Upload は objectPath に画像を保存し、公開 URL を返します。
func (u *SupabaseUploader) Upload(ctx context.Context, data []byte, objectPath, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	_, err := u.newClient().UploadFile(u.bucket, objectPath, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &u.upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	slog.InfoContext(ctx, "Image uploaded to storage", "path", objectPath, "bytes", len(data))
	return u.PublicURL(objectPath), nil
}

// Delete は公開 URL に対応するオブジェクトを削除します。
func (u *SupabaseUploader) Delete(ctx context.Context, publicURL string) error {
	objectPath, err := u.objectPath(publicURL)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := u.newClient().RemoveFile(u.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	return nil
}

// PublicURL は objectPath の公開 URL を返します。
func (u *SupabaseUploader) PublicURL(objectPath string) string {
	return u.newClient().GetPublicUrl(u.bucket, objectPath).SignedURL
}

func (u *SupabaseUploader) objectPath(publicURL string) (string, error) {
	prefix := u.PublicURL("")
	if !strings.HasPrefix(publicURL, prefix) {
		return "", fmt.Errorf("%w: %s", ErrNotManaged, publicURL)
	}
	objectPath, err := url.PathUnescape(strings.TrimPrefix(publicURL, prefix))
	if err != nil || objectPath == "" {
		return "", fmt.Errorf("%w: %s", ErrNotManaged, publicURL)
	}
	return objectPath, nil
}
