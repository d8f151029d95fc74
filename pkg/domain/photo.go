package domain

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// PhotoKind は PhotoInput がどの形で渡されたかを表します。
type PhotoKind int

const (
	// PhotoKindRawBytes はアップロード前の生バイト列です。
	PhotoKindRawBytes PhotoKind = iota + 1
	// PhotoKindRemoteURL は解決済みの http(s) URL です。
	PhotoKindRemoteURL
	// PhotoKindInlineData は data: URL として埋め込まれた画像です。
	PhotoKindInlineData
)

func (k PhotoKind) String() string {
	switch k {
	case PhotoKindRawBytes:
		return "raw_bytes"
	case PhotoKindRemoteURL:
		return "remote_url"
	case PhotoKindInlineData:
		return "inline_data"
	default:
		return "unknown"
	}
}

const defaultPhotoMimeType = "image/jpeg"

// ErrUnsupportedPhotoRef は解釈できない写真参照が渡された場合のエラーです。
var ErrUnsupportedPhotoRef = errors.New("unsupported photo reference")

// PhotoInput はユーザーが渡した写真です。種別は取り込み時に一度だけ決定されます。
// 1回の生成リクエストの間だけ存在します。
type PhotoInput struct {
	Kind        PhotoKind
	Filename    string
	ContentType string
	// Data は RawBytes と InlineData で保持されるデコード済みの画像データです。
	Data []byte
	// URL は RemoteURL の場合は取得先、InlineData の場合は元の data: URL です。
	URL string
}

// NewRawPhoto はファイル名とバイト列から PhotoInput を作成します。
func NewRawPhoto(filename string, data []byte) PhotoInput {
	return PhotoInput{
		Kind:        PhotoKindRawBytes,
		Filename:    filename,
		ContentType: sniffContentType(data),
		Data:        data,
	}
}

// NewURLPhoto は解決済みの URL から PhotoInput を作成します。
func NewURLPhoto(rawURL string) PhotoInput {
	return PhotoInput{
		Kind:     PhotoKindRemoteURL,
		Filename: filenameFromURL(rawURL),
		URL:      rawURL,
	}
}

// ParsePhotoRef は文字列の写真参照 (http(s) URL または data: URL) を PhotoInput に変換します。
func ParsePhotoRef(ref string) (PhotoInput, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return PhotoInput{}, fmt.Errorf("%w: empty reference", ErrUnsupportedPhotoRef)
	}

	if strings.HasPrefix(ref, "data:") {
		mimeType, data, err := DecodeDataURL(ref)
		if err != nil {
			return PhotoInput{}, err
		}
		return PhotoInput{
			Kind:        PhotoKindInlineData,
			Filename:    "inline" + ExtensionForMIME(mimeType),
			ContentType: mimeType,
			Data:        data,
			URL:         ref,
		}, nil
	}

	u, err := url.Parse(ref)
	if err != nil {
		return PhotoInput{}, fmt.Errorf("%w: %v", ErrUnsupportedPhotoRef, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return PhotoInput{}, fmt.Errorf("%w: scheme %q", ErrUnsupportedPhotoRef, u.Scheme)
	}
	return NewURLPhoto(ref), nil
}

// Ref はモデルへそのまま渡せる参照 URL を返します。
// RawBytes はアップロードされるまで参照を持たないため空文字を返します。
func (p PhotoInput) Ref() string {
	switch p.Kind {
	case PhotoKindRemoteURL, PhotoKindInlineData:
		return p.URL
	default:
		return ""
	}
}

// HasData は画像データを手元に持っているかどうかを返します。
func (p PhotoInput) HasData() bool {
	return len(p.Data) > 0
}

// Extension は保存時に使う拡張子 (".jpg" など) を返します。
func (p PhotoInput) Extension() string {
	if ext := path.Ext(p.Filename); ext != "" {
		return strings.ToLower(ext)
	}
	return ExtensionForMIME(p.ContentType)
}

// EncodeDataURL はバイト列を base64 の data: URL に変換します。
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = sniffContentType(data)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL は base64 の data: URL を MIME タイプとバイト列に分解します。
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: not a data URL", ErrUnsupportedPhotoRef)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: data URL has no payload", ErrUnsupportedPhotoRef)
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 data URLs are supported", ErrUnsupportedPhotoRef)
	}
	if mimeType == "" {
		mimeType = defaultPhotoMimeType
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URL のデコードに失敗しました: %w", err)
	}
	return mimeType, data, nil
}

func sniffContentType(data []byte) string {
	if len(data) == 0 {
		return defaultPhotoMimeType
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, "image/") {
		return defaultPhotoMimeType
	}
	return ct
}

// ExtensionForMIME は MIME タイプに対応する拡張子を返します。未知の場合は ".jpg" です。
func ExtensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}
