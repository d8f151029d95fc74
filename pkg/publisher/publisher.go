package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/asset"
	"github.com/shouni/go-comico-kit/pkg/domain"
)

// Options はパブリッシュ動作を制御する設定項目です。
type Options struct {
	OutputDir     string
	PanelsPerPage int
}

// PublishResult はパブリッシュ処理の結果として生成されたファイルの情報を保持します。
type PublishResult struct {
	MarkdownPath string   // 生成された comic.md のパス
	JSONPath     string   // 生成された comic.json のパス
	ImagePaths   []string // data: URL から書き出したパネル画像のパス
}

const defaultImageDirName = "images"

// ComicPublisher は生成結果を Markdown と JSON で書き出します。
type ComicPublisher struct {
	writer OutputWriter
}

// NewComicPublisher は ComicPublisher を作成します。
func NewComicPublisher(writer OutputWriter) *ComicPublisher {
	return &ComicPublisher{writer: writer}
}

// Publish はパネル画像の書き出し、Markdown の構築、JSON の保存を一括して実行します。
// data: URL のパネルだけをファイルに書き出し、リモート URL のパネルはそのまま参照します。
func (p *ComicPublisher) Publish(ctx context.Context, comic *domain.GeneratedComic, opts Options) (PublishResult, error) {
	result := PublishResult{}
	if comic == nil {
		return result, fmt.Errorf("comic is nil")
	}

	markdownPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultComicMarkdown)
	if err != nil {
		return result, err
	}
	jsonPath, err := asset.ResolveOutputPath(opts.OutputDir, asset.DefaultComicJSON)
	if err != nil {
		return result, err
	}

	// 1. インライン画像の書き出し
	relativePaths, savedPaths, err := p.saveInlineImages(ctx, comic.Panels, opts.OutputDir)
	if err != nil {
		return result, fmt.Errorf("画像の書き込みに失敗しました: %w", err)
	}
	result.ImagePaths = savedPaths

	// 2. Markdown
	content := BuildMarkdown(comic, opts.PanelsPerPage, relativePaths)
	if err := p.writer.Write(ctx, markdownPath, strings.NewReader(content), "text/markdown; charset=utf-8"); err != nil {
		return result, fmt.Errorf("markdownファイルの書き込みに失敗しました: %w", err)
	}
	result.MarkdownPath = markdownPath

	// 3. JSON
	data, err := json.MarshalIndent(comic, "", "  ")
	if err != nil {
		return result, fmt.Errorf("JSON のエンコードに失敗しました: %w", err)
	}
	if err := p.writer.Write(ctx, jsonPath, bytes.NewReader(data), "application/json"); err != nil {
		return result, fmt.Errorf("JSONファイルの書き込みに失敗しました: %w", err)
	}
	result.JSONPath = jsonPath

	slog.InfoContext(ctx, "Comic published",
		"title", comic.Title,
		"markdown", markdownPath,
		"images", len(savedPaths),
	)
	return result, nil
}

// saveInlineImages は data: URL のパネル画像を images/panel_N.png として書き出します。
// 返り値はパネル番号から Markdown 用の相対パスへのマップと、書き出したファイルのパスです。
func (p *ComicPublisher) saveInlineImages(ctx context.Context, panels []domain.ComicPanel, outputDir string) (map[int]string, []string, error) {
	relative := make(map[int]string)
	var saved []string

	for _, panel := range panels {
		if !strings.HasPrefix(panel.ImageURL, "data:") {
			continue
		}
		mimeType, data, err := domain.DecodeDataURL(panel.ImageURL)
		if err != nil {
			slog.WarnContext(ctx, "Skipping undecodable panel image", "panel_number", panel.PanelNumber, "error", err)
			continue
		}

		name, err := asset.GenerateIndexedPath(asset.DefaultPanelFileName, panel.PanelNumber)
		if err != nil {
			return nil, nil, err
		}
		fullPath, err := asset.ResolveOutputPath(outputDir, path.Join(defaultImageDirName, name))
		if err != nil {
			return nil, nil, fmt.Errorf("出力パスの解決に失敗しました: %w", err)
		}
		if err := p.writer.Write(ctx, fullPath, bytes.NewReader(data), mimeType); err != nil {
			return nil, nil, fmt.Errorf("画像の書き込みに失敗しました %s: %w", fullPath, err)
		}

		relative[panel.PanelNumber] = path.Join(defaultImageDirName, name)
		saved = append(saved, fullPath)
	}
	return relative, saved, nil
}
