package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/shouni/go-comico-kit/pkg/domain"
)

// readStory は物語の本文をファイルから読み込みます。"-" または未指定でパイプ入力がある場合は標準入力から読みます。
func readStory(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		if path == "" && !isStdin() {
			return "", fmt.Errorf("物語のファイル（--story-file）を指定してください")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("標準入力の読み込みに失敗しました: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("物語のファイル '%s' の読み込みに失敗しました: %w", path, err)
	}
	return string(data), nil
}

// loadPhotos は --photo の値を PhotoInput に変換します。
// http(s) と data: の参照はそのまま、それ以外はローカルファイルとして読み込みます。
func loadPhotos(refs []string) ([]domain.PhotoInput, error) {
	photos := make([]domain.PhotoInput, 0, len(refs))
	for _, ref := range refs {
		if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "data:") {
			p, err := domain.ParsePhotoRef(ref)
			if err != nil {
				return nil, err
			}
			photos = append(photos, p)
			continue
		}

		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("写真 '%s' の読み込みに失敗しました: %w", ref, err)
		}
		photos = append(photos, domain.NewRawPhoto(filepath.Base(ref), data))
	}
	return photos, nil
}

func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
