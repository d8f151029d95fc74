package director

import "strings"

// ArtStyle は画風のプリセット名です。
type ArtStyle string

const (
	StyleComic        ArtStyle = "comic"
	StyleManga        ArtStyle = "manga"
	StyleGraphicNovel ArtStyle = "graphic_novel"
	StyleCartoon      ArtStyle = "cartoon"
	StyleWatercolor   ArtStyle = "watercolor"
)

// Styles は利用可能な画風の一覧です。
var Styles = []ArtStyle{StyleComic, StyleManga, StyleGraphicNovel, StyleCartoon, StyleWatercolor}

// ResolveStyle は入力を正規化して画風を返します。未知の値や空文字は comic になるのだ。
func ResolveStyle(name string) ArtStyle {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	for _, s := range Styles {
		if string(s) == normalized {
			return s
		}
	}
	return StyleComic
}

// IsKnownStyle は name がプリセットに含まれるかを返します。
func IsKnownStyle(name string) bool {
	for _, s := range Styles {
		if string(s) == name {
			return true
		}
	}
	return false
}
