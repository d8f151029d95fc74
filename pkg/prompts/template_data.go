package prompts

import (
	_ "embed"
)

const (
	// ModeStory は写真の説明を主人公として扱う物語生成プロンプトです。
	ModeStory = "story"
	// ModeStoryProxy は generate-story エンドポイント用の簡易プロンプトです。
	ModeStoryProxy = "story_proxy"
)

// TemplateData は物語生成プロンプトのテンプレートに渡すデータ構造です。
type TemplateData struct {
	Story             string
	NumPanels         int
	PhotoDescriptions []string
}

var (
	//go:embed story.md
	StoryPrompt string
	//go:embed story_proxy.md
	StoryProxyPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeStory:      StoryPrompt,
	ModeStoryProxy: StoryProxyPrompt,
}
