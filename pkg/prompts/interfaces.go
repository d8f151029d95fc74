package prompts

// ScriptPrompt は、物語生成のプロンプトを構築する契約です。
type ScriptPrompt interface {
	// Build は、指定されたモード（例: "story", "story_proxy"）とデータに基づいてプロンプト文字列を生成します。
	Build(mode string, data TemplateData) (string, error)
}

// ImagePrompt は、パネル画像のプロンプトを構築する契約です。
type ImagePrompt interface {
	// BuildPanels は、キャプションごとに1つの画像プロンプトを順番どおりに生成します。
	BuildPanels(captions []string, style string, photoDescriptions []string) []string
	// BuildVariation は、既存パネルの変更指示から画像プロンプトを生成します。
	BuildVariation(modifications string) string
}
