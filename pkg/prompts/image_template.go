package prompts

import (
	"github.com/shouni/go-comico-kit/pkg/director"
)

const (
	// StorySystemPrompt は物語生成モデルの役割を定義します。
	StorySystemPrompt = "You are a creative comic book writer. Create engaging, vivid narratives with dramatic dialogue and descriptions perfect for visual storytelling. Write captions as if they would appear in speech bubbles or narrative boxes in a real comic book. IMPORTANT: Write in the SAME LANGUAGE as the user's input story."

	// StoryProxySystemPrompt は generate-story エンドポイント用のシステムプロンプトです。
	StoryProxySystemPrompt = "You are a creative comic book writer. Always respond with valid JSON."

	// PhotoAnalysisPrompt は写真から主人公を特定するための解析指示です。
	PhotoAnalysisPrompt = `Analyze this photo and provide a detailed description for comic book generation. CRITICAL REQUIREMENTS:
1) Identify the MAIN CHARACTER or SUBJECT in the image - this is essential
2) Describe them vividly: appearance, color, distinctive features, clothing/accessories, expression, pose
3) Name or identify what they are (animal species, profession, character type, etc.)
4) Describe the setting/environment
5) Any action or activity they're engaged in

Your description will be used to ensure this character/subject appears consistently in generated comic panels. Be specific and vivid so the subject can be easily recreated in artwork.`

	// ProxyAnalysisPrompt は analyze-photo エンドポイント用の簡易な解析指示です。
	ProxyAnalysisPrompt = "Describe this image in detail for use in a comic book. Focus on: characters, setting, mood, and any notable objects or actions."

	// NoTextInstruction は画像内に文字を描かせないための指示です。
	NoTextInstruction = `EXTREMELY IMPORTANT - ABSOLUTELY NO TEXT OF ANY KIND IN THIS IMAGE:
- NO WORDS
- NO LETTERS
- NO NUMBERS
- NO SPEECH BUBBLES
- NO DIALOGUE BOXES
- NO NARRATIVE CAPTIONS
- NO SOUND EFFECTS
- NO LABELS
- NO TEXT IN ANY FORM WHATSOEVER
Generate ONLY pure visual artwork with no text elements.`

	// QualityFooter はすべてのパネルプロンプトの末尾に付与します。
	QualityFooter = "High quality, detailed artwork. REMEMBER: Zero text of any kind."

	// VariationSuffix はバリエーション生成の共通サフィックスです。
	VariationSuffix = "High quality, detailed artwork, comic book style."

	photoDescriptionExcerpt = 250
)

// styleDescriptors は画風ごとの固定の描写指示です。
var styleDescriptors = map[director.ArtStyle]string{
	director.StyleComic:        "vibrant comic book style with bold lines, dynamic composition, saturated colors, and dramatic lighting",
	director.StyleManga:        "Japanese manga style with expressive characters, speed lines, screen tones, and detailed backgrounds",
	director.StyleGraphicNovel: "mature graphic novel style with realistic proportions, atmospheric lighting, detailed textures, and cinematic framing",
	director.StyleCartoon:      "playful cartoon style with exaggerated features, bright colors, simple shapes, and energetic poses",
	director.StyleWatercolor:   "watercolor illustration style with soft edges, flowing colors, artistic brushstrokes, and gentle lighting",
}

// StyleDescriptor は画風名に対応する描写指示を返します。未知の画風は comic として扱います。
func StyleDescriptor(style string) string {
	return styleDescriptors[director.ResolveStyle(style)]
}

// panelFrame はパネルの位置に応じたショットの枠組みです。
type panelFrame struct {
	shot  string
	scene string
}

var (
	openingFrame = panelFrame{shot: "Establishing shot", scene: "Opening scene"}
	closingFrame = panelFrame{shot: "Final resolution panel", scene: "Climactic scene"}
	actionFrame  = panelFrame{shot: "Action panel", scene: "Story scene"}
)

// frameFor は最初のパネルを導入、最後のパネルを結末、それ以外をアクションとして扱います。
func frameFor(index, total int) panelFrame {
	switch {
	case index == 0:
		return openingFrame
	case index == total-1:
		return closingFrame
	default:
		return actionFrame
	}
}
