package prompts

import (
	"fmt"
	"strings"
)

// PanelPromptBuilder は、キャプションと画風、写真の説明からパネル画像のプロンプトを構築します。
type PanelPromptBuilder struct {
	maxLength int
}

var _ ImagePrompt = (*PanelPromptBuilder)(nil)

// NewPanelPromptBuilder は新しい PanelPromptBuilder を生成します。
// maxLength は画像モデルが受け付けるプロンプトの最大文字数です。
func NewPanelPromptBuilder(maxLength int) *PanelPromptBuilder {
	return &PanelPromptBuilder{maxLength: maxLength}
}

// BuildPanels は、キャプションごとのプロンプトを生成します。
func (pb *PanelPromptBuilder) BuildPanels(captions []string, style string, photoDescriptions []string) []string {
	styleDesc := StyleDescriptor(style)
	subjects := BuildSubjectSection(photoDescriptions)

	prompts := make([]string, len(captions))
	for i, caption := range captions {
		frame := frameFor(i, len(captions))

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%s - %s. %s: %s", frame.shot, styleDesc, frame.scene, caption))
		sb.WriteString(subjects)
		sb.WriteString("\n\n")
		sb.WriteString(NoTextInstruction)
		sb.WriteString("\n\n")
		sb.WriteString(QualityFooter)

		prompts[i] = pb.truncate(sb.String())
	}
	return prompts
}

// BuildVariation は変更指示をそのまま主題にしたプロンプトを返します。
func (pb *PanelPromptBuilder) BuildVariation(modifications string) string {
	return pb.truncate(fmt.Sprintf("%s. %s", strings.TrimSpace(modifications), VariationSuffix))
}

// BuildSubjectSection は写真の説明を必須の登場人物として列挙します。説明が無ければ空文字です。
func BuildSubjectSection(photoDescriptions []string) string {
	if len(photoDescriptions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("\n\nCRITICAL CHARACTER REQUIREMENT:\n")
	sb.WriteString("You MUST include the following character(s) from uploaded reference photos in this exact panel:\n")
	for i, desc := range photoDescriptions {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("- Reference Photo %d: %s", i+1, excerpt(desc, photoDescriptionExcerpt)))
	}
	sb.WriteString("\n\nThese characters MUST be prominently visible, clearly recognizable, and in the foreground or central focus of the panel. This is non-negotiable.")
	return sb.String()
}

// truncate はプロンプトを maxLength 文字に切り詰めます。maxLength が 0 以下なら何もしません。
func (pb *PanelPromptBuilder) truncate(s string) string {
	if pb.maxLength <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= pb.maxLength {
		return s
	}
	return string(r[:pb.maxLength])
}

func excerpt(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
