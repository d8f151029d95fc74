package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidStory は物語の生成結果が必要な形を満たしていない場合のエラーです。
var ErrInvalidStory = errors.New("invalid story format")

// StoryContent は物語生成の結果です。生成後は変更しません。
type StoryContent struct {
	Title         string   `json:"title"`
	Narrative     string   `json:"narrative"`
	PanelCaptions []string `json:"panelCaptions"`
}

// Validate は title, narrative, panelCaptions がすべて揃っているかを検証します。
func (s StoryContent) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(s.Narrative) == "" {
		missing = append(missing, "narrative")
	}
	if len(s.PanelCaptions) == 0 {
		missing = append(missing, "panelCaptions")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidStory, strings.Join(missing, ", "))
	}
	return nil
}

// PanelStatus はパネル単位の生成状態です。
type PanelStatus string

const (
	PanelStatusGenerated  PanelStatus = "generated"
	PanelStatusProcessing PanelStatus = "processing"
	PanelStatusError      PanelStatus = "error"
)

// ComicPanel はコミックの1コマです。失敗したコマも error 状態で保持されます。
type ComicPanel struct {
	PanelNumber int         `json:"panelNumber"`
	Description string      `json:"description"`
	ImageURL    string      `json:"imageUrl"`
	Status      PanelStatus `json:"status"`
}

// NewGeneratedPanel は生成に成功したパネルを返します。
func NewGeneratedPanel(number int, description, imageURL string) ComicPanel {
	return ComicPanel{
		PanelNumber: number,
		Description: description,
		ImageURL:    imageURL,
		Status:      PanelStatusGenerated,
	}
}

// NewFailedPanel は画像URLを持たない error 状態のパネルを返します。
func NewFailedPanel(number int, description string) ComicPanel {
	return ComicPanel{
		PanelNumber: number,
		Description: description,
		Status:      PanelStatusError,
	}
}

// GeneratedComic はパイプライン1回分の成果物です。
// 再生成の際は既存の値を書き換えず、新しい GeneratedComic で丸ごと置き換えます。
type GeneratedComic struct {
	Title         string       `json:"title"`
	Story         StoryContent `json:"story"`
	Panels        []ComicPanel `json:"panels"`
	TotalPages    int          `json:"totalPages"`
	CreatedAt     time.Time    `json:"createdAt"`
	Style         string       `json:"style,omitempty"`
	GeneratedWith string       `json:"generatedWith,omitempty"`
}

// NewGeneratedComic は物語とパネル群から GeneratedComic を組み立てます。
func NewGeneratedComic(story StoryContent, panels []ComicPanel, panelsPerPage int, now time.Time) *GeneratedComic {
	return &GeneratedComic{
		Title:      story.Title,
		Story:      story,
		Panels:     panels,
		TotalPages: TotalPages(len(panels), panelsPerPage),
		CreatedAt:  now,
	}
}

// TotalPages は ceil(panelCount / panelsPerPage) を返します。
func TotalPages(panelCount, panelsPerPage int) int {
	if panelCount <= 0 {
		return 0
	}
	if panelsPerPage <= 0 {
		panelsPerPage = 1
	}
	return (panelCount + panelsPerPage - 1) / panelsPerPage
}

// FailedPanels は error 状態のパネル数を返します。
func (c *GeneratedComic) FailedPanels() int {
	n := 0
	for _, p := range c.Panels {
		if p.Status == PanelStatusError {
			n++
		}
	}
	return n
}

// Outcome は生成結果の分類を返します。
func (c *GeneratedComic) Outcome() Outcome {
	return ClassifyPanels(c.Panels)
}

// WithPanel は panel.PanelNumber の位置を差し替えた新しい GeneratedComic を返します。
// 元の値は変更しません。
func (c *GeneratedComic) WithPanel(panel ComicPanel, now time.Time) (*GeneratedComic, error) {
	idx := panel.PanelNumber - 1
	if idx < 0 || idx >= len(c.Panels) {
		return nil, fmt.Errorf("panel %d is out of range (1-%d)", panel.PanelNumber, len(c.Panels))
	}

	next := *c
	next.Panels = make([]ComicPanel, len(c.Panels))
	copy(next.Panels, c.Panels)
	next.Panels[idx] = panel

	next.Story.PanelCaptions = make([]string, len(c.Story.PanelCaptions))
	copy(next.Story.PanelCaptions, c.Story.PanelCaptions)
	if idx < len(next.Story.PanelCaptions) {
		next.Story.PanelCaptions[idx] = panel.Description
	}

	next.CreatedAt = now
	return &next, nil
}

// Outcome は error パネルの数から導かれる生成結果の分類です。
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
)

// ClassifyPanels は全成功なら success、全失敗 (またはパネル無し) なら failed、それ以外は partial を返します。
func ClassifyPanels(panels []ComicPanel) Outcome {
	if len(panels) == 0 {
		return OutcomeFailed
	}
	failed := 0
	for _, p := range panels {
		if p.Status == PanelStatusError {
			failed++
		}
	}
	switch {
	case failed == 0:
		return OutcomeSuccess
	case failed == len(panels):
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
