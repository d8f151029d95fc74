package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comico-kit/internal/builder"

	"github.com/spf13/cobra"
)

// storyCmd は画像を生成せずに物語だけを生成し、JSON で出力します。
var storyCmd = &cobra.Command{
	Use:     "story",
	Short:   "物語だけを生成して JSON で出力します。",
	Long:    `本文からパネル数を決めて物語を生成し、title / narrative / panelCaptions を標準出力に書き出します。`,
	Example: "  comico story -f story.txt --panels 6",
	RunE:    storyCommand,
}

func init() {
	storyCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語の本文ファイル（'-'で標準入力）です。")
	storyCmd.Flags().IntVarP(&opts.Panels, "panels", "n", 0, "パネル数です。0 の場合は本文から決めます。")
}

func storyCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	text, err := readStory(opts.StoryFile, cmd.InOrStdin())
	if err != nil {
		return err
	}

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	storyRunner, err := appCtx.Workflow.BuildStoryRunner()
	if err != nil {
		return err
	}
	story, err := storyRunner.Run(ctx, text, nil, opts.Panels)
	if err != nil {
		return fmt.Errorf("物語の生成に失敗しました: %w", err)
	}

	slog.Info("物語を生成しました", "title", story.Title, "panels", len(story.PanelCaptions))
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(story)
}
