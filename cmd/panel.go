package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/shouni/go-comico-kit/internal/builder"
	"github.com/shouni/go-comico-kit/internal/config"

	"github.com/spf13/cobra"
)

// panelCmd はパネル画像を生成します。
// --description があれば1枚だけ、無ければ物語を文ごとに分けたパネルを物語生成なしで描きます。
var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "説明文からパネル画像を生成します。",
	Long: `--description を指定するとその説明でパネルを1枚生成し、結果を JSON で出力します。
--story-file を指定すると本文を文単位で --panels 枚に分け、物語生成を行わずにパネルを描いて保存します。`,
	Example: `  comico panel -d "A dog digging in the garden at sunset" --number 3 --style manga
  comico panel -f story.txt --panels 4`,
	RunE: panelCommand,
}

const defaultTextPanels = 4

// textPanels は --story-file から作るパネル数です。generate の --panels とは既定値が異なるため別に持ちます。
var textPanels int

func init() {
	panelCmd.Flags().StringVarP(&opts.Description, "description", "d", "", "パネルの説明文です。")
	panelCmd.Flags().IntVar(&opts.PanelNumber, "number", 1, "パネル番号です。")
	panelCmd.Flags().StringVarP(&opts.Style, "style", "s", "", "画風です（comic, manga, graphic_novel, cartoon, watercolor）。")
	panelCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語の本文ファイルです。--description が無い場合に使います。")
	panelCmd.Flags().IntVarP(&textPanels, "panels", "n", defaultTextPanels, "--story-file から作るパネル数です。")
	panelCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "出力ディレクトリです。")
}

func panelCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}
	if opts.Description == "" && opts.StoryFile == "" {
		return fmt.Errorf("--description か --story-file のどちらかを指定してください")
	}

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if opts.Description != "" {
		panelRunner, err := appCtx.Workflow.BuildPanelRunner()
		if err != nil {
			return err
		}
		panel, err := panelRunner.Run(ctx, opts.PanelNumber, opts.Description, opts.Style)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(panel)
	}

	text, err := readStory(opts.StoryFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	comic, outcome, err := appCtx.Pipeline.GenerateFromText(ctx, text, textPanels, opts.Style)
	if err != nil {
		return fmt.Errorf("パネルの生成に失敗しました: %w", err)
	}
	result, err := appCtx.Workflow.BuildPublishRunner().Run(ctx, comic, opts.OutputDir)
	if err != nil {
		return fmt.Errorf("コミックの保存に失敗しました: %w", err)
	}

	slog.Info("パネルを生成しました", "outcome", outcome, "panels", len(comic.Panels), "markdown", result.MarkdownPath)
	fmt.Fprintln(cmd.OutOrStdout(), result.MarkdownPath)
	return nil
}
