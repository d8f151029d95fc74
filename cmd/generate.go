package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-comico-kit/internal/builder"
	"github.com/shouni/go-comico-kit/internal/config"
	"github.com/shouni/go-comico-kit/pkg/domain"
	"github.com/shouni/go-comico-kit/pkg/pipeline"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// cliUserID は CLI 実行時の保存先パスに使うユーザー ID です。
const cliUserID = "cli"

// generateCmd は、写真と物語からコミックを生成して Markdown と JSON に出力します。
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "写真と物語からコミックを生成します。",
	Long: `写真を解析し、物語をパネルに分けて、パネルごとに画像を生成します。
結果は出力ディレクトリに comic.md と comic.json として保存されます。`,
	Example: "  comico generate -f story.txt -p dog.jpg -p park.jpg --panels 6 --style manga",
	RunE:    generateCommand,
}

func init() {
	generateCmd.Flags().StringVarP(&opts.StoryFile, "story-file", "f", "", "物語の本文ファイル（'-'で標準入力）です。")
	generateCmd.Flags().StringArrayVarP(&opts.Photos, "photo", "p", nil, "写真のパスまたは URL です。複数指定できます。")
	generateCmd.Flags().IntVarP(&opts.Panels, "panels", "n", 0, "パネル数です。0 の場合は本文から決めます。")
	generateCmd.Flags().StringVarP(&opts.Style, "style", "s", "", "画風です（comic, manga, graphic_novel, cartoon, watercolor）。")
	generateCmd.Flags().StringVarP(&opts.OutputDir, "output-dir", "o", config.DefaultOutputDir, "出力ディレクトリです。")
}

func generateCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireAPIKey(cfg); err != nil {
		return err
	}

	story, err := readStory(opts.StoryFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	photos, err := loadPhotos(opts.Photos)
	if err != nil {
		return err
	}

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	slog.Info("コミック生成パイプラインを起動します",
		"provider", cfg.Comic.Provider,
		"chat_model", cfg.Comic.ChatModel,
		"image_model", cfg.Comic.ImageModel,
		"photos", len(photos),
		"output", opts.OutputDir)

	comic, outcome, err := appCtx.Pipeline.Generate(ctx, newCLIRequest(story, photos, opts))
	if err != nil {
		return fmt.Errorf("コミックの生成に失敗しました: %w", err)
	}

	result, err := appCtx.Workflow.BuildPublishRunner().Run(ctx, comic, opts.OutputDir)
	if err != nil {
		return fmt.Errorf("コミックの保存に失敗しました: %w", err)
	}

	slog.Info("すべての生成工程が完了しました",
		"title", comic.Title,
		"outcome", outcome,
		"failed_panels", comic.FailedPanels(),
		"markdown", result.MarkdownPath,
		"json", result.JSONPath)
	fmt.Fprintln(cmd.OutOrStdout(), result.MarkdownPath)
	return nil
}

// newCLIRequest は CLI 実行1回分の生成リクエストを作成します。
// 写真の保存先が実行ごとに分かれるよう、ComicID には新しい UUID を割り当てます。
func newCLIRequest(story string, photos []domain.PhotoInput, o config.GenerateOptions) pipeline.Request {
	return pipeline.Request{
		StoryText:       story,
		Photos:          photos,
		RequestedPanels: o.Panels,
		Style:           o.Style,
		UserID:          cliUserID,
		ComicID:         uuid.NewString(),
	}
}
