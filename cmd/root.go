package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/shouni/go-comico-kit/internal/config"

	"github.com/spf13/cobra"
)

const appName = "comico"

// opts は各サブコマンドで共有する CLI フラグの値です。
var opts config.GenerateOptions

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "写真と物語から AI でコミックを生成します。",
	Long: `写真を解析して物語をパネルに分け、パネルごとに画像を生成します。
generate で一連の処理、story で物語だけ、panel でパネル1枚を生成し、serve で HTTP API を起動します。`,
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義します。
func addAppFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力します。")
	cmd.PersistentFlags().BoolVar(&opts.LogJSON, "log-json", false, "ログを JSON 形式で出力します。")
	cmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "外部 API 呼び出しのタイムアウトです。")
}

// preRunAppE は、コマンド実行前にロガーを設定します。
func preRunAppE(cmd *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if cfg, err := config.LoadConfig(); err == nil {
		level = cfg.SlogLevel()
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	setupLogger(cmd, level, opts.LogJSON)
	return nil
}

func setupLogger(cmd *cobra.Command, level slog.Level, asJSON bool) {
	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if asJSON {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadConfig は環境変数を読み込み、CLI フラグの値を反映した設定を返します。
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	cfg.Options = opts
	return cfg, nil
}

// requireAPIKey は AI を呼び出すコマンドの前に API キーを確認します。
func requireAPIKey(cfg *config.Config) error {
	if cfg.Comic.APIKey() == "" {
		return fmt.Errorf("%s の API キーが設定されていません (OPENAI_API_KEY または GEMINI_API_KEY)", cfg.Comic.Provider)
	}
	return nil
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(generateCmd, storyCmd, panelCmd, serveCmd)
}

// Execute は、アプリケーションのメインエントリポイントです。
// main.go から呼び出されて、cobra のコマンドライン解析を開始します。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
