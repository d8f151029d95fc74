package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shouni/go-comico-kit/internal/builder"
	"github.com/shouni/go-comico-kit/internal/server"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

// serveCmd は HTTP API を起動します。
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "HTTP API を起動します。",
	Long:    `コミックの作成・生成・注文と、analyze-photo / generate-story を HTTP で提供します。SIGINT / SIGTERM で停止します。`,
	Example: "  comico serve --port 8080",
	RunE:    serveCommand,
}

func init() {
	serveCmd.Flags().StringVar(&opts.Port, "port", "", "待ち受けポートです。未指定なら PORT 環境変数を使います。")
}

func serveCommand(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	port := cfg.Port
	if opts.Port != "" {
		port = opts.Port
	}

	appCtx, err := builder.NewAppContext(ctx, cfg)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if !appCtx.Configured() {
		slog.Warn("API キーが未設定です。生成系のエンドポイントは 500 を返します", "provider", cfg.Comic.Provider)
	}

	srv, err := server.NewServer(":"+port, appCtx.Service, appCtx.Assistant, slog.Default())
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, shutdownTimeout)
}

