package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-factory/internal/config"
	"github.com/shouni/go-manga-factory/internal/pipeline"

	"github.com/spf13/cobra"
)

// serveCmd は、エディタ向けのプロキシAPIサーバーを起動するのだ。
// APIキーをブラウザに渡さないための唯一の窓口なのだ。
var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "エディタ向けのプロキシAPIサーバーを起動するのだ。",
	Example: "  PORT=3000 manga-factory serve",
	RunE:    serveCommand,
}

func init() {
}

// serveCommand は、serve サブコマンドの実行ロジック本体なのだ。
func serveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("プロキシサーバーを準備するのだ", "port", cfg.ServerPort)

	if err := pipeline.ExecuteServe(ctx, cfg); err != nil {
		return fmt.Errorf("サーバー実行中にエラーが発生したのだ: %w", err)
	}
	return nil
}
