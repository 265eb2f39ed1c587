package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-factory/internal/config"
	"github.com/shouni/go-manga-factory/internal/pipeline"

	"github.com/spf13/cobra"
)

// pageCmd は、契約生成から採点までの全工程を1回で回すデモコマンドなのだ！
var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "契約 → パネル生成 → 書き出し → 採点までを一括実行するのだ！",
	Long: `契約の生成、パネル画像の並列生成、1枚のページへの書き出し、
そして審査委員会による採点までを通しで実行するのだ。
完成したページはPNGで保存され、3人の審査員の講評が表示されるのだよ。`,
	Example: "  manga-factory page -d easy -o output/my_page.png",
	RunE:    pageCommand,
}

func init() {
}

// pageCommand は、page サブコマンドの実行ロジック本体なのだ。
func pageCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("ページ制作パイプラインを起動するのだ！",
		"difficulty", opts.Difficulty,
		"output", opts.OutputFile,
		"backend", opts.LLMBackend)

	if err := pipeline.ExecutePage(ctx, cfg); err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生したのだ: %w", err)
	}

	slog.Info("完了なのだ！ページの制作と審査がすべて終わったのだよ。")
	return nil
}
