package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-factory/internal/config"
	"github.com/shouni/go-manga-factory/internal/pipeline"

	"github.com/spf13/cobra"
)

// contractCmd は、AIに創作上の「契約」を生成させて表示するのだ。
var contractCmd = &cobra.Command{
	Use:   "contract",
	Short: "難易度に応じた創作契約を1件生成するのだ。",
	Long: `LLMに漫画制作の「契約」（ジャンル・トーン・読者層・制約条件）を提案させるのだ。
自己評価が基準に届かない退屈な契約は、上限回数まで自動で取り直すのだよ。`,
	Example: "  manga-factory contract -d hard",
	RunE:    contractCommand,
}

func init() {
}

// contractCommand は、contract サブコマンドの実行ロジック本体なのだ。
func contractCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("契約生成を開始するのだ", "difficulty", opts.Difficulty, "backend", opts.LLMBackend)

	if err := pipeline.ExecuteContract(ctx, cfg); err != nil {
		return fmt.Errorf("契約生成中にエラーが発生したのだ: %w", err)
	}
	return nil
}
