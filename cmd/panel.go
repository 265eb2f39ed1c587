package cmd

import (
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-factory/internal/config"
	"github.com/shouni/go-manga-factory/internal/pipeline"

	"github.com/spf13/cobra"
)

// panelCmd は、指示文から画像を1枚だけ生成してローカルに保存する単発コマンドなのだ。
// ページの組み立てを通さずに、画像生成ジョブの挙動を確かめたいときに便利なのだ。
var panelCmd = &cobra.Command{
	Use:     "panel",
	Short:   "指示文からパネル画像を1枚生成して保存するのだ。",
	Example: "  manga-factory panel -p \"a cat detective in a rainy alley\" --gen-width 1024 --gen-height 576",
	RunE:    panelCommand,
}

func init() {
}

// panelCommand は、panel サブコマンドの実行ロジック本体なのだ。
func panelCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if opts.Prompt == "" {
		return fmt.Errorf("画像生成の指示文（--prompt）を指定してほしいのだ")
	}

	cfg := config.LoadConfig()
	cfg.Options = opts

	slog.Info("単発の画像生成を開始するのだ",
		"output_dir", opts.OutputImageDir,
		"poll_interval", opts.PollInterval,
		"poll_timeout", opts.PollTimeout)

	if err := pipeline.ExecutePanel(ctx, cfg); err != nil {
		return fmt.Errorf("画像生成中にエラーが発生したのだ: %w", err)
	}
	return nil
}
