package cmd

import (
	"fmt"
	"os"

	"github.com/shouni/go-manga-factory/internal/config"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
)

// opts は全コマンドで共有する実行時オプションなのだ。
var opts config.GenerateOptions

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	// --- 契約・生成関連 ---
	rootCmd.PersistentFlags().StringVarP(&opts.Difficulty, "difficulty", "d", "medium", "契約の難易度（easy / medium / hard）なのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.Prompt, "prompt", "p", "", "画像生成の指示文なのだ。")

	// --- 生成結果の出力設定 ---
	rootCmd.PersistentFlags().StringVarP(&opts.OutputFile, "output-file", "o", config.DefaultPageFile, "完成ページの保存パスなのだ。")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputImageDir, "output-image-dir", "i", config.DefaultImageDir, "生成された画像を保存するディレクトリなのだ。")

	// --- AIモデル・挙動設定 ---
	rootCmd.PersistentFlags().StringVar(&opts.Model, "model", "", "テキスト生成に使うモデル名なのだ（空なら環境設定に従う）。")
	rootCmd.PersistentFlags().StringVar(&opts.LLMBackend, "backend", "openai", "テキスト生成のバックエンド（openai / gemini）なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.HTTPTimeout, "http-timeout", config.DefaultHTTPTimeout, "Webリクエストのタイムアウトなのだ。")

	// --- 画像生成ジョブ固有設定 ---
	rootCmd.PersistentFlags().DurationVar(&opts.PollInterval, "poll-interval", config.DefaultPollInterval, "生成ジョブのポーリング間隔なのだ。")
	rootCmd.PersistentFlags().DurationVar(&opts.PollTimeout, "poll-timeout", config.DefaultPollTimeout, "生成ジョブ全体の待機上限なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.GenWidth, "gen-width", 0, "生成画像の幅（64の倍数）なのだ。0で未指定なのだ。")
	rootCmd.PersistentFlags().IntVar(&opts.GenHeight, "gen-height", 0, "生成画像の高さ（64の倍数）なのだ。0で未指定なのだ。")
}

// preRunAppE は、コマンド実行前に環境変数などの必須チェックを行うのだ。
func preRunAppE(cmd *cobra.Command, args []string) error {
	// テキスト生成は必ずどこかで使うので、バックエンドのキーだけは先に確かめるのだ
	switch opts.LLMBackend {
	case "gemini":
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("エラー: 環境変数 GEMINI_API_KEY が設定されていません。gemini バックエンドの利用には必須なのだ")
		}
	default:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("エラー: 環境変数 OPENAI_API_KEY が設定されていません。LLM呼び出しには必須なのだ")
		}
	}

	return nil
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	clibase.Execute(
		"manga-factory",
		addAppFlags,
		preRunAppE,
		contractCmd,
		panelCmd,
		pageCmd,
		serveCmd,
	)
}
