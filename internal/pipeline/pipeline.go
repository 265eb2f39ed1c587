// Package pipeline は、CLIコマンドから呼ばれる一連の実行フローを組み立てるのだ。
// 各コマンドは必要なクライアントだけを初期化し、実行の本体はここに集約するのだ。
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/shouni/go-manga-factory/internal/config"
	"github.com/shouni/go-manga-factory/internal/server"
	"github.com/shouni/go-manga-factory/pkg/canvas"
	"github.com/shouni/go-manga-factory/pkg/contract"
	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/export"
	"github.com/shouni/go-manga-factory/pkg/grader"
	"github.com/shouni/go-manga-factory/pkg/kodo"
	"github.com/shouni/go-manga-factory/pkg/llm"
	"github.com/shouni/go-manga-factory/pkg/runner"
)

// newCaller は --backend の指定に応じてLLMバックエンドを初期化するのだ。
// 採点は画像付き呼び出しが必須なので、OpenAI互換バックエンドが既定なのだ。
func newCaller(ctx context.Context, cfg *config.Config) (llm.Caller, error) {
	model := cfg.Options.Model
	if model == "" {
		model = cfg.LLMModel
	}

	switch cfg.Options.LLMBackend {
	case "gemini":
		return llm.NewGeminiBackend(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case "", "openai":
		return llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, model, cfg.Options.HTTPTimeout)
	default:
		return nil, fmt.Errorf("未知のLLMバックエンドなのだ: %s", cfg.Options.LLMBackend)
	}
}

func newKodoClient(cfg *config.Config) (*kodo.Client, error) {
	return kodo.NewClient(kodo.ClientConfig{
		BaseURL:   cfg.KodoBaseURL,
		APIKey:    cfg.KodoAPIKey,
		AccountID: cfg.KodoAccountID,
		AppID:     cfg.KodoAppID,
		Timeout:   cfg.Options.HTTPTimeout,
	})
}

func textModel(cfg *config.Config) string {
	if cfg.Options.Model != "" {
		return cfg.Options.Model
	}
	return cfg.LLMModel
}

// ExecuteContract は難易度に応じた契約を1件生成して表示するのだ。
func ExecuteContract(ctx context.Context, cfg *config.Config) error {
	difficulty, err := domain.ParseDifficulty(cfg.Options.Difficulty)
	if err != nil {
		return err
	}

	caller, err := newCaller(ctx, cfg)
	if err != nil {
		return err
	}
	gen := contract.NewGenerator(caller, textModel(cfg), cfg.OutputLanguage)

	c, err := gen.GenerateContract(ctx, difficulty)
	if err != nil {
		return fmt.Errorf("契約の生成に失敗したのだ: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// ExecutePanel は1枚の画像を生成してローカルファイルに保存するのだ。
func ExecutePanel(ctx context.Context, cfg *config.Config) error {
	opts := cfg.Options
	if opts.Prompt == "" {
		return fmt.Errorf("画像生成の指示文（--prompt）を指定してほしいのだ")
	}
	if (opts.GenWidth != 0 || opts.GenHeight != 0) && !domain.IsValidGenSize(opts.GenWidth, opts.GenHeight) {
		return fmt.Errorf("解像度は64の倍数で指定してほしいのだ: %dx%d", opts.GenWidth, opts.GenHeight)
	}

	client, err := newKodoClient(cfg)
	if err != nil {
		return err
	}

	slog.Info("画像生成ジョブを投入するのだ", "width", opts.GenWidth, "height", opts.GenHeight)

	result, err := client.GenerateImage(ctx, kodo.GenerateParams{
		Description:  opts.Prompt,
		Width:        opts.GenWidth,
		Height:       opts.GenHeight,
		PollInterval: opts.PollInterval,
		Timeout:      opts.PollTimeout,
	})
	if err != nil {
		return err
	}
	if result.URL == "" {
		return fmt.Errorf("画像生成が %s で終端したのだ（URLなし）", result.Status)
	}

	fetcher := kodo.NewDataURLFetcher(opts.HTTPTimeout)
	data, _, err := fetcher.FetchBytes(ctx, result.URL)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.OutputImageDir, 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	outputPath := filepath.Join(opts.OutputImageDir, fmt.Sprintf("panel_%s.png", uuid.NewString()[:8]))
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("画像の保存に失敗しました: %w", err)
	}

	slog.Info("画像を保存したのだ", "path", outputPath, "aigen_id", result.AigenID)
	return nil
}

// ExecutePage は契約 → パネル配置 → 一括画像生成 → 書き出し → 採点の
// デモフローを最初から最後まで実行するのだ。
func ExecutePage(ctx context.Context, cfg *config.Config) error {
	caller, err := newCaller(ctx, cfg)
	if err != nil {
		return err
	}
	images, err := newKodoClient(cfg)
	if err != nil {
		return err
	}

	difficulty, err := domain.ParseDifficulty(cfg.Options.Difficulty)
	if err != nil {
		return err
	}

	// 1. 契約の生成
	gen := contract.NewGenerator(caller, textModel(cfg), cfg.OutputLanguage)
	c, err := gen.GenerateContract(ctx, difficulty)
	if err != nil {
		return fmt.Errorf("契約の生成に失敗したのだ: %w", err)
	}
	slog.Info("契約が決まったのだ", "genre", c.Genre, "tone", c.Tone, "panel_count", c.PanelCount)

	// 2. キャンバスの組み立て。パネルを縦に並べ、導入のセリフを1つ載せる
	store := canvas.NewStore()
	ratio := domain.PanelRatios[0]
	for i := 0; i < c.PanelCount; i++ {
		panel := store.AddPanel(ratio)
		prompt := fmt.Sprintf("%s manga panel, %s tone, scene %d of %d", c.Genre, c.Tone, i+1, c.PanelCount)
		store.UpdatePanel(panel.ID, func(p *domain.PanelItem) {
			p.Prompt = prompt
			p.Y = float64(20 + i*170)
			p.X = 50
		})
	}
	if c.IntroDialogue != "" {
		text := store.AddText()
		store.UpdateText(text.ID, func(t *domain.TextItem) {
			t.Text = c.IntroDialogue
			t.X = 60
			t.Y = 30
		})
	}

	// 3. 全パネルの一括生成
	fetcher := kodo.NewDataURLFetcher(cfg.Options.HTTPTimeout)
	panelRunner := runner.NewPanelRunner(store, images, fetcher)
	if err := panelRunner.GenerateAll(ctx); err != nil {
		return fmt.Errorf("一括生成が中断されたのだ: %w", err)
	}
	for _, p := range store.Panels() {
		if p.Error != "" {
			slog.Warn("生成に失敗したパネルがあるのだ", "panel_id", p.ID, "error", p.Error)
		}
	}

	// 4. ページの書き出し
	exporter, err := export.NewExporter()
	if err != nil {
		return err
	}
	png, err := exporter.ExportPNG(store)
	if err != nil {
		return err
	}
	outputPath := cfg.Options.OutputFile
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	if err := os.WriteFile(outputPath, png, 0o644); err != nil {
		return fmt.Errorf("ページの保存に失敗しました: %w", err)
	}
	slog.Info("ページを書き出したのだ", "path", outputPath)

	// 5. 審査への提出
	judge := grader.NewGrader(caller, textModel(cfg), cfg.OutputLanguage)
	submit := runner.NewSubmitRunner(store, exporter, judge)
	grades, err := submit.Submit(ctx, c)
	if err != nil {
		return fmt.Errorf("審査に失敗したのだ: %w", err)
	}

	for _, g := range grades.Grades {
		fmt.Printf("[%d/100] %s (%s)\n  %s\n", g.Score, g.Name, g.Judge, g.Review)
	}
	return nil
}

// ExecuteServe はプロキシサーバーを起動するのだ。
func ExecuteServe(ctx context.Context, cfg *config.Config) error {
	caller, err := newCaller(ctx, cfg)
	if err != nil {
		return err
	}
	images, err := newKodoClient(cfg)
	if err != nil {
		return err
	}

	deps := server.Deps{
		Images:    images,
		Contracts: contract.NewGenerator(caller, textModel(cfg), cfg.OutputLanguage),
		Grader:    grader.NewGrader(caller, textModel(cfg), cfg.OutputLanguage),
		Caller:    caller,
	}

	srv := server.New(deps, cfg.ServerPort)

	// ctx が落ちたら行儀よく止めるのだ
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(); err != nil {
			slog.Error("サーバーの停止に失敗したのだ", "error", err)
		}
	}()

	return srv.Listen()
}
