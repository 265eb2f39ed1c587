// Package runner は、キャンバスのパネルごとにリモート画像生成を端から端まで
// 駆動するオーケストレーターなのだ。複数パネルの同時生成や、生成中の削除と
// いった競合があっても、他のパネルの状態を巻き込まないのがここの責務なのだ。
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/shouni/go-manga-factory/pkg/canvas"
	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/kodo"
)

// DefaultPanelTimeout はパネル1枚の生成全体（作成＋ポーリング）に許す上限なのだ。
const DefaultPanelTimeout = 180 * time.Second

// defaultBatchBurst は一括生成の開始直後に同時に走らせてよいリクエスト数です。
const defaultBatchBurst = 2

// ImageGenerator は画像生成ジョブAPI（Kodo）へのインターフェースです。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, params kodo.GenerateParams) (*kodo.GenerateResult, error)
}

// ImageFetcher は生成結果URLを自己完結したデータURLへ変換するインターフェースです。
type ImageFetcher interface {
	FetchDataURL(ctx context.Context, imageURL string) (string, error)
}

// PanelRunner はパネル単位の生成コントローラーです。
// ストアの所有権は持たず、IDを鍵にした書き戻しだけを行います。
type PanelRunner struct {
	store        *canvas.Store
	images       ImageGenerator
	fetcher      ImageFetcher
	timeout      time.Duration
	pollInterval time.Duration
	batchEvery   time.Duration // 一括生成時のリクエスト間隔
}

// NewPanelRunner は PanelRunner を生成します。
func NewPanelRunner(store *canvas.Store, images ImageGenerator, fetcher ImageFetcher) *PanelRunner {
	return &PanelRunner{
		store:        store,
		images:       images,
		fetcher:      fetcher,
		timeout:      DefaultPanelTimeout,
		pollInterval: kodo.DefaultPollInterval,
		batchEvery:   2 * time.Second,
	}
}

// GeneratePanel は1枚のパネルの生成を最後まで駆動するのだ。
// パネルの状態は呼び出し時点でIDから読み直すのだ。生成開始前に捕まえた
// スナップショットを使い回すと、並行する生成がストアを書き換えたときに
// 古い状態を見てしまうからなのだ。
//
// 終端の書き込みは成功・失敗・例外のどれでもちょうど1回で、すべてパネルIDを
// 鍵にするため、途中で削除されたパネルへの書き込みは無害な no-op になるのだ。
func (r *PanelRunner) GeneratePanel(ctx context.Context, panelID string) {
	panel, ok := r.store.PanelByID(panelID)
	if !ok || !panel.HasPrompt() {
		// プロンプト未入力や削除済みは黙って何もしない
		return
	}

	r.store.UpdatePanel(panelID, func(p *domain.PanelItem) {
		p.Generating = true
		p.Error = ""
	})

	slog.Info("パネル生成を開始するのだ",
		"panel_id", panelID,
		"gen_width", panel.GenWidth,
		"gen_height", panel.GenHeight)

	result, err := r.images.GenerateImage(ctx, kodo.GenerateParams{
		Description:  panel.Prompt,
		Width:        panel.GenWidth,
		Height:       panel.GenHeight,
		PollInterval: r.pollInterval,
		Timeout:      r.timeout,
	})
	if err != nil {
		r.finishWithError(panelID, err.Error())
		return
	}

	if result.URL == "" {
		// failed / canceled / timeout などの終端ステータス。例外ではなく状態として扱う
		r.finishWithError(panelID, fmt.Sprintf("Generation %s", result.Status))
		return
	}

	dataURL, err := r.fetcher.FetchDataURL(ctx, result.URL)
	if err != nil {
		r.finishWithError(panelID, err.Error())
		return
	}

	r.store.UpdatePanel(panelID, func(p *domain.PanelItem) {
		p.Generating = false
		p.ImageDataURL = dataURL
		p.Error = ""
	})
	slog.Info("パネル生成に成功したのだ", "panel_id", panelID, "aigen_id", result.AigenID)
}

// finishWithError は失敗の終端状態を1回だけ書き込みます。
func (r *PanelRunner) finishWithError(panelID, message string) {
	r.store.UpdatePanel(panelID, func(p *domain.PanelItem) {
		p.Generating = false
		p.Error = message
	})
	slog.Warn("パネル生成が失敗で終端したのだ", "panel_id", panelID, "error", message)
}

// GenerateAll はプロンプト入力済みの全パネルを並列で生成するのだ。
// 個々のパネルの失敗はそのパネルのエラー欄に収まり、全体は止めないのだ。
func (r *PanelRunner) GenerateAll(ctx context.Context) error {
	panels := r.store.Panels()

	eg, egCtx := errgroup.WithContext(ctx)

	// レートリミットで開始をずらすのだ。Burst 2 により最初の2枚は即開始できるのだ
	limiter := rate.NewLimiter(rate.Every(r.batchEvery), defaultBatchBurst)
	slog.Info("並列パネル生成を開始するのだ", "count", len(panels), "interval", r.batchEvery)

	for _, panel := range panels {
		if !panel.HasPrompt() {
			continue
		}
		panelID := panel.ID

		eg.Go(func() error {
			if err := limiter.Wait(egCtx); err != nil {
				return err
			}
			r.GeneratePanel(egCtx, panelID)
			return nil
		})
	}

	return eg.Wait()
}
