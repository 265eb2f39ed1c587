package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/go-manga-factory/pkg/canvas"
	"github.com/shouni/go-manga-factory/pkg/domain"
)

// PageExporter はストアの内容を提出用のデータURLへ書き出すインターフェースです。
type PageExporter interface {
	ExportDataURL(store *canvas.Store) (string, error)
}

// PageGrader は契約とページ画像を受け取って講評を返すインターフェースです。
type PageGrader interface {
	GradeMangaPage(ctx context.Context, contract domain.Contract, imageBase64 string) (domain.GradeResponse, error)
}

// SubmitRunner はページの提出フロー（書き出し → 採点）を駆動します。
type SubmitRunner struct {
	store    *canvas.Store
	exporter PageExporter
	grader   PageGrader
}

// NewSubmitRunner は SubmitRunner を生成します。
func NewSubmitRunner(store *canvas.Store, exporter PageExporter, grader PageGrader) *SubmitRunner {
	return &SubmitRunner{store: store, exporter: exporter, grader: grader}
}

// Submit は現在のキャンバスを画像化して審査に掛けるのだ。
// 採点に渡す契約の panelCount は、実際にページへ置かれたパネル数で
// 上書きするのだ。契約生成時の値と編集後の実態がずれることがあるからなのだ。
func (r *SubmitRunner) Submit(ctx context.Context, contract domain.Contract) (domain.GradeResponse, error) {
	dataURL, err := r.exporter.ExportDataURL(r.store)
	if err != nil {
		return domain.GradeResponse{}, fmt.Errorf("ページの書き出しに失敗したので提出できないのだ: %w", err)
	}

	derived := contract
	derived.PanelCount = contract.ClampPanelCount(len(r.store.Panels()))

	slog.Info("ページを審査へ提出するのだ",
		"panel_count", derived.PanelCount,
		"genre", derived.Genre)

	grades, err := r.grader.GradeMangaPage(ctx, derived, dataURL)
	if err != nil {
		return domain.GradeResponse{}, err
	}
	return grades, nil
}
