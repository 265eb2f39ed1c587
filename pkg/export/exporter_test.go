package export

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"

	"github.com/fogleman/gg"

	"github.com/shouni/go-manga-factory/pkg/canvas"
	"github.com/shouni/go-manga-factory/pkg/domain"
)

// tinyPNGDataURL はテスト用に小さなPNGをデータURL化して返すのだ。
func tinyPNGDataURL(t *testing.T) string {
	t.Helper()

	dc := gg.NewContext(4, 4)
	dc.SetRGB(1, 0, 0)
	dc.Clear()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		t.Fatalf("テスト画像の生成に失敗しました: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func buildTestStore(t *testing.T) *canvas.Store {
	t.Helper()

	store := canvas.NewStore()

	panel := store.AddPanel(domain.PanelRatios[0])
	store.UpdatePanel(panel.ID, func(p *domain.PanelItem) {
		p.ImageDataURL = tinyPNGDataURL(t)
	})
	store.AddPanel(domain.PanelRatios[1]) // 画像なし（プレースホルダー描画）

	store.AddBubble(domain.BubbleShapes[0])
	store.AddBubble(domain.BubbleShapes[3]) // Thought（楕円）

	text := store.AddText()
	store.UpdateText(text.ID, func(item *domain.TextItem) {
		item.Text = "It was a dark and stormy night."
		item.Rotation = 15
	})

	return store
}

func TestExportPNG(t *testing.T) {
	exporter, err := NewExporter()
	if err != nil {
		t.Fatalf("Exporterの生成に失敗しました: %v", err)
	}

	data, err := exporter.ExportPNG(buildTestStore(t))
	if err != nil {
		t.Fatalf("書き出しに失敗しました: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("出力がPNGとしてデコードできません: %v", err)
	}

	// 2倍解像度で書き出される
	bounds := img.Bounds()
	if bounds.Dx() != domain.PageWidth*2 || bounds.Dy() != domain.PageHeight*2 {
		t.Errorf("出力サイズの期待値 %dx%d, 実際の値 %dx%d",
			domain.PageWidth*2, domain.PageHeight*2, bounds.Dx(), bounds.Dy())
	}
}

func TestExportDataURL(t *testing.T) {
	exporter, err := NewExporter()
	if err != nil {
		t.Fatal(err)
	}

	dataURL, err := exporter.ExportDataURL(buildTestStore(t))
	if err != nil {
		t.Fatalf("書き出しに失敗しました: %v", err)
	}
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Errorf("データURLの接頭辞が想定と異なります: %q", dataURL[:30])
	}

	payload := strings.TrimPrefix(dataURL, "data:image/png;base64,")
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		t.Fatalf("base64のデコードに失敗しました: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Errorf("データURLの中身がPNGではありません: %v", err)
	}
}

func TestExportPNG_BrokenPanelImageNamesPanel(t *testing.T) {
	exporter, err := NewExporter()
	if err != nil {
		t.Fatal(err)
	}

	store := canvas.NewStore()
	panel := store.AddPanel(domain.PanelRatios[0])
	store.UpdatePanel(panel.ID, func(p *domain.PanelItem) {
		p.ImageDataURL = "https://img.example/external.png" // データURLではない外部URL
	})

	_, err = exporter.ExportPNG(store)
	if err == nil {
		t.Fatal("壊れた画像でエラーが発生しませんでした")
	}
	if !strings.Contains(err.Error(), panel.ID) {
		t.Errorf("エラーに問題のパネルIDが含まれていません: %v", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	t.Run("有効なデータURLをデコードできること", func(t *testing.T) {
		img, err := decodeDataURL(tinyPNGDataURL(t))
		if err != nil {
			t.Fatalf("デコードに失敗しました: %v", err)
		}
		if img.Bounds().Dx() != 4 {
			t.Errorf("画像サイズが想定と異なります: %v", img.Bounds())
		}
	})

	t.Run("データURL形式以外は拒否されること", func(t *testing.T) {
		if _, err := decodeDataURL("https://img.example/a.png"); err == nil {
			t.Error("外部URLでエラーが発生しませんでした")
		}
	})

	t.Run("壊れたbase64は拒否されること", func(t *testing.T) {
		if _, err := decodeDataURL("data:image/png;base64,@@@@"); err == nil {
			t.Error("壊れたbase64でエラーが発生しませんでした")
		}
	})
}
