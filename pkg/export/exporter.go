package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/shouni/go-manga-factory/pkg/canvas"
	"github.com/shouni/go-manga-factory/pkg/domain"
)

// pixelRatio は書き出し解像度の倍率なのだ（表示 600x850 → 出力 1200x1700）。
const pixelRatio = 2

// Exporter はストアの内容をページ画像へ書き出します。
type Exporter struct {
	renderer *Renderer
}

// NewExporter は Exporter を生成します。
func NewExporter() (*Exporter, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Exporter{renderer: renderer}, nil
}

// ExportPNG は現在のキャンバス状態をPNGバイト列へラスタライズするのだ。
// 描画順はページ実装と同じで、パネル → 吹き出し → テキストの重なりなのだ。
func (e *Exporter) ExportPNG(store *canvas.Store) ([]byte, error) {
	dc := gg.NewContext(domain.PageWidth, domain.PageHeight)

	// 白背景
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for _, panel := range store.Panels() {
		if err := e.renderer.drawPanel(dc, panel); err != nil {
			return nil, fmt.Errorf("ページの書き出しに失敗したのだ: %w", err)
		}
	}
	for _, bubble := range store.Bubbles() {
		e.renderer.drawBubble(dc, bubble)
	}
	for _, text := range store.Texts() {
		e.renderer.drawText(dc, text)
	}

	// 品質確保のため2倍解像度へ拡大してからエンコードする
	upscaled := scaleImage(dc.Image(), domain.PageWidth*pixelRatio, domain.PageHeight*pixelRatio)

	var buf bytes.Buffer
	if err := gg.NewContextForImage(upscaled).EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("PNGエンコードに失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportDataURL はページを data:image/png;base64,... 形式で書き出します。
func (e *Exporter) ExportDataURL(store *canvas.Store) (string, error) {
	png, err := e.ExportPNG(store)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// scaleImage は画像を指定サイズへ変倍します。
func scaleImage(src image.Image, width, height int) image.Image {
	if width <= 0 || height <= 0 {
		return src
	}
	bounds := src.Bounds()
	if bounds.Dx() == width && bounds.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}
