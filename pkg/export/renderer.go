// Package export は、ストア上のキャンバス状態を1枚のPNGに描き起こすのだ。
// 採点に送るための成果物なので、ピクセル単位の再現よりも
// 「全アイテムが正しい位置・変形で載っていること」を優先するのだ。
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	// データURLに入り得る画像形式のデコーダを登録する
	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/shouni/go-manga-factory/pkg/domain"
)

// Renderer はフォントを使い回すためのステートフルな描画器です。
type Renderer struct {
	ttf *truetype.Font
}

// NewRenderer はフォントをパースして描画器を生成します。
func NewRenderer() (*Renderer, error) {
	ttf, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("フォントのパースに失敗しました: %w", err)
	}
	return &Renderer{ttf: ttf}, nil
}

// face は指定サイズのフォントフェイスを返します。
func (r *Renderer) face(size float64) font.Face {
	if size <= 0 {
		size = 14
	}
	return truetype.NewFace(r.ttf, &truetype.Options{Size: size})
}

// drawPanel はパネル1枚を描くのだ。画像があれば表示サイズに合わせて貼り、
// 無ければ枠と状態テキスト（生成中/エラー/未入力）を描くのだ。
func (r *Renderer) drawPanel(dc *gg.Context, item domain.PanelItem) error {
	dc.Push()
	defer dc.Pop()
	applyTransform(dc, item.ItemBase)

	hasImage := item.ImageDataURL != ""

	// 背景と枠
	if hasImage {
		dc.SetHexColor("#ffffff")
	} else {
		dc.SetHexColor("#f0f0f0")
	}
	dc.DrawRectangle(0, 0, item.Width, item.Height)
	dc.FillPreserve()
	dc.SetHexColor("#000000")
	dc.SetLineWidth(4)
	dc.Stroke()

	if hasImage {
		img, err := decodeDataURL(item.ImageDataURL)
		if err != nil {
			return fmt.Errorf("パネル %s の画像をデコードできなかったのだ。外部URLのままの画像が混じっていないか確認してほしいのだ: %w", item.ID, err)
		}
		dc.DrawImage(scaleImage(img, int(item.Width), int(item.Height)), 0, 0)
		return nil
	}

	// プレースホルダーの状態表示
	label := "Click to add prompt"
	color := "#999999"
	switch {
	case item.Generating:
		label = "Generating..."
	case item.Error != "":
		label = "Error"
		color = "#ef4444"
	}
	dc.SetHexColor(color)
	dc.SetFontFace(r.face(14))
	dc.DrawStringWrapped(label, item.Width/2, item.Height/2, 0.5, 0.5, item.Width, 1.2, gg.AlignCenter)

	return nil
}

// drawBubble は吹き出しを白地＋黒縁のベクタ図形で近似して描きます。
// 思考系の形状は楕円、それ以外は角丸矩形です。
func (r *Renderer) drawBubble(dc *gg.Context, item domain.BubbleItem) {
	dc.Push()
	defer dc.Pop()
	applyTransform(dc, item.ItemBase)

	if strings.Contains(strings.ToLower(item.Shape.Name), "thought") {
		dc.DrawEllipse(item.Width/2, item.Height/2, item.Width/2, item.Height/2)
	} else {
		dc.DrawRoundedRectangle(0, 0, item.Width, item.Height, item.Height/4)
	}
	dc.SetHexColor("#ffffff")
	dc.FillPreserve()
	dc.SetHexColor("#000000")
	dc.SetLineWidth(3)
	dc.Stroke()
}

// drawText はテキストを折り返し付きで描くのだ。
// 回転は位置にのみ効き、グリフ自体は水平のまま描かれる近似なのだ。
func (r *Renderer) drawText(dc *gg.Context, item domain.TextItem) {
	dc.Push()
	defer dc.Pop()

	dc.SetHexColor(item.Fill)
	dc.SetFontFace(r.face(item.FontSize))
	dc.DrawStringWrapped(item.Text, item.X, item.Y, 0, 0, item.Width, 1.3, gg.AlignLeft)
}

// applyTransform はアイテム共通の移動・回転・拡縮を現在の行列へ適用します。
func applyTransform(dc *gg.Context, base domain.ItemBase) {
	dc.Translate(base.X, base.Y)
	if base.Rotation != 0 {
		dc.Rotate(gg.Radians(base.Rotation))
	}
	sx, sy := base.ScaleX, base.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	dc.Scale(sx, sy)
}

// decodeDataURL は data:<mime>;base64,... を画像へデコードします。
func decodeDataURL(dataURL string) (image.Image, error) {
	_, payload, found := strings.Cut(dataURL, ";base64,")
	if !found || !strings.HasPrefix(dataURL, "data:") {
		return nil, fmt.Errorf("データURL形式ではありません")
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("base64のデコードに失敗しました: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("画像のデコードに失敗しました: %w", err)
	}
	return img, nil
}
