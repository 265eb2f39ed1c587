package domain

import "strings"

// ItemKind はキャンバス上のアイテム種別を示す判別子なのだ。
// 種別ごとの分岐は必ずこの値で行い、IDの文字列接頭辞では判定しないのだ。
type ItemKind string

const (
	KindText   ItemKind = "text"
	KindBubble ItemKind = "bubble"
	KindPanel  ItemKind = "panel"
)

// CanvasItem はキャンバスに置ける全アイテムの共通インターフェースです。
type CanvasItem interface {
	ItemID() string
	Kind() ItemKind
}

// ItemBase は全アイテム共通のトランスフォーム属性です。
type ItemBase struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Rotation float64 `json:"rotation"` // degrees
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
}

// ItemID は ItemBase を埋め込む全アイテムにIDアクセサを提供します。
func (b ItemBase) ItemID() string { return b.ID }

// TextItem はドラッグ可能なテキストなのだ。Width は折り返しとリサイズの基準になるのだ。
type TextItem struct {
	ItemBase
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	Fill       string  `json:"fill"`
	Width      float64 `json:"width"`
}

// Kind は text を返します。
func (TextItem) Kind() ItemKind { return KindText }

// BubbleItem は吹き出し画像のアイテムです。
type BubbleItem struct {
	ItemBase
	Shape  BubbleShape `json:"shape"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
}

// Kind は bubble を返します。
func (BubbleItem) Kind() ItemKind { return KindBubble }

// PanelItem はAI生成画像を載せるコマ（パネル）なのだ。
// 表示サイズ（Width/Height）と生成解像度（GenWidth/GenHeight）は独立していて、
// 生成解像度は必ず PanelRatios の定義済みペアから選ばれるのだ。
type PanelItem struct {
	ItemBase
	Width        float64 `json:"width"`  // キャンバス上の表示幅
	Height       float64 `json:"height"` // キャンバス上の表示高さ
	GenWidth     int     `json:"genWidth"`
	GenHeight    int     `json:"genHeight"`
	Prompt       string  `json:"prompt"`
	ImageDataURL string  `json:"imageDataUrl,omitempty"` // 生成完了までは空
	Generating   bool    `json:"isGenerating"`
	Error        string  `json:"error,omitempty"`
}

// Kind は panel を返します。
func (PanelItem) Kind() ItemKind { return KindPanel }

// HasPrompt はトリム後のプロンプトが空でないかを返します。
func (p PanelItem) HasPrompt() bool {
	return strings.TrimSpace(p.Prompt) != ""
}
