package domain

// ページの寸法（日本のB5判にほぼ等しい 7:10 比率）なのだ。
const (
	PageWidth  = 600
	PageHeight = 850
)

// PanelRatio はコマのアスペクト比1種類分の定義です。
// 表示サイズはキャンバス上の初期サイズ、生成サイズは画像生成APIへ渡す解像度で、
// 生成サイズは常に64の倍数です。
type PanelRatio struct {
	Name          string
	DisplayWidth  float64
	DisplayHeight float64
	GenWidth      int
	GenHeight     int
}

// PanelRatios はコマに許される7種類のアスペクト比の固定パレットなのだ。
// パネルの生成解像度はこの表以外の値を取らないのだ。
var PanelRatios = []PanelRatio{
	{Name: "1:1", DisplayWidth: 200, DisplayHeight: 200, GenWidth: 1024, GenHeight: 1024},
	{Name: "16:9", DisplayWidth: 240, DisplayHeight: 135, GenWidth: 1024, GenHeight: 576},
	{Name: "9:16", DisplayWidth: 135, DisplayHeight: 240, GenWidth: 576, GenHeight: 1024},
	{Name: "2:3", DisplayWidth: 160, DisplayHeight: 240, GenWidth: 768, GenHeight: 1152},
	{Name: "3:2", DisplayWidth: 240, DisplayHeight: 160, GenWidth: 1152, GenHeight: 768},
	{Name: "4:5", DisplayWidth: 160, DisplayHeight: 200, GenWidth: 1024, GenHeight: 1280},
	{Name: "5:4", DisplayWidth: 200, DisplayHeight: 160, GenWidth: 1280, GenHeight: 1024},
}

// RatioByName は名前でアスペクト比定義を探します。
func RatioByName(name string) (PanelRatio, bool) {
	for _, r := range PanelRatios {
		if r.Name == name {
			return r, true
		}
	}
	return PanelRatio{}, false
}

// IsValidGenSize は生成解像度がパレットに含まれるペアかを判定するのだ。
func IsValidGenSize(width, height int) bool {
	for _, r := range PanelRatios {
		if r.GenWidth == width && r.GenHeight == height {
			return true
		}
	}
	return false
}

// BubbleShape は吹き出しの形状アセット1種類分の定義です。
type BubbleShape struct {
	Name      string `json:"name"`
	AssetPath string `json:"assetPath"`
	Width     float64
	Height    float64
}

// BubbleShapes はツールバーから選べる吹き出し形状の固定セットです。
var BubbleShapes = []BubbleShape{
	{Name: "Small", AssetPath: "speech-bubbles/speech-small.svg", Width: 150, Height: 100},
	{Name: "Wide", AssetPath: "speech-bubbles/speech-wide.svg", Width: 200, Height: 100},
	{Name: "Tall", AssetPath: "speech-bubbles/speech-tall.svg", Width: 120, Height: 180},
	{Name: "Thought", AssetPath: "speech-bubbles/thought-speech.svg", Width: 150, Height: 150},
	{Name: "Tail", AssetPath: "speech-bubbles/speech-tail.svg", Width: 140, Height: 120},
	{Name: "Thought Tail", AssetPath: "speech-bubbles/thought-tail.svg", Width: 140, Height: 140},
}
