package grader

import (
	"context"
	"strings"
	"testing"

	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/llm"
)

// fakeCaller は固定の応答テキストを返すスタブバックエンドなのだ。
type fakeCaller struct {
	response string
	lastReq  llm.Request
}

func (f *fakeCaller) Call(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.lastReq = req

	resp := &llm.Response{Text: f.response, Model: "fake-model"}
	if req.ExpectJSON {
		raw, err := llm.ExtractJSON(f.response)
		if err != nil {
			resp.ParseError = err.Error()
		} else {
			resp.JSON = raw
		}
	}
	return resp, nil
}

func testContract() domain.Contract {
	return domain.Contract{
		Genre:         "noir",
		Tone:          domain.ToneDramatic,
		Audience:      "teens",
		PanelCount:    4,
		Constraints:   []string{"rain"},
		SelfReview:    domain.SelfReviewWellFormed,
		Source:        domain.SourceBoss,
		IntroDialogue: "It was a dark night.",
	}
}

func TestGradeMangaPage_SanitizesPartialResponse(t *testing.T) {
	// 1件だけ、しかもスコアが "95%" という文字列で返ってくる壊れ気味の応答
	caller := &fakeCaller{response: `{"grades":[{"review":"Nice linework.","score":"95%"}]}`}
	g := NewGrader(caller, "fake-model", "English")

	result, err := g.GradeMangaPage(context.Background(), testContract(), "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("採点に失敗しました: %v", err)
	}

	if len(result.Grades) != domain.JudgeCount {
		t.Fatalf("講評数の期待値 %d, 実際の値 %d", domain.JudgeCount, len(result.Grades))
	}

	first := result.Grades[0]
	if first.Score != 95 {
		t.Errorf("スコアの期待値 95, 実際の値 %d", first.Score)
	}
	if first.Judge != "Mysterious Judge" || first.Name != "Anonymous" {
		t.Errorf("欠損フィールドが穴埋めされていません: %+v", first)
	}

	for i := 1; i < domain.JudgeCount; i++ {
		filler := result.Grades[i]
		if filler.Judge != "Judge" || filler.Name != "Filler" || filler.Score != 50 {
			t.Errorf("%d 件目がフィラーになっていません: %+v", i+1, filler)
		}
	}
}

func TestGradeMangaPage_TruncatesExtraGrades(t *testing.T) {
	caller := &fakeCaller{response: `{"grades":[
		{"judge":"Fan","name":"A","review":"r","score":80},
		{"judge":"Critic","name":"B","review":"r","score":60},
		{"judge":"Outsider","name":"C","review":"r","score":40},
		{"judge":"Extra","name":"D","review":"r","score":20}
	]}`}
	g := NewGrader(caller, "fake-model", "English")

	result, err := g.GradeMangaPage(context.Background(), testContract(), "AAAA")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Grades) != 3 {
		t.Fatalf("講評数の期待値 3, 実際の値 %d", len(result.Grades))
	}
	if result.Grades[2].Judge != "Outsider" {
		t.Error("先頭3件以外が採用されています")
	}
}

func TestGradeMangaPage_NoJSONIsError(t *testing.T) {
	caller := &fakeCaller{response: "What a lovely manga page!"}
	g := NewGrader(caller, "fake-model", "English")

	if _, err := g.GradeMangaPage(context.Background(), testContract(), "AAAA"); err == nil {
		t.Error("JSONが取れない応答でエラーが発生しませんでした")
	}
}

func TestGradeMangaPage_RequestShape(t *testing.T) {
	caller := &fakeCaller{response: `{"grades":[]}`}
	g := NewGrader(caller, "fake-model", "Japanese")

	if _, err := g.GradeMangaPage(context.Background(), testContract(), "IMAGEDATA"); err != nil {
		t.Fatal(err)
	}

	req := caller.lastReq
	if req.ImageBase64 != "IMAGEDATA" {
		t.Error("ページ画像がリクエストに載っていません")
	}
	if !req.ExpectJSON {
		t.Error("ExpectJSON が指定されていません")
	}
	if !strings.Contains(req.Input, "ORIGINAL CONTRACT:") {
		t.Error("契約の縮約ビューが入力に含まれていません")
	}
	if !strings.Contains(req.Input, "noir") {
		t.Error("契約の内容が入力に含まれていません")
	}
	// 採点に不要なフィールドは落とされている
	if strings.Contains(req.Input, "selfReview") || strings.Contains(req.Input, "well-formed") {
		t.Error("縮約ビューに余計なフィールドが残っています")
	}
	if !strings.Contains(req.System, "Japanese") {
		t.Error("出力言語がシステムプロンプトに反映されていません")
	}
}

func TestCoerceScore(t *testing.T) {
	cases := []struct {
		name     string
		input    any
		expected int
	}{
		{"数値はそのまま丸められること", 87.6, 88},
		{"パーセント付き文字列を解釈できること", "95%", 95},
		{"空白付き文字列を解釈できること", " 42 ", 42},
		{"数値に直せない値は0になること", "excellent", 0},
		{"nilは0になること", nil, 0},
		{"上限100に丸められること", 150.0, 100},
		{"下限0に丸められること", -5.0, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := coerceScore(tc.input); got != tc.expected {
				t.Errorf("期待値 %d, 実際の値 %d", tc.expected, got)
			}
		})
	}
}
