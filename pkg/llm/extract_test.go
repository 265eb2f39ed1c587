package llm

import (
	"strings"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	expected := `{"genre":"noir","panelCount":4}`

	t.Run("コードフェンス付きと裸のJSONが同じ結果になること", func(t *testing.T) {
		variants := []string{
			"```json\n" + expected + "\n```",
			"```\n" + expected + "\n```",
			expected,
			"Here is your contract:\n" + expected + "\nEnjoy!",
		}
		for _, text := range variants {
			raw, err := ExtractJSON(text)
			if err != nil {
				t.Fatalf("抽出に失敗しました (%q): %v", text, err)
			}
			if string(raw) != expected {
				t.Errorf("期待値 %s, 実際の値 %s", expected, string(raw))
			}
		}
	})

	t.Run("JSONが無い場合はエラーになること", func(t *testing.T) {
		_, err := ExtractJSON("sorry, I cannot do that")
		if err == nil {
			t.Error("JSONが無いのにエラーが発生しませんでした")
		}
	})

	t.Run("空の応答はエラーになること", func(t *testing.T) {
		if _, err := ExtractJSON("   "); err == nil {
			t.Error("空の応答でエラーが発生しませんでした")
		}
	})

	t.Run("壊れたJSONのエラーに応答抜粋が含まれること", func(t *testing.T) {
		_, err := ExtractJSON(`{"genre": noir}`)
		if err == nil {
			t.Fatal("壊れたJSONでエラーが発生しませんでした")
		}
		if !strings.Contains(err.Error(), "noir") {
			t.Errorf("エラーに応答抜粋が含まれていません: %v", err)
		}
	})
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(Request{
		System:       "You are a helper.",
		OutputFormat: `{"x": number}`,
		Input:        "do the thing",
	})

	if !strings.Contains(prompt, "OUTPUT EXPECTATIONS:") {
		t.Error("出力期待のヘッダーがありません")
	}
	if !strings.Contains(prompt, "--- INPUT ---") {
		t.Error("入力セクションの区切りがありません")
	}
	if strings.Index(prompt, "OUTPUT EXPECTATIONS:") > strings.Index(prompt, "--- INPUT ---") {
		t.Error("セクションの順序が想定と異なります")
	}

	t.Run("出力期待が無ければセクションごと省かれること", func(t *testing.T) {
		p := BuildPrompt(Request{System: "sys", Input: "in"})
		if strings.Contains(p, "OUTPUT EXPECTATIONS:") {
			t.Error("空の出力期待セクションが混入しています")
		}
	})
}

func TestResponse_DecodeJSON(t *testing.T) {
	resp := finishResponse(Request{ExpectJSON: true}, "```json\n{\"grades\":[]}\n```", "m", Usage{})
	if resp.ParseError != "" {
		t.Fatalf("パースエラーが発生しました: %s", resp.ParseError)
	}

	var out struct {
		Grades []struct{} `json:"grades"`
	}
	if !resp.DecodeJSON(&out) {
		t.Error("抽出済みJSONのデコードに失敗しました")
	}

	t.Run("パース失敗時は生テキストとParseErrorが残ること", func(t *testing.T) {
		bad := finishResponse(Request{ExpectJSON: true}, "not json at all", "m", Usage{})
		if bad.ParseError == "" {
			t.Error("ParseError が設定されていません")
		}
		if bad.Text != "not json at all" {
			t.Error("生テキストが保持されていません")
		}
		if bad.DecodeJSON(&out) {
			t.Error("JSONが無いのにデコードが成功しました")
		}
	})
}
