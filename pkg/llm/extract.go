package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// jsonBlockRegex はコードフェンス（言語タグ json 付きも可）に包まれた本文を取り出します。
var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ExtractJSON はモデルの自由形式テキストからJSONドキュメントを探し出してパースするのだ。
// フェンス除去 → 最外の波括弧 → テキスト全体、の順で候補を試すのだ。
// パースに失敗しても panic せず、診断に使えるエラーを返すのだ。
func ExtractJSON(text string) (json.RawMessage, error) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil, fmt.Errorf("応答テキストが空です")
	}

	var body string
	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		body = matches[1]
	} else if first, last := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); first != -1 && last > first {
		body = raw[first : last+1]
	} else {
		body = raw
	}

	var parsed json.RawMessage
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, fmt.Errorf("応答に含まれるJSONの解析に失敗しました (応答抜粋: %q): %w", truncateString(raw, 200), err)
	}
	return parsed, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
