// Package llm は、システムプロンプトと出力期待を1つのプロンプトに合成して
// モデルへ送り、応答テキストからJSONを抽出するリクエストパイプラインなのだ。
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Request はモデル呼び出し1回分のパラメータです。
type Request struct {
	Model        string // 空ならバックエンドの既定モデル
	System       string // アプリが書く中核のシステムプロンプト
	OutputFormat string // 期待する出力形式の説明（スキーマ風の文章）
	Input        string // ユーザー入力・タスク本体
	ImageBase64  string // 省略可。PNG/JPEG の base64（データURLも可）
	ExpectJSON   bool   // true なら応答からJSON抽出を試みる
}

// Usage はトークン消費量です。バックエンドが返さない場合はゼロ値のままです。
type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	TotalTokens  int `json:"totalTokens,omitempty"`
}

// Response はモデル呼び出しの結果なのだ。
// ExpectJSON のときでも、JSONが壊れていたらエラーにはせず ParseError に
// 理由を入れて生テキストごと返すのだ。致命かどうかは呼び出し側が決めるのだよ。
type Response struct {
	Text       string          `json:"text"`
	Model      string          `json:"model"`
	JSON       json.RawMessage `json:"json,omitempty"`
	ParseError string          `json:"parseError,omitempty"`
	Usage      Usage           `json:"usage"`
}

// DecodeJSON は抽出済みJSONを任意の型へデコードします。
// JSONが得られていない場合は false を返します。
func (r *Response) DecodeJSON(v any) bool {
	if len(r.JSON) == 0 {
		return false
	}
	return json.Unmarshal(r.JSON, v) == nil
}

// Caller はLLMバックエンドの共通インターフェースです。
type Caller interface {
	Call(ctx context.Context, req Request) (*Response, error)
}

// BuildPrompt は system・出力期待・input を1本の合成プロンプトに組み立てるのだ。
func BuildPrompt(req Request) string {
	var sb strings.Builder

	sb.WriteString(strings.TrimSpace(req.System))
	if req.OutputFormat != "" {
		sb.WriteString("\n---\n")
		sb.WriteString("OUTPUT EXPECTATIONS:\n")
		sb.WriteString("ONLY output everything that is requested below. No extra commentary:\n\n")
		sb.WriteString(strings.TrimSpace(req.OutputFormat))
	}
	sb.WriteString("\n\n--- INPUT ---\n")
	sb.WriteString(strings.TrimSpace(req.Input))

	return sb.String()
}

// finishResponse は ExpectJSON の指定に従ってJSON抽出を済ませた Response を返します。
func finishResponse(req Request, text, model string, usage Usage) *Response {
	resp := &Response{Text: text, Model: model, Usage: usage}
	if !req.ExpectJSON {
		return resp
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		resp.ParseError = err.Error()
		return resp
	}
	resp.JSON = raw
	return resp
}
