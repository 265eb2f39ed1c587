package llm

import (
	"context"
	"fmt"

	"github.com/shouni/go-gemini-client/gemini"
	"google.golang.org/genai"
)

const defaultGeminiTemperature = float32(0.7)

// GeminiBackend は go-gemini-client を Caller に適合させるテキスト専用バックエンドなのだ。
// 契約生成のようにテキストだけで完結する用途で使い、画像付きの依頼は受け付けないのだ。
type GeminiBackend struct {
	client       gemini.GenerativeModel
	defaultModel string
}

// NewGeminiBackend は gemini クライアントを初期化してバックエンドを生成します。
func NewGeminiBackend(ctx context.Context, apiKey, defaultModel string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY が設定されていません。Gemini バックエンドの利用には必須なのだ")
	}

	clientConfig := gemini.Config{
		APIKey:      apiKey,
		Temperature: genai.Ptr(defaultGeminiTemperature),
	}
	client, err := gemini.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("AIクライアントの初期化に失敗しました: %w", err)
	}

	return &GeminiBackend{client: client, defaultModel: defaultModel}, nil
}

// Call は合成プロンプトを Gemini に送信します。画像付きリクエストはエラーです。
func (b *GeminiBackend) Call(ctx context.Context, req Request) (*Response, error) {
	if req.ImageBase64 != "" {
		return nil, fmt.Errorf("gemini バックエンドは画像付きリクエストに対応していないのだ")
	}

	model := req.Model
	if model == "" {
		model = b.defaultModel
	}

	resp, err := b.client.GenerateContent(ctx, BuildPrompt(req), model)
	if err != nil {
		return nil, fmt.Errorf("Gemini呼び出しに失敗しました: %w", err)
	}

	return finishResponse(req, resp.Text, model, Usage{}), nil
}
