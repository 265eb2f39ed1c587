package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient は OpenAI 互換の chat completions API を呼ぶバックエンドなのだ。
// 認証情報はコンストラクタで一度だけ検証し、以後リクエストごとの確認はしないのだ。
type OpenAIClient struct {
	baseURL      string
	apiKey       string
	defaultModel string
	httpClient   *http.Client
}

// NewOpenAIClient はAPIキーを検証してクライアントを生成します。
// キーが無い場合は即座に明確なエラーで失敗します。
func NewOpenAIClient(baseURL, apiKey, defaultModel string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY が設定されていません。環境変数（.env など）に設定してほしいのだ")
	}
	if baseURL == "" {
		return nil, fmt.Errorf("LLMのベースURLが空です")
	}

	return &OpenAIClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiKey:       apiKey,
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

// chatMessage は chat completions のメッセージ1件です。
// Content は文字列、またはマルチモーダル時はパートの配列になります。
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Call は合成プロンプト（＋必要なら画像）を1リクエストとして送信するのだ。
func (c *OpenAIClient) Call(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	prompt := BuildPrompt(req)

	var content any = prompt
	if img := strings.TrimSpace(req.ImageBase64); img != "" {
		// 生のbase64とデータURLの両方を受け付ける
		if !strings.HasPrefix(img, "data:") {
			img = "data:image/png;base64," + img
		}
		content = []contentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &imageURL{URL: img}},
		}
	}

	body := map[string]any{
		"model":    model,
		"messages": []chatMessage{{Role: "user", Content: content}},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("リクエストの生成に失敗しました: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("LLMへのリクエストに失敗しました: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("LLM応答の読み取りに失敗しました: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("LLM API error %d: %s", httpResp.StatusCode, truncateString(string(respBody), 500))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("LLM応答のデコードに失敗しました: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("LLMの応答が空でした")
	}

	usedModel := parsed.Model
	if usedModel == "" {
		usedModel = model
	}

	return finishResponse(req, parsed.Choices[0].Message.Content, usedModel, Usage{
		InputTokens:  parsed.Usage.PromptTokens,
		OutputTokens: parsed.Usage.CompletionTokens,
		TotalTokens:  parsed.Usage.TotalTokens,
	}), nil
}
