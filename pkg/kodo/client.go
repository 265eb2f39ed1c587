// Package kodo は Realmverse Kodo の画像生成ジョブAPI（aigens）のクライアントなのだ。
// text-to-image ジョブを作成し、終端ステータスに達するまでポーリングするのだ。
package kodo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ポーリングの既定値なのだ
const (
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultPollTimeout  = 90 * time.Second

	// maxPollAttempts はタイムアウトとは独立した暴走防止の安全弁なのだ
	maxPollAttempts = 10000
)

// ClientConfig はクライアント生成に必要な接続情報です。
// 認証情報はサーバ側の環境変数からのみ渡され、ブラウザ等のクライアントからは受け取りません。
type ClientConfig struct {
	BaseURL   string
	APIKey    string
	AccountID string
	AppID     string
	Timeout   time.Duration // 個々のHTTPリクエストのタイムアウト
}

// Client は Kodo aigens API のクライアントです。
type Client struct {
	baseURL    string
	apiKey     string
	accountID  string
	appID      string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient は認証情報を検証してクライアントを生成します。
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("KODO_API_KEY が設定されていません。環境変数（.env など）に設定してほしいのだ")
	}
	if cfg.AccountID == "" {
		return nil, fmt.Errorf("KODO_ACCOUNT_ID が設定されていません。環境変数（.env など）に設定してほしいのだ")
	}
	if cfg.AppID == "" {
		cfg.AppID = "kodo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.realmverse.gg"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		accountID:  cfg.AccountID,
		appID:      cfg.AppID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}, nil
}

// GenerateParams は1回の画像生成要求なのだ。
type GenerateParams struct {
	Description  string
	Width        int           // 省略可（0で未指定）
	Height       int           // 省略可（0で未指定）
	PollInterval time.Duration // 既定 1.5秒
	Timeout      time.Duration // 既定 90秒（壁時計基準）
}

// GenerateResult はジョブの最終観測結果です。
// タイムアウトや failed も正常な戻り値として表現され、エラーにはなりません。
type GenerateResult struct {
	AigenID string `json:"aigenId"`
	Status  string `json:"status"`
	URL     string `json:"url,omitempty"`
}

// jobResponse は aigens の作成・取得の両方で返るジョブ表現です。
type jobResponse struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"` // pending | running | completed | failed | canceled | ...
	StatusMessage string      `json:"statusMessage,omitempty"`
	Type          string      `json:"type"`
	Results       []jobResult `json:"results"`
}

type jobResult struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

// GenerateImage は tti-v1 ジョブを作成し、完了・失敗・タイムアウトまで待つのだ。
// 終端ステータス（completed / failed / canceled / cancelled / error）に達するか、
// Timeout を超えたら最後に観測した状態を返すのだ。タイムアウトは例外扱いしないのだ。
func (c *Client) GenerateImage(ctx context.Context, params GenerateParams) (*GenerateResult, error) {
	if params.PollInterval <= 0 {
		params.PollInterval = DefaultPollInterval
	}
	if params.Timeout <= 0 {
		params.Timeout = DefaultPollTimeout
	}
	started := c.now()

	// 1) ジョブ作成
	created, err := c.createJob(ctx, params)
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, fmt.Errorf("Kodoのジョブ作成応答にidが含まれていないのだ")
	}

	// 2) 終端ステータスまでポーリング
	// レートリミッタで間隔を刻むのだ（burst 1 なので初回は即座に取得できる）
	limiter := rate.NewLimiter(rate.Every(params.PollInterval), 1)
	last := created

	for attempt := 0; attempt < maxPollAttempts; attempt++ {
		if c.now().Sub(started) > params.Timeout {
			status := last.Status
			if status == "" {
				status = "timeout"
			}
			return &GenerateResult{AigenID: created.ID, Status: status, URL: firstResultURL(last)}, nil
		}

		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		polled, err := c.getJob(ctx, created.ID)
		if err != nil {
			return nil, err
		}
		last = polled

		if isTerminalStatus(polled.Status) {
			return &GenerateResult{AigenID: created.ID, Status: polled.Status, URL: firstResultURL(polled)}, nil
		}
	}

	return nil, fmt.Errorf("Kodoのポーリング回数が上限を超えたのだ")
}

func (c *Client) createJob(ctx context.Context, params GenerateParams) (*jobResponse, error) {
	genParams := map[string]any{"positive": params.Description}
	if params.Width > 0 {
		genParams["width"] = params.Width
	}
	if params.Height > 0 {
		genParams["height"] = params.Height
	}
	body := map[string]any{
		"type":   "tti-v1",
		"params": genParams,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ジョブ作成ボディの生成に失敗しました: %w", err)
	}

	resp, err := c.roundTrip(ctx, http.MethodPost, c.jobsURL(), data)
	if err != nil {
		return nil, fmt.Errorf("Kodoのジョブ作成に失敗したのだ: %w", err)
	}
	return resp, nil
}

func (c *Client) getJob(ctx context.Context, id string) (*jobResponse, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, c.jobsURL()+"/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("Kodoのポーリングに失敗したのだ: %w", err)
	}
	return resp, nil
}

func (c *Client) jobsURL() string {
	return fmt.Sprintf("%s/app/%s/accounts/%s/aigens",
		c.baseURL, url.PathEscape(c.appID), url.PathEscape(c.accountID))
}

// roundTrip はBearer認証付きでJSONをやり取りし、非2xxは本文込みのエラーにします。
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body []byte) (*jobResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%d %s — %s", resp.StatusCode, resp.Status, safeReadBody(resp.Body))
	}

	var job jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&job); err != nil {
		return nil, fmt.Errorf("応答のデコードに失敗しました: %w", err)
	}
	return &job, nil
}

// isTerminalStatus はジョブが終端に達したかを判定します。大文字小文字は区別しません。
func isTerminalStatus(status string) bool {
	switch strings.ToLower(status) {
	case "completed", "failed", "canceled", "cancelled", "error":
		return true
	}
	return false
}

// firstResultURL は結果リストから最初の空でないURLを返します。
func firstResultURL(job *jobResponse) string {
	if job == nil {
		return ""
	}
	for _, r := range job.Results {
		if r.URL != "" {
			return r.URL
		}
	}
	return ""
}

func safeReadBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "<unreadable body>"
	}
	return string(data)
}
