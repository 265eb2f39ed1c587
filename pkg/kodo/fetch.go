package kodo

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DataURLFetcher は生成結果のURLから画像本体を取得し、自己完結した
// データURLへ変換するのだ。外部URLのままページに埋め込むと書き出し時に
// 汚染（クロスオリジン）の問題を起こすため、必ずバイト列ごと取り込むのだ。
type DataURLFetcher struct {
	httpClient *http.Client
}

// NewDataURLFetcher はフェッチャーを生成します。
func NewDataURLFetcher(timeout time.Duration) *DataURLFetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &DataURLFetcher{httpClient: &http.Client{Timeout: timeout}}
}

// FetchBytes は画像本体とMIMEタイプを取得します。
func (f *DataURLFetcher) FetchBytes(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("画像リクエストの生成に失敗しました: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("生成画像の取得に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("生成画像の取得に失敗しました (%d)", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("生成画像の読み取りに失敗しました: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	return data, mimeType, nil
}

// FetchDataURL は画像を取得して data:<mime>;base64,... 形式で返します。
func (f *DataURLFetcher) FetchDataURL(ctx context.Context, imageURL string) (string, error) {
	data, mimeType, err := f.FetchBytes(ctx, imageURL)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data)), nil
}
