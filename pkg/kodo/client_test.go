package kodo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(ClientConfig{
		BaseURL:   baseURL,
		APIKey:    "test-key",
		AccountID: "acc-1",
	})
	if err != nil {
		t.Fatalf("クライアント生成に失敗しました: %v", err)
	}
	return c
}

func TestNewClient_Validation(t *testing.T) {
	if _, err := NewClient(ClientConfig{AccountID: "acc"}); err == nil {
		t.Error("APIキー無しでエラーが発生しませんでした")
	}
	if _, err := NewClient(ClientConfig{APIKey: "key"}); err == nil {
		t.Error("アカウントID無しでエラーが発生しませんでした")
	}

	c, err := NewClient(ClientConfig{APIKey: "key", AccountID: "acc"})
	if err != nil {
		t.Fatalf("有効な設定でエラーが発生しました: %v", err)
	}
	if c.appID != "kodo" {
		t.Errorf("AppIDの既定値の期待値 kodo, 実際の値 %s", c.appID)
	}
}

func TestGenerateImage_HappyPath(t *testing.T) {
	var polls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("認証ヘッダーの期待値 'Bearer test-key', 実際の値 %q", got)
		}

		switch {
		case r.Method == http.MethodPost:
			if !strings.HasSuffix(r.URL.Path, "/app/kodo/accounts/acc-1/aigens") {
				t.Errorf("ジョブ作成パスが想定と異なります: %s", r.URL.Path)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Fatalf("作成ボディのデコードに失敗しました: %v", err)
			}
			if body["type"] != "tti-v1" {
				t.Errorf("ジョブタイプの期待値 tti-v1, 実際の値 %v", body["type"])
			}
			params := body["params"].(map[string]any)
			if params["positive"] != "a cat" {
				t.Errorf("指示文が渡っていません: %v", params["positive"])
			}
			if params["width"] != float64(1024) {
				t.Errorf("幅が渡っていません: %v", params["width"])
			}
			fmt.Fprint(w, `{"id":"job-1","status":"pending"}`)

		case r.Method == http.MethodGet:
			polls++
			if polls < 2 {
				fmt.Fprint(w, `{"id":"job-1","status":"running"}`)
				return
			}
			fmt.Fprint(w, `{"id":"job-1","status":"completed","results":[{"type":"image","url":"https://img.example/1.png"}]}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	result, err := c.GenerateImage(context.Background(), GenerateParams{
		Description:  "a cat",
		Width:        1024,
		Height:       576,
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("生成に失敗しました: %v", err)
	}

	if result.AigenID != "job-1" {
		t.Errorf("ジョブIDの期待値 job-1, 実際の値 %s", result.AigenID)
	}
	if result.Status != "completed" {
		t.Errorf("ステータスの期待値 completed, 実際の値 %s", result.Status)
	}
	if result.URL != "https://img.example/1.png" {
		t.Errorf("URLが一致しません: %s", result.URL)
	}
}

func TestGenerateImage_CreateErrorEmbedsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"bad token"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.GenerateImage(context.Background(), GenerateParams{Description: "a cat"})
	if err == nil {
		t.Fatal("非2xxでエラーが発生しませんでした")
	}
	if !strings.Contains(err.Error(), "bad token") {
		t.Errorf("エラーに応答本文が含まれていません: %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("エラーにステータスコードが含まれていません: %v", err)
	}
}

func TestGenerateImage_TimeoutReturnsLastStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"id":"job-slow","status":"pending"}`)
			return
		}
		fmt.Fprint(w, `{"id":"job-slow","status":"running"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)

	// 疑似時計なのだ。呼ばれるたびに60秒進むので、2回目のループ先頭で
	// 90秒の壁時計タイムアウトを必ず超えるのだ
	var tick int
	base := time.Now()
	c.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick-1) * 60 * time.Second)
	}

	result, err := c.GenerateImage(context.Background(), GenerateParams{
		Description:  "a cat",
		PollInterval: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("タイムアウトがエラー扱いになりました: %v", err)
	}
	if result.Status != "running" {
		t.Errorf("最後に観測したステータスの期待値 running, 実際の値 %s", result.Status)
	}
	if result.URL != "" {
		t.Errorf("URLは空であるべきです: %s", result.URL)
	}
}

func TestGenerateImage_MissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"pending"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.GenerateImage(context.Background(), GenerateParams{Description: "a cat"}); err == nil {
		t.Error("id無しの作成応答でエラーが発生しませんでした")
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, s := range []string{"completed", "FAILED", "Canceled", "cancelled", "error"} {
		if !isTerminalStatus(s) {
			t.Errorf("%q が終端と判定されませんでした", s)
		}
	}
	for _, s := range []string{"pending", "running", ""} {
		if isTerminalStatus(s) {
			t.Errorf("%q が終端と判定されました", s)
		}
	}
}

func TestFirstResultURL(t *testing.T) {
	job := &jobResponse{Results: []jobResult{
		{Type: "meta", URL: ""},
		{Type: "image", URL: "https://img.example/a.png"},
		{Type: "image", URL: "https://img.example/b.png"},
	}}
	if got := firstResultURL(job); got != "https://img.example/a.png" {
		t.Errorf("最初の空でないURLが返っていません: %s", got)
	}
	if firstResultURL(nil) != "" {
		t.Error("nil で空文字列が返っていません")
	}
}
