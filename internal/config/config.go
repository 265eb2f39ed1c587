package config

import (
	"time"

	"github.com/shouni/go-utils/envutil"
)

// デフォルト値の定義なのだ
const (
	DefaultLLMModel       = "gpt-5-mini"
	DefaultLLMBaseURL     = "https://api.openai.com"
	DefaultGeminiModel    = "gemini-3-flash-preview"
	DefaultKodoBaseURL    = "https://api.realmverse.gg"
	DefaultKodoAppID      = "kodo"
	DefaultHTTPTimeout    = 30 * time.Second
	DefaultPollInterval   = 1500 * time.Millisecond // Kodoジョブのポーリング間隔
	DefaultPollTimeout    = 90 * time.Second        // Kodoジョブ全体の待機上限
	DefaultPanelTimeout   = 180 * time.Second       // パネル1枚の生成に許す上限
	DefaultOutputLanguage = "English"
	DefaultServerPort     = "3000"
	DefaultPageFile       = "output/manga_page.png"
	DefaultImageDir       = "output/images"
)

// Config はアプリケーション全体の環境設定（APIキーや接続先）を保持する構造体なのだ。
type Config struct {
	// --- LLM (OpenAI互換) ---
	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	// --- Gemini (テキスト専用バックエンド) ---
	GeminiAPIKey string
	GeminiModel  string

	// --- Kodo 画像生成ジョブAPI ---
	KodoAPIKey    string
	KodoAccountID string
	KodoAppID     string
	KodoBaseURL   string

	// --- 出力設定 ---
	OutputLanguage string
	ServerPort     string

	Options GenerateOptions
}

// LoadConfig は環境変数から設定を読み込み、構造体を返すのだ！
func LoadConfig() *Config {
	return &Config{
		LLMAPIKey:      envutil.GetEnv("OPENAI_API_KEY", ""),
		LLMBaseURL:     envutil.GetEnv("OPENAI_BASE_URL", DefaultLLMBaseURL),
		LLMModel:       envutil.GetEnv("LLM_MODEL", DefaultLLMModel),
		GeminiAPIKey:   envutil.GetEnv("GEMINI_API_KEY", ""),
		GeminiModel:    envutil.GetEnv("GEMINI_MODEL", DefaultGeminiModel),
		KodoAPIKey:     envutil.GetEnv("KODO_API_KEY", ""),
		KodoAccountID:  envutil.GetEnv("KODO_ACCOUNT_ID", ""),
		KodoAppID:      envutil.GetEnv("KODO_APP_ID", DefaultKodoAppID),
		KodoBaseURL:    envutil.GetEnv("KODO_BASE_URL", DefaultKodoBaseURL),
		OutputLanguage: envutil.GetEnv("OUTPUT_LANGUAGE", DefaultOutputLanguage),
		ServerPort:     envutil.GetEnv("PORT", DefaultServerPort),
	}
}

// GenerateOptions は CLI フラグから渡される実行時のパラメータなのだ。
type GenerateOptions struct {
	// 契約生成関連
	Difficulty string // --difficulty
	Prompt     string // --prompt: panel コマンドで使う画像生成の指示文

	// 出力関連
	OutputFile     string // --output-file
	OutputImageDir string // --output-image-dir

	// AI挙動設定
	Model      string // --model: テキスト生成用のモデル
	LLMBackend string // --backend: openai または gemini

	// 実行制御
	HTTPTimeout  time.Duration // --http-timeout
	PollInterval time.Duration // --poll-interval
	PollTimeout  time.Duration // --poll-timeout

	// パネル画像の解像度指定（64の倍数のみ許可）
	GenWidth  int // --gen-width
	GenHeight int // --gen-height
}
