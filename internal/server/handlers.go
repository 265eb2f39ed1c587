package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/kodo"
	"github.com/shouni/go-manga-factory/pkg/llm"
)

// リクエスト／レスポンスの形はエディタ側と合意済みの契約なのだ。
// ok/error の封筒はすべてのルートで共通なのだ。

type generateImageRequest struct {
	Description    string `json:"description"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	PollIntervalMs int    `json:"pollIntervalMs"`
	TimeoutMs      int    `json:"timeoutMs"`
}

type llmCallRequest struct {
	Purpose     string          `json:"purpose"`
	Difficulty  string          `json:"difficulty"`
	Contract    json.RawMessage `json:"contract"`
	ImageBase64 string          `json:"imageBase64"`

	// 以下は汎用（レガシー）呼び出し用のフィールドです
	Model        string `json:"model"`
	System       string `json:"system"`
	OutputFormat string `json:"outputFormat"`
	Input        string `json:"input"`
	ExpectJSON   bool   `json:"expectJson"`
}

func okEnvelope(result any) fiber.Map {
	return fiber.Map{"ok": true, "result": result}
}

func errEnvelope(message string) fiber.Map {
	return fiber.Map{"ok": false, "error": message}
}

// handleHealth は死活確認です。
func (s *Server) handleHealth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleGenerateImage は画像生成ジョブの作成とポーリングを丸ごと代行するのだ。
// クレデンシャルはサーバー側の設定のものだけを使うのだ。
func (s *Server) handleGenerateImage(c fiber.Ctx) error {
	var req generateImageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("invalid json body"))
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("description is required"))
	}

	params := kodo.GenerateParams{
		Description: req.Description,
		Width:       req.Width,
		Height:      req.Height,
	}
	if req.PollIntervalMs > 0 {
		params.PollInterval = time.Duration(req.PollIntervalMs) * time.Millisecond
	}
	if req.TimeoutMs > 0 {
		params.Timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	result, err := s.deps.Images.GenerateImage(c.Context(), params)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(errEnvelope(err.Error()))
	}

	return c.JSON(okEnvelope(result))
}

// handleLLMCall は目的別ルーティングのLLM呼び出し窓口なのだ。
// 既知の purpose はサーバー埋め込みのプロンプトとモデルで実行し、
// purpose 無しの汎用ボディは互換のためにそのまま通すのだ。
// どちらの経路でもプロバイダの生レスポンスは返さないのだ。
func (s *Server) handleLLMCall(c fiber.Ctx) error {
	var req llmCallRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("invalid json body"))
	}

	switch req.Purpose {
	case "generate_contracts":
		return s.callGenerateContracts(c, req)
	case "grade_page":
		return s.callGradePage(c, req)
	case "":
		return s.callGeneric(c, req)
	default:
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("unknown purpose: " + req.Purpose))
	}
}

func (s *Server) callGenerateContracts(c fiber.Ctx, req llmCallRequest) error {
	difficulty, err := domain.ParseDifficulty(req.Difficulty)
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope(err.Error()))
	}

	contracts, err := s.deps.Contracts.GenerateContracts(c.Context(), difficulty)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(errEnvelope(err.Error()))
	}

	return c.JSON(okEnvelope(fiber.Map{"contracts": contracts}))
}

func (s *Server) callGradePage(c fiber.Ctx, req llmCallRequest) error {
	if len(req.Contract) == 0 {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("contract is required"))
	}
	if req.ImageBase64 == "" {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("imageBase64 is required"))
	}

	var contract domain.Contract
	if err := json.Unmarshal(req.Contract, &contract); err != nil {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("invalid contract json"))
	}

	grades, err := s.deps.Grader.GradeMangaPage(c.Context(), contract, req.ImageBase64)
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(errEnvelope(err.Error()))
	}

	return c.JSON(okEnvelope(grades))
}

// callGeneric は旧エディタ互換の素通し経路です。
func (s *Server) callGeneric(c fiber.Ctx, req llmCallRequest) error {
	if strings.TrimSpace(req.Input) == "" {
		return c.Status(http.StatusBadRequest).JSON(errEnvelope("input is required"))
	}

	resp, err := s.deps.Caller.Call(c.Context(), llm.Request{
		Model:        req.Model,
		System:       req.System,
		OutputFormat: req.OutputFormat,
		Input:        req.Input,
		ImageBase64:  req.ImageBase64,
		ExpectJSON:   req.ExpectJSON,
	})
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(errEnvelope(err.Error()))
	}

	// llm.Response はプロバイダ非依存の形に整形済みで、生レスポンスを含まない
	return c.JSON(okEnvelope(resp))
}
