// Package server は、ブラウザ側のエディタに代わってAPIキーを預かるプロキシなのだ。
// クレデンシャルは起動時の設定からしか読まず、クライアントから受け取った
// キーの類いは一切使わないのだ。
package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"

	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/kodo"
	"github.com/shouni/go-manga-factory/pkg/llm"
)

// ImageGenerator は画像生成ルートが叩くジョブAPIです。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, params kodo.GenerateParams) (*kodo.GenerateResult, error)
}

// ContractGenerator は契約生成ルートの実体です。
type ContractGenerator interface {
	GenerateContracts(ctx context.Context, difficulty domain.Difficulty) ([]domain.Contract, error)
}

// PageGrader はページ採点ルートの実体です。
type PageGrader interface {
	GradeMangaPage(ctx context.Context, contract domain.Contract, imageBase64 string) (domain.GradeResponse, error)
}

// Deps はサーバーが依存する各オーケストレーターの束です。
type Deps struct {
	Images    ImageGenerator
	Contracts ContractGenerator
	Grader    PageGrader
	Caller    llm.Caller
}

// Server はエディタ向けプロキシAPIのHTTPサーバーです。
type Server struct {
	app  *fiber.App
	deps Deps
	port string
}

// New はルーティング済みのサーバーを組み立てます。
func New(deps Deps, port string) *Server {
	app := fiber.New(fiber.Config{
		AppName: "Manga Factory Proxy",
	})

	app.Use(recover.New())
	app.Use(requestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path} | req=${respHeader:X-Request-Id}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	s := &Server{app: app, deps: deps, port: port}

	app.Get("/health", s.handleHealth)
	app.Post("/images/generate", s.handleGenerateImage)
	app.Post("/llm/call", s.handleLLMCall)

	return s
}

// Listen はサーバーを起動してブロックします。
func (s *Server) Listen() error {
	addr := fmt.Sprintf(":%s", s.port)
	slog.Info("プロキシサーバーを起動するのだ", "addr", addr)
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("サーバーの起動に失敗しました: %w", err)
	}
	return nil
}

// Shutdown はサーバーを停止します。
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App はテスト用にfiberアプリを公開します。
func (s *Server) App() *fiber.App {
	return s.app
}

// requestID は各リクエストにUUIDを振って応答ヘッダへ載せます。
func requestID() fiber.Handler {
	return func(c fiber.Ctx) error {
		id := uuid.NewString()
		c.Locals("request_id", id)
		c.Set("X-Request-Id", id)
		return c.Next()
	}
}
