// Package contract は、LLMを使って創作上の「契約」を生成するのだ。
// 同一難易度への同時リクエストは1回のネットワーク呼び出しに合流し、
// 解決済みの値はセッションの間ずっとキャッシュされるのだ。
package contract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/llm"
)

// maxQualityAttempts は品質リトライの上限なのだ。超えたら最後の候補をそのまま返すのだ。
const maxQualityAttempts = 3

// Generator は契約生成のオーケストレーターです。
// セッションごとに1つ生成し、セッション再開時は ClearCache で破棄します。
type Generator struct {
	caller   llm.Caller
	model    string
	language string
	values   *cache.Cache       // 難易度 → 解決済み契約バッチ
	flight   singleflight.Group // 難易度ごとの in-flight 合流
}

// NewGenerator は Generator を生成します。
func NewGenerator(caller llm.Caller, model, language string) *Generator {
	return &Generator{
		caller:   caller,
		model:    model,
		language: language,
		values:   cache.New(cache.NoExpiration, 0),
	}
}

// GenerateContracts は難易度に応じた契約を3件生成するのだ。
// 値キャッシュ → in-flight 合流 → ネットワーク呼び出しの順で解決し、
// 失敗時は何もキャッシュしないので次の呼び出しが最初からやり直せるのだ。
func (g *Generator) GenerateContracts(ctx context.Context, difficulty domain.Difficulty) ([]domain.Contract, error) {
	key := string(difficulty)

	if v, ok := g.values.Get(key); ok {
		return v.([]domain.Contract), nil
	}

	v, err, shared := g.flight.Do(key, func() (any, error) {
		// 合流待ちの間に解決済みになっている場合がある
		if v, ok := g.values.Get(key); ok {
			return v.([]domain.Contract), nil
		}

		contracts, err := g.fetchBatch(ctx, difficulty)
		if err != nil {
			return nil, err
		}
		g.values.Set(key, contracts, cache.NoExpiration)
		return contracts, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		slog.Debug("契約リクエストを合流させたのだ", "difficulty", difficulty)
	}
	return v.([]domain.Contract), nil
}

// GenerateContract はバッチの先頭の契約を、品質リトライ付きで1件返すのだ。
// selfReview が well-formed なら即採用。そうでなければ新しいバッチを取り直し、
// 上限に達したら最後に見た候補を無条件で返すのだ（無限に待たせないため）。
// JSONが取れない失敗は品質の問題ではないので、リトライせずそのまま返すのだ。
func (g *Generator) GenerateContract(ctx context.Context, difficulty domain.Difficulty) (domain.Contract, error) {
	var last domain.Contract

	for attempt := 1; attempt <= maxQualityAttempts; attempt++ {
		var (
			batch []domain.Contract
			err   error
		)
		if attempt == 1 {
			batch, err = g.GenerateContracts(ctx, difficulty)
		} else {
			// リトライは新鮮なバッチが必要なのでキャッシュを通さない
			batch, err = g.fetchBatch(ctx, difficulty)
			if err == nil {
				g.values.Set(string(difficulty), batch, cache.NoExpiration)
			}
		}
		if err != nil {
			return domain.Contract{}, err
		}

		last = batch[0]
		if last.IsWellFormed() {
			return last, nil
		}

		slog.Info("契約の自己評価が基準に届かなかったのだ",
			"difficulty", difficulty,
			"self_review", last.SelfReview,
			"attempt", attempt)
	}

	slog.Warn("品質リトライの上限に達したので最後の候補を採用するのだ", "difficulty", difficulty)
	return last, nil
}

// ClearCache はセッション再開時にキャッシュを空にします。
func (g *Generator) ClearCache() {
	g.values.Flush()
}

// fetchBatch はLLMを1回呼び、契約バッチをパースして返します。
func (g *Generator) fetchBatch(ctx context.Context, difficulty domain.Difficulty) ([]domain.Contract, error) {
	resp, err := g.caller.Call(ctx, llm.Request{
		Model:        g.model,
		System:       contractSystemPrompt(g.language),
		OutputFormat: contractOutputShape(),
		Input:        fmt.Sprintf("Difficulty: %s", difficulty),
		ExpectJSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("契約生成のLLM呼び出しに失敗したのだ: %w", err)
	}
	if resp.ParseError != "" {
		return nil, fmt.Errorf("契約JSONのパースに失敗したのだ: %s", resp.ParseError)
	}

	var batch domain.Contracts
	if !resp.DecodeJSON(&batch) {
		return nil, fmt.Errorf("契約JSONの構造が期待と一致しないのだ")
	}
	if len(batch.Contracts) == 0 {
		return nil, fmt.Errorf("契約が1件も返ってこなかったのだ")
	}

	return batch.Contracts, nil
}
