// Package grader は、書き出されたページ画像と契約の要約を審査委員会（LLM）に渡し、
// 講評をちょうど3件の固定形へサニタイズして返すのだ。
package grader

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shouni/go-manga-factory/pkg/domain"
	"github.com/shouni/go-manga-factory/pkg/llm"
)

// サニタイズ時の穴埋めに使う固定文字列なのだ
const (
	placeholderJudge = "Mysterious Judge"
	placeholderName  = "Anonymous"
	fillerJudge      = "Judge"
	fillerName       = "Filler"
	fillerReview     = "Beep boop—insufficient data, but charming!"
	fillerScore      = 50
)

// Grader はページ採点のオーケストレーターです。
type Grader struct {
	caller   llm.Caller
	model    string
	language string
}

// NewGrader は Grader を生成します。
func NewGrader(caller llm.Caller, model, language string) *Grader {
	return &Grader{caller: caller, model: model, language: language}
}

// simplifiedContract は採点に関係のないフィールドを落とした契約の縮約ビューです。
type simplifiedContract struct {
	Genre       string   `json:"genre"`
	Tone        string   `json:"tone"`
	Audience    string   `json:"audience"`
	PanelCount  int      `json:"panelCount"`
	Constraints []string `json:"constraints"`
	Intro       string   `json:"intro"`
}

// rawGrade はモデルが返したままの講評1件です。score は数値とは限らないのだ。
type rawGrade struct {
	Judge  string `json:"judge"`
	Name   string `json:"name"`
	Review string `json:"review"`
	Score  any    `json:"score"`
}

type rawGradeResponse struct {
	Grades []rawGrade `json:"grades"`
}

// GradeMangaPage は契約の縮約ビューとページ画像をLLMに渡して採点するのだ。
// JSONが全く取れなかった場合だけエラーで、個々の講評の欠損や壊れたスコアは
// サニタイズで吸収するのだ（壊れた応答にも寛容であるのは意図的な仕様なのだ）。
func (g *Grader) GradeMangaPage(ctx context.Context, contract domain.Contract, imageBase64 string) (domain.GradeResponse, error) {
	simplified := simplifiedContract{
		Genre:       contract.Genre,
		Tone:        string(contract.Tone),
		Audience:    contract.Audience,
		PanelCount:  contract.PanelCount,
		Constraints: contract.Constraints,
		Intro:       contract.IntroDialogue,
	}
	contractJSON, err := json.MarshalIndent(simplified, "", "  ")
	if err != nil {
		return domain.GradeResponse{}, fmt.Errorf("契約の縮約ビューの生成に失敗しました: %w", err)
	}

	input := strings.Join([]string{
		"ORIGINAL CONTRACT:",
		string(contractJSON),
		"\nThe attached image is the submitted manga page. Evaluate it per the rubric. Don't mention the contract details in your reviews. Reviews should be 2-3 sentences each.",
	}, "\n")

	resp, err := g.caller.Call(ctx, llm.Request{
		Model:        g.model,
		System:       gradingSystemPrompt(g.language),
		OutputFormat: gradingOutputShape(),
		Input:        input,
		ImageBase64:  imageBase64,
		ExpectJSON:   true,
	})
	if err != nil {
		return domain.GradeResponse{}, fmt.Errorf("採点のLLM呼び出しに失敗したのだ: %w", err)
	}
	if resp.ParseError != "" {
		return domain.GradeResponse{}, fmt.Errorf("採点JSONのパースに失敗したのだ: %s", resp.ParseError)
	}

	var raw rawGradeResponse
	if !resp.DecodeJSON(&raw) {
		return domain.GradeResponse{}, fmt.Errorf("採点JSONの構造が期待と一致しないのだ")
	}

	return sanitize(raw), nil
}

// sanitize はモデル応答をちょうど3件・スコア0..100の整数に正規化するのだ。
func sanitize(raw rawGradeResponse) domain.GradeResponse {
	grades := raw.Grades
	if len(grades) > domain.JudgeCount {
		grades = grades[:domain.JudgeCount]
	}

	out := domain.GradeResponse{Grades: make([]domain.JudgeGrade, 0, domain.JudgeCount)}
	for _, g := range grades {
		judge := g.Judge
		if judge == "" {
			judge = placeholderJudge
		}
		name := g.Name
		if name == "" {
			name = placeholderName
		}
		out.Grades = append(out.Grades, domain.JudgeGrade{
			Judge:  judge,
			Name:   name,
			Review: g.Review,
			Score:  coerceScore(g.Score),
		})
	}

	for len(out.Grades) < domain.JudgeCount {
		out.Grades = append(out.Grades, domain.JudgeGrade{
			Judge:  fillerJudge,
			Name:   fillerName,
			Review: fillerReview,
			Score:  fillerScore,
		})
	}

	return out
}

// coerceScore は number・"95"・"95%" などを 0..100 の整数へ丸めるのだ。
// 数値に直せない値は0になるのだ。不正値で全体を棄却しないのは製品仕様なのだ。
func coerceScore(v any) int {
	var f float64
	switch value := v.(type) {
	case float64:
		f = value
	case string:
		trimmed := strings.TrimSuffix(strings.TrimSpace(value), "%")
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	score := int(math.Round(f))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
