package domain

import "fmt"

// Difficulty は契約生成の難易度なのだ。制約（constraints）の数に影響するのだよ。
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty は文字列を Difficulty に変換します。未知の値はエラーです。
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("不明な難易度なのだ: %q (easy / medium / hard のいずれかを指定してほしいのだ)", s)
}

// Tone は契約が指定する作品の雰囲気です。
type Tone string

const (
	ToneWholesome Tone = "wholesome"
	ToneDramatic  Tone = "dramatic"
	ToneComedy    Tone = "comedy"
)

// SelfReview はモデル自身による契約の品質ラベルです。
// well-formed 以外の場合、生成側は再試行の余地があると判断します。
type SelfReview string

const (
	SelfReviewWellFormed  SelfReview = "well-formed"
	SelfReviewBoring      SelfReview = "boring"
	SelfReviewComplicated SelfReview = "complicated"
)

// ContractSource は契約がスタジオのどこから来たかを示します。
type ContractSource string

const (
	SourceBoss   ContractSource = "boss"   // 爆発寸前の編集長による突発の指示
	SourceClient ContractSource = "client" // 外部スポンサーからの依頼
	SourceAuto   ContractSource = "auto"   // 夜間バッチの自動発注
)

// Contract はプレイヤーが受け取る創作上の「契約」（クリエイティブブリーフ）なのだ。
// 一度プレイヤーに選ばれたら不変で、採点時には読み取り専用で参照されるのだ。
type Contract struct {
	Genre         string         `json:"genre"`
	Tone          Tone           `json:"tone"`
	Audience      string         `json:"audience"`
	PanelCount    int            `json:"panelCount"`  // 3..5
	Constraints   []string       `json:"constraints"` // 0..2 個の短い制約
	SelfReview    SelfReview     `json:"selfReview"`
	Source        ContractSource `json:"source"`
	IntroDialogue string         `json:"introDialogue"`
}

// Contracts はモデルから返される契約バッチの外形です。
type Contracts struct {
	Contracts []Contract `json:"contracts"`
}

// IsWellFormed は品質リトライのループが受理してよい契約かを返します。
func (c Contract) IsWellFormed() bool {
	return c.SelfReview == SelfReviewWellFormed
}

// ClampPanelCount はページ上のパネル数を契約の許容範囲 3..5 に丸めるのだ。
// ページに1枚もパネルが無い場合は契約の指定値（それも無ければ3）を使うのだ。
func (c Contract) ClampPanelCount(panelsOnPage int) int {
	n := panelsOnPage
	if n == 0 {
		n = c.PanelCount
	}
	if n < 3 {
		return 3
	}
	if n > 5 {
		return 5
	}
	return n
}
