package domain

// JudgeGrade は審査員1名分の講評とスコアです。
type JudgeGrade struct {
	Judge  string `json:"judge"`
	Name   string `json:"name"`
	Review string `json:"review"`
	Score  int    `json:"score"` // 0..100 の整数
}

// GradeResponse は採点結果の集合なのだ。
// サニタイズ後は必ずちょうど3件になり、以後一切変更されないのだ。
type GradeResponse struct {
	Grades []JudgeGrade `json:"grades"`
}

// JudgeCount はサニタイズ後の審査員数の固定値です。
const JudgeCount = 3
