package contract

import (
	"fmt"
	"strings"
)

// contractSystemPrompt は契約生成のシステムプロンプトを構築します。
// 文面は難易度ごとの制約数やスタジオの世界観（boss / client / auto）を含みます。
func contractSystemPrompt(language string) string {
	if language == "" {
		language = "English"
	}

	var sb strings.Builder
	sb.WriteString("You are Manga Factory's contract generator. Craft a concise creative contract for a manga artist.\n")
	sb.WriteString("Keep outputs coherent and game-ready. The contract should inspire manga creation.\n")
	sb.WriteString("Every string in the response should be in English and presentable to end users (well formed, starting with capital letter).\n")
	sb.WriteString("Sentences should be well-formed and use proper grammar and punctuation.\n")
	sb.WriteString("Vary tone and audience to keep things fresh. Use clear, engaging language.\n")
	sb.WriteString("Incorporate creative constraints to challenge and inspire the manga artist.\n")
	sb.WriteString("Ensure the panel count is suitable for a short manga (3 to 5 panels).\n")
	sb.WriteString("Content should be appropriate for all audiences even when themed for adults.\n")
	sb.WriteString("Genre should be simple, but composite and interesting.\n")
	sb.WriteString("Audience should be simple and funny.\n")
	sb.WriteString("Include 0 constraint array elements for easy difficulty, 1 for medium, 2 for hard. Constraints should be very succinct and specific simple sentences, but never prohibit dialogue.\n")
	sb.WriteString("Source must indicate where the contract originated in the studio pipeline:\n")
	sb.WriteString("- \"boss\" = explosive studio head issues a sudden brief.\n")
	sb.WriteString("- \"client\" = external sponsor request routed to the team.\n")
	sb.WriteString("- \"auto\" = overnight Auto-Dispatcher batch job.\n")
	sb.WriteString("IntroDialogue must be an in-world dialogue that explains the arrival of the brief, matching the source. Make it satire.\n")
	sb.WriteString("At the end, include a brief self-review of the contract's creativity and clarity.\n")
	sb.WriteString(fmt.Sprintf("All strings should be in %s language and well-formed.", language))

	return sb.String()
}

// contractOutputShape は契約バッチの出力形式の説明文を返します。
func contractOutputShape() string {
	var sb strings.Builder
	sb.WriteString("Return ONLY valid JSON that matches this type with exactly 3 elements (no extra commentary):\n")
	sb.WriteString("{\"contracts\": [{\n")
	sb.WriteString("  \"genre\": string,\n")
	sb.WriteString("  \"tone\": \"wholesome\" | \"dramatic\" | \"comedy\",\n")
	sb.WriteString("  \"audience\": string,\n")
	sb.WriteString("  \"panelCount\": number (integer 3..5),\n")
	sb.WriteString("  \"constraints\": string[] (0..2 items),\n")
	sb.WriteString("  \"selfReview\": \"well-formed\" | \"boring\" | \"complicated\",\n")
	sb.WriteString("  \"source\": \"boss\" | \"client\" | \"auto\",\n")
	sb.WriteString("  \"introDialogue\": string\n")
	sb.WriteString("}]}\n")
	sb.WriteString("Rules: Emit JSON only. Do not wrap in markdown fences. Ensure panelCount is 3, 4, or 5.")

	return sb.String()
}
