package usecases

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
)

const answerSchema = `{
  "primary_code": "CODE",
  "confidence": 0.0,
  "reason": "short",
  "alternatives": [{"code":"CODE","why":"short"}]
}`

// BuildPrompt renders the coding prompt. Output depends only on its inputs.
func BuildPrompt(note string, candidates []entities.Candidate) string {
	var sb strings.Builder
	sb.WriteString("You are a medical coding assistant.\n")
	sb.WriteString("Using ONLY the ICD-10 candidates below, select the most appropriate ICD-10 code(s).\n")
	sb.WriteString("Do NOT invent codes outside the list.\n\n")

	sb.WriteString("Doctor note:\n")
	sb.WriteString(note)
	sb.WriteString("\n\n")

	sb.WriteString("ICD-10 candidates:\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d) %s — %s\n", i+1, c.Code, c.Title)
	}
	sb.WriteString("\n")

	sb.WriteString("Return STRICT JSON (no extra text):\n")
	sb.WriteString(answerSchema)
	sb.WriteString("\n")
	sb.WriteString("If uncertain, still pick best match but use low confidence.")
	return sb.String()
}
