package usecases

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/0xcro3dile/icdrag-go/internal/domain/entities"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// ParseModelAnswer decodes the model output and checks it against the candidate set.
// Reasoning blocks and code fences around the JSON object are tolerated.
func ParseModelAnswer(raw string, candidates []entities.Candidate) (*entities.ModelAnswer, error) {
	body, ok := extractJSONObject(raw)
	if !ok {
		return nil, &AnswerError{Reason: "no JSON object in response", Raw: raw}
	}

	var answer entities.ModelAnswer
	if err := json.Unmarshal([]byte(body), &answer); err != nil {
		return nil, &AnswerError{Reason: fmt.Sprintf("decoding JSON: %v", err), Raw: raw}
	}

	allowed := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		allowed[c.Code] = struct{}{}
	}

	answer.PrimaryCode = strings.TrimSpace(answer.PrimaryCode)
	if answer.PrimaryCode == "" {
		return nil, &AnswerError{Reason: "primary_code is empty", Raw: raw}
	}
	if _, ok := allowed[answer.PrimaryCode]; !ok {
		return nil, &AnswerError{Reason: fmt.Sprintf("primary_code %q is not a candidate", answer.PrimaryCode), Raw: raw}
	}
	if answer.Confidence < 0 || answer.Confidence > 1 {
		return nil, &AnswerError{Reason: fmt.Sprintf("confidence %v outside [0, 1]", answer.Confidence), Raw: raw}
	}
	for i := range answer.Alternatives {
		code := strings.TrimSpace(answer.Alternatives[i].Code)
		if _, ok := allowed[code]; !ok {
			return nil, &AnswerError{Reason: fmt.Sprintf("alternative %q is not a candidate", code), Raw: raw}
		}
		answer.Alternatives[i].Code = code
	}
	if answer.Alternatives == nil {
		answer.Alternatives = []entities.Alternative{}
	}
	return &answer, nil
}

// extractJSONObject returns the first balanced {...} in s, skipping <think> blocks.
func extractJSONObject(s string) (string, bool) {
	s = thinkBlock.ReplaceAllString(s, "")
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
