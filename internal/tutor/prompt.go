package tutor

import (
	_ "embed"
	"strings"
)

//go:embed system_prompt.txt
var defaultSystemInstruction string

// DefaultSystemInstruction returns the built-in physics tutor persona.
func DefaultSystemInstruction() string {
	return strings.TrimSpace(defaultSystemInstruction)
}

// SystemInstruction returns override when it is set, otherwise the built-in
// persona.
func SystemInstruction(override string) string {
	if strings.TrimSpace(override) != "" {
		return override
	}
	return DefaultSystemInstruction()
}

// SuggestedQuestions are shown by front-ends as study prompts.
var SuggestedQuestions = []string{
	"등가속도 운동 공식이 궁금해요?",
	"뉴턴의 운동 법칙을 설명해 주세요.",
	"상대성 이론이란 무엇인가요?",
}
