package llm

import (
	"errors"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/comigor/tutor-go/internal/config"
)

// Status is the structured part of a provider error.
type Status struct {
	Provider string // config.ProviderGemini or config.ProviderOpenAI
	Code     int    // HTTP status code
	Status   string // provider status, e.g. RESOURCE_EXHAUSTED or invalid_api_key
}

// ProviderStatus extracts the structured status from an SDK error. ok is
// false when err carries no provider error.
func ProviderStatus(err error) (st Status, ok bool) {
	var gv genai.APIError
	if errors.As(err, &gv) {
		return Status{Provider: config.ProviderGemini, Code: gv.Code, Status: gv.Status}, true
	}
	var gp *genai.APIError
	if errors.As(err, &gp) && gp != nil {
		return Status{Provider: config.ProviderGemini, Code: gp.Code, Status: gp.Status}, true
	}
	var oa *openai.APIError
	if errors.As(err, &oa) && oa != nil {
		s, _ := oa.Code.(string)
		return Status{Provider: config.ProviderOpenAI, Code: oa.HTTPStatusCode, Status: s}, true
	}
	var re *openai.RequestError
	if errors.As(err, &re) && re != nil {
		return Status{Provider: config.ProviderOpenAI, Code: re.HTTPStatusCode, Status: re.HTTPStatus}, true
	}
	return Status{}, false
}
