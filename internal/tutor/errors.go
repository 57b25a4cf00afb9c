package tutor

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/comigor/tutor-go/internal/config"
	"github.com/comigor/tutor-go/internal/llm"
)

var (
	ErrMissingCredential  = errors.New("missing API key")
	ErrEmptyPrompt        = errors.New("empty prompt")
	ErrExchangeInProgress = errors.New("an exchange is already in progress")
	ErrSessionNotFound    = errors.New("session not found")

	// Kind markers attached to classified exchange failures.
	ErrRateLimited       = errors.New("rate limited")
	ErrInvalidCredential = errors.New("invalid API key")
	ErrExchangeFailed    = errors.New("exchange failed")
)

// Kind is the display variant of a failure.
type Kind int

const (
	KindPrecondition Kind = iota
	KindRateLimit
	KindInvalidCredential
	KindUnknown
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindRateLimit:
		return "rate_limit"
	case KindInvalidCredential:
		return "invalid_credential"
	default:
		return "unknown"
	}
}

// User-facing messages.
const (
	MsgMissingCredential = "먼저 Gemini API Key를 입력해주세요."
	MsgEmptyPrompt       = "질문을 입력해 주세요."
	MsgRateLimit         = "API 호출 한도(Rate Limit)를 초과했습니다. 잠시 후(약 1분 뒤) 다시 시도해 주세요."
	NoteRateLimit        = "Google AI Studio의 무료 티어는 분당 호출 제한이 있습니다."
	MsgInvalidCredential = "API 키가 올바른지 확인해 주세요."
	msgUnknownFormat     = "오류가 발생했습니다: %s"
)

// Markers looked for in provider error messages.
const (
	markerTooManyRequests   = "429"
	markerResourceExhausted = "RESOURCE_EXHAUSTED"
	markerAPIKeyInvalid     = "API_KEY_INVALID"
	openAIInvalidKeyCode    = "invalid_api_key"
)

// Failure is a classified failure ready for display. Error returns the raw
// cause; Message and Note are what the student sees.
type Failure struct {
	Kind    Kind
	Message string
	Note    string
	Detail  string
	err     error
}

func (f *Failure) Error() string { return f.err.Error() }

func (f *Failure) Unwrap() error { return f.err }

func newFailure(kind Kind, marker, cause error, message, note string) *Failure {
	err := errors.Mark(cause, marker)
	if note != "" {
		err = errors.WithHint(err, note)
	}
	return &Failure{
		Kind:    kind,
		Message: message,
		Note:    note,
		Detail:  cause.Error(),
		err:     err,
	}
}

func preconditionFailure(cause error) *Failure {
	msg := MsgMissingCredential
	if errors.Is(cause, ErrEmptyPrompt) {
		msg = MsgEmptyPrompt
	}
	return &Failure{
		Kind:    KindPrecondition,
		Message: msg,
		Detail:  cause.Error(),
		err:     cause,
	}
}

// Classify maps an exchange failure to its display variant. Rate limiting
// wins over a bad key; anything unrecognised is reported with its raw text.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	msg := err.Error()
	st, _ := llm.ProviderStatus(err)
	// Gemini reports a bad key only through API_KEY_INVALID; a bare 401 there
	// is shown raw. OpenAI-compatible services signal it with 401 or
	// invalid_api_key.
	openAI := st.Provider == config.ProviderOpenAI

	switch {
	case strings.Contains(msg, markerTooManyRequests),
		strings.Contains(msg, markerResourceExhausted),
		st.Code == http.StatusTooManyRequests,
		st.Status == markerResourceExhausted:
		return newFailure(KindRateLimit, ErrRateLimited, err, MsgRateLimit, NoteRateLimit)
	case strings.Contains(msg, markerAPIKeyInvalid),
		openAI && st.Code == http.StatusUnauthorized,
		openAI && st.Status == openAIInvalidKeyCode:
		return newFailure(KindInvalidCredential, ErrInvalidCredential, err, MsgInvalidCredential, "")
	default:
		return newFailure(KindUnknown, ErrExchangeFailed, err, fmt.Sprintf(msgUnknownFormat, msg), "")
	}
}

// Hints returns the secondary notes attached to err.
func Hints(err error) []string {
	return errors.GetAllHints(err)
}
