package llm

import (
	"context"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI streams replies from an OpenAI-compatible chat completions API.
type OpenAI struct {
	baseURL string
}

// NewOpenAI creates an OpenAI-compatible streamer. An empty baseURL uses the
// SDK default.
func NewOpenAI(baseURL string) *OpenAI {
	return &OpenAI{baseURL: baseURL}
}

func (o *OpenAI) newClient(apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		config.BaseURL = o.baseURL
	}

	return openai.NewClientWithConfig(config)
}

// Stream sends the system instruction, history and prompt as chat messages
// and yields every content delta.
func (o *OpenAI) Stream(ctx context.Context, req Request) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		stream, err := o.newClient(req.APIKey).CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:    req.Model,
			Messages: openAIMessages(req),
			Stream:   true,
		})
		if err != nil {
			yield(Fragment{}, err)
			return
		}
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(Fragment{}, err)
				return
			}

			var sb strings.Builder
			for _, choice := range resp.Choices {
				sb.WriteString(choice.Delta.Content)
			}
			if !yield(Fragment{Text: sb.String()}, nil) {
				return
			}
		}
	}
}

func openAIMessages(req Request) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, c := range req.History {
		role := openai.ChatMessageRoleUser
		if c.Role == RoleModel {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: c.Text()})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})
}
