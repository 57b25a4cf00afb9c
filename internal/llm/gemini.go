package llm

import (
	"context"
	"iter"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

// Gemini streams replies from the Gemini API.
type Gemini struct {
	baseURL string
}

// NewGemini creates a Gemini streamer. An empty baseURL uses the SDK default.
func NewGemini(baseURL string) *Gemini {
	return &Gemini{baseURL: baseURL}
}

// Stream opens a client bound to req.APIKey, creates a chat seeded with the
// history and system instruction, and yields the text of every streamed
// response.
func (g *Gemini) Stream(ctx context.Context, req Request) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		cc := &genai.ClientConfig{
			APIKey:  req.APIKey,
			Backend: genai.BackendGeminiAPI,
		}
		if g.baseURL != "" {
			cc.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
		}

		client, err := genai.NewClient(ctx, cc)
		if err != nil {
			yield(Fragment{}, errors.Wrap(err, "create Gemini client"))
			return
		}

		chat, err := client.Chats.Create(ctx, req.Model, geminiConfig(req), geminiHistory(req.History))
		if err != nil {
			yield(Fragment{}, errors.Wrap(err, "create Gemini chat"))
			return
		}

		for resp, err := range chat.SendMessageStream(ctx, genai.Part{Text: req.Prompt}) {
			if err != nil {
				yield(Fragment{}, err)
				return
			}
			if !yield(Fragment{Text: resp.Text()}, nil) {
				return
			}
		}
	}
}

func geminiConfig(req Request) *genai.GenerateContentConfig {
	if req.SystemInstruction == "" {
		return nil
	}
	return &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.SystemInstruction, genai.RoleUser),
	}
}

func geminiHistory(history []Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, c := range history {
		parts := make([]*genai.Part, 0, len(c.Parts))
		for _, p := range c.Parts {
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
		out = append(out, &genai.Content{Role: c.Role, Parts: parts})
	}
	return out
}
