// Package mcpserver serves a single tutor session over the Model Context
// Protocol on stdio, so MCP clients can ask the physics tutor questions.
package mcpserver

import (
	"context"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/tutor-go/internal/logger"
	"github.com/comigor/tutor-go/internal/tutor"
)

const (
	Name = "physics-tutor"

	ToolAskTutor          = "ask_tutor"
	ToolResetConversation = "reset_conversation"
	ToolSetAPIKey         = "set_api_key"
	PromptTutorPersona    = "tutor_persona"
)

// Tutor binds MCP tools and prompts to one session.
type Tutor struct {
	session  *tutor.Session
	persona  string
	srv      *server.MCPServer
	progress func(ctx context.Context, request mcp.CallToolRequest) func(n int)
}

// New creates the MCP server for session. persona is served as the
// tutor_persona prompt.
func New(session *tutor.Session, persona, version string) *Tutor {
	t := &Tutor{
		session:  session,
		persona:  persona,
		progress: progressNotifier,
		srv: server.NewMCPServer(Name, version,
			server.WithToolCapabilities(false),
			server.WithPromptCapabilities(false),
			server.WithRecovery(),
		),
	}

	t.srv.AddTool(mcp.NewTool(ToolAskTutor,
		mcp.WithDescription("Ask the physics tutor a question. The conversation so far is sent along."),
		mcp.WithString("question", mcp.Required(), mcp.Description("The student's question")),
	), t.handleAsk)

	t.srv.AddTool(mcp.NewTool(ToolResetConversation,
		mcp.WithDescription("Forget the conversation so far."),
	), t.handleReset)

	t.srv.AddTool(mcp.NewTool(ToolSetAPIKey,
		mcp.WithDescription("Set the Gemini API key used for the following questions."),
		mcp.WithString("api_key", mcp.Required(), mcp.Description("Gemini API key")),
	), t.handleSetAPIKey)

	t.srv.AddPrompt(mcp.NewPrompt(PromptTutorPersona,
		mcp.WithPromptDescription("The physics tutor persona"),
	), t.handlePersona)

	return t
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (t *Tutor) ServeStdio() error {
	logger.L.Info("starting mcp server", "name", Name, "session", t.session.ID())
	return server.ServeStdio(t.srv)
}

func (t *Tutor) handleAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var (
		mu    sync.Mutex
		final string
		count int
	)
	progress := t.progress(ctx, request)
	exchange := tutor.ListenerFuncs{
		PartialReply: func(string) {
			mu.Lock()
			count++
			n := count
			mu.Unlock()
			progress(n)
		},
		FinalReply: func(text string) {
			mu.Lock()
			final = text
			mu.Unlock()
		},
	}

	if err := t.session.SubmitPrompt(ctx, question, exchange); err != nil {
		var f *tutor.Failure
		if errors.As(err, &f) {
			return mcp.NewToolResultError(failureText(f)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	mu.Lock()
	defer mu.Unlock()
	return mcp.NewToolResultText(final), nil
}

func (t *Tutor) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.session.ResetConversation(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("대화 기록을 초기화했습니다."), nil
}

func (t *Tutor) handleSetAPIKey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("api_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t.session.SetCredential(strings.TrimSpace(key))
	return mcp.NewToolResultText("API 키를 설정했습니다."), nil
}

func (t *Tutor) handlePersona(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult(
		"The physics tutor persona",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(t.persona)),
		},
	), nil
}

// progressNotifier reports streamed fragments to clients that asked for
// progress. It is a no-op otherwise.
func progressNotifier(ctx context.Context, request mcp.CallToolRequest) func(n int) {
	srv := server.ServerFromContext(ctx)
	if srv == nil || request.Params.Meta == nil || request.Params.Meta.ProgressToken == nil {
		return func(int) {}
	}
	token := request.Params.Meta.ProgressToken
	return func(n int) {
		err := srv.SendNotificationToClient(ctx, "notifications/progress", map[string]any{
			"progressToken": token,
			"progress":      n,
		})
		if err != nil {
			logger.L.Debug("failed to send progress", "error", err)
		}
	}
}

func failureText(f *tutor.Failure) string {
	return strings.Join(append([]string{f.Message}, tutor.Hints(f)...), "\n")
}
