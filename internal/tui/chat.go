// Package tui is the terminal front-end of the tutor: a single session
// rendered with bubbletea, replies drawn as markdown while they stream.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/tutor-go/internal/conversation"
	"github.com/comigor/tutor-go/internal/logger"
	"github.com/comigor/tutor-go/internal/tutor"
)

const (
	defaultWidth  = 80
	defaultHeight = 20

	minMarkdownWidth = 20
	textareaHeight   = 3

	cmdKey   = "/key"
	cmdReset = "/reset"
	cmdQuit  = "/quit"
)

var (
	titleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true).Padding(0, 1)
	subtitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	suggestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
	footerStyle    = lipgloss.NewStyle().BorderTop(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("238"))
)

// ChatModel is the bubbletea model of one tutoring session.
type ChatModel struct {
	session *tutor.Session
	bridge  *bridge
	ctx     context.Context
	cancel  context.CancelFunc

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	rendered int

	turns      []conversation.Turn
	partial    string
	streaming  bool
	credential bool
	failure    *tutor.Failure
	info       string

	width  int
	height int
	ready  bool
}

// NewChatModel creates a model bound to session and subscribes to it.
func NewChatModel(session *tutor.Session) *ChatModel {
	ta := textarea.New()
	ta.Placeholder = "질문을 입력하세요... (Enter 전송, /key <API 키>, /reset, /quit)"
	ta.Focus()
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(textareaHeight)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = assistantStyle

	ctx, cancel := context.WithCancel(context.Background())
	m := &ChatModel{
		session:    session,
		bridge:     newBridge(),
		ctx:        ctx,
		cancel:     cancel,
		viewport:   viewport.New(defaultWidth, defaultHeight),
		textarea:   ta,
		spinner:    s,
		credential: session.HasCredential(),
	}
	session.Subscribe(m.bridge)

	if turns, err := session.Turns(); err == nil {
		m.turns = turns
	} else {
		logger.L.Warn("failed to load transcript", "session", session.ID(), "error", err)
	}
	return m
}

func (m *ChatModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.bridge.wait())
}

func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, m.quit()
		case tea.KeyEnter:
			if m.streaming {
				return m, nil
			}
			input := m.textarea.Value()
			m.textarea.Reset()
			return m, m.handleInput(input)
		}

	case partialMsg:
		m.partial = string(msg)
		m.refresh()
		return m, m.bridge.wait()

	case finalMsg:
		m.partial = ""
		return m, m.bridge.wait()

	case failureMsg:
		m.failure = msg.failure
		m.partial = ""
		m.refresh()
		return m, m.bridge.wait()

	case conversationMsg:
		m.turns = []conversation.Turn(msg)
		m.refresh()
		return m, m.bridge.wait()

	case credentialMsg:
		m.credential = bool(msg)
		return m, m.bridge.wait()

	case exchangeDoneMsg:
		m.streaming = false
		m.partial = ""
		if msg.err != nil {
			logger.L.Debug("exchange ended with error", "session", m.session.ID(), "error", msg.err)
		}
		m.refresh()
		return m, m.bridge.wait()

	case spinner.TickMsg:
		if m.streaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if !m.streaming {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleInput runs a slash command or submits the input as a question.
func (m *ChatModel) handleInput(input string) tea.Cmd {
	input = strings.TrimSpace(input)
	m.info = ""

	switch {
	case input == cmdQuit:
		return m.quit()
	case input == cmdReset:
		if err := m.session.ResetConversation(); err != nil {
			m.failure = tutor.Classify(err)
		} else {
			m.failure = nil
			m.info = "대화 기록을 초기화했습니다."
		}
		m.refresh()
		return nil
	case input == cmdKey || strings.HasPrefix(input, cmdKey+" "):
		key := strings.TrimSpace(strings.TrimPrefix(input, cmdKey))
		m.session.SetCredential(key)
		m.credential = key != ""
		m.failure = nil
		if m.credential {
			m.info = "API 키를 설정했습니다."
		} else {
			m.info = "API 키를 지웠습니다."
		}
		m.refresh()
		return nil
	}

	m.failure = nil
	m.streaming = true
	m.refresh()
	return tea.Batch(m.spinner.Tick, m.submit(input))
}

// submit runs one exchange off the program loop. Completion travels
// through the bridge so it arrives after the exchange's own events.
func (m *ChatModel) submit(prompt string) tea.Cmd {
	return func() tea.Msg {
		// The bridge is already subscribed for transcript changes.
		exchange := tutor.ListenerFuncs{
			PartialReply: m.bridge.OnPartialReply,
			FinalReply:   m.bridge.OnFinalReply,
			Error:        m.bridge.OnError,
		}
		err := m.session.SubmitPrompt(m.ctx, prompt, exchange)
		m.bridge.send(exchangeDoneMsg{err: err})
		return nil
	}
}

func (m *ChatModel) quit() tea.Cmd {
	m.cancel()
	m.bridge.close()
	return tea.Quit
}

func (m *ChatModel) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := lipgloss.Height(m.headerView())
	footerHeight := textareaHeight + 3
	m.viewport.Width = width
	m.viewport.Height = max(height-headerHeight-footerHeight, 1)
	m.textarea.SetWidth(max(width-4, minMarkdownWidth))
	m.ready = true
	m.refresh()
}

func (m *ChatModel) View() string {
	if !m.ready {
		return "\n  물리 튜터를 준비하는 중..."
	}
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}

func (m *ChatModel) headerView() string {
	lines := []string{
		titleStyle.Render("물리 튜터"),
		subtitleStyle.Render("물리학 개념을 쉽게 설명해 드립니다."),
	}
	if len(m.turns) == 0 {
		for _, q := range tutor.SuggestedQuestions {
			lines = append(lines, suggestStyle.Render("• "+q))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *ChatModel) footerView() string {
	if m.streaming {
		return footerStyle.Render(m.spinner.View() + " 답변을 생성하는 중...")
	}
	status := "API 키 없음"
	if m.credential {
		status = "API 키 설정됨"
	}
	help := helpStyle.Render(status + " | /key <API 키> | /reset | /quit | Ctrl+C")
	return footerStyle.Render(m.textarea.View() + "\n" + help)
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}

func (m *ChatModel) transcript() string {
	var parts []string
	for _, t := range m.turns {
		switch t.Role {
		case conversation.RoleUser:
			parts = append(parts, userStyle.Render("학생:"), m.plain(t.Text), "")
		case conversation.RoleAssistant:
			parts = append(parts, assistantStyle.Render("튜터:"), m.markdown(t.Text), "")
		}
	}
	if m.partial != "" {
		parts = append(parts, assistantStyle.Render("튜터:"), m.markdown(tutor.WithCursor(m.partial)), "")
	}
	if m.failure != nil {
		parts = append(parts, errorStyle.Render(m.failure.Message))
		for _, hint := range tutor.Hints(m.failure) {
			parts = append(parts, noteStyle.Render(hint))
		}
	}
	if m.info != "" {
		parts = append(parts, helpStyle.Render(m.info))
	}
	return strings.Join(parts, "\n")
}

func (m *ChatModel) plain(text string) string {
	return lipgloss.NewStyle().PaddingLeft(2).Width(max(m.viewport.Width-4, minMarkdownWidth)).Render(text)
}

func (m *ChatModel) markdown(text string) string {
	width := max(m.viewport.Width-4, minMarkdownWidth)
	if m.renderer == nil || m.rendered != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return m.plain(text)
		}
		m.renderer, m.rendered = r, width
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return m.plain(text)
	}
	return strings.TrimRight(out, "\n")
}

// Run starts the terminal UI for session and blocks until the user quits.
func Run(session *tutor.Session) error {
	m := NewChatModel(session)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.cancel()
	m.bridge.close()
	return err
}
