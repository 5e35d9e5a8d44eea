package bubbletea

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/drip"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

// Model is the Bubble Tea model for the chat UI.
//
// While a turn runs, the conversation belongs to the turn; the model draws
// from the copies delivered in UpdateMsg and reads the conversation again
// only after TurnDoneMsg.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	run    TurnFunc
	ctx    context.Context // parent of every turn's context
	conv   *drip.Conversation
	theme  drip.Theme
	styles Styles

	shown   drip.Conversation // snapshot being drawn
	blocks  []MessageBlock    // one per message in shown
	failure *drip.Error       // classified failure of the last turn

	running  bool
	state    drip.TurnState
	outcome  string // how the last turn ended, shown in the status line
	cancel   context.CancelFunc
	updateCh chan drip.Update
	doneCh   chan error
	err      error
	ready    bool
}

// New creates a Model that runs turns with run on conv.
func New(run TurnFunc, conv *drip.Conversation, theme drip.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		Input:  ti,
		run:    run,
		conv:   conv,
		theme:  theme,
		styles: NewStyles(theme),
	}
}

// WithContext returns a copy of m whose turns run under ctx, so cancelling
// ctx also cancels a running turn. Run calls it with its own context.
func (m Model) WithContext(ctx context.Context) Model {
	m.ctx = ctx
	return m
}

// Running returns whether a turn is in progress.
func (m Model) Running() bool { return m.running }

// Err returns the error of the last failed turn. Cancellation is not an
// error.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case UpdateMsg:
		m.shown = msg.Update.Conversation
		m.state = msg.Update.State
		if msg.Update.Err != nil {
			m.failure = msg.Update.Err
		}
		m = m.refresh()
		if m.updateCh != nil {
			return m, listenForUpdate(m.updateCh, m.doneCh)
		}
		return m, nil

	case TurnDoneMsg:
		m.running = false
		m.cancel = nil
		m.updateCh = nil
		m.doneCh = nil
		switch {
		case errors.Is(msg.Err, context.Canceled):
			m.outcome = "Stopped"
		case msg.Err != nil:
			m.err = msg.Err
			if m.failure == nil {
				m.failure = drip.Classify(msg.Err)
			}
			m.outcome = errorTitle(m.failure.Kind) + ": " + m.failure.Message
		default:
			m.outcome = "Done"
		}
		m.shown = m.conv.Clone()
		m = m.refresh()
		cmd := m.Input.Focus()
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.running {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputH := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputH-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		if !m.running {
			m.shown = m.conv.Clone()
		}
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	return m.refresh()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.running {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter:
		if m.running {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		return m.submitInput(text)
	}

	if m.running {
		return m, nil
	}

	// Character keys go only to the input; 'j' and 'k' are text here.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.Input, cmd = m.Input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) submitInput(text string) (tea.Model, tea.Cmd) {
	m.Input.SetValue("")
	m.Input.Blur()
	m.err = nil
	m.failure = nil
	m.outcome = ""

	*m.conv = append(*m.conv, drip.UserMessage(text))
	m.shown = m.conv.Clone()
	m = m.refresh()

	parent := m.ctx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.updateCh = make(chan drip.Update, 256)
	m.doneCh = make(chan error, 1)
	m.running = true
	m.state = drip.TurnIdle

	return m, tea.Batch(
		startTurn(ctx, m.run, m.conv, m.updateCh, m.doneCh),
		listenForUpdate(m.updateCh, m.doneCh),
	)
}

// refresh rebuilds the blocks for the shown conversation and redraws the
// viewport.
func (m Model) refresh() Model {
	m.blocks = m.syncBlocks()
	if m.ready {
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
	}
	return m
}

// syncBlocks maps every shown message to a block, reusing the existing
// block at the same position when the role matches so streamed replies keep
// their render cache.
func (m Model) syncBlocks() []MessageBlock {
	blocks := make([]MessageBlock, len(m.shown))
	for i, msg := range m.shown {
		var prev MessageBlock
		if i < len(m.blocks) {
			prev = m.blocks[i]
		}
		switch msg.Role {
		case drip.RoleAssistant:
			b, ok := prev.(*AssistantTextBlock)
			if !ok {
				b = NewAssistantTextBlock(m.theme)
			}
			b.SetText(msg.Content)
			blocks[i] = b
		default:
			if b, ok := prev.(*UserMessageBlock); ok && b.Text() == msg.Content {
				blocks[i] = b
				continue
			}
			blocks[i] = NewUserMessageBlock(msg.Content, m.styles)
		}
	}
	return blocks
}

func (m Model) renderContent() string {
	var parts []string
	for _, block := range m.blocks {
		parts = append(parts, block.View(m.Viewport.Width))
	}
	if m.failure != nil {
		parts = append(parts, NewErrorBlock(m.failure, m.styles).View(m.Viewport.Width))
	}
	return strings.Join(parts, "\n")
}

const idleHelp = "Enter to send, Ctrl+C to quit"

func (m Model) statusLine() string {
	status := idleHelp
	style := m.styles.Muted
	switch {
	case m.running && m.state == drip.TurnStreaming:
		status = "Generating... Ctrl+C to stop"
	case m.running:
		status = "Waiting for response... Ctrl+C to stop"
	case m.outcome != "":
		status = m.outcome + " · " + idleHelp
		if m.failure != nil {
			style = m.styles.Error
		}
	}
	if w := m.Viewport.Width; w > 0 {
		status = runewidth.Truncate(status, w, "…")
	}
	return style.Render(status)
}

// startTurn runs the turn in a goroutine and signals completion. Updates
// are copied before they leave the turn's goroutine.
func startTurn(ctx context.Context, run TurnFunc, conv *drip.Conversation, updateCh chan<- drip.Update, doneCh chan<- error) tea.Cmd {
	return func() tea.Msg {
		err := run(ctx, conv, func(u drip.Update) {
			u.Conversation = u.Conversation.Clone()
			select {
			case updateCh <- u:
			case <-ctx.Done():
			}
		})
		close(updateCh)
		doneCh <- err
		return nil
	}
}

// listenForUpdate waits for the next update. When the channel closes it
// reads the turn's result from doneCh and returns TurnDoneMsg.
func listenForUpdate(ch <-chan drip.Update, doneCh <-chan error) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return TurnDoneMsg{Err: <-doneCh}
		}
		return UpdateMsg{Update: u}
	}
}
