// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     explorer
// Description: Bubbletea model for browsing a script next to its syntax tree
// Author:      msto63
// Created:     2026-10-10
// License:     MIT
// ============================================================================

package explorer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/foundation/shell/token"
	"github.com/msto63/shcst/internal/render"
)

// Config holds explorer configuration
type Config struct {
	Path    string
	Source  string
	Options parser.Options
}

// Model is the Bubbletea model of the explorer
type Model struct {
	// State
	width   int
	height  int
	ready   bool
	parsing bool
	jumping bool
	err     error
	status  string

	// Components
	source  viewport.Model
	tree    viewport.Model
	input   textinput.Model
	spinner spinner.Model

	// Document
	path   string
	src    string
	opts   parser.Options
	result *parser.Result
	lines  *token.LineIndex

	cursor     int
	selected   *cst.Node
	hideTrivia bool
}

// New creates an explorer for one script. Init starts the first parse.
func New(cfg Config) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	ti := textinput.New()
	ti.Prompt = "jump to (offset or line:col): "
	ti.CharLimit = 32

	return Model{
		spinner: sp,
		input:   ti,
		parsing: true,
		path:    cfg.Path,
		src:     cfg.Source,
		opts:    cfg.Options,
		lines:   token.NewLineIndex(cfg.Source),
	}
}

// Cursor returns the byte offset under the cursor
func (m Model) Cursor() int { return m.cursor }

// Selected returns the highlighted node
func (m Model) Selected() *cst.Node { return m.selected }

// Result returns the current parse result
func (m Model) Result() *parser.Result { return m.result }

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.parse(m.opts),
	)
}

func (m Model) parse(opts parser.Options) tea.Cmd {
	src := m.src
	return func() tea.Msg {
		res, err := parser.Parse(context.Background(), src, opts)
		return parsedMsg{result: res, version: opts.Version, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.jumping {
			return m.handleJumpKey(msg)
		}
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		sourceWidth, treeWidth, bodyHeight := m.layout()
		if !m.ready {
			m.source = viewport.New(sourceWidth, bodyHeight)
			m.tree = viewport.New(treeWidth, bodyHeight)
			m.ready = true
		} else {
			m.source.Width, m.source.Height = sourceWidth, bodyHeight
			m.tree.Width, m.tree.Height = treeWidth, bodyHeight
		}
		m.refresh()

	case spinner.TickMsg:
		if m.parsing {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case parsedMsg:
		m.parsing = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		m.opts.Version = msg.version
		m.status = fmt.Sprintf("%d tokens, %d errors, %s",
			len(msg.result.Tokens), msg.result.ErrorCount(), msg.result.Duration)
		m.moveTo(m.cursor)
	}

	return m, nil
}

// layout returns the panel sizes for the current window
func (m Model) layout() (sourceWidth, treeWidth, bodyHeight int) {
	// header, status bar, help bar and the panel borders
	bodyHeight = m.height - 6
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	sourceWidth = m.width*55/100 - 4
	treeWidth = m.width - sourceWidth - 8
	if sourceWidth < 10 {
		sourceWidth = 10
	}
	if treeWidth < 10 {
		treeWidth = 10
	}
	return sourceWidth, treeWidth, bodyHeight
}

// handleKeyPress handles keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyRight:
		m.moveToken(1)
	case tea.KeyLeft:
		m.moveToken(-1)
	case tea.KeyDown:
		m.moveLine(1)
	case tea.KeyUp:
		m.moveLine(-1)
	case tea.KeyPgDown:
		m.source.SetYOffset(m.source.YOffset + m.source.Height)
	case tea.KeyPgUp:
		m.source.SetYOffset(m.source.YOffset - m.source.Height)

	case tea.KeyRunes:
		switch string(msg.Runes) {
		case "q":
			return m, tea.Quit
		case "l":
			m.moveToken(1)
		case "h":
			m.moveToken(-1)
		case "j":
			m.moveLine(1)
		case "k":
			m.moveLine(-1)
		case "g":
			m.moveTo(0)
		case "G":
			m.moveTo(len(m.src))

		// Widen the selection to the enclosing node
		case "u":
			if m.result != nil && m.selected != nil {
				if p := m.result.Tree.Parent(m.selected); p != nil {
					m.selected = p
					m.refresh()
				}
			}

		case "t":
			m.hideTrivia = !m.hideTrivia
			m.refresh()

		// Reparse with the other dialect
		case "d":
			opts := m.opts
			if opts.Version == dialect.V3 {
				opts.Version = dialect.V4
			} else {
				opts.Version = dialect.V3
			}
			m.parsing = true
			return m, tea.Batch(m.spinner.Tick, m.parse(opts))

		case "r":
			m.parsing = true
			return m, tea.Batch(m.spinner.Tick, m.parse(m.opts))

		case ":":
			m.jumping = true
			m.input.SetValue("")
			cmd := m.input.Focus()
			return m, cmd
		}
	}

	return m, nil
}

// handleJumpKey handles input while the jump prompt is open
func (m Model) handleJumpKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.jumping = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		m.jumping = false
		m.input.Blur()
		offset, err := m.jumpTarget(m.input.Value())
		if err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.moveTo(offset)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// jumpTarget resolves "offset" or "line:col"
func (m Model) jumpTarget(s string) (int, error) {
	s = strings.TrimSpace(s)
	if line, col, ok := strings.Cut(s, ":"); ok {
		l, err1 := strconv.Atoi(line)
		c, err2 := strconv.Atoi(col)
		if err1 != nil || err2 != nil {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		off := m.lines.Offset(token.Position{Line: l, Column: c})
		if off < 0 {
			return 0, fmt.Errorf("position %s is outside the file", s)
		}
		return off, nil
	}
	off, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	if off < 0 || off > len(m.src) {
		return 0, fmt.Errorf("offset %d is outside the file", off)
	}
	return off, nil
}

// moveTo places the cursor and selects the innermost node there
func (m *Model) moveTo(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > len(m.src) {
		offset = len(m.src)
	}
	m.cursor = offset
	if m.result != nil {
		m.selected = m.result.Tree.NodeAt(offset)
	}
	m.refresh()
}

// moveToken moves the cursor to the start of the next or previous token
func (m *Model) moveToken(dir int) {
	if m.result == nil || len(m.result.Tokens) == 0 {
		return
	}
	tokens := m.result.Tokens
	i := sort.Search(len(tokens), func(i int) bool { return tokens[i].Span.End > m.cursor })
	if i == len(tokens) {
		i = len(tokens) - 1
	}
	for j := i + dir; j >= 0 && j < len(tokens); j += dir {
		if m.hideTrivia && tokens[j].Kind.IsTrivia() {
			continue
		}
		if tokens[j].Span.Start != m.cursor {
			m.moveTo(tokens[j].Span.Start)
			return
		}
	}
}

// moveLine keeps the column while changing the line
func (m *Model) moveLine(dir int) {
	pos := m.lines.Position(m.cursor)
	start := m.lines.Offset(token.Position{Line: pos.Line + dir, Column: 1})
	if start < 0 {
		return
	}
	end := m.lineEnd(start)
	off := start + pos.Column - 1
	if off > end {
		off = end
	}
	m.moveTo(off)
}

// lineEnd returns the offset of the newline ending the line at start
func (m Model) lineEnd(start int) int {
	if i := strings.IndexByte(m.src[start:], '\n'); i >= 0 {
		return start + i
	}
	return len(m.src)
}

// refresh re-renders both panes
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.source.SetContent(m.renderSource())
	m.tree.SetContent(m.renderTree())

	line := m.lines.Position(m.cursor).Line - 1
	if line < m.source.YOffset || line >= m.source.YOffset+m.source.Height {
		m.source.SetYOffset(line - m.source.Height/2)
	}
}

func (m Model) renderSource() string {
	var b strings.Builder
	width := len(strconv.Itoa(m.lines.Lines()))
	start := 0
	for n := 1; n <= m.lines.Lines(); n++ {
		end := m.lineEnd(start)
		b.WriteString(LineNumberStyle.Render(fmt.Sprintf("%*d ", width, n)))
		b.WriteString(m.paintLine(start, end))
		b.WriteString("\n")
		start = end + 1
		if start > len(m.src) {
			break
		}
	}
	return b.String()
}

// paintLine renders src[start:end] with the selection and the cursor
func (m Model) paintLine(start, end int) string {
	selStart, selEnd := -1, -1
	if m.selected != nil {
		selStart, selEnd = m.selected.Range.Start, m.selected.Range.End
	}

	var b strings.Builder
	for i := start; i < end; {
		if i == m.cursor {
			_, size := utf8.DecodeRuneInString(m.src[i:end])
			b.WriteString(CursorStyle.Render(m.src[i : i+size]))
			i += size
			continue
		}
		j := end
		for _, bound := range []int{m.cursor, selStart, selEnd} {
			if bound > i && bound < j {
				j = bound
			}
		}
		seg := m.src[i:j]
		if i >= selStart && i < selEnd {
			seg = SelectionStyle.Render(seg)
		}
		b.WriteString(seg)
		i = j
	}
	if m.cursor == end {
		b.WriteString(CursorStyle.Render(" "))
	}
	return b.String()
}

func (m Model) renderTree() string {
	if m.result == nil {
		return ""
	}
	tree := m.result.Tree

	var b strings.Builder
	for depth, n := range tree.Path(m.cursor) {
		marker := "  "
		if n == m.selected {
			marker = "▸ "
		}
		b.WriteString(strings.Repeat("  ", depth) + marker + render.NodeLabel(n) + "\n")
	}
	if leaf := tree.LeafAt(m.cursor); leaf != nil {
		b.WriteString("\n" + PathStyle.Render("leaf ") + render.LeafLabel(leaf) + "\n")
	}

	if m.selected != nil {
		sv := cst.NewStringVisitor()
		sv.HideTrivia = m.hideTrivia
		cst.Accept(m.selected, sv)
		b.WriteString("\n" + sv.String())
	}
	return b.String()
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Loading explorer..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	sourceWidth, treeWidth, _ := m.layout()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		PanelStyle.Width(sourceWidth+2).Render(m.source.View()),
		PanelStyle.Width(treeWidth+2).Render(m.tree.View()),
	))
	b.WriteString("\n")

	if m.jumping {
		b.WriteString(m.input.View())
	} else {
		b.WriteString(m.renderStatusBar())
	}
	b.WriteString("\n")
	b.WriteString(m.renderHelpBar())
	return b.String()
}

func (m Model) renderHeader() string {
	trivia := ""
	if m.hideTrivia {
		trivia = HelpDescStyle.Render("  [trivia hidden]")
	}
	return TitleStyle.Render("shcst explore") + "  " +
		PathStyle.Render(m.path) + "  " +
		HelpDescStyle.Render(m.opts.Version.String()) + trivia
}

func (m Model) renderStatusBar() string {
	pos := m.lines.Position(m.cursor)
	left := fmt.Sprintf("%s  @%d", pos, m.cursor)
	if m.selected != nil {
		left += "  " + cst.Describe(m.selected)
	}

	var right string
	switch {
	case m.parsing:
		right = m.spinner.View() + " parsing..."
	case m.err != nil:
		right = StatusErrorStyle.Render(m.err.Error())
	case m.result != nil && m.result.ErrorCount() > 0:
		right = StatusErrorStyle.Render(m.status)
	default:
		right = StatusOKStyle.Render(m.status)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 2 {
		gap = 2
	}
	return StatusBarStyle.Width(m.width - 2).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelpBar() string {
	items := []string{
		RenderKeyHint("h/l", "token"),
		RenderKeyHint("j/k", "line"),
		RenderKeyHint("u", "parent"),
		RenderKeyHint(":", "jump"),
		RenderKeyHint("t", "trivia"),
		RenderKeyHint("d", "dialect"),
		RenderKeyHint("q", "quit"),
	}
	return strings.Join(items, "  ")
}

// Run starts the explorer program
func Run(cfg Config) error {
	_, err := tea.NewProgram(New(cfg), tea.WithAltScreen()).Run()
	return err
}
