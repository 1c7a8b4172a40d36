package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/msto63/shcst/foundation/shell/cst"
)

// Color Palette
var (
	ColorPrimary = lipgloss.Color("#8B5CF6") // Violet
	ColorKeyword = lipgloss.Color("#06B6D4") // Cyan
	ColorString  = lipgloss.Color("#10B981") // Emerald
	ColorExpand  = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorText    = lipgloss.Color("#F8FAFC") // Slate 50
)

var (
	NodeStyle      = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	CommandStyle   = lipgloss.NewStyle().Foreground(ColorKeyword).Bold(true)
	ExpansionStyle = lipgloss.NewStyle().Foreground(ColorExpand)
	ErrorStyle     = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	KeywordStyle   = lipgloss.NewStyle().Foreground(ColorKeyword)
	StringStyle    = lipgloss.NewStyle().Foreground(ColorString)
	LeafStyle      = lipgloss.NewStyle().Foreground(ColorText)
	TriviaStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	SpanStyle      = lipgloss.NewStyle().Foreground(ColorMuted)
	BranchStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
)

// Color renders the tree with box-drawing branches and per-category colors
func Color(t *cst.Tree, opts Options) string {
	var parts []string
	for _, n := range roots(t, opts.Kinds) {
		parts = append(parts, colorTree(n, opts.HideTrivia).String())
	}
	return strings.Join(parts, "\n") + "\n"
}

func colorTree(n *cst.Node, hideTrivia bool) *tree.Tree {
	t := tree.Root(NodeLabel(n)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(BranchStyle)
	for _, c := range n.Children {
		switch v := c.(type) {
		case *cst.Node:
			t.Child(colorTree(v, hideTrivia))
		case *cst.Leaf:
			if hideTrivia && v.Token.Kind.IsTrivia() {
				continue
			}
			t.Child(LeafLabel(v))
		}
	}
	return t
}

// NodeLabel styles a node description
func NodeLabel(n *cst.Node) string {
	style := NodeStyle
	switch {
	case n.Kind == cst.NodeError:
		style = ErrorStyle
	case n.Kind.IsCommand():
		style = CommandStyle
	case n.Kind.IsExpansion():
		style = ExpansionStyle
	}
	label := style.Render(n.Kind.String()) + " " + SpanStyle.Render(n.Range.String())
	if n.Message != "" {
		label += " " + ErrorStyle.Render(fmt.Sprintf("%q", n.Message))
	}
	return label
}

// LeafLabel styles a token description
func LeafLabel(l *cst.Leaf) string {
	k := l.Token.Kind
	text := fmt.Sprintf("%q", l.Token.Text)
	style := LeafStyle
	switch {
	case k.IsTrivia():
		style = TriviaStyle
	case k.IsKeyword():
		style = KeywordStyle
	case k.IsWordPart() && (strings.HasPrefix(l.Token.Text, "'") || strings.HasPrefix(l.Token.Text, "\"")):
		style = StringStyle
	}
	return SpanStyle.Render(k.String()) + " " + style.Render(text)
}
