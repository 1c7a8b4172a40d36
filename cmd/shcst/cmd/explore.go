package cmd

import (
	"github.com/spf13/cobra"

	"github.com/msto63/shcst/internal/tui/explorer"
)

var exploreCmd = &cobra.Command{
	Use:     "explore FILE",
	Aliases: []string{"tui"},
	Short:   "Browse a script next to its syntax tree",
	Long: `Starts the interactive explorer. The left pane shows the script with
the cursor and the selected node highlighted, the right pane shows the
path from the root to the cursor and the subtree of the selection.

Keys:
  h/l, ←/→    previous/next token
  j/k, ↓/↑    next/previous line
  u           select the enclosing node
  :           jump to an offset or line:col
  g / G       start / end of the script
  t           hide or show whitespace and comments
  d           reparse as the other dialect
  r           reparse
  q, Ctrl+C   quit`,
	Args: cobra.ExactArgs(1),
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd, args[0])
	if err != nil {
		return err
	}
	opts, err := parserOptions()
	if err != nil {
		return err
	}
	// the TUI owns the terminal; log output would corrupt it
	opts.Logger = nil

	return explorer.Run(explorer.Config{
		Path:    args[0],
		Source:  src,
		Options: opts,
	})
}
