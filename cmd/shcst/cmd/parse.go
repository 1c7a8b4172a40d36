package cmd

import (
	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/cst"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/internal/render"
)

var (
	parseFormat     string
	parseRoot       string
	parseHideTrivia bool
	parseKinds      []string
	tokensTrivia    bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [FILE|-]",
	Short: "Print the syntax tree of a script",
	Long: `Parses a script and prints its syntax tree.

Formats:
  dump   indented kind/text listing (default)
  json   nested nodes with spans and problems
  color  box-drawn tree with highlighted node kinds

Roots other than "file" parse the input as a fragment:
  arithmetic, heredoc-body, word

Examples:
  shcst parse deploy.sh
  shcst parse --format json --dialect bash3 deploy.sh
  shcst parse --kind Pipeline --format color deploy.sh
  echo '$((1 + 2))' | shcst parse --root word`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var tokensCmd = &cobra.Command{
	Use:   "tokens [FILE|-]",
	Short: "List the tokens of a script",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokens,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(tokensCmd)

	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "dump", "output format (dump, json, color)")
	parseCmd.Flags().StringVar(&parseRoot, "root", "file", "parse root (file, arithmetic, heredoc-body, word)")
	parseCmd.Flags().BoolVar(&parseHideTrivia, "hide-trivia", false, "omit whitespace and comment leaves")
	parseCmd.Flags().StringSliceVarP(&parseKinds, "kind", "k", nil, "only print subtrees of these node kinds")

	tokensCmd.Flags().BoolVar(&tokensTrivia, "hide-trivia", false, "omit whitespace and comment tokens")
}

// parseInput reads and parses the script named by args
func parseInput(cmd *cobra.Command, args []string, root parser.Root) (*parser.Result, string, error) {
	path := sourceArg(args)
	src, err := readSource(cmd, path)
	if err != nil {
		return nil, path, err
	}
	opts, err := parserOptions()
	if err != nil {
		return nil, path, err
	}

	ctx, cancel := parseContext()
	defer cancel()

	res, err := parser.ParseFragment(ctx, src, root, opts)
	if err != nil {
		return nil, path, err
	}
	logger.Info("Parsed script", mdwlog.Fields{
		"path":     path,
		"parse_id": res.ID,
		"errors":   res.ErrorCount(),
	})
	return res, path, nil
}

func runParse(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(parseFormat)
	if err != nil {
		return err
	}
	root, err := parser.ParseRoot(parseRoot)
	if err != nil {
		return err
	}
	kinds := make([]cst.NodeKind, 0, len(parseKinds))
	for _, name := range parseKinds {
		k, err := cst.ParseNodeKind(name)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}

	res, path, err := parseInput(cmd, args, root)
	if err != nil {
		return err
	}

	opts := render.Options{Format: format, HideTrivia: parseHideTrivia, Kinds: kinds}
	if err := render.Tree(cmd.OutOrStdout(), res, opts); err != nil {
		return err
	}
	if format != render.FormatJSON {
		_, err = render.WriteProblems(cmd.ErrOrStderr(), path, res.Tree)
	}
	return err
}

func runTokens(cmd *cobra.Command, args []string) error {
	res, _, err := parseInput(cmd, args, parser.RootFile)
	if err != nil {
		return err
	}
	return render.Tokens(cmd.OutOrStdout(), res.Tree.Source, res.Tokens, tokensTrivia)
}
