package cmd

import (
	"bytes"
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/cobra"

	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/internal/render"
)

var (
	diffContext    int
	diffHideTrivia bool
)

var diffCmd = &cobra.Command{
	Use:   "diff [FILE|-]",
	Short: "Show how a script parses differently under bash3 and bash4",
	Long: `Parses the script once per dialect and prints a unified diff of the
two tree dumps. Constructs that bash3 does not know (associative arrays,
;& and ;;& case terminators, |&, &>> and friends) show up as error nodes
on the bash3 side.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().IntVarP(&diffContext, "context", "C", 3, "lines of context")
	diffCmd.Flags().BoolVar(&diffHideTrivia, "hide-trivia", true, "omit whitespace and comment leaves")
}

// dialectDiff returns the unified diff of the V3 and V4 dumps of src
func dialectDiff(path, src string, opts parser.Options, context int, hideTrivia bool) (string, error) {
	ctx, cancel := parseContext()
	defer cancel()

	dumps := make(map[dialect.Version]string, 2)
	for _, v := range []dialect.Version{dialect.V3, dialect.V4} {
		o := opts
		o.Version = v
		res, err := parser.Parse(ctx, src, o)
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := render.Dump(&buf, res.Tree, render.Options{HideTrivia: hideTrivia}); err != nil {
			return "", err
		}
		dumps[v] = buf.String()
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(dumps[dialect.V3]),
		B:        difflib.SplitLines(dumps[dialect.V4]),
		FromFile: path + " (" + dialect.V3.String() + ")",
		ToFile:   path + " (" + dialect.V4.String() + ")",
		Context:  context,
	})
}

func runDiff(cmd *cobra.Command, args []string) error {
	path := sourceArg(args)
	src, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	opts, err := parserOptions()
	if err != nil {
		return err
	}

	diff, err := dialectDiff(path, src, opts, diffContext, diffHideTrivia)
	if err != nil {
		return err
	}
	if diff == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s parses identically as %s and %s\n", path, dialect.V3, dialect.V4)
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), diff)
	return err
}
