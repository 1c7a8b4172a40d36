package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/msto63/shcst/internal/crosscheck"
)

var (
	crosscheckOracles []string
	crosscheckJSON    bool
)

var crosscheckCmd = &cobra.Command{
	Use:   "crosscheck [FILE|-]",
	Short: "Compare the parse with mvdan/sh and tree-sitter-bash",
	Long: `Parses the script with shcst and with the reference parsers, then
compares whether each accepts the script and how many top-level
statements it finds. Exits with status 4 on disagreement.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrosscheck,
}

func init() {
	rootCmd.AddCommand(crosscheckCmd)

	crosscheckCmd.Flags().StringSliceVar(&crosscheckOracles, "oracle", nil,
		"reference parsers to run (default from config: mvdan, treesitter)")
	crosscheckCmd.Flags().BoolVar(&crosscheckJSON, "json", false, "print the report as JSON")
}

func runCrosscheck(cmd *cobra.Command, args []string) error {
	path := sourceArg(args)
	src, err := readSource(cmd, path)
	if err != nil {
		return err
	}
	opts, err := parserOptions()
	if err != nil {
		return err
	}
	names := appConfig.Crosscheck.Oracles
	if len(crosscheckOracles) > 0 {
		names = crosscheckOracles
	}
	oracles, err := crosscheck.Oracles(names)
	if err != nil {
		return err
	}

	ctx, cancel := parseContext()
	defer cancel()

	report, err := crosscheck.Run(ctx, path, src, nil, opts, oracles...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if crosscheckJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
		return report.Err()
	}

	fmt.Fprintln(out, verdictTable(report))
	for _, m := range report.Mismatches {
		fmt.Fprintf(out, "%s: %s disagrees (%s): %s\n", path, m.Oracle, m.Kind, m.Detail)
	}
	if report.Agrees() {
		fmt.Fprintf(out, "%s: all parsers agree\n", path)
	}
	return report.Err()
}

func verdictTable(report *crosscheck.Report) string {
	rows := [][]string{verdictRow(report.Own)}
	for _, v := range report.Oracles {
		rows = append(rows, verdictRow(v))
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("PARSER", "ACCEPTED", "STATEMENTS", "FIRST DIAGNOSTIC", "TIME").
		Rows(rows...).
		String()
}

func verdictRow(v crosscheck.Verdict) []string {
	statements := "?"
	if v.Statements >= 0 {
		statements = strconv.Itoa(v.Statements)
	}
	diag := ""
	if len(v.Diagnostics) > 0 {
		d := v.Diagnostics[0]
		diag = d.Position.String() + " " + d.Message
	}
	return []string{v.Parser, strconv.FormatBool(v.Accepted), statements, diag, v.Duration.String()}
}
