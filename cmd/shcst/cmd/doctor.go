package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/internal/crosscheck"
	"github.com/msto63/shcst/internal/store"
	"github.com/msto63/shcst/pkg/core/health"
	"github.com/msto63/shcst/pkg/core/version"
)

var doctorJSON bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, history store and reference parsers",
	Long: `Runs a set of self checks: the configuration validates, the parser
round-trips a probe script, the history store and log file locations are
writable and every configured reference parser accepts a trivial script.
Exits with status 1 when any check is unhealthy.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "print the report as JSON")
}

func runDoctor(cmd *cobra.Command, args []string) error {
	opts, err := parserOptions()
	if err != nil {
		return err
	}

	registry := health.NewRegistry("shcst", version.Tool)
	registry.Register(health.ConfigCheck(appConfig))
	registry.Register(health.ParserCheck(opts))
	registry.Register(health.WritableCheck("log file", appConfig.Logging.File, "logging to stderr"))
	registry.RegisterFunc("store", storeCheck(appConfig.Store.Path))

	oracles, err := crosscheck.Oracles(appConfig.Crosscheck.Oracles)
	if err != nil {
		return err
	}
	for _, o := range oracles {
		registry.RegisterFunc("oracle "+o.Name(), oracleCheck(o, opts.Version))
	}

	report := registry.CheckWithTimeout(appConfig.Crosscheck.Timeout.Duration + appConfig.Parser.Timeout.Duration)
	for _, c := range report.Checks {
		if c.Status != health.StatusHealthy {
			logger.Warn("self check not healthy", mdwlog.Fields{
				"check":   c.Name,
				"status":  string(c.Status),
				"message": c.Message,
			})
		}
	}

	out := cmd.OutOrStdout()
	if doctorJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(out, doctorTable(report))
		fmt.Fprintln(out, report.String())
	}

	if report.Status == health.StatusUnhealthy {
		return mdwerror.New("self checks failed").
			WithCode(mdwerror.CodeUnknown).
			WithOperation("cmd.doctor")
	}
	return nil
}

func storeCheck(path string) func(ctx context.Context) health.CheckResult {
	writable := health.WritableCheck("store", path, "")
	return func(ctx context.Context) health.CheckResult {
		result := writable.Check(ctx)
		if result.Status != health.StatusHealthy {
			return result
		}
		st, err := store.NewSQLiteStore(store.Config{Path: path})
		if err != nil {
			result.Status = health.StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		defer st.Close()

		stats, err := st.Stats(ctx)
		if err != nil {
			result.Status = health.StatusUnhealthy
			result.Message = err.Error()
			return result
		}
		result.Message = fmt.Sprintf("%v runs, %v files recorded", stats["total_runs"], stats["total_files"])
		return result
	}
}

func oracleCheck(o crosscheck.Oracle, dv dialect.Version) func(ctx context.Context) health.CheckResult {
	return func(ctx context.Context) health.CheckResult {
		ctx, cancel := context.WithTimeout(ctx, appConfig.Crosscheck.Timeout.Duration)
		defer cancel()

		v, err := o.Check(ctx, "true\n", dv)
		switch {
		case err != nil:
			return health.CheckResult{Status: health.StatusUnhealthy, Message: err.Error()}
		case !v.Accepted:
			return health.CheckResult{Status: health.StatusDegraded, Message: "rejects a trivial script"}
		}
		return health.CheckResult{
			Status:  health.StatusHealthy,
			Message: fmt.Sprintf("accepts a trivial script in %s", v.Duration),
		}
	}
}

func doctorTable(report *health.Report) string {
	rows := make([][]string, 0, len(report.Checks))
	for _, c := range report.Checks {
		rows = append(rows, []string{c.Name, string(c.Status), c.Message, c.Duration.String()})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("CHECK", "STATUS", "MESSAGE", "TIME").
		Rows(rows...).
		String()
}
