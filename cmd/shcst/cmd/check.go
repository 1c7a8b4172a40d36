package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/internal/check"
	"github.com/msto63/shcst/internal/crosscheck"
	"github.com/msto63/shcst/internal/store"
)

var (
	checkWorkers      int
	checkCrosscheck   bool
	checkFailOnErrors bool
	checkRecord       bool
	checkStorePath    string
	checkQuiet        bool
)

var checkCmd = &cobra.Command{
	Use:   "check PATH...",
	Short: "Verify round trips and report syntax errors",
	Long: `Parses every script below the given paths and verifies that the tree
reproduces the file byte for byte. Syntax errors are reported as
path:line:column: message.

A file fails when its round trip breaks, when a reference parser
disagrees (with --crosscheck), or when it has error nodes and
--fail-on-errors is set.

With --record (or --store) the run is written to the history database
that "shcst report" reads.

Examples:
  shcst check scripts/
  shcst check --crosscheck --fail-on-errors deploy.sh lib/
  shcst check --store /tmp/runs.db .`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVarP(&checkWorkers, "workers", "w", 0, "parallel workers (default from config)")
	checkCmd.Flags().BoolVar(&checkCrosscheck, "crosscheck", false, "compare every file with the reference parsers")
	checkCmd.Flags().BoolVar(&checkFailOnErrors, "fail-on-errors", false, "count files with error nodes as failed")
	checkCmd.Flags().BoolVar(&checkRecord, "record", false, "record the run in the history database")
	checkCmd.Flags().StringVar(&checkStorePath, "store", "", "history database path (implies --record)")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "only print the summary")
}

// checkOptions merges the [check] config section with the flags
func checkOptions(cmd *cobra.Command) (check.Options, error) {
	popts, err := parserOptions()
	if err != nil {
		return check.Options{}, err
	}
	cc := appConfig.Check
	opts := check.Options{
		Parser:        popts,
		Extensions:    cc.Extensions,
		Workers:       cc.Workers,
		FailOnErrors:  cc.FailOnErrors,
		OracleTimeout: appConfig.Crosscheck.Timeout.Duration,
		Logger:        logger,
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = checkWorkers
	}
	if checkFailOnErrors {
		opts.FailOnErrors = true
	}
	if checkCrosscheck || cc.Crosscheck {
		oracles, err := crosscheck.Oracles(appConfig.Crosscheck.Oracles)
		if err != nil {
			return opts, err
		}
		opts.Oracles = oracles
	}
	return opts, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	opts, err := checkOptions(cmd)
	if err != nil {
		return err
	}
	files, err := check.Collect(args, opts.Extensions)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	var st store.CheckStore
	var run *store.Run
	if checkRecord || checkStorePath != "" {
		path := checkStorePath
		if path == "" {
			path = appConfig.Store.Path
		}
		sq, err := store.NewSQLiteStore(store.Config{Path: path})
		if err != nil {
			return err
		}
		defer sq.Close()
		st = sq

		run = &store.Run{Dialect: opts.Parser.Version.String(), ConfigPath: appConfig.Source()}
		if err := st.BeginRun(ctx, run); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	start := time.Now()
	sum, err := check.Run(ctx, files, opts, func(o *check.Outcome) {
		if checkQuiet || len(o.Result.Problems) == 0 {
			return
		}
		for _, p := range o.Result.Problems {
			fmt.Fprintln(out, p)
		}
	})
	if err != nil {
		return err
	}

	if st != nil {
		accepted, rejected, err := st.RecordFiles(ctx, run.ID, sum.Results())
		if err != nil {
			return err
		}
		if rejected > 0 {
			logger.Warn("Some file results were not recorded", mdwlog.Fields{"accepted": accepted, "rejected": rejected})
		}
		run.Files, run.Failed, run.ErrorNodes = sum.Files, sum.Failed, sum.ErrorNodes
		if err := st.FinishRun(ctx, run); err != nil {
			return err
		}
		if days := appConfig.Store.RetentionDays; days > 0 {
			if n, err := st.Prune(ctx, time.Duration(days)*24*time.Hour); err != nil {
				logger.WarnWithErr("Pruning old runs failed", err)
			} else if n > 0 {
				logger.Info("Pruned old runs", mdwlog.Fields{"runs": n})
			}
		}
	}

	fmt.Fprintf(out, "%d files checked, %d failed, %d error nodes in %s\n",
		sum.Files, sum.Failed, sum.ErrorNodes, time.Since(start).Round(time.Millisecond))
	if run != nil {
		fmt.Fprintf(out, "recorded as run %s\n", run.ID)
	}

	return checkFailure(sum, opts.FailOnErrors)
}

// checkFailure turns failed files into an error with a matching exit code
func checkFailure(sum *check.Summary, failOnErrors bool) error {
	if sum.Failed == 0 {
		return nil
	}
	code := mdwerror.CodeUnknown
	for _, o := range sum.Outcomes {
		switch {
		case o.Err != nil:
		case !o.Result.RoundTrip:
			code = mdwerror.CodeRoundTrip
		case o.Result.Crosscheck == store.CrosscheckMismatch && code != mdwerror.CodeRoundTrip:
			code = mdwerror.CodeCrosscheckMismatch
		}
	}
	return mdwerror.Newf("%d of %d files failed", sum.Failed, sum.Files).
		WithCode(code).
		WithOperation("cmd.check").
		WithDetail("fail_on_errors", failOnErrors)
}
