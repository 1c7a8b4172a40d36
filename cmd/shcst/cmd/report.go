package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/msto63/shcst/internal/store"
)

var (
	reportStorePath string
	reportLimit     int
	reportSince     time.Duration
	reportRun       string
	reportFailed    bool
	reportHistory   string
	reportStats     bool
	reportPrune     bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show recorded check runs",
	Long: `Reads the history written by "shcst check --record".

Examples:
  shcst report                        # latest runs
  shcst report --run <id> --failed    # failed files of one run
  shcst report --history deploy.sh    # results of one file over time
  shcst report --stats
  shcst report --prune                # drop runs past retention_days`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportStorePath, "store", "", "history database path (default from config)")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 10, "maximum number of rows")
	reportCmd.Flags().DurationVar(&reportSince, "since", 0, "only runs started within this duration")
	reportCmd.Flags().StringVar(&reportRun, "run", "", "list the files of one run")
	reportCmd.Flags().BoolVar(&reportFailed, "failed", false, "with --run, only failed files")
	reportCmd.Flags().StringVar(&reportHistory, "history", "", "results of one file across runs")
	reportCmd.Flags().BoolVar(&reportStats, "stats", false, "totals over the whole history")
	reportCmd.Flags().BoolVar(&reportPrune, "prune", false, "remove runs older than the retention period")
}

func runReport(cmd *cobra.Command, args []string) error {
	path := reportStorePath
	if path == "" {
		path = appConfig.Store.Path
	}
	st, err := store.NewSQLiteStore(store.Config{Path: path})
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case reportPrune:
		n, err := st.Prune(ctx, time.Duration(appConfig.Store.RetentionDays)*24*time.Hour)
		if err != nil {
			return err
		}
		if err := st.Vacuum(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "pruned %d runs older than %d days\n", n, appConfig.Store.RetentionDays)

	case reportStats:
		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "%-16s %v\n", strings.ReplaceAll(k, "_", " "), stats[k])
		}

	case reportRun != "":
		files, err := st.Files(ctx, reportRun, reportFailed)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, filesTable(files, false))
		for _, f := range files {
			for _, p := range f.Problems {
				fmt.Fprintln(out, p)
			}
		}

	case reportHistory != "":
		files, err := st.History(ctx, reportHistory, reportLimit)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, filesTable(files, true))

	default:
		filter := store.RunFilter{Limit: reportLimit}
		if reportSince > 0 {
			filter.Since = time.Now().Add(-reportSince)
		}
		runs, err := st.Runs(ctx, filter)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintf(out, "no runs recorded in %s\n", path)
			return nil
		}
		fmt.Fprintln(out, runsTable(runs))
	}
	return nil
}

func runsTable(runs []*store.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		took := "running"
		if !r.Finished.IsZero() {
			took = r.Finished.Sub(r.Started).Round(time.Millisecond).String()
		}
		rows = append(rows, []string{
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Dialect,
			strconv.Itoa(r.Files),
			strconv.Itoa(r.Failed),
			strconv.Itoa(r.ErrorNodes),
			took,
		})
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("RUN", "STARTED", "DIALECT", "FILES", "FAILED", "ERRORS", "TOOK").
		Rows(rows...).
		String()
}

func filesTable(files []*store.FileResult, withRun bool) string {
	headers := []string{"PATH", "BYTES", "TOKENS", "ERRORS", "ROUND TRIP", "CROSSCHECK", "TIME"}
	if withRun {
		headers = append([]string{"RUN"}, headers...)
	}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		cross := f.Crosscheck
		if cross == store.CrosscheckSkipped {
			cross = "-"
		}
		row := []string{
			f.Path,
			strconv.Itoa(f.Bytes),
			strconv.Itoa(f.Tokens),
			strconv.Itoa(f.ErrorNodes),
			strconv.FormatBool(f.RoundTrip),
			cross,
			f.Duration.Round(time.Microsecond).String(),
		}
		if withRun {
			row = append([]string{f.RunID}, row...)
		}
		rows = append(rows, row)
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}
