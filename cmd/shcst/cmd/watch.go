package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msto63/shcst/internal/watch"
	"github.com/msto63/shcst/pkg/core/cache"
)

var (
	watchRecursive bool
	watchNoInitial bool
)

var watchCmd = &cobra.Command{
	Use:   "watch PATH...",
	Short: "Re-check scripts whenever they change",
	Long: `Watches files and directories and re-checks every changed script after
a short debounce. Unchanged content is served from the parse cache.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchRecursive, "recursive", "r", false, "watch subdirectories (default from config)")
	watchCmd.Flags().BoolVar(&watchNoInitial, "no-initial", false, "skip the initial check of existing files")
}

func runWatch(cmd *cobra.Command, args []string) error {
	copts, err := checkOptions(cmd)
	if err != nil {
		return err
	}
	trees := cache.NewTreeCache(appConfig.Watch.CacheSize)
	defer trees.Close()
	copts.Cache = trees

	out := cmd.OutOrStdout()
	handler := func(ev watch.Event) {
		stamp := ev.Time.Format("15:04:05")
		if ev.Outcome == nil {
			fmt.Fprintf(out, "%s %s removed\n", stamp, ev.Path)
			return
		}
		r := ev.Outcome.Result
		status := "ok"
		if ev.Outcome.Failed(copts.FailOnErrors) {
			status = "FAILED"
		}
		fmt.Fprintf(out, "%s %s %s: %s, %d tokens, %d error nodes\n",
			stamp, ev.Op, ev.Path, status, r.Tokens, r.ErrorNodes)
		for _, p := range r.Problems {
			fmt.Fprintf(out, "  %s\n", p)
		}
	}

	w, err := watch.New(args, watch.Options{
		Check:     copts,
		Debounce:  appConfig.Watch.Debounce.Duration,
		Recursive: watchRecursive || appConfig.Watch.Recursive,
		Initial:   !watchNoInitial,
		Logger:    logger,
	}, handler)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Fprintf(out, "watching %d scripts, press Ctrl+C to stop\n", len(w.Files()))
	err = w.Run(ctx)

	hits, misses, rate := trees.Stats()
	logger.Info(fmt.Sprintf("Parse cache: %d hits, %d misses (%.0f%%)", hits, misses, rate))
	return err
}
