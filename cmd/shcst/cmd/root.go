// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     cmd
// Description: Root command, configuration and shared helpers of the CLI
// Author:      msto63
// Created:     2026-10-11
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/dialect"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/pkg/core/config"
	"github.com/msto63/shcst/pkg/core/logging"
)

var (
	cfgFile     string
	verbosity   int
	dialectFlag string

	appConfig *config.Config
	logger    *mdwlog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "shcst",
	Short: "Lossless syntax trees for bash scripts",
	Long: `shcst parses bash scripts into concrete syntax trees that keep every
byte of the input, including whitespace, comments and malformed regions.

Configuration is read from --config, $SHCST_CONFIG, ./shcst.toml or
the user config directory, in that order.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseLogFile()
	},
}

// Execute runs the CLI and reports the error, if any, on stderr
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (TOML or YAML)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&dialectFlag, "dialect", "", "bash dialect: bash3 or bash4 (default from config)")
}

// setup loads the configuration and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	if dialectFlag != "" {
		if _, err := dialect.ParseVersion(dialectFlag); err != nil {
			return err
		}
		appConfig.Parser.Dialect = dialectFlag
	}

	logger, err = logging.NewLogger(logging.FromConfig("shcst", appConfig.Logging, verbosity))
	if err != nil {
		return err
	}
	logger.Debug("Configuration loaded", mdwlog.Fields{
		"source":  appConfig.Source(),
		"dialect": appConfig.Parser.Dialect,
		"command": cmd.Name(),
	})
	return nil
}

// parserOptions returns the parse options of the loaded configuration
func parserOptions() (parser.Options, error) {
	opts, err := appConfig.ParserOptions()
	if err != nil {
		return opts, err
	}
	opts.Logger = logger
	return opts, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// parseContext bounds a single parse by the configured timeout
func parseContext() (context.Context, context.CancelFunc) {
	ctx, stop := signalContext()
	ctx, cancel := context.WithTimeout(ctx, appConfig.Parser.Timeout.Duration)
	return ctx, func() {
		cancel()
		stop()
	}
}

// readSource reads a script from a file, or from stdin for "-"
func readSource(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		code := mdwerror.CodeIOError
		if os.IsNotExist(err) {
			code = mdwerror.CodeNotFound
		}
		return "", mdwerror.Wrap(err, "failed to read script").
			WithCode(code).
			WithOperation("cmd.readSource").
			WithDetail("path", path)
	}
	return string(data), nil
}

// sourceArg returns the script argument, "-" when none is given
func sourceArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
