// ============================================================================
// shcst - Lossless Shell CST Toolkit
// ============================================================================
//
// Package:     check
// Description: Batch validation of shell scripts: round-trip, error nodes
//              and optional cross-checks against reference parsers
// Author:      msto63
// Created:     2026-10-08
// License:     MIT
// ============================================================================

package check

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	mdwerror "github.com/msto63/shcst/foundation/core/error"
	mdwlog "github.com/msto63/shcst/foundation/core/log"
	"github.com/msto63/shcst/foundation/shell/parser"
	"github.com/msto63/shcst/internal/crosscheck"
	"github.com/msto63/shcst/internal/render"
	"github.com/msto63/shcst/internal/store"
	"github.com/msto63/shcst/pkg/core/cache"
)

// Options configures a check
type Options struct {
	Parser       parser.Options
	Extensions   []string
	Workers      int
	FailOnErrors bool

	// Oracles are consulted for every file when non-empty
	Oracles       []crosscheck.Oracle
	OracleTimeout time.Duration

	// Cache, when set, serves parses of unchanged content
	Cache  *cache.TreeCache
	Logger *mdwlog.Logger
}

func (o Options) logger() *mdwlog.Logger {
	if o.Logger == nil {
		return mdwlog.Discard()
	}
	return o.Logger
}

// Outcome is the result of checking one file
type Outcome struct {
	Result *store.FileResult
	Parse  *parser.Result
	Report *crosscheck.Report
	Cached bool
	// Err is set when the file could not be read or parsed at all
	Err error
}

// Failed reports whether the outcome counts against the run
func (o *Outcome) Failed(failOnErrors bool) bool {
	return o.Err != nil || o.Result.Failed(failOnErrors)
}

// Summary aggregates the outcomes of a run in path order
type Summary struct {
	Files      int
	Failed     int
	ErrorNodes int
	Outcomes   []*Outcome
}

// Results returns the file results of all outcomes
func (s *Summary) Results() []*store.FileResult {
	out := make([]*store.FileResult, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		out = append(out, o.Result)
	}
	return out
}

// Collect expands directories into the script files below them. Files
// named explicitly are kept regardless of their extension.
func Collect(paths []string, extensions []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, mdwerror.Wrap(err, "cannot access path").
				WithCode(mdwerror.CodeNotFound).
				WithOperation("check.Collect").
				WithDetail("path", root)
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if HasExtension(p, extensions) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, mdwerror.Wrap(err, "failed to walk directory").
				WithCode(mdwerror.CodeIOError).
				WithOperation("check.Collect").
				WithDetail("path", root)
		}
	}

	sort.Strings(files)
	return files, nil
}

// HasExtension reports whether path ends in one of the extensions
func HasExtension(path string, extensions []string) bool {
	ext := filepath.Ext(path)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Hash returns the content hash recorded for a file
func Hash(src string) string {
	sum := sha256.Sum256([]byte(src))
	return hex.EncodeToString(sum[:])
}

// RoundTripDiff returns a unified diff between a source and its
// reconstruction
func RoundTripDiff(path, src, rebuilt string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(src),
		B:        difflib.SplitLines(rebuilt),
		FromFile: path,
		ToFile:   path + " (reconstructed)",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return diff
}

// File reads and checks one file
func File(ctx context.Context, path string, opts Options) *Outcome {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Outcome{
			Result: &store.FileResult{Path: path, Problems: []string{err.Error()}},
			Err: mdwerror.Wrap(err, "failed to read file").
				WithCode(mdwerror.CodeIOError).
				WithOperation("check.File").
				WithDetail("path", path),
		}
	}
	return Source(ctx, path, string(data), opts)
}

// Source checks src as the content of path
func Source(ctx context.Context, path, src string, opts Options) *Outcome {
	logger := opts.logger()
	out := &Outcome{Result: &store.FileResult{
		Path:  path,
		Hash:  Hash(src),
		Bytes: len(src),
	}}

	start := time.Now()
	var res *parser.Result
	var err error
	if opts.Cache != nil {
		res, out.Cached, err = opts.Cache.Parse(ctx, src, opts.Parser)
	} else {
		res, err = parser.Parse(ctx, src, opts.Parser)
	}
	out.Result.Duration = time.Since(start)
	if err != nil {
		out.Err = err
		out.Result.Problems = []string{err.Error()}
		return out
	}
	out.Parse = res

	fr := out.Result
	fr.Tokens = len(res.Tokens)
	fr.ErrorNodes = res.ErrorCount()
	rebuilt := res.Tree.Reconstruct()
	fr.RoundTrip = rebuilt == src
	if !fr.RoundTrip {
		fr.Problems = append(fr.Problems, fmt.Sprintf("%s: reconstructed text differs from source\n%s",
			path, RoundTripDiff(path, src, rebuilt)))
		logger.Error("Round trip failed", mdwlog.Fields{"path": path, "parse_id": res.ID})
	}
	for _, p := range render.Problems(res.Tree) {
		fr.Problems = append(fr.Problems, fmt.Sprintf("%s:%d:%d: %s", path, p.Line, p.Column, p.Message))
	}

	if len(opts.Oracles) > 0 {
		crossCheck(ctx, out, src, opts)
	}

	logger.Debug("Checked file", mdwlog.Fields{
		"path":        path,
		"tokens":      fr.Tokens,
		"error_nodes": fr.ErrorNodes,
		"cached":      out.Cached,
		"duration":    fr.Duration.String(),
	})
	return out
}

func crossCheck(ctx context.Context, out *Outcome, src string, opts Options) {
	fr := out.Result
	if opts.OracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.OracleTimeout)
		defer cancel()
	}

	report, err := crosscheck.Run(ctx, fr.Path, src, out.Parse, opts.Parser, opts.Oracles...)
	if err != nil {
		opts.logger().WarnWithErr("Cross-check skipped", err, mdwlog.Fields{"path": fr.Path})
		fr.Problems = append(fr.Problems, fmt.Sprintf("%s: cross-check skipped: %v", fr.Path, err))
		return
	}
	out.Report = report
	if report.Agrees() {
		fr.Crosscheck = store.CrosscheckAgree
		return
	}
	fr.Crosscheck = store.CrosscheckMismatch
	for _, m := range report.Mismatches {
		fr.Problems = append(fr.Problems, fmt.Sprintf("%s: %s disagrees (%s): %s", fr.Path, m.Oracle, m.Kind, m.Detail))
	}
}

// Run checks all files on a bounded worker pool. fn, if non-nil, is
// called for every outcome as it completes.
func Run(ctx context.Context, files []string, opts Options, fn func(*Outcome)) (*Summary, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]*Outcome, len(files))
	results := make(chan *Outcome)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for o := range results {
			if fn != nil {
				fn(o)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range files {
		i, path := i, path
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := File(gctx, path, opts)
			outcomes[i] = o
			results <- o
			return nil
		})
	}
	err := g.Wait()
	close(results)
	<-done

	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		return nil, mdwerror.Wrap(err, "check cancelled").
			WithCode(mdwerror.CodeCancelled).
			WithOperation("check.Run")
	}

	sum := &Summary{Outcomes: outcomes, Files: len(outcomes)}
	for _, o := range outcomes {
		sum.ErrorNodes += o.Result.ErrorNodes
		if o.Failed(opts.FailOnErrors) {
			sum.Failed++
		}
	}
	opts.logger().Info("Check finished", mdwlog.Fields{
		"files":       sum.Files,
		"failed":      sum.Failed,
		"error_nodes": sum.ErrorNodes,
	})
	return sum, nil
}
