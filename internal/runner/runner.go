// Package runner drives a rule over a tree of Python files: discovery,
// bounded parallel transforms, diffing, journaling and write-back.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"runtime"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-logr/logr"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/journal"
	"github.com/agentic-research/codemods/internal/writeback"
)

// Options configure a run.
type Options struct {
	Rule    codemod.Rule
	// Jobs bounds the number of files transformed at once. Zero means
	// GOMAXPROCS.
	Jobs    int
	DryRun  bool
	Diff    bool
	Exclude []string
	// Journal, when set, skips files the rule already migrated and records
	// the ones it migrates.
	Journal *journal.Journal
	// Log may be the zero Logger, which discards.
	Log     logr.Logger
}

// Status is the outcome for one file.
type Status string

const (
	Unchanged Status = "unchanged"
	Changed   Status = "changed"
	Skipped   Status = "skipped"
	Failed    Status = "failed"
)

// Result is the outcome for one file.
type Result struct {
	Path   string
	Status Status
	Diff   string
	Err    error
}

// Report collects the results of a run in discovery order.
type Report struct {
	Rule    string
	DryRun  bool
	Results []Result
}

// Count returns the number of results with status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Err joins the per-file failures, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Run applies opts.Rule to every Python file under roots. A file that
// fails is reported and left untouched; the other files still run. The
// returned error is reserved for discovery failures and cancellation.
func Run(ctx context.Context, fsys billy.Filesystem, roots []string, opts Options) (*Report, error) {
	if opts.Rule == nil {
		return nil, fmt.Errorf("runner: no rule")
	}
	log := opts.Log

	paths, err := Discover(fsys, roots, opts.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	log.V(1).Info("discovered files", "count", len(paths), "rule", opts.Rule.Name())

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	report := &Report{Rule: opts.Rule.Name(), DryRun: opts.DryRun, Results: make([]Result, len(paths))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			report.Results[i] = runFile(gctx, fsys, p, opts, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, nil
}

func runFile(ctx context.Context, fsys billy.Filesystem, path string, opts Options, log logr.Logger) Result {
	res := Result{Path: path}
	fail := func(err error) Result {
		res.Status, res.Err = Failed, err
		log.Error(err, "migration failed", "path", path)
		return res
	}

	src, err := util.ReadFile(fsys, path)
	if err != nil {
		return fail(fmt.Errorf("read %s: %w", path, err))
	}
	rule := opts.Rule.Name()
	if opts.Journal != nil {
		done, err := opts.Journal.Done(ctx, path, rule, src)
		if err != nil {
			return fail(err)
		}
		if done {
			res.Status = Skipped
			return res
		}
	}

	out, err := codemod.Transform(ctx, opts.Rule, path, src, log)
	if err != nil {
		return fail(err)
	}

	res.Status = Unchanged
	if !bytes.Equal(src, out) {
		res.Status = Changed
		if opts.Diff {
			if res.Diff, err = Diff(path, src, out); err != nil {
				return fail(err)
			}
		}
		if !opts.DryRun {
			if err := writeback.Write(fsys, path, out); err != nil {
				return fail(err)
			}
			log.Info("migrated", "path", path)
		}
	}
	if opts.Journal != nil && !opts.DryRun {
		if err := opts.Journal.Record(ctx, path, rule, out); err != nil {
			return fail(err)
		}
	}
	return res
}

// Diff renders a unified diff between before and after.
func Diff(path string, before, after []byte) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(before)),
		B:        difflib.SplitLines(string(after)),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	})
}
