package runner

import (
	"fmt"
	"io"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Data returns the report as generic JSON data:
//
//	{"rule": ..., "dry_run": ..., "summary": {...}, "files": [{"path", "status", "diff", "error"}]}
func (r *Report) Data() map[string]any {
	files := make([]any, 0, len(r.Results))
	for _, res := range r.Results {
		f := map[string]any{"path": res.Path, "status": string(res.Status)}
		if res.Diff != "" {
			f["diff"] = res.Diff
		}
		if res.Err != nil {
			f["error"] = res.Err.Error()
		}
		files = append(files, f)
	}
	return map[string]any{
		"rule":    r.Rule,
		"dry_run": r.DryRun,
		"summary": map[string]any{
			"files":     int64(len(r.Results)),
			"changed":   int64(r.Count(Changed)),
			"unchanged": int64(r.Count(Unchanged)),
			"skipped":   int64(r.Count(Skipped)),
			"failed":    int64(r.Count(Failed)),
		},
		"files": files,
	}
}

// JSON renders the report as indented JSON with sorted keys.
func (r *Report) JSON() string {
	return oj.JSON(r.Data(), &oj.Options{Indent: 2, Sort: true})
}

// Query evaluates a JSONPath expression against the report data.
func (r *Report) Query(selector string) ([]any, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}
	return x.Get(r.Data()), nil
}

// WriteText prints the diffs, one line per failure and a summary line.
func (r *Report) WriteText(w io.Writer) error {
	for _, res := range r.Results {
		if res.Diff != "" {
			if _, err := io.WriteString(w, res.Diff); err != nil {
				return err
			}
		}
		if res.Err != nil {
			if _, err := fmt.Fprintf(w, "error: %v\n", res.Err); err != nil {
				return err
			}
		}
	}
	verb := "migrated"
	if r.DryRun {
		verb = "would migrate"
	}
	_, err := fmt.Fprintf(w, "%s: %s %d of %d files (%d skipped, %d failed)\n",
		r.Rule, verb, r.Count(Changed), len(r.Results), r.Count(Skipped), r.Count(Failed))
	return err
}
