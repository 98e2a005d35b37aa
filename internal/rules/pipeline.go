package rules

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/cst"
)

var pipelinePolicy = codemod.Policy{{Old: "pipeline", New: "job"}}

// jobKeywords are @pipeline arguments that @job accepts unchanged.
var jobKeywords = map[string]bool{
	"name":             true,
	"description":      true,
	"tags":             true,
	"config":           true,
	"version_strategy": true,
}

// graphPositionals names PipelineDefinition's positional parameters, which
// GraphDefinition orders differently.
var graphPositionals = []string{"node_defs", "name", "description"}

// PipelineToJob converts @pipeline to @job and PipelineDefinition(...) to
// GraphDefinition(...).to_job(...).
type PipelineToJob struct{}

func (PipelineToJob) Name() string { return "pipeline-to-job" }

func (PipelineToJob) Description() string {
	return "Converts invocations of pipeline to job, renames the function if the function name contains pipeline, and renames all mention of the former pipeline's name."
}

func (p PipelineToJob) Leave(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	switch n.Type() {
	case "decorated_definition":
		return p.leaveDefinition(c, r, n)
	case "call":
		return p.leaveCall(c, r, n)
	}
	return "", false, nil
}

func (PipelineToJob) leaveDefinition(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	f := r.File()
	dec, m := codemod.FindDecorator(f, n, "pipeline")
	if m.Kind == codemod.NoMatch {
		return "", false, nil
	}
	name := f.Text(codemod.DefinitionName(codemod.Definition(n)))
	if strings.Contains(name, "pipeline") {
		c.Rename(name, pipelinePolicy.Apply(name))
	}

	expr := "job"
	if m.Kind == codemod.Invoked {
		texts, reason := jobArgs(r, m.Args)
		if reason != "" {
			c.Unrename(name)
			c.Log.V(1).Info("left pipeline unchanged", "name", name, "reason", reason)
			return "", false, nil
		}
		expr = r.Splice(m.Call,
			cst.Replace(m.Callee, "job"),
			cst.Replace(m.List, r.RenderArgs(m.List, m.Args, texts)))
	}
	c.Require(dagster, "job")
	c.Log.V(1).Info("converted pipeline", "name", name, "form", m.Kind.String())
	return r.Splice(n, cst.Replace(dec, r.Splice(dec, cst.Replace(m.Expr, expr)))), true, nil
}

// jobArgs maps @pipeline arguments onto @job. A non-empty reason means the
// decorator uses something @job cannot express and must be left alone.
func jobArgs(r *cst.Rewriter, args []cst.Arg) ([]string, string) {
	f := r.File()
	texts := r.CurrentTexts(args)
	for i, a := range args {
		switch {
		case a.Positional() && a.Index == 0:
		case jobKeywords[a.Keyword]:
		case a.Keyword == "hook_defs":
			texts[i] = codemod.RenameKeyword(r, a, "hooks", "")
		case a.Keyword == "solid_retry_policy":
			texts[i] = codemod.RenameKeyword(r, a, "op_retry_policy", "")
		case a.Keyword == "mode_defs":
			mode, ok := codemod.SingleCallElement(f, a.Value, "ModeDefinition")
			if !ok {
				return nil, "mode_defs is not a single ModeDefinition"
			}
			resources, reason := modeResources(f, mode)
			if reason != "" {
				return nil, reason
			}
			if resources == nil {
				texts[i] = ""
				continue
			}
			texts[i] = codemod.RenameKeyword(r, a, "resource_defs", r.Text(resources.Value))
		case a.Keyword != "":
			return nil, "unsupported argument " + a.Keyword
		default:
			return nil, "unsupported positional argument"
		}
	}
	return texts, ""
}

// modeResources returns the resource_defs argument of a ModeDefinition
// call. A mode's name and description have no @job equivalent and are
// dropped; any other setting makes the mode unsupported.
func modeResources(f *cst.File, mode *sitter.Node) (*cst.Arg, string) {
	args := cst.Args(f, cst.ArgumentList(mode))
	var resources *cst.Arg
	for i, a := range args {
		switch {
		case a.Keyword == "resource_defs":
			resources = &args[i]
		case a.Keyword == "name", a.Keyword == "description":
		case a.Positional() && a.Index == 0:
		case a.Keyword != "":
			return nil, "unsupported mode setting " + a.Keyword
		default:
			return nil, "unsupported mode argument"
		}
	}
	return resources, ""
}

func (PipelineToJob) leaveCall(c *codemod.Context, r *cst.Rewriter, n *sitter.Node) (string, bool, error) {
	f := r.File()
	m := codemod.ClassifyCall(f, n, "PipelineDefinition")
	if m.Kind != codemod.Invoked {
		return "", false, nil
	}
	texts := r.CurrentTexts(m.Args)
	var toJob []string
	for i, a := range m.Args {
		switch {
		case a.Star != "":
			return "", false, codemod.Unsupported(c, a.Node, "PipelineDefinition", "unpacked arguments cannot be split between graph and job")
		case a.Positional():
			if a.Index >= len(graphPositionals) {
				return "", false, codemod.Unsupported(c, a.Node, "PipelineDefinition", "positional argument %d", a.Index)
			}
			texts[i] = graphPositionals[a.Index] + "=" + texts[i]
		case a.Keyword == "solid_defs":
			texts[i] = codemod.RenameKeyword(r, a, "node_defs", "")
		case a.Keyword == "mode_defs":
			modeArgs, err := toJobModeArgs(c, r, a)
			if err != nil {
				return "", false, err
			}
			toJob = append(toJob, modeArgs...)
			texts[i] = ""
		case a.Keyword == "hook_defs":
			toJob = append(toJob, codemod.RenameKeyword(r, a, "hooks", ""))
			texts[i] = ""
		case a.Keyword == "solid_retry_policy":
			toJob = append(toJob, codemod.RenameKeyword(r, a, "op_retry_policy", ""))
			texts[i] = ""
		case a.Keyword == "version_strategy":
			toJob = append(toJob, texts[i])
			texts[i] = ""
		case a.Keyword == "preset_defs":
			return "", false, codemod.Unsupported(c, a.Node, "PipelineDefinition", "preset_defs has no job equivalent")
		}
	}

	graph := r.Splice(n,
		cst.Replace(m.Callee, "GraphDefinition"),
		cst.Replace(m.List, r.RenderArgs(m.List, m.Args, texts)))
	c.Require(dagster, "GraphDefinition")
	c.Log.V(1).Info("converted PipelineDefinition", "to_job_args", len(toJob))
	return graph + ".to_job" + cst.CallText("", toJob), true, nil
}

// toJobModeArgs turns the single ModeDefinition of mode_defs into to_job
// keyword arguments.
func toJobModeArgs(c *codemod.Context, r *cst.Rewriter, a cst.Arg) ([]string, error) {
	f := r.File()
	mode, ok := codemod.SingleCallElement(f, a.Value, "ModeDefinition")
	if !ok {
		return nil, codemod.Unsupported(c, a.Value, "PipelineDefinition", "mode_defs must hold exactly one ModeDefinition")
	}
	var out []string
	for _, ma := range cst.Args(f, cst.ArgumentList(mode)) {
		switch {
		case ma.Keyword == "executor_defs":
			return nil, codemod.Unsupported(c, ma.Node, "PipelineDefinition", "executor_defs in ModeDefinition")
		case ma.Star != "":
			return nil, codemod.Unsupported(c, ma.Node, "PipelineDefinition", "unpacked ModeDefinition arguments")
		case ma.Keyword == "name", ma.Positional():
		default:
			out = append(out, r.Text(ma.Node))
		}
	}
	return out, nil
}
