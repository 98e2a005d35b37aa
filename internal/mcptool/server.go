// Package mcptool exposes the rules and the legacy-usage linter as MCP
// tools, so an agent can migrate a source string without touching disk.
package mcptool

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/codemods/internal/codemod"
	"github.com/agentic-research/codemods/internal/linter"
	"github.com/agentic-research/codemods/internal/rules"
)

const defaultPath = "input.py"

// New returns a server with one tool per registered rule plus "lint".
func New(version string, log logr.Logger) *server.MCPServer {
	s := server.NewMCPServer("codemods", version, server.WithToolCapabilities(false))
	for _, spec := range rules.All() {
		s.AddTool(RuleTool(spec), RuleHandler(spec, log))
	}
	s.AddTool(LintTool(), LintHandler)
	return s
}

// RuleTool describes spec as a tool. Every tool takes the Python source
// and an optional path used in error messages.
func RuleTool(spec rules.Spec) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(spec.Description + " Returns the rewritten source."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Python source to migrate")),
		mcp.WithString("path", mcp.Description("File name reported in errors")),
	}
	for _, p := range spec.Params {
		popts := []mcp.PropertyOption{mcp.Description(p.Help)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		switch p.Type {
		case "int":
			opts = append(opts, mcp.WithNumber(p.Name, popts...))
		case "list":
			popts[0] = mcp.Description(p.Help + " (comma separated)")
			opts = append(opts, mcp.WithString(p.Name, popts...))
		default:
			opts = append(opts, mcp.WithString(p.Name, popts...))
		}
	}
	return mcp.NewTool(spec.Name, opts...)
}

// RuleHandler runs spec over the "source" argument. Rule failures are tool
// errors, not protocol errors.
func RuleHandler(spec rules.Spec, log logr.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		src, err := req.RequireString("source")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args, err := ruleArgs(spec, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rule, err := spec.Build(args)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		out, err := codemod.Transform(ctx, rule, req.GetString("path", defaultPath), []byte(src), log)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func ruleArgs(spec rules.Spec, raw map[string]any) (rules.Args, error) {
	args := rules.Args{}
	for _, p := range spec.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			continue
		}
		switch v := v.(type) {
		case string:
			args[p.Name] = v
		case float64:
			args[p.Name] = strconv.FormatFloat(v, 'f', -1, 64)
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			args[p.Name] = strings.Join(items, ",")
		default:
			return nil, fmt.Errorf("parameter %s: unsupported value %v", p.Name, v)
		}
	}
	return args, nil
}

// LintTool describes the legacy-usage scan.
func LintTool() mcp.Tool {
	return mcp.NewTool("lint",
		mcp.WithDescription("Lists legacy API references left in Python source, one per line, with the rule that migrates each."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Python source to scan")),
		mcp.WithString("path", mcp.Description("File name reported in diagnostics")),
	)
}

// LintHandler runs the linter over the "source" argument.
func LintHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diags, err := linter.Lint(ctx, req.GetString("path", defaultPath), []byte(src))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.String()
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
