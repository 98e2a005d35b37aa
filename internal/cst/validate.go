package cst

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ValidationError locates a syntax error in a parsed file.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// Validate returns nil when f parsed cleanly and a *ValidationError for its
// first ERROR or MISSING node otherwise.
func (f *File) Validate() error {
	root := f.Root()
	if !root.HasError() {
		return nil
	}
	if errs := f.errorsUpTo(1); len(errs) > 0 {
		return &errs[0]
	}
	return &ValidationError{FilePath: f.Path, Message: "syntax error"}
}

// Errors returns every ERROR/MISSING location in f in source order. Nodes
// nested in an ERROR node are not reported separately.
func (f *File) Errors() []ValidationError {
	return f.errorsUpTo(-1)
}

// errorsUpTo walks the subtrees flagged HasError and stops after limit
// locations; a negative limit means all of them.
func (f *File) errorsUpTo(limit int) []ValidationError {
	var errs []ValidationError
	stack := []*sitter.Node{f.Root()}
	for len(stack) > 0 && len(errs) != limit {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			errs = append(errs, f.locate(n))
			continue
		}
		if !n.HasError() {
			continue
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil {
				stack = append(stack, c)
			}
		}
	}
	return errs
}

func (f *File) locate(n *sitter.Node) ValidationError {
	msg := "syntax error"
	if n.IsMissing() {
		msg = "missing " + n.Type()
	}
	p := n.StartPoint()
	return ValidationError{FilePath: f.Path, Line: p.Row, Column: p.Column, Message: msg}
}
