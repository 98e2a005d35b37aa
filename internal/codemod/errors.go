package codemod

import (
	"errors"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	// ErrUnsupported is wrapped by every UnsupportedConstructError.
	ErrUnsupported = errors.New("unsupported construct")
	// ErrMissingName is wrapped by every MissingNameError.
	ErrMissingName = errors.New("definition has no name")
	// ErrSyntax marks input that does not parse as Python.
	ErrSyntax = errors.New("syntax error")
)

// UnsupportedConstructError aborts a file's transform when a rule meets a
// shape it knows it cannot convert faithfully.
type UnsupportedConstructError struct {
	Path      string
	Line      uint32 // 0-indexed
	Column    uint32 // 0-indexed
	Construct string
	Reason    string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("%s:%d:%d: unsupported %s: %s", e.Path, e.Line+1, e.Column+1, e.Construct, e.Reason)
}

func (e *UnsupportedConstructError) Unwrap() error { return ErrUnsupported }

// Unsupported builds an UnsupportedConstructError located at n.
func Unsupported(c *Context, n *sitter.Node, construct, format string, args ...any) error {
	e := &UnsupportedConstructError{
		Path:      c.Path,
		Construct: construct,
		Reason:    fmt.Sprintf(format, args...),
	}
	if n != nil {
		e.Line, e.Column = n.StartPoint().Row, n.StartPoint().Column
	}
	return e
}

// MissingNameError reports a definition that must carry a name but has none.
type MissingNameError struct {
	Path      string
	Line      uint32
	Column    uint32
	Construct string
}

func (e *MissingNameError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s has no name", e.Path, e.Line+1, e.Column+1, e.Construct)
}

func (e *MissingNameError) Unwrap() error { return ErrMissingName }

func missingName(c *Context, n *sitter.Node, construct string) error {
	return &MissingNameError{
		Path:      c.Path,
		Line:      n.StartPoint().Row,
		Column:    n.StartPoint().Column,
		Construct: construct,
	}
}
