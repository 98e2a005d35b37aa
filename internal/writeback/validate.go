package writeback

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/agentic-research/codemods/internal/cst"
)

// Validate parses content and returns a *cst.ValidationError if it is not
// syntactically valid Python. Files that are not Python pass through
// without validation (returns nil).
func Validate(content []byte, filePath string) error {
	if !isPython(filePath) {
		return nil
	}
	f, err := cst.Parse(context.Background(), filePath, content)
	if err != nil {
		return err
	}
	return f.Validate()
}

func isPython(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".py", ".pyi":
		return true
	default:
		return false
	}
}
