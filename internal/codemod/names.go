package codemod

import (
	"github.com/agentic-research/codemods/internal/cst"
)

// NamePolicy selects how a definition constructor's name is found when it is
// not passed as name=.
type NamePolicy int

const (
	// InputName falls back to the first positional argument.
	InputName NamePolicy = iota
	// OutputName falls back to any unlabeled second positional argument.
	OutputName
	// StrictOutputName falls back to a string literal in the second, then
	// the first, positional slot.
	StrictOutputName
)

func (p NamePolicy) String() string {
	switch p {
	case InputName:
		return "input"
	case OutputName:
		return "output"
	case StrictOutputName:
		return "strict-output"
	}
	return "unknown"
}

// ExtractName returns the argument that names a definition and the remaining
// arguments. A nil name is not an error here: for outputs it marks the
// singleton case, for inputs the caller reports it.
func ExtractName(args []cst.Arg, p NamePolicy) (*cst.Arg, []cst.Arg) {
	idx := nameIndex(args, p)
	if idx < 0 {
		return nil, args
	}
	rest := make([]cst.Arg, 0, len(args)-1)
	rest = append(rest, args[:idx]...)
	rest = append(rest, args[idx+1:]...)
	return &args[idx], rest
}

func nameIndex(args []cst.Arg, p NamePolicy) int {
	if i := cst.FindArg(args, "name"); i >= 0 {
		return i
	}
	positional := func(i int) bool {
		return i < len(args) && args[i].Positional()
	}
	switch p {
	case InputName:
		if positional(0) {
			return 0
		}
	case OutputName:
		if positional(1) {
			return 1
		}
	case StrictOutputName:
		for _, i := range []int{1, 0} {
			if positional(i) && cst.IsString(args[i].Value) {
				return i
			}
		}
	}
	return -1
}
