package codemod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/codemods/internal/cst"
)

func TestClassifyDecorator(t *testing.T) {
	tests := []struct {
		src  string
		kind MatchKind
		name string
		args int
	}{
		{"@solid\ndef f(): pass\n", Bare, "solid", 0},
		{"@lambda_solid\ndef f(): pass\n", Bare, "lambda_solid", 0},
		{"@solid(name='x', input_defs=[])\ndef f(): pass\n", Invoked, "solid", 2},
		{"@solid()\ndef f(): pass\n", Invoked, "solid", 0},
		{"@op\ndef f(): pass\n", NoMatch, "", 0},
		{"@dagster.solid\ndef f(): pass\n", NoMatch, "", 0},
		{"@solid.configured(x)\ndef f(): pass\n", NoMatch, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f := parse(t, tt.src)
			decorated := f.Statements()[0]
			require.Equal(t, "decorated_definition", decorated.Type())
			decs := Decorators(decorated)
			require.Len(t, decs, 1)

			m := ClassifyDecorator(f, decs[0], "solid", "lambda_solid")
			assert.Equal(t, tt.kind, m.Kind)
			assert.Equal(t, tt.name, m.Name)
			assert.Len(t, m.Args, tt.args)
			if tt.kind == Invoked {
				assert.NotNil(t, m.List)
				assert.Equal(t, tt.name, f.Text(m.Callee))
			}
		})
	}
}

func TestFindDecorator_SkipsOthers(t *testing.T) {
	f := parse(t, "@tag\n@solid\n@other(1)\ndef my_solid():\n    pass\n")
	decorated := f.Statements()[0]
	dec, m := FindDecorator(f, decorated, "solid")
	require.NotNil(t, dec)
	assert.Equal(t, Bare, m.Kind)
	assert.Equal(t, "solid", f.Text(m.Expr))
	assert.True(t, cst.Same(dec, Decorators(decorated)[1]))
	assert.Equal(t, "my_solid", f.Text(DefinitionName(Definition(decorated))))

	dec, m = FindDecorator(f, decorated, "pipeline")
	assert.Nil(t, dec)
	assert.Equal(t, NoMatch, m.Kind)
}

func TestClassifyCall(t *testing.T) {
	f := parse(t, "PipelineDefinition(solid_defs=[a])\n")
	m := ClassifyCall(f, firstCall(t, f), "PipelineDefinition")
	assert.Equal(t, Invoked, m.Kind)
	require.Len(t, m.Args, 1)
	assert.Equal(t, "solid_defs", m.Args[0].Keyword)

	f = parse(t, "obj.PipelineDefinition()\n")
	assert.Equal(t, NoMatch, ClassifyCall(f, firstCall(t, f), "PipelineDefinition").Kind)
	assert.Equal(t, "", CalleeName(f, firstCall(t, f)))
}

func TestSingleCallElement(t *testing.T) {
	tests := []struct {
		src string
		ok  bool
	}{
		{"f(mode_defs=[ModeDefinition(resource_defs={})])\n", true},
		{"f(mode_defs=[ModeDefinition(), ModeDefinition()])\n", false},
		{"f(mode_defs=[OtherMode()])\n", false},
		{"f(mode_defs=[])\n", false},
		{"f(mode_defs=modes)\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f := parse(t, tt.src)
			m := ClassifyCall(f, firstCall(t, f), "f")
			require.Len(t, m.Args, 1)
			call, ok := SingleCallElement(f, m.Args[0].Value, "ModeDefinition")
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, "ModeDefinition", CalleeName(f, call))
			}
		})
	}
}
