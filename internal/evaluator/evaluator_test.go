package evaluator

import (
	"context"
	"io/fs"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meld-lang/meld/internal/capability"
	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/executor"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/stream"
	"github.com/meld-lang/meld/internal/value"
)

type memFS struct{ files map[string][]byte }

func (m *memFS) Exists(path string) bool          { _, ok := m.files[path]; return ok }
func (m *memFS) Read(path string) ([]byte, error) { return m.files[path], nil }
func (m *memFS) Write(path string, data []byte) error {
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[path] = data
	return nil
}
func (m *memFS) Mkdir(string, bool) error         { return nil }
func (m *memFS) Stat(string) (fs.FileInfo, error) { return nil, nil }

func newEvaluator(fsys capability.FileSystem) *Evaluator {
	return &Evaluator{
		Fetcher: &fetch.Fetcher{FS: fsys},
		Pool:    &executor.Pool{Config: executor.Config{DefaultTimeout: 5 * time.Second, MaxOutputLines: 1000}},
		FS:      fsys,
		Stream:  stream.New(),
	}
}

func TestEvalVarStringLiteral(t *testing.T) {
	e := newEvaluator(&memFS{})
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	lit := "hello"
	d := directive.Directive{Kind: directive.KindVar, Name: "greeting", Values: map[string]directive.Expr{"value": {StringLiteral: &lit}}}

	require.NoError(t, e.EvaluateDirective(context.Background(), d, scope))

	v, ok := scope.Get("greeting")
	require.True(t, ok)
	require.Equal(t, "hello", v.MustPayload())
}

func TestEvalRunAdHoc(t *testing.T) {
	e := newEvaluator(&memFS{})
	scope := environment.NewRoot(environment.RootOptions{BasePath: ""})

	d := directive.Directive{
		Kind: directive.KindRun,
		ID:   "r1",
		Values: map[string]directive.Expr{
			"invocation": {Invocation: &directive.Invocation{
				AdHoc: &directive.Template{Raw: "echo hi"},
			}},
		},
	}
	require.NoError(t, e.EvaluateDirective(context.Background(), d, scope))
	nodes := e.Stream.Nodes()
	require.Len(t, nodes, 1)
	require.Equal(t, "hi", nodes[0].Content)
}

func TestEvalExeWithParamSchemaRejectsInvalidArg(t *testing.T) {
	e := newEvaluator(&memFS{})
	scope := environment.NewRoot(environment.RootOptions{BasePath: ""})

	exeDirective := directive.Directive{
		Kind: directive.KindExe, Name: "greet", Params: []string{"name"},
		Body: &directive.ExecutableBodySpec{
			Kind:     directive.BodyShell,
			Template: "echo {{name}}",
			ParamSchema: []byte(`{
				"type": "object",
				"properties": {"name": {"type": "string", "minLength": 1}},
				"required": ["name"]
			}`),
		},
	}
	require.NoError(t, e.EvaluateDirective(context.Background(), exeDirective, scope))

	empty := ""
	badRun := directive.Directive{
		Kind: directive.KindRun, ID: "r-bad",
		Values: map[string]directive.Expr{"invocation": {Invocation: &directive.Invocation{
			Target: "greet",
			Args:   []directive.NamedArg{{Value: directive.Expr{StringLiteral: &empty}}},
		}}},
	}
	require.Error(t, e.EvaluateDirective(context.Background(), badRun, scope))

	name := "Ada"
	goodRun := directive.Directive{
		Kind: directive.KindRun, ID: "r-good",
		Values: map[string]directive.Expr{"invocation": {Invocation: &directive.Invocation{
			Target: "greet",
			Args:   []directive.NamedArg{{Value: directive.Expr{StringLiteral: &name}}},
		}}},
	}
	require.NoError(t, e.EvaluateDirective(context.Background(), goodRun, scope))
	nodes := e.Stream.Nodes()
	require.Equal(t, "Ada", nodes[len(nodes)-1].Content)
}

func TestEvalPathBindsURLForm(t *testing.T) {
	e := newEvaluator(&memFS{})
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
	raw := "https://example.com/a"
	d := directive.Directive{Kind: directive.KindPath, Name: "docs", Values: map[string]directive.Expr{"target": {StringLiteral: &raw}}}

	require.NoError(t, e.EvaluateDirective(context.Background(), d, scope))

	v, ok := scope.Get("docs")
	require.True(t, ok)
	payload := v.MustPayload().(value.PathPayload)
	require.True(t, payload.IsURL)
	require.Equal(t, "https", payload.Protocol)
}

func TestEvalShowSectionFuzzyHeading(t *testing.T) {
	content := "# Intro\ntext\n\n# Usage Guide\nhow to use it\n\n# Notes\nmore\n"
	fsys := &memFS{files: map[string][]byte{"/proj/doc.md": []byte(content)}}
	e := newEvaluator(fsys)
	scope := environment.NewRoot(environment.RootOptions{BasePath: "/proj"})

	d := directive.Directive{
		Kind:    directive.KindShow,
		Section: &directive.SectionRef{File: "doc.md", Heading: "Usage Guid", Threshold: 0.6},
	}
	require.NoError(t, e.EvaluateDirective(context.Background(), d, scope))
	nodes := e.Stream.Nodes()
	require.Len(t, nodes, 1)
	require.Contains(t, nodes[0].Content, "how to use it")
}
