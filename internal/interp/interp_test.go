package interp

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meld-lang/meld/internal/directive"
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

// stubParser returns a fixed ParsedFile regardless of input, standing
// in for the out-of-scope external grammar (spec §1).
type stubParser struct{ pf *directive.ParsedFile }

func (p *stubParser) Parse(source []byte, file string) (any, error) { return p.pf, nil }

func TestRunEvaluatesVarAndShow(t *testing.T) {
	greeting := "hello from meld"
	pf := &directive.ParsedFile{
		File: "main.mmd",
		Directives: []directive.Directive{
			{Kind: directive.KindVar, Name: "greeting", Values: map[string]directive.Expr{"value": {StringLiteral: &greeting}}},
			{Kind: directive.KindShow, Values: map[string]directive.Expr{"value": {RefExpr: &directive.Ref{Identifier: "greeting"}}}},
		},
		Exports: []string{"greeting"},
	}

	ip := New(Capabilities{FS: &memFS{}, Parser: &stubParser{pf: pf}}, Options{BasePath: "/proj"})
	out, err := ip.Run(context.Background(), []byte("ignored"), "main.mmd")
	require.NoError(t, err)
	require.Equal(t, "hello from meld", out)
}

func TestRunRejectsMissingParser(t *testing.T) {
	ip := New(Capabilities{FS: &memFS{}}, Options{BasePath: "/proj"})
	_, err := ip.Run(context.Background(), []byte("x"), "main.mmd")
	require.Error(t, err)
}
