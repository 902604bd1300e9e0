package importer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/resolver"
	"github.com/meld-lang/meld/internal/value"
)

type staticResolver struct {
	content []byte
}

func (s *staticResolver) Name() string            { return "static" }
func (s *staticResolver) Matches(ref string) bool { return true }
func (s *staticResolver) Resolve(ref string, rc resolver.ResolveContext) (resolver.Resolution, error) {
	return resolver.Resolution{
		Content:     s.content,
		ContentType: resolver.ContentModule,
		Metadata:    map[string]any{"resolved": ref},
	}, nil
}

type fakeParser struct {
	pf *directive.ParsedFile
}

func (p *fakeParser) Parse(source []byte, file string) (any, error) {
	p.pf.File = file
	return p.pf, nil
}

func newRootScope() *environment.Scope {
	return environment.NewRoot(environment.RootOptions{BasePath: "/proj"})
}

func TestImportSelectedBindsValue(t *testing.T) {
	scope := newRootScope()
	pf := &directive.ParsedFile{Exports: []string{"greeting"}}
	parser := &fakeParser{pf: pf}

	eng := &Engine{
		Resolver: func() *resolver.Registry {
			r := resolver.NewRegistry()
			r.Register(&staticResolver{content: []byte("var greeting = \"hi\"")})
			return r
		}(),
		Parser: parser,
		Eval: func(ctx context.Context, pf *directive.ParsedFile, s *environment.Scope) error {
			return s.Set("greeting", value.OfSimpleText("greeting", "hi", value.Location{}, value.NewSecurity()))
		},
	}

	d := directive.Directive{
		Kind: directive.KindImport,
		Imports: &directive.ImportSpec{
			From:     "./lib.meld",
			Selected: []directive.ImportBinding{{Name: "greeting"}},
		},
	}

	err := eng.Import(context.Background(), d, scope)
	require.NoError(t, err)

	v, ok := scope.Get("greeting")
	require.True(t, ok)
	require.Equal(t, "hi", v.MustPayload())
	require.True(t, v.Metadata().Security.HasTaint("src:import:./lib.meld"))
}

func TestImportNamespaceBindsObject(t *testing.T) {
	scope := newRootScope()
	pf := &directive.ParsedFile{Exports: []string{"a", "b"}}
	parser := &fakeParser{pf: pf}

	eng := &Engine{
		Resolver: func() *resolver.Registry {
			r := resolver.NewRegistry()
			r.Register(&staticResolver{content: []byte("var a = 1\nvar b = 2")})
			return r
		}(),
		Parser: parser,
		Eval: func(ctx context.Context, pf *directive.ParsedFile, s *environment.Scope) error {
			if err := s.Set("a", value.OfPrimitive("a", 1.0, value.Location{}, value.NewSecurity())); err != nil {
				return err
			}
			return s.Set("b", value.OfPrimitive("b", 2.0, value.Location{}, value.NewSecurity()))
		},
	}

	d := directive.Directive{
		Kind: directive.KindImport,
		Imports: &directive.ImportSpec{
			From:      "./lib.meld",
			Namespace: "lib",
		},
	}

	require.NoError(t, eng.Import(context.Background(), d, scope))

	v, ok := scope.Get("lib")
	require.True(t, ok)
	obj := v.MustPayload().(value.Object)
	require.ElementsMatch(t, []string{"a", "b"}, obj.Keys)
}

func TestImportCircularDetected(t *testing.T) {
	scope := newRootScope()
	scope.ImportStack().Push("./lib.meld")

	eng := &Engine{
		Resolver: func() *resolver.Registry {
			r := resolver.NewRegistry()
			r.Register(&staticResolver{content: []byte("")})
			return r
		}(),
		Parser: &fakeParser{pf: &directive.ParsedFile{}},
	}

	d := directive.Directive{
		Kind:    directive.KindImport,
		Imports: &directive.ImportSpec{From: "./lib.meld"},
	}

	err := eng.Import(context.Background(), d, scope)
	require.Error(t, err)
	ierr, ok := err.(*ImportError)
	require.True(t, ok)
	require.Equal(t, ErrCircularImport, ierr.Kind)
}

func TestImportMissingExportFails(t *testing.T) {
	scope := newRootScope()
	pf := &directive.ParsedFile{Exports: []string{}}
	eng := &Engine{
		Resolver: func() *resolver.Registry {
			r := resolver.NewRegistry()
			r.Register(&staticResolver{content: []byte("")})
			return r
		}(),
		Parser: &fakeParser{pf: pf},
		Eval: func(ctx context.Context, pf *directive.ParsedFile, s *environment.Scope) error {
			return nil
		},
	}

	d := directive.Directive{
		Kind: directive.KindImport,
		Imports: &directive.ImportSpec{
			From:     "./lib.meld",
			Selected: []directive.ImportBinding{{Name: "missing"}},
		},
	}

	err := eng.Import(context.Background(), d, scope)
	require.Error(t, err)
	ierr, ok := err.(*ImportError)
	require.True(t, ok)
	require.Equal(t, ErrExportNotFound, ierr.Kind)
}
