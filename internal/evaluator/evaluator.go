// Package evaluator implements the Directive Evaluator (spec.md §4.8,
// component C8): one handler per directive kind, each consuming a
// directive.Directive plus the current Environment and an ambient
// ProcessingContext, and producing either a new binding or a
// replacement node in the Transformation Stream. Grounded on the
// teacher's runtime/execution directive-dispatch switch, generalized
// from opal's command/variable-declaration kinds to meld's full
// directive vocabulary.
package evaluator

import (
	"context"

	"github.com/meld-lang/meld/internal/capability"
	"github.com/meld-lang/meld/internal/config"
	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/executor"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/importer"
	"github.com/meld-lang/meld/internal/interpolate"
	"github.com/meld-lang/meld/internal/pathresolve"
	"github.com/meld-lang/meld/internal/registry"
	"github.com/meld-lang/meld/internal/resolver"
	"github.com/meld-lang/meld/internal/stream"
	"github.com/meld-lang/meld/internal/value"
)

// Evaluator is the C8 component, wired with every capability/component
// a directive handler might need.
type Evaluator struct {
	Resolver *resolver.Registry
	Fetcher  *fetch.Fetcher
	Importer *importer.Engine
	Pool     *executor.Pool
	Config   *config.Config
	FS       capability.FileSystem
	Stream   *stream.Stream
}

// EvaluateFile evaluates every directive in pf, in document order,
// into scope (spec §5 "the evaluator drives the AST sequentially").
// It also satisfies importer.EvalFunc's shape, so the Import Engine can
// be wired back to this method without an import cycle.
func (e *Evaluator) EvaluateFile(ctx context.Context, pf *directive.ParsedFile, scope *environment.Scope) error {
	for i := range pf.Directives {
		if err := e.EvaluateDirective(ctx, pf.Directives[i], scope); err != nil {
			if e.Config != nil && e.Config.Executor.ErrorBehavior == config.ErrorBehaviorContinue {
				continue
			}
			return err
		}
	}
	return nil
}

// EvaluateDirective dispatches one directive by kind.
func (e *Evaluator) EvaluateDirective(ctx context.Context, d directive.Directive, scope *environment.Scope) error {
	pctx := ProcessingContext{Formatting: value.FormatContext{Block: true}}
	switch d.Kind {
	case directive.KindVar:
		return e.evalVar(ctx, d, scope, pctx)
	case directive.KindExe, directive.KindDefine:
		return e.evalExe(d, scope)
	case directive.KindRun:
		return e.evalRun(ctx, d, scope, pctx)
	case directive.KindShow:
		return e.evalShow(ctx, d, scope, pctx)
	case directive.KindPath:
		return e.evalPath(d, scope)
	case directive.KindImport:
		return e.evalImport(ctx, d, scope)
	case directive.KindOutput:
		return e.evalOutput(ctx, d, scope, pctx)
	case directive.KindComment:
		e.emit(stream.Node{Kind: stream.NodeComment, Content: "", DirectiveID: d.ID, Line: d.Location.Line})
		return nil
	default:
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: string(d.Kind), Msg: "directive kind not implemented by the core"}
	}
}

func (e *Evaluator) emit(n stream.Node) {
	if e.Stream != nil {
		e.Stream.Append(n)
	}
}

// evalExpr evaluates the small expression surface spec §1 scopes the
// core to (literals, refs, templates, JSON) into a Value. Invocation
// expressions are handled by evalRun, not here, since they need the
// full directive/pipeline context.
func (e *Evaluator) evalExpr(name string, expr directive.Expr, scope *environment.Scope, loc value.Location) (value.Value, error) {
	switch {
	case expr.StringLiteral != nil:
		return value.OfSimpleText(name, *expr.StringLiteral, loc, value.NewSecurity()), nil
	case expr.NumberLiteral != nil:
		return value.OfPrimitive(name, *expr.NumberLiteral, loc, value.NewSecurity()), nil
	case expr.BooleanLiteral != nil:
		return value.OfPrimitive(name, *expr.BooleanLiteral, loc, value.NewSecurity()), nil
	case expr.RefExpr != nil:
		v, err := interpolate.Resolve(*expr.RefExpr, scope)
		if err != nil {
			return value.Value{}, err
		}
		return v.WithName(name), nil
	case expr.Template != nil:
		return e.evalTemplate(name, *expr.Template, scope, loc)
	case expr.JSONLiteral != nil:
		return jsonToValue(name, expr.JSONLiteral, loc, value.NewSecurity())
	default:
		return value.Value{}, &EvalError{Kind: ErrUnsupportedLiteral, Directive: name, Msg: "expression carries no recognized literal form"}
	}
}

func (e *Evaluator) evalTemplate(name string, t directive.Template, scope *environment.Scope, loc value.Location) (value.Value, error) {
	if !t.Interpolated || len(t.Refs) == 0 {
		if t.MultiLine {
			return value.OfTemplate(name, t.Raw, true, loc, value.NewSecurity()), nil
		}
		return value.OfSimpleText(name, t.Raw, loc, value.NewSecurity()), nil
	}
	rendered, err := interpolate.RenderTemplate(t.Segments, t.Refs, scope, value.FormatContext{Inline: !t.MultiLine}, false, value.Value{})
	if err != nil {
		return value.Value{}, err
	}
	sec := templateSecurity(t, scope)
	return value.OfInterpolatedText(name, rendered, loc, sec), nil
}

// templateSecurity unions the taint of every ref a template resolves
// (spec §4.7 step 5).
func templateSecurity(t directive.Template, scope *environment.Scope) value.Security {
	secs := make([]value.Security, 0, len(t.Refs))
	for _, ref := range t.Refs {
		if v, err := interpolate.Resolve(ref, scope); err == nil {
			secs = append(secs, v.Metadata().Security)
		}
	}
	return value.Union(secs...)
}

func toLocation(l directive.Location) value.Location {
	return value.Location{File: l.File, Line: l.Line, Column: l.Column}
}

func fuzzySectionMatch(heading string, candidates []string, threshold float64) (string, bool) {
	matches := pathresolve.RankMatches(heading, candidates, threshold)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Name, true
}
