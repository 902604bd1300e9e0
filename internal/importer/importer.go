// Package importer implements the Import Engine (spec.md §4.6,
// component C6): reference resolution, cycle detection, fetch,
// integrity pinning, evaluation in a fresh child scope, and selective
// or namespace export extraction. Grounded on the teacher's
// runtime/vault remote-module flow (resolve -> fetch -> approve ->
// cache -> evaluate) generalized from secret-bundle loading to
// arbitrary meld module imports.
package importer

import (
	"context"
	"sort"

	"github.com/meld-lang/meld/internal/capability"
	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/lockfile"
	"github.com/meld-lang/meld/internal/resolver"
	"github.com/meld-lang/meld/internal/value"
)

// EvalFunc evaluates a parsed file's directives into scope. Injected
// rather than imported directly, since the evaluator (C8) in turn
// calls Import for `import` directives — the two packages would
// otherwise form an import cycle.
type EvalFunc func(ctx context.Context, pf *directive.ParsedFile, scope *environment.Scope) error

// Engine is the C6 component.
type Engine struct {
	Resolver *resolver.Registry
	Fetcher  *fetch.Fetcher
	Parser   capability.Parser
	Lock     *lockfile.LockFile
	Clock    capability.Clock
	Eval     EvalFunc
}

// Import implements spec §4.6 steps 1-8 for one `import` directive,
// binding the result(s) into scope itself (per Scope.Set semantics) and
// returning only an error.
func (e *Engine) Import(ctx context.Context, d directive.Directive, scope *environment.Scope) error {
	spec := d.Imports
	if spec == nil {
		return &ImportError{Kind: ErrResolverFailed, Ref: d.Raw, Msg: "import directive carries no ImportSpec"}
	}

	res, _, err := e.Resolver.Resolve(spec.From, resolver.ResolveContext{
		Kind:             resolver.ContextImport,
		RequestedImports: bindingNames(spec.Selected),
	})
	if err != nil {
		return &ImportError{Kind: ErrModuleNotFound, Ref: spec.From, Msg: "no resolver matched", Err: err}
	}

	resolvedRef := spec.From
	if res.Metadata != nil {
		if r, ok := res.Metadata["resolved"].(string); ok && r != "" {
			resolvedRef = r
		}
	}

	chain, cyclic := scope.ImportStack().Push(resolvedRef)
	if cyclic {
		return &ImportError{Kind: ErrCircularImport, Ref: resolvedRef, Msg: "import cycle detected", Chain: chain}
	}
	defer scope.ImportStack().Pop()

	content := res.Content
	if res.ContentType != resolver.ContentModule {
		return &ImportError{Kind: ErrModuleNotFound, Ref: spec.From, Msg: "resolver produced non-module content for an import"}
	}

	if err := e.checkIntegrity(resolvedRef, content); err != nil {
		return err
	}

	parsed, err := e.Parser.Parse(content, resolvedRef)
	if err != nil {
		return &ImportError{Kind: ErrParseFailed, Ref: resolvedRef, Msg: "parse failed", Err: err}
	}
	pf, ok := parsed.(*directive.ParsedFile)
	if !ok {
		return &ImportError{Kind: ErrParseFailed, Ref: resolvedRef, Msg: "parser returned unexpected type"}
	}

	childBase := dirOf(resolvedRef)
	childScope := scope.WithCurrentFile(resolvedRef, childBase)

	if e.Eval == nil {
		return &ImportError{Kind: ErrResolverFailed, Ref: resolvedRef, Msg: "no evaluator wired into import engine"}
	}
	if err := e.Eval(ctx, pf, childScope); err != nil {
		return &ImportError{Kind: ErrParseFailed, Ref: resolvedRef, Msg: "evaluation of imported file failed", Err: err}
	}

	if spec.Namespace != "" {
		return e.bindNamespace(spec, pf, childScope, scope, resolvedRef)
	}
	return e.bindSelected(spec, childScope, scope, resolvedRef)
}

func (e *Engine) bindSelected(spec *directive.ImportSpec, childScope, into *environment.Scope, resolvedRef string) error {
	for _, b := range spec.Selected {
		v, ok := childScope.Get(b.Name)
		if !ok {
			return &ImportError{Kind: ErrExportNotFound, Ref: resolvedRef, Msg: "export not found: " + b.Name}
		}
		name := b.Name
		if b.Alias != "" {
			name = b.Alias
		}
		imported := value.OfImported(name, v, resolvedRef)
		if err := into.Set(name, imported); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) bindNamespace(spec *directive.ImportSpec, pf *directive.ParsedFile, childScope, into *environment.Scope, resolvedRef string) error {
	exports := append([]string(nil), pf.Exports...)
	sort.Strings(exports)
	fields := make(map[string]value.Value, len(exports))
	for _, name := range exports {
		v, ok := childScope.Get(name)
		if !ok {
			continue
		}
		fields[name] = v
	}
	obj := value.NewObject(fields, exports)
	ns := value.OfObject(spec.Namespace, obj, value.Location{}, value.NewSecurity())
	ns = value.OfImported(spec.Namespace, ns, resolvedRef)
	return into.Set(spec.Namespace, ns)
}

// checkIntegrity verifies resolvedRef's pinned hash, if any, matches
// content (spec §4.6 "integrity pinning"; §7 IntegrityMismatch).
func (e *Engine) checkIntegrity(resolvedRef string, content []byte) error {
	if e.Lock == nil {
		return nil
	}
	pin, ok := e.Lock.GetImportPin(resolvedRef)
	if !ok {
		return nil
	}
	got := "sha256:" + fetch.Sha256Hex(content)
	if got != pin {
		return &ImportError{Kind: ErrIntegrityMismatch, Ref: resolvedRef, Msg: "content hash does not match lock file pin (" + pin + " vs " + got + ")"}
	}
	return nil
}

func bindingNames(bindings []directive.ImportBinding) []string {
	out := make([]string, len(bindings))
	for i, b := range bindings {
		out[i] = b.Name
	}
	return out
}

func dirOf(ref string) string {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '/' {
			return ref[:i]
		}
	}
	return ""
}
