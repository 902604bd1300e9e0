// Package value implements the core interpreter's tagged-variant Value
// model (spec.md §3.1, component C1): immutable bindings with provenance
// and security labels, plus the string-coercion and field-access rules
// that interpolation and output depend on.
package value

import (
	"fmt"

	"github.com/meld-lang/meld/internal/invariant"
)

// Kind tags the shape of a Value's payload.
type Kind string

const (
	KindSimpleText       Kind = "SimpleText"
	KindInterpolatedText Kind = "InterpolatedText"
	KindTemplate         Kind = "Template"
	KindFileContent      Kind = "FileContent"
	KindSectionContent   Kind = "SectionContent"
	KindObject           Kind = "Object"
	KindArray            Kind = "Array"
	KindPrimitive        Kind = "Primitive"
	KindPath             Kind = "Path"
	KindExecutable       Kind = "Executable"
	KindPipelineInput    Kind = "PipelineInput"
	KindImported         Kind = "Imported"
	KindCommandResult    Kind = "CommandResult"
	KindStructuredValue  Kind = "StructuredValue"
)

// Location pinpoints where a Value was defined in source.
type Location struct {
	File   string
	Line   int
	Column int
}

// Source records how a binding was written (spec §3.1 `source`).
type Source struct {
	Directive        string // "var", "exe", "path", "import", ...
	Syntax           string // raw syntax form, for diagnostics
	HasInterpolation bool
	IsMultiLine      bool
}

// Metadata carries the non-payload bookkeeping spec §3.1 requires.
type Metadata struct {
	DefinedAt    Location
	IsReserved   bool
	IsSystem     bool
	IsReadOnly   bool
	IsLazy       bool
	IsImported   bool
	IsParameter  bool
	ImportPath   string
	ResolverName string
	Security     Security
}

// Security is the taint/provenance label set (spec §3.1, §5, §7).
// Taint is the union of every input's taint that contributed to the
// Value's construction (invariant I-V3); Sources records the distinct
// provenance labels (e.g. "src:fs", "src:env:OS", "src:exec").
type Security struct {
	Taint   map[string]struct{}
	Sources map[string]struct{}
}

// NewSecurity builds a Security set from zero or more labels, applied to
// both Taint and Sources (the common case: a leaf Value tainted by its
// own origin).
func NewSecurity(labels ...string) Security {
	s := Security{Taint: map[string]struct{}{}, Sources: map[string]struct{}{}}
	for _, l := range labels {
		s.Taint[l] = struct{}{}
		s.Sources[l] = struct{}{}
	}
	return s
}

// Union returns the monotonic union of taint/source labels across a set
// of Security values, satisfying the taint-monotonicity property
// (spec §8): the result is a superset of every input's taint.
func Union(securities ...Security) Security {
	out := Security{Taint: map[string]struct{}{}, Sources: map[string]struct{}{}}
	for _, s := range securities {
		for t := range s.Taint {
			out.Taint[t] = struct{}{}
		}
		for src := range s.Sources {
			out.Sources[src] = struct{}{}
		}
	}
	return out
}

// HasTaint reports whether label is present in the taint set.
func (s Security) HasTaint(label string) bool {
	_, ok := s.Taint[label]
	return ok
}

// LazyFunc computes a Value's payload on first read (used for `@debug`).
type LazyFunc func() (any, error)

// Value is an immutable binding (spec §3.1, invariant I-V1: never
// mutated after construction — rebinding always shadows in a child
// scope or is rejected outright).
type Value struct {
	name     string
	kind     Kind
	payload  any
	source   Source
	metadata Metadata
	lazy     LazyFunc
}

// New constructs a Value. Callers should generally prefer one of the
// Of* constructors below, which fill in sensible Source/Metadata
// defaults; New is for the importer and evaluator, which need full
// control over every field.
func New(name string, kind Kind, payload any, source Source, metadata Metadata) Value {
	invariant.Precondition(name != "", "value name must not be empty")
	return Value{name: name, kind: kind, payload: payload, source: source, metadata: metadata}
}

// NewLazy constructs a lazily-computed reserved Value (e.g. `@debug`).
// The payload is computed at most once, on first Payload() call.
func NewLazy(name string, metadata Metadata, fn LazyFunc) Value {
	metadata.IsLazy = true
	return Value{name: name, kind: KindStructuredValue, metadata: metadata, lazy: fn}
}

func (v Value) Name() string       { return v.name }
func (v Value) Kind() Kind         { return v.kind }
func (v Value) Source() Source     { return v.source }
func (v Value) Metadata() Metadata { return v.metadata }

// WithName returns a copy of v bound under a different name, used when
// an imported or aliased binding is re-exported (spec §4.6 step 7/8).
// This never mutates v; it constructs a new Value, preserving I-V1.
func (v Value) WithName(name string) Value {
	v2 := v
	v2.name = name
	return v2
}

// WithMetadata returns a copy of v with metadata replaced wholesale.
func (v Value) WithMetadata(m Metadata) Value {
	v2 := v
	v2.metadata = m
	return v2
}

// Payload returns the Value's data, resolving a lazy Value on first
// access and never recomputing it afterwards.
func (v *Value) Payload() (any, error) {
	if v.lazy != nil {
		p, err := v.lazy()
		if err != nil {
			return nil, err
		}
		v.payload = p
		v.lazy = nil
		return p, nil
	}
	return v.payload, nil
}

// MustPayload panics if resolving a lazy Value fails; only safe for
// reserved system Values whose computation cannot fail by construction.
func (v *Value) MustPayload() any {
	p, err := v.Payload()
	if err != nil {
		panic(fmt.Sprintf("invariant: lazy value %q failed to resolve: %v", v.name, err))
	}
	return p
}

// --- Constructors -----------------------------------------------------

func simpleMeta(loc Location, sec Security) Metadata {
	return Metadata{DefinedAt: loc, Security: sec}
}

func OfSimpleText(name, text string, loc Location, sec Security) Value {
	return New(name, KindSimpleText, text, Source{Directive: "var", Syntax: "text"}, simpleMeta(loc, sec))
}

func OfInterpolatedText(name, raw string, loc Location, sec Security) Value {
	return New(name, KindInterpolatedText, raw, Source{Directive: "var", Syntax: "template", HasInterpolation: true}, simpleMeta(loc, sec))
}

func OfTemplate(name, raw string, multiline bool, loc Location, sec Security) Value {
	return New(name, KindTemplate, raw, Source{Directive: "var", Syntax: "template", HasInterpolation: true, IsMultiLine: multiline}, simpleMeta(loc, sec))
}

func OfFileContent(name, content string, loc Location, sec Security) Value {
	return New(name, KindFileContent, content, Source{Directive: "show", Syntax: "file"}, simpleMeta(loc, sec))
}

func OfSectionContent(name, content string, loc Location, sec Security) Value {
	return New(name, KindSectionContent, content, Source{Directive: "show", Syntax: "section"}, simpleMeta(loc, sec))
}

// Object carries an ordered set of fields so iteration/serialization is
// deterministic (map iteration order in Go is not).
type Object struct {
	Keys   []string
	Fields map[string]Value
}

func NewObject(fields map[string]Value, keys []string) Object {
	if keys == nil {
		keys = make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
	}
	return Object{Keys: keys, Fields: fields}
}

func OfObject(name string, obj Object, loc Location, sec Security) Value {
	return New(name, KindObject, obj, Source{Directive: "var", Syntax: "object"}, simpleMeta(loc, sec))
}

func OfArray(name string, items []Value, loc Location, sec Security) Value {
	return New(name, KindArray, items, Source{Directive: "var", Syntax: "array"}, simpleMeta(loc, sec))
}

func OfPrimitive(name string, prim any, loc Location, sec Security) Value {
	return New(name, KindPrimitive, prim, Source{Directive: "var", Syntax: "literal"}, simpleMeta(loc, sec))
}

// PathPayload is the payload of a Path Value (spec §4.8 "path" handler).
type PathPayload struct {
	Raw        string
	IsURL      bool
	IsAbsolute bool
	Protocol   string // for URL paths
}

func OfPath(name string, p PathPayload, loc Location, sec Security) Value {
	return New(name, KindPath, p, Source{Directive: "path", Syntax: "path"}, simpleMeta(loc, sec))
}

// ExecutableBody is one of ShellBody, CodeBody, or WhenBody (spec §4.8 exe/define).
type ExecutableBody interface{ isExecutableBody() }

type ShellBody struct{ Template string }
type CodeBody struct {
	Language string
	Source   string
}
type WhenClause struct {
	Condition string
	Body      ExecutableBody
}
type WhenBody struct{ Clauses []WhenClause }

func (ShellBody) isExecutableBody() {}
func (CodeBody) isExecutableBody()  {}
func (WhenBody) isExecutableBody()  {}

// Executable is the payload of an Executable Value (spec §4.8, §4.10).
type Executable struct {
	Parameters []string
	Body       ExecutableBody
	// ParamSchema is an optional raw JSON Schema document (SPEC_FULL.md
	// domain-stack entry: github.com/santhosh-tekuri/jsonschema/v5)
	// constraining the shape of bound parameter values at call time.
	// Empty when the declaration carries no schema.
	ParamSchema []byte
}

func OfExecutable(name string, exe Executable, loc Location, sec Security) Value {
	return New(name, KindExecutable, exe, Source{Directive: "exe", Syntax: "executable"}, simpleMeta(loc, sec))
}

// PipelineInput is the payload handed to each pipeline stage (spec §4.8
// "Directive pipelines").
type PipelineInput struct {
	Raw  string
	Data any // JSON-parsed form of Raw, if it parses; nil otherwise
}

func OfPipelineInput(name string, pi PipelineInput, loc Location, sec Security) Value {
	return New(name, KindPipelineInput, pi, Source{Directive: "run", Syntax: "pipeline"}, simpleMeta(loc, sec))
}

func OfImported(name string, inner Value, importPath string) Value {
	m := inner.metadata
	m.IsImported = true
	m.ImportPath = importPath
	m.Security.Taint = union1(m.Security.Taint, "src:import:"+importPath)
	v := New(name, KindImported, inner.payload, inner.source, m)
	v.lazy = inner.lazy
	return v
}

func union1(set map[string]struct{}, label string) map[string]struct{} {
	out := map[string]struct{}{}
	for k := range set {
		out[k] = struct{}{}
	}
	out[label] = struct{}{}
	return out
}

// CommandResult is the payload bound when `run` is the RHS of `var`
// (spec §4.8 "run").
type CommandResult struct {
	Stdout string
	Data   any // JSON-parsed Stdout, if it parses
}

func OfCommandResult(name string, cr CommandResult, loc Location, sec Security) Value {
	return New(name, KindCommandResult, cr, Source{Directive: "run", Syntax: "command"}, simpleMeta(loc, sec))
}

func OfStructured(name string, payload any, loc Location, sec Security) Value {
	return New(name, KindStructuredValue, payload, Source{Directive: "var", Syntax: "structured"}, simpleMeta(loc, sec))
}
