// Package directive defines the directive AST input contract (spec.md
// §3.3/§3.4): the shape an external parser (out of scope, spec §1) is
// assumed to produce and the core interpreter consumes read-only. These
// types are never mutated by the evaluator (spec §3.3 "The core treats
// directive AST nodes as immutable").
package directive

// Kind enumerates directive kinds (spec §3.3).
type Kind string

const (
	KindVar     Kind = "var"
	KindExe     Kind = "exe"
	KindRun     Kind = "run"
	KindShow    Kind = "show"
	KindImport  Kind = "import"
	KindPath    Kind = "path"
	KindDefine  Kind = "define"
	KindOutput  Kind = "output"
	KindWhen    Kind = "when"
	KindFor     Kind = "for"
	KindLoop    Kind = "loop"
	KindHook    Kind = "hook"
	KindGuard   Kind = "guard"
	KindComment Kind = "comment"
)

// Location mirrors value.Location for the AST-input side of the
// boundary (kept distinct so this package has no dependency on
// internal/value, per spec §1's framing of the parser as an external
// collaborator).
type Location struct {
	File   string
	Line   int
	Column int
}

// Step is a field-access step in a `{{ref.path}}` interpolation
// (spec §4.7). Mirrors value.Step.
type Step struct {
	Name    string
	Index   int
	IsIndex bool
}

// Ref is a parsed interpolation/invocation target: an identifier plus
// zero or more field-access steps (spec §4.7).
type Ref struct {
	Identifier string
	Steps      []Step
}

// Expr is the small expression surface the core evaluates (spec §1
// Non-goals: "only a small, well-defined subset is evaluated"). Exactly
// one field is populated per node.
type Expr struct {
	StringLiteral  *string
	NumberLiteral  *float64
	BooleanLiteral *bool
	RefExpr        *Ref
	Template       *Template // text with `{{ref}}` interpolations
	JSONLiteral    []byte    // raw JSON for object/array literals
	Invocation     *Invocation
}

// Template is a text body possibly spanning multiple lines, containing
// zero or more interpolations (spec §3.1 `source.hasInterpolation`).
// Segments/Refs split Raw at each `{{ref}}` the parser found: rendering
// concatenates Segments[0], Refs[0], Segments[1], Refs[1], ... so
// len(Segments) == len(Refs)+1 always.
type Template struct {
	Raw          string
	MultiLine    bool
	Interpolated bool
	Segments     []string
	Refs         []Ref
}

// NamedArg is one argument to an invocation (`@name("value")` or
// `@name(key: "value")`).
type NamedArg struct {
	Name  string // empty for positional args
	Value Expr
}

// Invocation is a call to a user-declared executable or a pipeline
// stage command (spec §4.8 run/exe).
type Invocation struct {
	Target string // declared executable name; empty for an ad-hoc `run`
	Args   []NamedArg
	AdHoc  *Template       // populated instead of Target for `run [shell text]`
	Stages []PipelineStage // non-nil when this invocation is the head of a `|>` chain
}

// PipelineStage is one `|>` stage (spec §4.8 "Directive pipelines").
type PipelineStage struct {
	Command string
	Args    []NamedArg
	Guard   *GuardSpec
}

// GuardSpec configures a retry/guard wrapper around a pipeline stage
// (SPEC_FULL.md supplemented feature #1).
type GuardSpec struct {
	MaxAttempts int
	Condition   Expr // not evaluated: a stage is retried while it errors or exits non-zero
}

// BodyKind tags the three Executable body shapes (spec §4.8 exe/define).
type BodyKind string

const (
	BodyShell BodyKind = "shell"
	BodyCode  BodyKind = "code"
	BodyWhen  BodyKind = "when"
)

// WhenClauseSpec is one `when` clause: a condition expression guarding
// a nested body.
type WhenClauseSpec struct {
	Condition Expr
	Body      *ExecutableBodySpec
}

// ExecutableBodySpec is the input-contract form of value.ExecutableBody
// (spec §4.8 "whose body is one of: {kind: shell, template}, {kind:
// code, language, source}, or {kind: when, clauses}").
type ExecutableBodySpec struct {
	Kind     BodyKind
	Template string           // BodyShell
	Language string           // BodyCode
	Source   string           // BodyCode
	Clauses  []WhenClauseSpec // BodyWhen
	// ParamSchema is an optional raw JSON Schema document constraining
	// the declared parameters (SPEC_FULL.md domain-stack entry for
	// github.com/santhosh-tekuri/jsonschema/v5). Empty when absent.
	ParamSchema []byte
}

// SectionRef selects a heading range from a file (spec §4.8 "show",
// `from "file.md" # "Heading"`).
type SectionRef struct {
	File      string
	Heading   string
	Threshold float64 // fuzzy-match threshold override, 0 = use config default
}

// Directive is one parsed directive node (spec §3.3).
type Directive struct {
	Kind     Kind
	Subtype  string
	Name     string // bound name, for var/exe/define/path/import-alias
	Values   map[string]Expr
	Section  *SectionRef
	Params   []string            // declared parameter names, for exe/define
	Body     *ExecutableBodySpec // executable body, for exe/define
	Imports  *ImportSpec
	Output   *OutputSpec
	Raw      string
	Meta     map[string]string
	Location Location
	ID       string // stable per-directive id (spec §6.1 "used for stable directive ids")
}

// ImportSpec captures `import` directive shape (spec §4.6).
type ImportSpec struct {
	From      string // resolved-or-literal reference
	Selected  []ImportBinding
	Namespace string // bound name, when this is `importNamespace`
}

// ImportBinding is one `{name [as alias]}` in a selective import.
type ImportBinding struct {
	Name  string
	Alias string
}

// OutputSpec captures `output` directive shape (spec §4.8 "output"):
// either an inline code fence or a write (or append) to a file under the
// project root, made by the evaluator through its FileSystem capability.
type OutputSpec struct {
	ToFile    string // empty when emitting an inline fence instead
	Append    bool
	FenceLang string
	Content   Expr
}

// ParsedFile is what a capability.Parser is expected to produce (the
// concrete type behind its `any` return): the full directive list for
// one source file, in document order, plus the surrounding text nodes
// C11 needs to reassemble output (spec §3.4). The parser itself is out
// of scope (spec §1); this is only the shape the core requires of it.
type ParsedFile struct {
	File       string
	Directives []Directive
	// Exports lists top-level bound names in declaration order, for
	// `import * as ns` namespace construction (spec §4.6).
	Exports []string
}
