// Package environment implements the lexically scoped, immutable
// Environment (spec.md §3.2, component C2): a tree of scopes with
// parent-chain lookup, reserved-name protection, a shared import-cycle
// stack, and the ambient `ctx` / `debug` / `now` / `input` / `base`
// reserved values.
package environment

import (
	"sync"

	"github.com/meld-lang/meld/internal/invariant"
	"github.com/meld-lang/meld/internal/value"
)

// ReservedNames is the shared, registry-backed set of names a user may
// never bind (spec §4.5 "every registered prefix's leading segment...
// is added to reserved_names at initialisation"). Grounded on the
// teacher's sync.RWMutex-guarded registries (core/decorator/registry.go,
// core/types/registry.go).
type ReservedNames struct {
	mu  sync.RWMutex
	set map[string]struct{}
}

func NewReservedNames(initial ...string) *ReservedNames {
	r := &ReservedNames{set: make(map[string]struct{}, len(initial))}
	for _, n := range initial {
		r.set[n] = struct{}{}
	}
	return r
}

func (r *ReservedNames) Add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set[name] = struct{}{}
}

func (r *ReservedNames) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.set[name]
	return ok
}

// ImportStack is the shared cycle-detection set (spec §3.2
// `import_stack`, shared with parent; spec §4.6 CircularImport).
type ImportStack struct {
	mu    sync.Mutex
	stack []string
	inSet map[string]struct{}
}

func NewImportStack() *ImportStack {
	return &ImportStack{inSet: map[string]struct{}{}}
}

// Push adds resolved to the stack. Returns (chain, true) if resolved is
// already present — the caller should fail with CircularImport.
func (s *ImportStack) Push(resolved string) (chain []string, cyclic bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inSet[resolved]; ok {
		chain = append(append([]string{}, s.stack...), resolved)
		return chain, true
	}
	s.stack = append(s.stack, resolved)
	s.inSet[resolved] = struct{}{}
	return nil, false
}

func (s *ImportStack) Pop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) == 0 {
		return
	}
	last := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	delete(s.inSet, last)
}

// PipelineContext is the ambient per-stage metadata (spec §4.2, §4.8).
type PipelineContext struct {
	Try             int
	Tries           []string
	Stage           int
	TotalStages     int
	IsPipeline      bool
	Hint            any
	LastOutput      string
	Input           any
	CurrentCommand  string
	PreviousOutputs []string
}

// Scope is one node of the Environment tree (spec §3.2).
type Scope struct {
	bindings map[string]value.Value
	parent   *Scope

	basePath    string
	currentFile string

	importStack   *ImportStack
	reservedNames *ReservedNames

	pipelineContext *PipelineContext

	// rootExtras supplies the root-only reserved values (@now, @input,
	// @debug, @base) lazily; nil on non-root scopes (spec I-E3).
	rootExtras *rootExtras
}

type rootExtras struct {
	now   func() value.Value
	input func() value.Value
	base  func() value.Value
	debug func(root *Scope) value.Value
}

// RootOptions configures the root scope's reserved values.
type RootOptions struct {
	BasePath         string
	Now              func() value.Value
	InputRaw         string            // raw stdin content, merged with AllowedEnvVars
	AllowedEnvVars   map[string]string // name -> value, pre-filtered by the caller's allow-list
	BuildInput       func(raw string, env map[string]string) value.Value
	ReservedPrefixes []string // e.g. "work" for a registered "@work/" resolver prefix
}

// NewRoot constructs the root scope, materialising the builtin reserved
// names (spec §4.5 "Name reservation") and wiring the lazily-computed
// reserved Values (spec §4.2).
func NewRoot(opts RootOptions) *Scope {
	reserved := NewReservedNames("now", "input", "debug", "base", "ctx")
	for _, p := range opts.ReservedPrefixes {
		reserved.Add(p)
	}

	root := &Scope{
		bindings:      map[string]value.Value{},
		basePath:      opts.BasePath,
		importStack:   NewImportStack(),
		reservedNames: reserved,
	}

	buildInput := opts.BuildInput
	if buildInput == nil {
		buildInput = defaultBuildInput
	}
	now := opts.Now
	if now == nil {
		now = func() value.Value {
			return value.OfPrimitive("now", nil, value.Location{}, value.NewSecurity("src:env:clock"))
		}
	}

	root.rootExtras = &rootExtras{
		now: now,
		input: func() value.Value {
			return buildInput(opts.InputRaw, opts.AllowedEnvVars)
		},
		base: func() value.Value {
			return value.OfPath("base", value.PathPayload{Raw: opts.BasePath, IsAbsolute: true}, value.Location{}, value.NewSecurity())
		},
		debug: debugSnapshot,
	}
	return root
}

// CreateChild returns a new scope inheriting reserved_names,
// current_file, and sharing import_stack (spec §4.2 create_child).
func (s *Scope) CreateChild(basePath string) *Scope {
	if basePath == "" {
		basePath = s.basePath
	}
	return &Scope{
		bindings:      map[string]value.Value{},
		parent:        s,
		basePath:      basePath,
		currentFile:   s.currentFile,
		importStack:   s.importStack,
		reservedNames: s.reservedNames,
	}
}

// WithCurrentFile returns a child-like scope override used by the
// Import Engine (spec §4.6 step 6: "shadows base_path with the new
// file's directory").
func (s *Scope) WithCurrentFile(file, dir string) *Scope {
	child := s.CreateChild(dir)
	child.currentFile = file
	return child
}

func (s *Scope) BasePath() string              { return s.basePath }
func (s *Scope) CurrentFile() string           { return s.currentFile }
func (s *Scope) ImportStack() *ImportStack     { return s.importStack }
func (s *Scope) ReservedNames() *ReservedNames { return s.reservedNames }

// WithPipelineContext returns a child scope carrying a pipeline context
// (spec §4.8 "the pipeline_context in the Environment records...").
func (s *Scope) WithPipelineContext(pc *PipelineContext) *Scope {
	child := s.CreateChild(s.basePath)
	child.pipelineContext = pc
	return child
}

// Set binds name in this scope (spec §4.2 `set`), enforcing I-E1, I-E2,
// and cross-scope import-conflict classification.
func (s *Scope) Set(name string, v value.Value) error {
	if s.reservedNames.Has(name) {
		return &BindError{Kind: ErrReservedName, Name: name}
	}
	if existing, ok := s.bindings[name]; ok {
		return &BindError{
			Kind:       ErrVariableRedefinition,
			Name:       name,
			Class:      RedefinitionSameFile,
			ExistingAt: toEnvLoc(existing.Metadata().DefinedAt),
			NewAt:      toEnvLoc(v.Metadata().DefinedAt),
		}
	}
	if parentVal, ok := s.lookupParent(name); ok && isImportConflict(parentVal, v) {
		return &BindError{
			Kind:       ErrVariableRedefinition,
			Name:       name,
			Class:      RedefinitionImportConflict,
			ExistingAt: toEnvLoc(parentVal.Metadata().DefinedAt),
			NewAt:      toEnvLoc(v.Metadata().DefinedAt),
		}
	}
	s.bindings[name] = v
	return nil
}

func toEnvLoc(l value.Location) Location {
	return Location{File: l.File, Line: l.Line, Column: l.Column}
}

// isImportConflict reports a "legitimate" parent Value under the same
// name with differing import provenance (spec §4.2 `set`).
func isImportConflict(parentVal, newVal value.Value) bool {
	pm, nm := parentVal.Metadata(), newVal.Metadata()
	if !pm.IsImported && !nm.IsImported {
		return false
	}
	return pm.ImportPath != nm.ImportPath
}

func (s *Scope) lookupParent(name string) (value.Value, bool) {
	if s.parent == nil {
		return value.Value{}, false
	}
	return s.parent.Get(name)
}

// SetParameter binds a parameter variable (spec §4.2 `set_parameter`):
// same-scope collision check only, explicitly permitted to shadow a
// parent binding (invariant I-E1 exception).
func (s *Scope) SetParameter(name string, v value.Value) error {
	if s.reservedNames.Has(name) {
		return &BindError{Kind: ErrReservedName, Name: name}
	}
	if existing, ok := s.bindings[name]; ok {
		return &BindError{
			Kind:       ErrVariableRedefinition,
			Name:       name,
			Class:      RedefinitionSameFile,
			ExistingAt: toEnvLoc(existing.Metadata().DefinedAt),
			NewAt:      toEnvLoc(v.Metadata().DefinedAt),
		}
	}
	m := v.Metadata()
	m.IsParameter = true
	s.bindings[name] = v.WithMetadata(m)
	return nil
}

// Get resolves name by local scope then parent chain (spec §4.2 `get`,
// invariant I-E3/I-E4). At the root it also materialises reserved
// values on demand.
func (s *Scope) Get(name string) (value.Value, bool) {
	return s.get(name, s)
}

// get walks the parent chain for Get; active is the scope Get was
// called on, which the `@debug` snapshot is taken from.
func (s *Scope) get(name string, active *Scope) (value.Value, bool) {
	if name == "ctx" {
		return s.ambientCtx(), true
	}
	if v, ok := s.bindings[name]; ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.get(name, active)
	}
	return s.rootGet(name, active)
}

func (s *Scope) rootGet(name string, active *Scope) (value.Value, bool) {
	if s.rootExtras == nil {
		return value.Value{}, false
	}
	switch name {
	case "now":
		return s.rootExtras.now(), true
	case "input":
		return s.rootExtras.input(), true
	case "base":
		return s.rootExtras.base(), true
	case "debug":
		return value.NewLazy("debug", value.Metadata{IsReserved: true, IsSystem: true, IsReadOnly: true},
			func() (any, error) {
				v := s.rootExtras.debug(active)
				p, err := v.Payload()
				return p, err
			}), true
	}
	return value.Value{}, false
}

// Has reports whether name resolves anywhere in the parent chain
// (spec §4.2 `has`).
func (s *Scope) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// All returns a flattened view of every binding reachable from s, child
// bindings shadowing parent ones (spec §4.2 `all`, used for
// serialisation/debug).
func (s *Scope) All() map[string]value.Value {
	out := map[string]value.Value{}
	chain := []*Scope{}
	for sc := s; sc != nil; sc = sc.parent {
		chain = append(chain, sc)
	}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].bindings {
			out[k] = v
		}
	}
	return out
}

// MergeChild bulk-transfers child's own bindings into s without
// rerunning same-scope collision checks (spec §4.2 `merge_child`). No
// evaluator handler calls it.
func (s *Scope) MergeChild(child *Scope) {
	invariant.Precondition(child != s, "cannot merge a scope into itself")
	for k, v := range child.bindings {
		s.bindings[k] = v
	}
}

// ambientCtx computes the read-only `ctx` value from the nearest
// pipeline context in the parent chain, defaulting per spec §4.2 when
// none is active. It is never cached (invariant I-E4 / spec §4.7).
func (s *Scope) ambientCtx() value.Value {
	pc := s.nearestPipelineContext()
	fields := map[string]value.Value{}
	keys := []string{"try", "tries", "stage", "isPipeline", "hint", "lastOutput", "input"}
	if pc == nil {
		fields["try"] = value.OfPrimitive("try", 1, value.Location{}, value.NewSecurity())
		fields["tries"] = value.OfArray("tries", nil, value.Location{}, value.NewSecurity())
		fields["stage"] = value.OfPrimitive("stage", 0, value.Location{}, value.NewSecurity())
		fields["isPipeline"] = value.OfPrimitive("isPipeline", false, value.Location{}, value.NewSecurity())
		fields["hint"] = value.OfPrimitive("hint", nil, value.Location{}, value.NewSecurity())
		fields["lastOutput"] = value.OfPrimitive("lastOutput", nil, value.Location{}, value.NewSecurity())
		fields["input"] = value.OfPrimitive("input", nil, value.Location{}, value.NewSecurity())
	} else {
		fields["try"] = value.OfPrimitive("try", pc.Try, value.Location{}, value.NewSecurity())
		tries := make([]value.Value, len(pc.Tries))
		for i, t := range pc.Tries {
			tries[i] = value.OfSimpleText("try", t, value.Location{}, value.NewSecurity())
		}
		fields["tries"] = value.OfArray("tries", tries, value.Location{}, value.NewSecurity())
		fields["stage"] = value.OfPrimitive("stage", pc.Stage, value.Location{}, value.NewSecurity())
		fields["isPipeline"] = value.OfPrimitive("isPipeline", pc.IsPipeline, value.Location{}, value.NewSecurity())
		fields["hint"] = value.OfPrimitive("hint", pc.Hint, value.Location{}, value.NewSecurity())
		fields["lastOutput"] = value.OfPrimitive("lastOutput", pc.LastOutput, value.Location{}, value.NewSecurity())
		fields["input"] = value.OfPrimitive("input", pc.Input, value.Location{}, value.NewSecurity())
	}
	m := value.Metadata{IsReserved: true, IsSystem: true, IsReadOnly: true}
	return value.OfObject("ctx", value.NewObject(fields, keys), value.Location{}, value.Security{}).WithMetadata(m)
}

func (s *Scope) nearestPipelineContext() *PipelineContext {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.pipelineContext != nil {
			return sc.pipelineContext
		}
	}
	return nil
}
