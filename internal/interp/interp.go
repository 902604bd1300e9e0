// Package interp wires components C1-C11 into a single entrypoint
// (spec.md §5 "Interpretation pipeline"). It owns no domain logic of
// its own: every decision lives in the component packages; this is
// only construction order and the final render step, grounded on the
// teacher's core/sdk top-level wiring (one constructor assembling
// capability implementations and handing them to the runtime).
package interp

import (
	"context"
	"strings"
	"time"

	"github.com/meld-lang/meld/internal/capability"
	"github.com/meld-lang/meld/internal/config"
	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/evaluator"
	"github.com/meld-lang/meld/internal/executor"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/importer"
	"github.com/meld-lang/meld/internal/lockfile"
	"github.com/meld-lang/meld/internal/resolver"
	"github.com/meld-lang/meld/internal/stream"
)

// Capabilities bundles every host-supplied boundary interface (spec
// §6.1). A host need not supply all of them: nil optional fields fall
// back to conservative defaults (no HTTP fetch, no approval, no
// caching) so a minimal embedder can still run local-only programs.
type Capabilities struct {
	FS        capability.FileSystem
	HTTP      capability.HTTPFetcher
	Approver  capability.Approver
	Immutable capability.ImmutableCache
	Runtime   capability.RuntimeCache
	Clock     capability.Clock
	IDs       capability.IDGenerator
	Parser    capability.Parser
}

// Options configures one interpretation run.
type Options struct {
	BasePath        string
	ProjectAlias    string // leading segment for `@<alias>/` project-path resolution (spec §4.5)
	RegistryBaseURL string // base URL for `@user/module[@version]` registry resolution
	LocalPrefixes   map[string]string
	Config          *config.Config
	LockFile        *lockfile.LockFile
	InputRaw        string
	AllowedEnvVars  map[string]string
}

// Interpreter is the fully wired C1-C11 pipeline for one project root.
type Interpreter struct {
	caps  Capabilities
	opts  Options
	res   *resolver.Registry
	fetch *fetch.Fetcher
	lock  *lockfile.LockFile
}

// New assembles the Resolver Registry (in the priority order spec
// §4.5 lists: project-path, registry, local, GitHub/HTTP, builtins),
// the Resource Fetcher, and the lock file (opts.LockFile, or an empty
// one when nil); it does not read a lock file from disk.
func New(caps Capabilities, opts Options) *Interpreter {
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	f := &fetch.Fetcher{
		FS:        caps.FS,
		HTTP:      caps.HTTP,
		Approver:  caps.Approver,
		Immutable: caps.Immutable,
		Runtime:   caps.Runtime,
		Policy: fetch.URLPolicy{
			Enabled:                opts.Config.URL.Enabled,
			AllowedProtocols:       opts.Config.URL.AllowedProtocols,
			AllowedDomains:         opts.Config.URL.AllowedDomains,
			BlockedDomains:         opts.Config.URL.BlockedDomains,
			MaxResponseSize:        opts.Config.URL.MaxResponseSize,
			Timeout:                opts.Config.URL.Timeout.Duration(),
			WarnOnInsecureProtocol: opts.Config.URL.WarnOnInsecureProtocol,
			ApproveAllImports:      opts.Config.Import.ApproveAll,
		},
	}

	lock := opts.LockFile
	if lock == nil {
		lock = lockfile.New()
	}

	reg := resolver.NewRegistry()
	reg.Register(&resolver.ProjectPathStrategy{Alias: opts.ProjectAlias, Root: opts.BasePath, FS: caps.FS})
	reg.Register(&resolver.RegistryStrategy{Fetcher: f, BaseURL: opts.RegistryBaseURL})
	reg.Register(&resolver.LocalStrategy{Prefixes: opts.LocalPrefixes, FS: caps.FS})
	reg.Register(&resolver.GitHubHTTPStrategy{Fetcher: f})
	now := func() time.Time { return time.Now() }
	if caps.Clock != nil {
		now = caps.Clock.Now
	}
	reg.Register(&resolver.BuiltinValueStrategy{Now: now, Base: opts.BasePath})

	return &Interpreter{caps: caps, opts: opts, res: reg, fetch: f, lock: lock}
}

// RootScope constructs a fresh root Environment for one interpretation
// run (spec §4.2 new_root), reserving every registered resolver
// prefix's leading segment (spec §4.5 "Name reservation").
func (ip *Interpreter) RootScope() *environment.Scope {
	var prefixes []string
	if ip.opts.ProjectAlias != "" {
		prefixes = append(prefixes, ip.opts.ProjectAlias)
	}
	for p := range ip.opts.LocalPrefixes {
		prefixes = append(prefixes, strings.Trim(p, "@/"))
	}
	return environment.NewRoot(environment.RootOptions{
		BasePath:         ip.opts.BasePath,
		InputRaw:         ip.opts.InputRaw,
		AllowedEnvVars:   ip.opts.AllowedEnvVars,
		ReservedPrefixes: prefixes,
	})
}

// Run parses source (via the host-supplied Parser, spec §1's one
// external collaborator), evaluates every directive into a fresh root
// scope, and renders the Transformation Stream to final text.
func (ip *Interpreter) Run(ctx context.Context, source []byte, file string) (string, error) {
	if ip.caps.Parser == nil {
		return "", &RunError{Msg: "no parser capability supplied"}
	}
	parsed, err := ip.caps.Parser.Parse(source, file)
	if err != nil {
		return "", &RunError{Msg: "parse failed", Err: err}
	}
	pf, ok := parsed.(*directive.ParsedFile)
	if !ok {
		return "", &RunError{Msg: "parser returned an unexpected type"}
	}

	scope := ip.RootScope()
	scope = scope.WithCurrentFile(file, ip.opts.BasePath)

	strm := stream.New()
	pool := &executor.Pool{Config: executor.Config{
		DefaultTimeout:      time.Duration(ip.opts.Config.Executor.DefaultTimeoutMs) * time.Millisecond,
		MaxOutputLines:      ip.opts.Config.Executor.MaxOutputLines,
		LargeParamThreshold: ip.opts.Config.Executor.LargeParamThreshold,
	}}

	imp := &importer.Engine{
		Resolver: ip.res,
		Fetcher:  ip.fetch,
		Parser:   ip.caps.Parser,
		Lock:     ip.lock,
		Clock:    ip.caps.Clock,
	}
	ev := &evaluator.Evaluator{
		Resolver: ip.res,
		Fetcher:  ip.fetch,
		Importer: imp,
		Pool:     pool,
		Config:   ip.opts.Config,
		FS:       ip.caps.FS,
		Stream:   strm,
	}
	imp.Eval = ev.EvaluateFile

	if err := ev.EvaluateFile(ctx, pf, scope); err != nil {
		return "", err
	}
	return strm.Render(), nil
}

// RunError wraps a pipeline-construction/parse failure that precedes
// any directive evaluation (spec §7 error envelope shape, generalized
// to the whole-run level since no single directive is at fault yet).
type RunError struct {
	Msg string
	Err error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return "interp: " + e.Msg + ": " + e.Err.Error()
	}
	return "interp: " + e.Msg
}

func (e *RunError) Unwrap() error { return e.Err }
