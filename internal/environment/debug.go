package environment

import (
	"sort"

	"github.com/meld-lang/meld/internal/value"
)

// DebugBinding is one entry of the `@debug` snapshot (SPEC_FULL.md
// supplemented feature #3): name/kind/definedAt/taint only — raw
// payloads are never included, so a tainted secret value can never leak
// through `@debug`.
type DebugBinding struct {
	Name       string
	Kind       value.Kind
	DefinedAt  value.Location
	IsImported bool
	ImportPath string
	Taint      []string
}

// DebugSnapshot is the structured diagnostics payload `@debug` resolves
// to on read (spec §4.2 "reserved lazy value debug").
type DebugSnapshot struct {
	BasePath    string
	CurrentFile string
	Bindings    []DebugBinding
}

// debugSnapshot walks the full parent chain of root (the scope active
// at the point `@debug` was read) and produces a deterministic,
// redacted snapshot.
func debugSnapshot(root *Scope) value.Value {
	all := root.All()
	names := make([]string, 0, len(all))
	for n := range all {
		names = append(names, n)
	}
	sort.Strings(names)

	snap := DebugSnapshot{BasePath: root.basePath, CurrentFile: root.currentFile}
	for _, n := range names {
		v := all[n]
		m := v.Metadata()
		taint := make([]string, 0, len(m.Security.Taint))
		for t := range m.Security.Taint {
			taint = append(taint, t)
		}
		sort.Strings(taint)
		snap.Bindings = append(snap.Bindings, DebugBinding{
			Name:       n,
			Kind:       v.Kind(),
			DefinedAt:  m.DefinedAt,
			IsImported: m.IsImported,
			ImportPath: m.ImportPath,
			Taint:      taint,
		})
	}
	return value.OfStructured("debug", snap, value.Location{}, value.NewSecurity())
}
