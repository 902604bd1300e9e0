package evaluator

import (
	"context"
	"strings"

	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/executor"
	"github.com/meld-lang/meld/internal/fetch"
	"github.com/meld-lang/meld/internal/pathresolve"
	"github.com/meld-lang/meld/internal/registry"
	"github.com/meld-lang/meld/internal/stream"
	"github.com/meld-lang/meld/internal/value"
)

// evalVar implements spec §4.8 "var": evaluate the RHS, construct a
// Value, bind it, and emit an empty placeholder.
func (e *Evaluator) evalVar(ctx context.Context, d directive.Directive, scope *environment.Scope, pctx ProcessingContext) error {
	rhs, ok := d.Values["value"]
	if !ok {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: d.Name, Msg: "var directive carries no RHS"}
	}

	var v value.Value
	if rhs.Invocation != nil {
		res, sec, err := e.runPipeline(ctx, *rhs.Invocation, scope, d)
		if err != nil {
			return err
		}
		cr := executor.ToCommandResult(res)
		cr.Stdout = stripTrailingNewline(cr.Stdout)
		v = value.OfCommandResult(d.Name, cr, toLocation(d.Location), sec)
	} else {
		var err error
		v, err = e.evalExpr(d.Name, rhs, scope, toLocation(d.Location))
		if err != nil {
			return err
		}
	}

	if err := scope.Set(d.Name, v); err != nil {
		return err
	}
	e.emit(stream.Node{Kind: stream.NodeText, Content: "", DirectiveID: d.ID, Line: d.Location.Line})
	return nil
}

// evalExe implements spec §4.8 "exe / define": build an Executable
// Value from the directive's body spec and bind it.
func (e *Evaluator) evalExe(d directive.Directive, scope *environment.Scope) error {
	if d.Body == nil {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: d.Name, Msg: "exe/define directive carries no body"}
	}
	body, err := toExecutableBody(*d.Body)
	if err != nil {
		return err
	}
	exe := value.Executable{Parameters: d.Params, Body: body, ParamSchema: d.Body.ParamSchema}
	return registry.Define(scope, d.Name, exe, toLocation(d.Location), value.NewSecurity())
}

func toExecutableBody(spec directive.ExecutableBodySpec) (value.ExecutableBody, error) {
	switch spec.Kind {
	case directive.BodyShell:
		return value.ShellBody{Template: spec.Template}, nil
	case directive.BodyCode:
		return value.CodeBody{Language: spec.Language, Source: spec.Source}, nil
	case directive.BodyWhen:
		clauses := make([]value.WhenClause, len(spec.Clauses))
		for i, c := range spec.Clauses {
			inner, err := toExecutableBody(*c.Body)
			if err != nil {
				return nil, err
			}
			clauses[i] = value.WhenClause{Condition: conditionText(c.Condition), Body: inner}
		}
		return value.WhenBody{Clauses: clauses}, nil
	default:
		return nil, &EvalError{Kind: ErrUnsupportedDirective, Directive: "exe", Msg: "unknown executable body kind"}
	}
}

func conditionText(e directive.Expr) string {
	if e.StringLiteral != nil {
		return *e.StringLiteral
	}
	if e.RefExpr != nil {
		return e.RefExpr.Identifier
	}
	return ""
}

// evalPath implements spec §4.8 "path": bind a Path Value, recording
// URL-vs-filesystem form and absolute-vs-relative.
func (e *Evaluator) evalPath(d directive.Directive, scope *environment.Scope) error {
	target, ok := d.Values["target"]
	if !ok || target.StringLiteral == nil {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: d.Name, Msg: "path directive requires a string literal target"}
	}
	raw := *target.StringLiteral
	payload := value.PathPayload{Raw: raw}
	if fetch.IsURL(raw) {
		payload.IsURL = true
		payload.IsAbsolute = true
		payload.Protocol = raw[:strings.Index(raw, "://")]
	} else {
		payload.IsAbsolute = strings.HasPrefix(raw, "/")
	}
	v := value.OfPath(d.Name, payload, toLocation(d.Location), value.NewSecurity())
	return scope.Set(d.Name, v)
}

// evalShow implements spec §4.8 "show": resolve the directive's
// payload to text (template, value, file contents, or a fuzzy-matched
// section) and emit it.
func (e *Evaluator) evalShow(ctx context.Context, d directive.Directive, scope *environment.Scope, pctx ProcessingContext) error {
	if d.Section != nil {
		text, err := e.resolveSection(*d.Section, scope)
		if err != nil {
			return err
		}
		e.emit(stream.Node{Kind: stream.NodeText, Content: text, DirectiveID: d.ID, Line: d.Location.Line})
		return nil
	}
	rhs, ok := d.Values["value"]
	if !ok {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: "show", Msg: "show directive carries no payload"}
	}
	v, err := e.evalExpr("show", rhs, scope, toLocation(d.Location))
	if err != nil {
		return err
	}
	text, err := value.CoerceToString(v, pctx.Formatting)
	if err != nil {
		return err
	}
	e.emit(stream.Node{Kind: stream.NodeText, Content: text, DirectiveID: d.ID, Line: d.Location.Line})
	return nil
}

// resolveSection implements the `show ... from "file.md" # "Heading"`
// form (spec §4.8 "show"): extract the lines from the heading line up
// to the next heading of equal-or-higher level, falling back to a
// fuzzy heading match when the literal text is absent.
func (e *Evaluator) resolveSection(sec directive.SectionRef, scope *environment.Scope) (string, error) {
	resolved, err := pathresolve.ResolveLocal(e.FS, scope.BasePath(), sec.File, false, 0, 0)
	if err != nil {
		return "", err
	}
	content, err := e.Fetcher.ReadLocal(resolved)
	if err != nil {
		return "", err
	}
	lines := strings.Split(string(content), "\n")
	headings := extractHeadings(lines)

	threshold := sec.Threshold
	if threshold == 0 {
		threshold = e.defaultFuzzyThreshold()
	}
	idx, ok := findHeadingIndex(headings, sec.Heading)
	if !ok {
		names := make([]string, len(headings))
		for i, h := range headings {
			names[i] = h.text
		}
		best, found := fuzzySectionMatch(sec.Heading, names, threshold)
		if !found {
			return "", &EvalError{Kind: ErrSectionNotFound, Directive: "show", Msg: "no heading matches " + sec.Heading}
		}
		idx, _ = findHeadingIndex(headings, best)
	}
	return extractSectionBody(lines, headings, idx), nil
}

func (e *Evaluator) defaultFuzzyThreshold() float64 {
	if e.Config != nil {
		return e.Config.Import.FuzzyMatch.Threshold
	}
	return 0.8
}

type heading struct {
	line  int
	level int
	text  string
}

func extractHeadings(lines []string) []heading {
	var out []heading
	for i, l := range lines {
		trimmed := strings.TrimLeft(l, " \t")
		level := 0
		for level < len(trimmed) && trimmed[level] == '#' {
			level++
		}
		if level > 0 && level < len(trimmed) && trimmed[level] == ' ' {
			out = append(out, heading{line: i, level: level, text: strings.TrimSpace(trimmed[level:])})
		}
	}
	return out
}

func findHeadingIndex(headings []heading, text string) (int, bool) {
	for i, h := range headings {
		if strings.EqualFold(h.text, text) {
			return i, true
		}
	}
	return 0, false
}

func extractSectionBody(lines []string, headings []heading, idx int) string {
	start := headings[idx].line
	level := headings[idx].level
	end := len(lines)
	for j := idx + 1; j < len(headings); j++ {
		if headings[j].level <= level {
			end = headings[j].line
			break
		}
	}
	return strings.Join(lines[start:end], "\n")
}

// evalImport delegates to the Import Engine (spec §4.6).
func (e *Evaluator) evalImport(ctx context.Context, d directive.Directive, scope *environment.Scope) error {
	if e.Importer == nil {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: "import", Msg: "no import engine wired"}
	}
	if err := e.Importer.Import(ctx, d, scope); err != nil {
		return err
	}
	e.emit(stream.Node{Kind: stream.NodeText, Content: "", DirectiveID: d.ID, Line: d.Location.Line})
	return nil
}

// evalOutput implements spec §4.8 "output": emit a code fence, or
// write the rendered content (appended when spec.Append is set) to a
// file under the project root through the evaluator's FileSystem
// capability; the Executor Pool is not involved.
func (e *Evaluator) evalOutput(ctx context.Context, d directive.Directive, scope *environment.Scope, pctx ProcessingContext) error {
	spec := d.Output
	if spec == nil {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: "output", Msg: "output directive carries no spec"}
	}
	v, err := e.evalExpr("output", spec.Content, scope, toLocation(d.Location))
	if err != nil {
		return err
	}
	text, err := value.CoerceToString(v, value.FormatContext{OutputLiteral: true})
	if err != nil {
		return err
	}

	if spec.ToFile == "" {
		fenced := "```" + spec.FenceLang + "\n" + text + "\n```"
		e.emit(stream.Node{Kind: stream.NodeCodeFence, Content: fenced, DirectiveID: d.ID, Line: d.Location.Line})
		return nil
	}

	target := pathresolve.ProjectRoot(e.FS, scope.BasePath())
	fullPath := target + "/" + strings.TrimPrefix(spec.ToFile, "/")
	existing := []byte{}
	if spec.Append && e.FS.Exists(fullPath) {
		existing, err = e.FS.Read(fullPath)
		if err != nil {
			return err
		}
	}
	if err := e.FS.Write(fullPath, append(existing, []byte(text)...)); err != nil {
		return err
	}
	e.emit(stream.Node{Kind: stream.NodeText, Content: "", DirectiveID: d.ID, Line: d.Location.Line})
	return nil
}
