package evaluator

import (
	"context"
	"strings"

	"github.com/meld-lang/meld/internal/directive"
	"github.com/meld-lang/meld/internal/environment"
	"github.com/meld-lang/meld/internal/executor"
	"github.com/meld-lang/meld/internal/registry"
	"github.com/meld-lang/meld/internal/stream"
	"github.com/meld-lang/meld/internal/value"
)

// evalRun implements the top-level `run` directive (spec §4.8 "run"):
// look up the named executable or build an ad-hoc shell command, bind
// parameters, delegate to the Executor Pool, and emit the stdout (one
// trailing newline stripped) as a Text replacement node.
func (e *Evaluator) evalRun(ctx context.Context, d directive.Directive, scope *environment.Scope, pctx ProcessingContext) error {
	inv := d.Values["invocation"].Invocation
	if inv == nil {
		return &EvalError{Kind: ErrUnsupportedDirective, Directive: "run", Msg: "run directive carries no invocation"}
	}
	res, _, err := e.runPipeline(ctx, *inv, scope, d)
	if err != nil {
		return err
	}
	e.emit(stream.Node{Kind: stream.NodeText, Content: stripTrailingNewline(res.Stdout), DirectiveID: d.ID, Line: d.Location.Line})
	return nil
}

// runInvocation executes inv (a declared-executable call or an ad-hoc
// shell command) as a single command; it does not read inv.Stages
// (runPipeline runs the `|>` stages). It returns the command's result
// plus the accumulated security label.
func (e *Evaluator) runInvocation(ctx context.Context, inv directive.Invocation, scope *environment.Scope, d directive.Directive) (executor.Result, value.Security, error) {
	body, params, schema, sec, err := e.resolveInvocationBody(inv, scope, d)
	if err != nil {
		return executor.Result{}, value.Security{}, err
	}

	childScope := scope.CreateChild(scope.BasePath())
	if len(inv.Args) != len(params) {
		return executor.Result{}, value.Security{}, &EvalError{
			Kind: ErrInvalidArgumentCount, Directive: d.ID,
			Msg: "argument count does not match declared parameters",
		}
	}
	argSecs := make([]value.Security, 0, len(inv.Args))
	for i, arg := range inv.Args {
		v, err := e.evalExpr(params[i], arg.Value, scope, toLocation(d.Location))
		if err != nil {
			return executor.Result{}, value.Security{}, err
		}
		if err := childScope.SetParameter(params[i], v); err != nil {
			return executor.Result{}, value.Security{}, err
		}
		argSecs = append(argSecs, v.Metadata().Security)
	}
	if err := validateParams(schema, params, childScope); err != nil {
		return executor.Result{}, value.Security{}, err
	}

	rendered, err := renderShellTemplate(body, params, childScope)
	if err != nil {
		return executor.Result{}, value.Security{}, err
	}

	res, err := e.Pool.Run(ctx, executor.Request{Language: executor.LangShell, Body: rendered, Dir: childScope.BasePath()})
	if err != nil {
		return res, value.Security{}, err
	}
	if res.ExitCode != 0 {
		return res, value.Security{}, &EvalError{
			Kind: ErrCommandExecution, Directive: d.ID, Msg: "command exited non-zero",
			ExitCode: res.ExitCode, Stdout: res.Stdout, Stderr: res.Stderr, Command: rendered,
		}
	}
	sec = value.Union(append(argSecs, sec)...)
	return res, executor.DeriveTaint(sec), nil
}

// resolveInvocationBody finds the shell template and declared
// parameter names behind an invocation, whether it targets a declared
// executable or is an ad-hoc `run [shell text]`.
func (e *Evaluator) resolveInvocationBody(inv directive.Invocation, scope *environment.Scope, d directive.Directive) (string, []string, []byte, value.Security, error) {
	if inv.Target != "" {
		exe, v, err := registry.Lookup(scope, inv.Target)
		if err != nil {
			return "", nil, nil, value.Security{}, err
		}
		shellBody, ok := exe.Body.(value.ShellBody)
		if !ok {
			return "", nil, nil, value.Security{}, &EvalError{Kind: ErrUnsupportedDirective, Directive: d.ID, Msg: "only shell-bodied executables are supported by runInvocation"}
		}
		return shellBody.Template, exe.Parameters, exe.ParamSchema, v.Metadata().Security, nil
	}
	if inv.AdHoc != nil {
		return inv.AdHoc.Raw, nil, nil, value.NewSecurity(), nil
	}
	return "", nil, nil, value.Security{}, &EvalError{Kind: ErrUnsupportedDirective, Directive: d.ID, Msg: "invocation has neither a target nor an ad-hoc body"}
}

// renderShellTemplate substitutes each `{{param}}` placeholder with its
// shell-quoted (or heredoc-injected, for values over a fixed 128 KiB)
// interpolated text (spec §4.9).
func renderShellTemplate(template string, params []string, scope *environment.Scope) (string, error) {
	rendered := template
	for _, p := range params {
		v, ok := scope.Get(p)
		if !ok {
			continue
		}
		text, err := value.CoerceToString(v, value.FormatContext{Inline: true})
		if err != nil {
			return "", err
		}
		placeholder := "{{" + p + "}}"
		if !strings.Contains(rendered, placeholder) {
			continue
		}
		if executor.NeedsHeredoc(text, 128*1024) {
			rendered = executor.InjectHeredoc(rendered, placeholder, "meld_"+p, text)
		} else {
			rendered = strings.ReplaceAll(rendered, placeholder, executor.ShellQuote(text))
		}
	}
	return rendered, nil
}

func stripTrailingNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
