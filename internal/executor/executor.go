// Package executor implements the Executor Pool (spec.md §4.9,
// component C9): running a rendered command body under shell, JS,
// Python, or Bash, with a deterministic quoting/heredoc policy,
// timeout-driven process-group termination, output truncation, and
// taint derivation for the result. Grounded on the teacher's
// runtime/executor tree execution model and core/decorator/
// local_session.go's os/exec wiring, generalized from the teacher's
// decorator-dispatch tree to meld's single-command-per-stage model.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/meld-lang/meld/internal/value"
)

// Language selects the interpreter a Run call dispatches to (spec §4.9).
type Language string

const (
	LangShell  Language = "shell"
	LangBash   Language = "bash"
	LangJS     Language = "js"
	LangPython Language = "python"
)

// interpreters maps a Language to its argv prefix; the script body is
// appended as the final argument (the -c/-e operand). Grounded on the teacher's LocalSession.Run, which
// always invokes argv[0] directly rather than through a shell string.
var interpreters = map[Language][]string{
	LangShell:  {"sh", "-c"},
	LangBash:   {"bash", "-c"},
	LangJS:     {"node", "-e"},
	LangPython: {"python3", "-c"},
}

// Config tunes pool behavior (spec §6.2 executor block).
type Config struct {
	DefaultTimeout      time.Duration
	MaxOutputLines      int
	LargeParamThreshold int
}

// Request is one command execution request (spec §4.9).
type Request struct {
	Language Language
	Body     string // rendered command/script text
	Dir      string
	Env      map[string]string
	Timeout  time.Duration // overrides Config.DefaultTimeout when > 0
	Stdin    string
}

// Result is what Run produces, shaped to become a value.CommandResult
// (spec §4.9, §4.10 "run"/pipeline stage output).
type Result struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	Duration  time.Duration
	TimedOut  bool
	Truncated bool
}

// Pool runs commands. It carries no state beyond configuration, so a
// single Pool is safe to share across concurrent Run calls (each call
// spawns its own process).
type Pool struct {
	Config Config
}

// Run executes req, honoring its timeout by killing the whole process
// group (spec §4.9 "a timed-out command, and every process it spawned,
// must be terminated"). Grounded on the teacher's process-cancellation
// handling in runtime/executor, generalized from context cancellation
// alone to an explicit SIGTERM-then-SIGKILL group kill so children
// spawned by a shell body are reliably reaped too.
func (p *Pool) Run(ctx context.Context, req Request) (Result, error) {
	argv, ok := interpreters[req.Language]
	if !ok {
		return Result{}, &ExecError{Kind: ErrUnknownLanguage, Command: string(req.Language), Msg: "unknown executor language"}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = p.Config.DefaultTimeout
	}
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.Command(argv[0], append(argv[1:], req.Body)...)
	cmd.Dir = req.Dir
	cmd.Env = mergeEnv(os.Environ(), req.Env)
	if req.Stdin != "" {
		cmd.Stdin = strings.NewReader(req.Stdin)
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, &ExecError{Kind: ErrSpawnFailed, Command: req.Body, Msg: "failed to start process", Err: err}
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		timedOut = true
		killGroup(cmd.Process.Pid)
		waitErr = <-done
	}
	duration := time.Since(start)

	exitCode := 0
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}
	if timedOut {
		exitCode = -1
	}

	outText, outTrunc := truncate(stdout.String(), p.Config.MaxOutputLines)
	errText, errTrunc := truncate(stderr.String(), p.Config.MaxOutputLines)

	if timedOut {
		return Result{ExitCode: exitCode, Stdout: outText, Stderr: errText, Duration: duration, TimedOut: true, Truncated: outTrunc || errTrunc},
			&ExecError{Kind: ErrExecTimeout, Command: req.Body, Msg: fmt.Sprintf("command exceeded timeout %v", timeout)}
	}
	return Result{ExitCode: exitCode, Stdout: outText, Stderr: errText, Duration: duration, Truncated: outTrunc || errTrunc}, nil
}

// killGroup sends SIGTERM to the process group, then SIGKILL shortly
// after if it hasn't exited (spec §4.9). Uses golang.org/x/sys/unix
// rather than the frozen stdlib syscall package for the group-kill
// call, same preference the wider Go ecosystem has shifted to.
func killGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = unix.Kill(-pid, unix.SIGTERM)
	time.Sleep(200 * time.Millisecond)
	_ = unix.Kill(-pid, unix.SIGKILL)
}

func mergeEnv(base []string, overlay map[string]string) []string {
	if len(overlay) == 0 {
		return base
	}
	out := make([]string, 0, len(base)+len(overlay))
	out = append(out, base...)
	for k, v := range overlay {
		out = append(out, k+"="+v)
	}
	return out
}

// truncate caps output at maxLines, spec §4.9 "excessively long output
// must be truncated, not buffered without bound".
func truncate(s string, maxLines int) (string, bool) {
	if maxLines <= 0 {
		return s, false
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= maxLines {
		return s, false
	}
	return strings.Join(lines[:maxLines], "\n") + "\n", true
}

// ToCommandResult converts a Result into the value payload spec §4.8
// binds on `var x = run ...` (spec §4.1 coercion then treats Stdout as
// the text form).
func ToCommandResult(r Result) value.CommandResult {
	return value.CommandResult{Stdout: r.Stdout, Data: decodeJSONish(r.Stdout)}
}

// DeriveTaint computes the security label a command's result carries
// (SPEC_FULL.md supplemented feature: taint derivation). Every command
// result is tainted `src:exec`, regardless of whether its inputs were
// tainted — running a command is itself an effect boundary.
func DeriveTaint(inputs ...value.Security) value.Security {
	all := append(append([]value.Security{}, inputs...), value.NewSecurity("src:exec"))
	return value.Union(all...)
}
