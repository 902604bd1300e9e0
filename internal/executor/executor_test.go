package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunShellSuccess(t *testing.T) {
	p := &Pool{Config: Config{DefaultTimeout: 5 * time.Second, MaxOutputLines: 100}}
	res, err := p.Run(context.Background(), Request{Language: LangShell, Body: "echo hi"})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hi\n", res.Stdout)
}

func TestRunShellNonZeroExit(t *testing.T) {
	p := &Pool{Config: Config{DefaultTimeout: 5 * time.Second}}
	res, err := p.Run(context.Background(), Request{Language: LangShell, Body: "exit 3"})
	require.NoError(t, err)
	require.Equal(t, 3, res.ExitCode)
}

func TestRunTimeoutKillsProcess(t *testing.T) {
	p := &Pool{Config: Config{DefaultTimeout: 100 * time.Millisecond}}
	res, err := p.Run(context.Background(), Request{Language: LangShell, Body: "sleep 5"})
	require.Error(t, err)
	require.True(t, res.TimedOut)
	eerr, ok := err.(*ExecError)
	require.True(t, ok)
	require.Equal(t, ErrExecTimeout, eerr.Kind)
}

func TestRunUnknownLanguage(t *testing.T) {
	p := &Pool{}
	_, err := p.Run(context.Background(), Request{Language: "ruby", Body: "puts 1"})
	require.Error(t, err)
	eerr := err.(*ExecError)
	require.Equal(t, ErrUnknownLanguage, eerr.Kind)
}

func TestTruncateCapsLines(t *testing.T) {
	out, truncated := truncate("a\nb\nc\nd\n", 2)
	require.True(t, truncated)
	require.Equal(t, "a\nb\n", out)
}

func TestShellQuoteEscapesSingleQuotes(t *testing.T) {
	require.Equal(t, `'it'\''s'`, ShellQuote("it's"))
	require.Equal(t, "plain", ShellQuote("plain"))
	require.Equal(t, "''", ShellQuote(""))
}

func TestNeedsHeredocThreshold(t *testing.T) {
	require.False(t, NeedsHeredoc("short", 10))
	require.True(t, NeedsHeredoc("this is longer than ten chars", 10))
}

func TestInjectHeredocAvoidsBodyCollisionTag(t *testing.T) {
	body := "contains MELD_EOF marker"
	script := InjectHeredoc("echo {{PARAM}}", "{{PARAM}}", "P", body)
	require.Contains(t, script, "MELD_EOF_0")
}

func TestDeriveTaintAlwaysIncludesExec(t *testing.T) {
	sec := DeriveTaint()
	require.True(t, sec.HasTaint("src:exec"))
}
