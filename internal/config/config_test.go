package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	require.True(t, cfg.URL.Enabled)
	require.Equal(t, 30*time.Second, cfg.URL.Timeout.Duration())
	require.Equal(t, ErrorBehaviorAbort, cfg.Executor.ErrorBehavior)
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load([]byte("url:\n  timeout: 5s\nexecutor:\n  errorBehavior: continue\n"))
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.URL.Timeout.Duration())
	require.Equal(t, ErrorBehaviorContinue, cfg.Executor.ErrorBehavior)
	require.True(t, cfg.Import.FuzzyMatch.Enabled, "unspecified sections keep their defaults")
}

func TestFuzzyMatchBareBool(t *testing.T) {
	cfg, err := Load([]byte("import:\n  fuzzyMatch: false\n"))
	require.NoError(t, err)
	require.False(t, cfg.Import.FuzzyMatch.Enabled)
}
