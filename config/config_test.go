package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pynder/pynder/diag"
)

func TestDefaultSeverityMatchesBuiltins(t *testing.T) {
	rs := Default()
	assert.Equal(t, diag.Error, rs.Severity("importResolveFailure"))
	assert.Equal(t, diag.Warning, rs.Severity("missingTypeStub"))
}

func TestSeverityUnknownRuleFallsBackToError(t *testing.T) {
	rs := Default()
	assert.Equal(t, diag.Error, rs.Severity("notARealRule"))
}

func TestNilRuleSetUsesBuiltinDefaults(t *testing.T) {
	var rs *RuleSet
	assert.Equal(t, diag.Warning, rs.Severity("missingTypeStub"))
	assert.Equal(t, diag.Error, rs.Severity("notARealRule"))
}

func TestLoadOverridesDefaultsAndFillsGaps(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pynder.toml")
	const body = `
reportGeneralTypeIssues = false

[rules]
missingTypeStub = "error"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	rs, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, diag.Error, rs.Severity("missingTypeStub"))
	// reportGeneralTypeIssues=false only suppresses rules with no built-in
	// default and no explicit entry; every name in defaultSeverities was
	// already filled in by Default() before the file's Rules overrode it.
	assert.Equal(t, diag.None, rs.Severity("notARealRule"))
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
