// Package config loads the diagnostic-rule configuration a FileInfo
// carries. It follows the nested, toml-tagged struct style
// michaelbomholt665-code-watch uses for its own project configuration
// (github.com/BurntSushi/toml).
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/pynder/pynder/diag"
)

// RuleSet maps each diagnostic rule name to the severity it should be
// reported at. A rule explicitly set to "none" is suppressed; a rule
// absent from the map resolves as Severity describes.
type RuleSet struct {
	Rules map[string]string `toml:"rules"`

	// ReportGeneralTypeIssues is the umbrella switch: when false, rules
	// not explicitly listed in Rules fall back to "none" instead of
	// their built-in default.
	ReportGeneralTypeIssues bool `toml:"reportGeneralTypeIssues"`
}

// Default severities for every rule this pass can report.
var defaultSeverities = map[string]diag.Severity{
	"importResolveFailure":      diag.Error,
	"missingTypeStub":           diag.Warning,
	"missingModuleSource":       diag.Warning,
	"escapeSequenceInString":    diag.Warning,
	"formatStringError":         diag.Error,
	"walrusTargetCollision":     diag.Error,
	"globalReassignment":        diag.Error,
	"nonlocalAtModuleScope":     diag.Error,
	"nonlocalNoBinding":         diag.Error,
	"awaitOutsideAsync":         diag.Error,
	"yieldOutsideFunction":      diag.Error,
	"yieldFromInAsync":          diag.Error,
	"wildcardImportScope":       diag.Error,
	"bareRaiseOutsideExcept":    diag.Error,
	"typeAliasNotAtModuleScope": diag.Error,
	"annotationUnsupportedTarget": diag.Error,
}

// Default returns the built-in severities, unmodified by any file.
func Default() *RuleSet {
	rules := make(map[string]string, len(defaultSeverities))
	for name, sev := range defaultSeverities {
		rules[name] = sev.String()
	}
	return &RuleSet{Rules: rules, ReportGeneralTypeIssues: true}
}

// Load reads a RuleSet from a TOML file at path, filling in any rule the
// file omits with its built-in default.
func Load(path string) (*RuleSet, error) {
	rs := Default()
	var onDisk RuleSet
	if _, err := toml.DecodeFile(path, &onDisk); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	for name, sev := range onDisk.Rules {
		rs.Rules[name] = sev
	}
	rs.ReportGeneralTypeIssues = onDisk.ReportGeneralTypeIssues
	return rs, nil
}

// Severity resolves the configured severity for rule. A rule absent from
// Rules gets "none" when ReportGeneralTypeIssues is false; otherwise it
// gets its built-in default, or "error" for an unknown rule name. A nil
// RuleSet behaves as if ReportGeneralTypeIssues were true.
func (rs *RuleSet) Severity(rule string) diag.Severity {
	if rs == nil {
		if sev, ok := defaultSeverities[rule]; ok {
			return sev
		}
		return diag.Error
	}
	raw, ok := rs.Rules[rule]
	if !ok {
		if !rs.ReportGeneralTypeIssues {
			return diag.None
		}
		if sev, ok := defaultSeverities[rule]; ok {
			return sev
		}
		return diag.Error
	}
	sev, ok := diag.ParseSeverity(raw)
	if !ok {
		return diag.Error
	}
	return sev
}
