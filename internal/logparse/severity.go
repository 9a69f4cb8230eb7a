package logparse

import (
	"regexp"
	"strings"

	"github.com/tinytelemetry/logiq/internal/model"
)

type severityRule struct {
	severity model.Severity
	pattern  *regexp.Regexp
}

// severityRules is evaluated in order; the first match wins.
// A line mentioning both ERROR and WARN is an ERROR.
var severityRules = []severityRule{
	{model.SeverityCritical, regexp.MustCompile(`(?i)\bCRITICAL\b`)},
	{model.SeverityError, regexp.MustCompile(`(?i)\bERROR\b`)},
	{model.SeverityWarn, regexp.MustCompile(`(?i)\bWARN(ING)?\b`)},
	{model.SeverityInfo, regexp.MustCompile(`(?i)\bINFO\b`)},
	{model.SeverityDebug, regexp.MustCompile(`(?i)\bDEBUG\b`)},
}

// Classify derives the severity of free-text log content.
// Lines without any known keyword are DEBUG.
func Classify(text string) model.Severity {
	for _, rule := range severityRules {
		if rule.pattern.MatchString(text) {
			return rule.severity
		}
	}
	return model.SeverityDebug
}

// SeverityPattern returns the word-bounded pattern used for sev, suitable for
// DuckDB's regexp_matches (RE2 syntax, same as Go).
func SeverityPattern(sev model.Severity) string {
	for _, rule := range severityRules {
		if rule.severity == sev {
			return rule.pattern.String()
		}
	}
	return ""
}

// ParseSeverity maps a level name from an existing severity column into the
// closed severity set, accepting common aliases (WARNING, ERR, FATAL, TRACE).
// ok is false for values that are not a recognizable level name.
func ParseSeverity(value string) (sev model.Severity, ok bool) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "CRITICAL", "CRIT", "CRT", "FATAL", "FATL", "FTL", "PANIC", "PNC", "EMERG", "ALERT":
		return model.SeverityCritical, true
	case "ERROR", "ERR", "ERRO":
		return model.SeverityError, true
	case "WARN", "WARNING", "WRNG", "WRN":
		return model.SeverityWarn, true
	case "INFO", "INFORMATION", "INF", "NOTICE":
		return model.SeverityInfo, true
	case "DEBUG", "DEBU", "DBG", "DEB", "TRACE", "TRAC", "TRC":
		return model.SeverityDebug, true
	}
	return "", false
}
