// Package safety implements the two guardrails spec §4.1 requires between
// the pipeline and both the LLM and the shell: PII redaction on outbound
// prompts, and a command blocklist on inbound LLM suggestions and on the
// string the user actually confirmed.
package safety

import (
	"regexp"

	"go.uber.org/zap"
)

// Label identifies a redaction pattern.
type Label string

const (
	LabelCreditCard Label = "credit_card"
	LabelSSN        Label = "ssn"
	LabelAPIKey     Label = "api_key"
	LabelAWSKey     Label = "aws_key"
	LabelPrivateKey Label = "private_key"
)

type redactionRule struct {
	label   Label
	pattern *regexp.Regexp
}

// Order matters only for determinism of counts across labels; each rule
// operates independently over the whole text.
var rules = []redactionRule{
	{LabelCreditCard, regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
	{LabelSSN, regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{LabelAWSKey, regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{LabelAPIKey, regexp.MustCompile(`(?i)\b(?:sk|pk|api|key|token|secret)[_-]?[A-Za-z0-9]{20,}\b`)},
	{LabelPrivateKey, regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`)},
}

// RedactionResult carries the rewritten text and a per-label match count,
// so callers can annotate the resulting Action Menu (spec §4.1: "A
// redaction event must be observable... and must raise a user-visible
// annotation").
type RedactionResult struct {
	Text   string
	Counts map[Label]int
}

// Redact rewrites every recognised PII pattern in text as
// "[REDACTED:<label>]" and reports how many matches each label produced.
// Redact is idempotent: redacting already-redacted text is a no-op, since
// the bracketed replacement itself matches no rule.
func Redact(text string) RedactionResult {
	counts := make(map[Label]int, len(rules))
	out := text
	for _, r := range rules {
		matches := r.pattern.FindAllStringIndex(out, -1)
		if len(matches) == 0 {
			continue
		}
		counts[r.label] = len(matches)
		out = r.pattern.ReplaceAllString(out, "[REDACTED:"+string(r.label)+"]")
	}
	return RedactionResult{Text: out, Counts: counts}
}

// RedactForTransport applies Redact only when the destination provider is
// remote, per spec §4.1: "Redaction is applied if and only if the
// outbound provider is a remote service; local providers receive the
// original text." A redaction event is logged when any label matched.
func RedactForTransport(text string, isRemote bool, logger *zap.Logger) RedactionResult {
	if !isRemote {
		return RedactionResult{Text: text, Counts: map[Label]int{}}
	}
	result := Redact(text)
	if logger != nil && len(result.Counts) > 0 {
		fields := make([]zap.Field, 0, len(result.Counts))
		for label, n := range result.Counts {
			fields = append(fields, zap.Int(string(label), n))
		}
		logger.Info("redacted outbound prompt", fields...)
	}
	return result
}

// HasMatches reports whether any label fired.
func (r RedactionResult) HasMatches() bool {
	return len(r.Counts) > 0
}
