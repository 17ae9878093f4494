// Package pipelineerr expresses the five error buckets of spec §7 as
// concrete wrapper types, so callers can errors.As into a specific bucket
// instead of matching on strings.
package pipelineerr

import "fmt"

// TransientError wraps a network or stream-interruption failure. Callers
// should surface a retry hint but must not retry automatically.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient error in %s: %v", e.Op, e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

func Transient(op string, err error) error { return &TransientError{Op: op, Err: err} }

// ParseError wraps an unparseable LLM response. Classify substitutes the
// fallback Action Menu; Execute surfaces the error (no fallback exists for
// Action Result, per spec §7 — the Streaming JSON Extractor's salvage path
// runs first, see internal/jsonskeleton).
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error in %s: %v", e.Op, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

func Parse(op string, err error) error { return &ParseError{Op: op, Err: err} }

// PolicyError wraps a redaction annotation, a blocklist refusal, or a
// missing-key fallback decision.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return fmt.Sprintf("policy refused: %s", e.Reason) }

func Policy(reason string) error { return &PolicyError{Reason: reason} }

// PluginError wraps a plugin handshake failure, timeout, or crash. The
// faulting plugin's tools are dropped from the registry; the app
// continues.
type PluginError struct {
	PluginID string
	Err      error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.PluginID, e.Err)
}
func (e *PluginError) Unwrap() error { return e.Err }

func Plugin(pluginID string, err error) error { return &PluginError{PluginID: pluginID, Err: err} }

// UserError represents a cancelled action; it is a no-op, not a failure.
type UserError struct {
	Reason string
}

func (e *UserError) Error() string { return e.Reason }

func User(reason string) error { return &UserError{Reason: reason} }
