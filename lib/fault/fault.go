// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault defines the error taxonomy shared by the control
// authority and the lifecycle coordinator. Callers branch on the
// fault kind instead of string-matching error text:
//
//   - Admission: a policy-guard validation rejected the combination
//     before any state changed. Carries the full violation list.
//   - Authorization: a grant or renew call was refused (missing
//     acknowledgement, bad challenge token, human-only mode).
//     Authority state is unchanged.
//   - Conflict: the transition is illegal for the current durable
//     state (completed session, inactive target, duplicate shutdown).
//     Carries the current state so the caller can decide.
//   - StepFailure: one or more external shutdown steps failed; the
//     aggregate carries every failed step name.
//
// Anything that is not a *fault.Error is an internal error (storage
// writes, marshalling) and propagates unchanged — those fail closed.
package fault

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a fault per the taxonomy above.
type Kind int

const (
	// KindUnknown is the zero value, reported for non-fault errors.
	KindUnknown Kind = iota

	// KindAdmission is a policy-guard validation failure.
	KindAdmission

	// KindAuthorization is a refused grant, renew, or control change.
	KindAuthorization

	// KindConflict is a transition illegal for the current state.
	KindConflict

	// KindStepFailure is an aggregated external-step failure.
	KindStepFailure
)

// String returns the kind name for logs and operation records.
func (k Kind) String() string {
	switch k {
	case KindAdmission:
		return "admission"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindStepFailure:
		return "step_failure"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Exactly one of the payload fields is
// populated, matching the kind.
type Error struct {
	Kind    Kind
	Message string

	// Violations holds the ordered policy violations for admission
	// faults.
	Violations []string

	// CurrentState surfaces the session or shutdown state that caused
	// a conflict fault.
	CurrentState string

	// FailedSteps lists the names of external steps that failed, in
	// execution order, for step-failure faults.
	FailedSteps []string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindAdmission:
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Violations, "; "))
	case KindStepFailure:
		return fmt.Sprintf("%s (failed steps: %s)", e.Message, strings.Join(e.FailedSteps, ", "))
	case KindConflict:
		if e.CurrentState != "" {
			return fmt.Sprintf("%s (current state: %s)", e.Message, e.CurrentState)
		}
	}
	return e.Message
}

// Admission builds an admission fault from a violation list.
func Admission(message string, violations []string) *Error {
	return &Error{Kind: KindAdmission, Message: message, Violations: violations}
}

// Authorization builds an authorization fault.
func Authorization(format string, args ...any) *Error {
	return &Error{Kind: KindAuthorization, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict fault surfacing the current state.
func Conflict(currentState, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), CurrentState: currentState}
}

// StepFailure builds a step-failure fault from the failed step names.
func StepFailure(message string, failedSteps []string) *Error {
	return &Error{Kind: KindStepFailure, Message: message, FailedSteps: failedSteps}
}

// KindOf returns the fault kind of err, or KindUnknown when err is
// not a fault (or is nil).
func KindOf(err error) Kind {
	var fault *Error
	if errors.As(err, &fault) {
		return fault.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
