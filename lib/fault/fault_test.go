// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{Admission("config rejected", []string{"bad mode"}), KindAdmission},
		{Authorization("no acknowledgement"), KindAuthorization},
		{Conflict("completed", "cannot suspend"), KindConflict},
		{StepFailure("shutdown failed", []string{"compositor"}), KindStepFailure},
		{errors.New("plain"), KindUnknown},
		{nil, KindUnknown},
	}
	for _, c := range cases {
		if got := KindOf(c.err); got != c.want {
			t.Errorf("KindOf(%v) = %s, want %s", c.err, got, c.want)
		}
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("resume: %w", Conflict("completed", "cannot resume"))
	if !IsKind(wrapped, KindConflict) {
		t.Errorf("wrapped conflict should still classify, got %s", KindOf(wrapped))
	}
}

func TestErrorMessages(t *testing.T) {
	admission := Admission("configuration rejected", []string{"one", "two"})
	if got := admission.Error(); got != "configuration rejected: one; two" {
		t.Errorf("admission message = %q", got)
	}

	conflict := Conflict("suspended", "target session is not active")
	if got := conflict.Error(); got != "target session is not active (current state: suspended)" {
		t.Errorf("conflict message = %q", got)
	}

	steps := StepFailure("graceful shutdown failed", []string{"compositor", "display"})
	if got := steps.Error(); got != "graceful shutdown failed (failed steps: compositor, display)" {
		t.Errorf("step failure message = %q", got)
	}
}
