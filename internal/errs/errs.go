// Package errs defines the error kinds surfaced by toolchain resolution and
// source builds. Callers classify failures with errors.As.
package errs

import (
	"fmt"
	"strings"
)

// ToolNotFoundError reports that no candidate was found for a requested tool,
// after every resolution mechanism was exhausted.
type ToolNotFoundError struct {
	Tool string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found", e.Tool)
}

// EnvError reports a problem with the build environment or its preconditions,
// as opposed to a failure of a build command's own logic: a missing configure
// script, an invalid SDK path, an exhausted PATH search.
type EnvError struct {
	Reason string
	Err    error
}

func (e *EnvError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("build environment: %s: %v", e.Reason, e.Err)
	}
	return "build environment: " + e.Reason
}

func (e *EnvError) Unwrap() error { return e.Err }

// ExecError reports that the operating system failed to start a subprocess.
// It wraps the underlying OS error.
type ExecError struct {
	Cmd string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("failed to execute %s: %v", e.Cmd, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// StepError reports a build step that ran to completion but exited non-zero,
// at a point where no recovery heuristic applies. It carries the captured
// output tail and optional extra diagnostics (such as a config.log tail).
type StepError struct {
	Step   string
	Status int
	Stdout string
	Stderr string
	Detail string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed with status %d", e.Step, e.Status)
}

// Diagnostics renders the captured output for display, one section per
// non-empty payload.
func (e *StepError) Diagnostics() string {
	var b strings.Builder
	if e.Stdout != "" {
		fmt.Fprintf(&b, "%s stdout:\n%s\n", e.Step, e.Stdout)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, "%s stderr:\n%s\n", e.Step, e.Stderr)
	}
	if e.Detail != "" {
		b.WriteString(e.Detail)
	}
	return b.String()
}
