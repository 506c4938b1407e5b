package buildsys

import (
	"bytes"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	"github.com/sapphirepm/sapphire/internal/buildenv"
	"github.com/sapphirepm/sapphire/internal/errs"
	"github.com/sapphirepm/sapphire/internal/events"
)

// Output is the captured result of one completed build command.
type Output struct {
	Stdout string
	Stderr string
	Status int
}

// Failed reports a non-zero exit.
func (o Output) Failed() bool { return o.Status != 0 }

// Run spawns one command in the current directory with the build environment
// applied, waits for it and captures stdout and stderr. A spawn failure is an
// ExecError; a non-zero exit is reported in Output with a nil error, so each
// build step can apply its own failure policy (hard-fail or defer to
// verification).
func Run(sink events.Sink, env *buildenv.BuildEnvironment, name string, args ...string) (Output, error) {
	sink = events.To(sink)
	cmd := exec.Command(name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if env != nil {
		env.ApplyToCommand(cmd)
	}
	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return out, &errs.ExecError{Cmd: name, Err: err}
		}
		out.Status = exitErr.ExitCode()
	}
	sink.Emit(events.Ev(events.Debug, "command.exit",
		"cmd", strings.Join(append([]string{name}, args...), " "),
		"status", strconv.Itoa(out.Status)))
	return out, nil
}

// StepFailure converts a non-zero step output into a StepError, trimming the
// captured streams to their tails and attaching extra diagnostics such as a
// config.log excerpt.
func StepFailure(step string, out Output, detail string) error {
	return &errs.StepError{
		Step:   step,
		Status: out.Status,
		Stdout: TailLines(out.Stdout, diagnosticLines),
		Stderr: TailLines(out.Stderr, diagnosticLines),
		Detail: detail,
	}
}

// diagnosticLines bounds how much captured output a StepError carries.
const diagnosticLines = 50

// TailLines returns the last n lines of s, without a trailing newline.
func TailLines(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
