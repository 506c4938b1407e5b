// Package devtools locates the compilers, SDKs and platform facts needed to
// build packages from source. Discovery order and failure behavior follow the
// host toolchain conventions: explicit overrides win, the platform locator is
// consulted next, and a plain PATH search is the last resort.
package devtools

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sapphirepm/sapphire/internal/errs"
	"github.com/sapphirepm/sapphire/internal/events"
)

// RunFunc executes a command and returns its stdout with surrounding
// whitespace trimmed. It is substitutable so platform-specific branches can
// be exercised on any host.
type RunFunc func(name string, args ...string) (string, error)

// Platform answers toolchain queries for one host. OS and Arch mirror
// runtime.GOOS/GOARCH but are plain fields so every branch is testable.
type Platform struct {
	OS   string
	Arch string

	run  RunFunc
	sink events.Sink
}

// Host returns the platform probe for the current process.
func Host() *Platform {
	return New(runtime.GOOS, runtime.GOARCH, nil, nil)
}

// New creates a platform probe. A nil run uses a real subprocess runner; a
// nil sink routes events to the process log.
func New(os, arch string, run RunFunc, sink events.Sink) *Platform {
	if run == nil {
		run = runCommand
	}
	return &Platform{OS: os, Arch: arch, run: run, sink: events.To(sink)}
}

// Info holds the platform facts consumed when assembling a build environment.
// It is never partially populated: on non-darwin hosts every field takes its
// neutral sentinel value.
type Info struct {
	SDKPath   string // absolute SDK directory, or "/" off darwin
	OSVersion string // "major.minor", or "0.0" off darwin
	ArchFlag  string // compiler -arch flag, or ""
}

// Info assembles the full platform triple. SDK and version probe failures
// propagate; the arch flag cannot fail.
func (p *Platform) Info() (Info, error) {
	sdkPath, err := p.SDKPath()
	if err != nil {
		return Info{}, err
	}
	version, err := p.OSVersion()
	if err != nil {
		return Info{}, err
	}
	return Info{SDKPath: sdkPath, OSVersion: version, ArchFlag: p.ArchFlag()}, nil
}

// SDKPath returns the active SDK root. On darwin it asks xcrun and requires a
// concrete, present directory; anywhere else it returns "/".
func (p *Platform) SDKPath() (string, error) {
	if p.OS != "darwin" {
		p.sink.Emit(events.Ev(events.Debug, "sdk.default", "os", p.OS, "path", "/"))
		return "/", nil
	}
	out, err := p.run("xcrun", "--show-sdk-path")
	if err != nil {
		return "", &errs.EnvError{Reason: "xcrun failed to locate the SDK; is Xcode or the Command Line Tools installed?", Err: err}
	}
	if out == "" || out == "/" {
		return "", &errs.EnvError{Reason: fmt.Sprintf("xcrun returned an empty or invalid SDK path (%q)", out)}
	}
	fi, err := os.Stat(out)
	if err != nil || !fi.IsDir() {
		return "", &errs.EnvError{Reason: fmt.Sprintf("SDK path reported by xcrun does not exist: %s", out)}
	}
	p.sink.Emit(events.Ev(events.Info, "sdk.found", "path", out))
	return out, nil
}

// OSVersion returns the host OS version reduced to "major.minor". On darwin
// it asks sw_vers; anywhere else it returns "0.0".
func (p *Platform) OSVersion() (string, error) {
	if p.OS != "darwin" {
		return "0.0", nil
	}
	out, err := p.run("sw_vers", "-productVersion")
	if err != nil {
		return "", &errs.EnvError{Reason: "sw_vers failed to report the product version", Err: err}
	}
	short := shortVersion(out)
	p.sink.Emit(events.Ev(events.Debug, "os.version", "full", out, "short", short))
	return short, nil
}

// ArchFlag returns the compiler -arch flag for the build target. Unknown
// darwin architectures yield an empty flag with a warning; non-darwin hosts
// always yield an empty flag.
func (p *Platform) ArchFlag() string {
	if p.OS != "darwin" {
		return ""
	}
	switch p.Arch {
	case "amd64":
		return "-arch x86_64"
	case "arm64":
		return "-arch arm64"
	}
	p.sink.Emit(events.Ev(events.Warn, "arch.unknown", "arch", p.Arch))
	return ""
}

// shortVersion reduces a dotted version string to its first two components.
// Strings with fewer than two components pass through unmodified.
func shortVersion(v string) string {
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 2 {
		return v
	}
	return parts[0] + "." + parts[1]
}

// runCommand spawns a command, waits for it and returns its trimmed stdout.
// Non-zero exits surface stderr in the returned error.
func runCommand(name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %s: %w", name, msg, err)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
