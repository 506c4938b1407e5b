// Package autotools builds source trees that ship a configure script:
// ./configure && make && make install. Scripts generated by GNU Autoconf are
// detected heuristically and get the standard noise-reducing flags.
package autotools

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/sapphirepm/sapphire/internal/buildenv"
	"github.com/sapphirepm/sapphire/internal/devtools"
	"github.com/sapphirepm/sapphire/internal/errs"
	"github.com/sapphirepm/sapphire/internal/events"
	"github.com/sapphirepm/sapphire/pkgs/buildsys"
)

const configureScript = "./configure"

// sniffLimit bounds how much of a configure script the classifier reads.
// Scripts that bury their markers deeper are treated as not Autotools; the
// bounded read is a deliberate cost trade-off.
const sniffLimit = 4096

var autoconfMarkers = [][]byte{
	[]byte("Generated by GNU Autoconf"),
	[]byte("generated by autoconf"),
	[]byte("config.status:"),
}

// IsAutotoolsConfigure reports whether the script at path looks generated by
// GNU Autoconf, judging by markers in its first 4 KiB. This is a heuristic
// classifier, not a parser: read failures are swallowed and map to false.
func IsAutotoolsConfigure(path string, sink events.Sink) bool {
	sink = events.To(sink)
	f, err := os.Open(path)
	if err != nil {
		sink.Emit(events.Ev(events.Warn, "configure.unreadable", "path", path, "err", err.Error()))
		return false
	}
	defer f.Close()

	head, err := io.ReadAll(io.LimitReader(f, sniffLimit))
	if err != nil {
		sink.Emit(events.Ev(events.Warn, "configure.unreadable", "path", path, "err", err.Error()))
		return false
	}
	for _, marker := range autoconfMarkers {
		if bytes.Contains(head, marker) {
			sink.Emit(events.Ev(events.Debug, "configure.autotools", "path", path, "marker", string(marker)))
			return true
		}
	}
	sink.Emit(events.Ev(events.Debug, "configure.not-autotools", "path", path))
	return false
}

// Autotools is the configure-based build strategy. Installs reported
// successful by an Autotools make install are trusted as authoritative, so no
// verification step follows.
type Autotools struct {
	platform *devtools.Platform
	sink     events.Sink
}

func New(platform *devtools.Platform, sink events.Sink) *Autotools {
	return &Autotools{platform: platform, sink: events.To(sink)}
}

func (*Autotools) Name() string { return "autotools" }

// Detect reports whether the source tree ships a configure script.
func (*Autotools) Detect(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, "configure"))
	return err == nil && fi.Mode().IsRegular()
}

// Build runs ./configure --prefix=installDir, make and make install in the
// current directory. Every non-zero exit is a hard failure.
func (a *Autotools) Build(installDir string, env *buildenv.BuildEnvironment) error {
	if fi, err := os.Stat(configureScript); err != nil || !fi.Mode().IsRegular() {
		return &errs.EnvError{Reason: "configure script not found, cannot run an Autotools build"}
	}

	args := []string{"--prefix=" + installDir}
	if IsAutotoolsConfigure(configureScript, a.sink) {
		args = append(args, "--disable-dependency-tracking", "--disable-silent-rules")
	}

	a.sink.Emit(events.Ev(events.Info, "step.run", "step", "configure", "prefix", installDir))
	out, err := buildsys.Run(a.sink, env, configureScript, args...)
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("configure", out, configLogTail())
	}

	makeExe, err := a.platform.FindTool("make", env.PathString())
	if err != nil {
		return err
	}

	a.sink.Emit(events.Ev(events.Info, "step.run", "step", "make"))
	out, err = buildsys.Run(a.sink, env, makeExe)
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("make", out, "")
	}

	a.sink.Emit(events.Ev(events.Info, "step.run", "step", "make install"))
	out, err = buildsys.Run(a.sink, env, makeExe, "install")
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("make install", out, "")
	}
	return nil
}

// configLogTail returns the last lines of ./config.log for configure failure
// diagnostics, or "" when the file is absent.
func configLogTail() string {
	data, err := os.ReadFile("config.log")
	if err != nil {
		return ""
	}
	return "--- last lines of config.log ---\n" + buildsys.TailLines(string(data), 50)
}
