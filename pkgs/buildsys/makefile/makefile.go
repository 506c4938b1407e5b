// Package makefile builds source trees that ship a bare Makefile. Plain make
// failures are final; make install is judged by what it actually produced,
// with a manual artifact recovery fallback, because hand-written install
// targets routinely lie in both directions.
package makefile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sapphirepm/sapphire/internal/buildenv"
	"github.com/sapphirepm/sapphire/internal/devtools"
	"github.com/sapphirepm/sapphire/internal/events"
	"github.com/sapphirepm/sapphire/pkgs/buildsys"
)

// verdict is the terminal state of install verification. Exactly one is
// reached per build.
type verdict int

const (
	// binPopulated: the install tree has binaries. Authoritative evidence of
	// a working install, whatever exit status make install reported.
	binPopulated verdict = iota
	// recoveredManually: bin/ was empty but a package-named executable was
	// found in the build root and copied into place.
	recoveredManually
	// noArtifacts: nothing installed and nothing to recover. Fatal only if
	// make install itself also failed.
	noArtifacts
)

// Makefile is the bare-make build strategy.
type Makefile struct {
	platform *devtools.Platform
	sink     events.Sink
}

func New(platform *devtools.Platform, sink events.Sink) *Makefile {
	return &Makefile{platform: platform, sink: events.To(sink)}
}

func (*Makefile) Name() string { return "makefile" }

// Detect reports whether the source tree ships a Makefile.
func (*Makefile) Detect(dir string) bool {
	for _, name := range []string{"Makefile", "makefile", "GNUmakefile"} {
		if fi, err := os.Stat(filepath.Join(dir, name)); err == nil && fi.Mode().IsRegular() {
			return true
		}
	}
	return false
}

// Build runs make and make install PREFIX=installDir in the current
// directory. A make failure is immediately fatal; the install step's exit
// status is deferred to verification.
func (m *Makefile) Build(installDir string, env *buildenv.BuildEnvironment) error {
	makeExe, err := m.platform.FindTool("make", env.PathString())
	if err != nil {
		return err
	}

	m.sink.Emit(events.Ev(events.Info, "step.run", "step", "make"))
	out, err := buildsys.Run(m.sink, env, makeExe)
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("make", out, "")
	}

	m.sink.Emit(events.Ev(events.Info, "step.run", "step", "make install", "prefix", installDir))
	installOut, err := buildsys.Run(m.sink, env, makeExe, "install", "PREFIX="+installDir)
	if err != nil {
		return err
	}
	if installOut.Failed() {
		m.sink.Emit(events.Ev(events.Warn, "install.deferred",
			"status", strconv.Itoa(installOut.Status)))
	}

	state, reason := m.verify(installDir)
	switch state {
	case binPopulated:
		m.sink.Emit(events.Ev(events.Info, "install.verified", "dir", filepath.Join(installDir, "bin")))
		return nil
	case recoveredManually:
		m.sink.Emit(events.Ev(events.Info, "install.recovered", "dir", filepath.Join(installDir, "bin")))
		return nil
	}
	// noArtifacts: fatal only when make install failed too.
	if installOut.Failed() {
		return buildsys.StepFailure("make install", installOut, reason)
	}
	m.sink.Emit(events.Ev(events.Warn, "install.empty", "dir", filepath.Join(installDir, "bin"), "reason", reason))
	return nil
}

// verify checks whether the install produced binaries and, failing that,
// attempts manual artifact recovery: a file named like the package (the
// install dir's parent's basename) in the build root is copied to
// <installDir>/bin with mode 0755. The returned reason explains a
// noArtifacts verdict.
func (m *Makefile) verify(installDir string) (verdict, string) {
	binDir := filepath.Join(installDir, "bin")
	if dirPopulated(binDir) {
		return binPopulated, ""
	}

	name := filepath.Base(filepath.Dir(installDir))
	if name == "." || name == string(filepath.Separator) {
		return noArtifacts, "install directory has no package-named parent"
	}
	candidate := filepath.Join(".", name)
	fi, err := os.Stat(candidate)
	if err != nil || !fi.Mode().IsRegular() {
		return noArtifacts, fmt.Sprintf("no executable named %q in the build directory", name)
	}

	m.sink.Emit(events.Ev(events.Info, "recover.found", "candidate", candidate))
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return noArtifacts, fmt.Sprintf("creating %s: %v", binDir, err)
	}
	target := filepath.Join(binDir, name)
	if err := copyFile(candidate, target); err != nil {
		return noArtifacts, fmt.Sprintf("copying %s: %v", candidate, err)
	}
	if err := os.Chmod(target, 0o755); err != nil {
		return noArtifacts, fmt.Sprintf("setting permissions on %s: %v", target, err)
	}
	return recoveredManually, ""
}

func dirPopulated(dir string) bool {
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
