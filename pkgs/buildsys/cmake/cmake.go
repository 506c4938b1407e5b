// Package cmake builds source trees that ship a CMakeLists.txt. Like
// Autotools installs, CMake installs are trusted when they report success; no
// verification heuristic follows.
package cmake

import (
	"os"
	"path/filepath"

	"github.com/sapphirepm/sapphire/internal/buildenv"
	"github.com/sapphirepm/sapphire/internal/devtools"
	"github.com/sapphirepm/sapphire/internal/events"
	"github.com/sapphirepm/sapphire/pkgs/buildsys"
)

const buildSubdir = "build"

// CMake is the CMake build strategy.
type CMake struct {
	platform *devtools.Platform
	sink     events.Sink
}

func New(platform *devtools.Platform, sink events.Sink) *CMake {
	return &CMake{platform: platform, sink: events.To(sink)}
}

func (*CMake) Name() string { return "cmake" }

// Detect reports whether the source tree ships a CMakeLists.txt.
func (*CMake) Detect(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, "CMakeLists.txt"))
	return err == nil && fi.Mode().IsRegular()
}

// Build configures into ./build, compiles and installs. Every non-zero exit
// is a hard failure.
func (c *CMake) Build(installDir string, env *buildenv.BuildEnvironment) error {
	cmakeExe, err := c.platform.FindTool("cmake", env.PathString())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(buildSubdir, 0o755); err != nil {
		return err
	}

	c.sink.Emit(events.Ev(events.Info, "step.run", "step", "cmake configure", "prefix", installDir))
	out, err := buildsys.Run(c.sink, env, cmakeExe,
		"-S", ".", "-B", buildSubdir,
		"-DCMAKE_INSTALL_PREFIX="+installDir,
		"-DCMAKE_BUILD_TYPE=Release")
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("cmake configure", out, cmakeErrorLogTail())
	}

	c.sink.Emit(events.Ev(events.Info, "step.run", "step", "cmake build"))
	out, err = buildsys.Run(c.sink, env, cmakeExe, "--build", buildSubdir)
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("cmake build", out, "")
	}

	c.sink.Emit(events.Ev(events.Info, "step.run", "step", "cmake install"))
	out, err = buildsys.Run(c.sink, env, cmakeExe, "--install", buildSubdir)
	if err != nil {
		return err
	}
	if out.Failed() {
		return buildsys.StepFailure("cmake install", out, "")
	}
	return nil
}

// cmakeErrorLogTail returns the last lines of CMake's configure error log for
// diagnostics, or "" when absent.
func cmakeErrorLogTail() string {
	data, err := os.ReadFile(filepath.Join(buildSubdir, "CMakeFiles", "CMakeError.log"))
	if err != nil {
		return ""
	}
	return "--- last lines of CMakeError.log ---\n" + buildsys.TailLines(string(data), 50)
}
