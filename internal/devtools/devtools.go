package devtools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/sapphirepm/sapphire/internal/errs"
	"github.com/sapphirepm/sapphire/internal/events"
)

// compilerOverrides maps the compiler names that honor an environment
// override to their variable. All other tool names ignore the environment.
var compilerOverrides = map[string]string{
	"cc":  "CC",
	"c++": "CXX",
	"cxx": "CXX",
}

// FindCompiler locates a compiler executable. Resolution order: environment
// override (CC/CXX, recognized names only), then the platform toolchain
// locator (xcrun --find on darwin), then the ambient PATH. Every returned
// path exists as a regular file at resolution time.
func (p *Platform) FindCompiler(name string) (string, error) {
	if envVar, ok := compilerOverrides[name]; ok {
		if v := os.Getenv(envVar); v != "" {
			if isFile(v) {
				p.sink.Emit(events.Ev(events.Info, "tool.resolved", "tool", name, "source", "env:"+envVar, "path", v))
				return v, nil
			}
			p.sink.Emit(events.Ev(events.Warn, "tool.override-missing", "tool", name, "var", envVar, "path", v))
		}
	}

	if p.OS == "darwin" {
		out, err := p.run("xcrun", "--find", name)
		switch {
		case err != nil:
			// Non-fatal: xcrun missing or unable to find the tool.
			p.sink.Emit(events.Ev(events.Debug, "tool.xcrun-miss", "tool", name, "err", err.Error()))
		case out == "" || !isFile(out):
			p.sink.Emit(events.Ev(events.Debug, "tool.xcrun-invalid", "tool", name, "path", out))
		default:
			p.sink.Emit(events.Ev(events.Info, "tool.resolved", "tool", name, "source", "xcrun", "path", out))
			return out, nil
		}
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", &errs.ToolNotFoundError{Tool: name}
	}
	p.sink.Emit(events.Ev(events.Info, "tool.resolved", "tool", name, "source", "path", "path", path))
	return path, nil
}

// FindTool locates a non-compiler tool such as make, preferring the build
// environment's PATH string over the ambient one. An exhausted search is a
// build environment error, not a compiler problem.
func (p *Platform) FindTool(name, buildPath string) (string, error) {
	if buildPath != "" {
		if path, ok := lookPathIn(name, buildPath); ok {
			p.sink.Emit(events.Ev(events.Info, "tool.resolved", "tool", name, "source", "build-path", "path", path))
			return path, nil
		}
	}
	if path, err := exec.LookPath(name); err == nil {
		p.sink.Emit(events.Ev(events.Info, "tool.resolved", "tool", name, "source", "path", "path", path))
		return path, nil
	}
	return "", &errs.EnvError{Reason: fmt.Sprintf("%s not found in build environment PATH or system PATH", name)}
}

// lookPathIn searches an explicit PATH string for an executable regular file.
func lookPathIn(name, pathList string) (string, bool) {
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isFile(candidate) && unix.Access(candidate, unix.X_OK) == nil {
			return candidate, true
		}
	}
	return "", false
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
