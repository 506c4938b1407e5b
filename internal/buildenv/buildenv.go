// Package buildenv assembles the environment applied to build subprocesses:
// accumulated variables plus a PATH that prefers build-owned tool directories
// over the ambient one.
package buildenv

import (
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/sapphirepm/sapphire/internal/devtools"
)

// BuildEnvironment accumulates environment variables and PATH entries for one
// build. Strategies treat it as read-only.
type BuildEnvironment struct {
	vars map[string]string
	path []string
}

func New() *BuildEnvironment {
	return &BuildEnvironment{vars: map[string]string{}}
}

// Set records a variable, replacing any previous value.
func (e *BuildEnvironment) Set(key, value string) {
	e.vars[key] = value
}

// Get returns the recorded value for key, or "".
func (e *BuildEnvironment) Get(key string) string {
	return e.vars[key]
}

// AppendFlag appends a flag to a space-separated variable such as CFLAGS.
func (e *BuildEnvironment) AppendFlag(key, flag string) {
	current := e.vars[key]
	if current == "" {
		e.vars[key] = flag
		return
	}
	e.vars[key] = strings.TrimSpace(current + " " + flag)
}

// PrependPath puts dir ahead of every previously added PATH entry.
func (e *BuildEnvironment) PrependPath(dir string) {
	e.path = append([]string{dir}, e.path...)
}

// PathString returns the search PATH for this build: accumulated entries
// first, then the ambient PATH.
func (e *BuildEnvironment) PathString() string {
	ambient := os.Getenv("PATH")
	if len(e.path) == 0 {
		return ambient
	}
	joined := strings.Join(e.path, string(os.PathListSeparator))
	if ambient == "" {
		return joined
	}
	return joined + string(os.PathListSeparator) + ambient
}

// ApplyToCommand sets the subprocess environment: the ambient environment
// with the accumulated variables and PATH merged over it, in deterministic
// (sorted) order.
func (e *BuildEnvironment) ApplyToCommand(cmd *exec.Cmd) {
	override := make(map[string]string, len(e.vars)+1)
	for k, v := range e.vars {
		override[k] = v
	}
	override["PATH"] = e.PathString()
	cmd.Env = mergeEnv(os.Environ(), override)
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// ForPlatform assembles a build environment from the host platform: resolved
// compilers, SDK root, deployment target and architecture flags. A missing C
// compiler is fatal; a missing C++ compiler is not, since most source builds
// never need one.
func ForPlatform(p *devtools.Platform) (*BuildEnvironment, error) {
	env := New()

	cc, err := p.FindCompiler("cc")
	if err != nil {
		return nil, err
	}
	env.Set("CC", cc)
	if cxx, err := p.FindCompiler("c++"); err == nil {
		env.Set("CXX", cxx)
	}

	info, err := p.Info()
	if err != nil {
		return nil, err
	}
	if info.SDKPath != "/" {
		env.Set("SDKROOT", info.SDKPath)
	}
	if info.OSVersion != "0.0" {
		env.Set("MACOSX_DEPLOYMENT_TARGET", info.OSVersion)
	}
	if info.ArchFlag != "" {
		env.AppendFlag("CFLAGS", info.ArchFlag)
		env.AppendFlag("LDFLAGS", info.ArchFlag)
	}
	return env, nil
}
