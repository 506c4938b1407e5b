// Package buildsys defines the shared surface of source-build strategies
// (Autotools, CMake, bare Makefile) and the subprocess primitive they run
// their steps through.
package buildsys

import "github.com/sapphirepm/sapphire/internal/buildenv"

// Strategy runs one complete build against a prepared build directory.
// Implementations assume the current working directory is the build root and
// that they own it for the duration of the build.
type Strategy interface {
	// Name identifies the strategy in events and errors.
	Name() string

	// Detect reports whether this strategy applies to the source tree at dir.
	Detect(dir string) bool

	// Build runs the strategy, installing into installDir with env applied
	// to every subprocess.
	Build(installDir string, env *buildenv.BuildEnvironment) error
}
