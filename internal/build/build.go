// Package build drives one source build end to end: it resolves the install
// prefix, assembles the build environment from the host platform, detects the
// build system and runs it, recording the result in a per-package cache.
package build

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sapphirepm/sapphire/internal/buildenv"
	"github.com/sapphirepm/sapphire/internal/devtools"
	"github.com/sapphirepm/sapphire/internal/env"
	"github.com/sapphirepm/sapphire/internal/errs"
	"github.com/sapphirepm/sapphire/internal/events"
	"github.com/sapphirepm/sapphire/pkgs/buildsys"
	"github.com/sapphirepm/sapphire/pkgs/buildsys/autotools"
	"github.com/sapphirepm/sapphire/pkgs/buildsys/cmake"
	"github.com/sapphirepm/sapphire/pkgs/buildsys/makefile"
)

// Package identifies one source package to build.
type Package struct {
	Name      string
	Version   string
	SourceDir string // prepared build directory (sources already extracted)
}

// Result describes one completed build.
type Result struct {
	Package    Package
	InstallDir string
	Strategy   string
	BuildTime  time.Time
	Cached     bool
}

type Builder struct {
	workspaceDir string
	platform     *devtools.Platform
	sink         events.Sink
	strategies   []buildsys.Strategy
}

type Options struct {
	WorkspaceDir string // defaults to the user cache workspace
	Platform     *devtools.Platform
	Sink         events.Sink
}

func NewBuilder(opts Options) (*Builder, error) {
	workspaceDir := opts.WorkspaceDir
	if workspaceDir == "" {
		dir, err := env.WorkDir()
		if err != nil {
			return nil, err
		}
		workspaceDir = dir
		if _, err := env.CellarDir(); err != nil {
			return nil, err
		}
	}
	platform := opts.Platform
	if platform == nil {
		platform = devtools.Host()
	}
	sink := events.To(opts.Sink)
	return &Builder{
		workspaceDir: workspaceDir,
		platform:     platform,
		sink:         sink,
		strategies: []buildsys.Strategy{
			autotools.New(platform, sink),
			cmake.New(platform, sink),
			makefile.New(platform, sink),
		},
	}, nil
}

// Build runs one build. Concurrent builds of the same package are serialized
// with a file lock; the working directory is changed into the source dir for
// the duration of the build and restored afterward, so a Builder must not be
// shared across goroutines.
func (b *Builder) Build(pkg Package) (*Result, error) {
	if pkg.Name == "" || pkg.Version == "" {
		return nil, &errs.EnvError{Reason: "package name and version are required"}
	}
	sourceDir, err := filepath.Abs(pkg.SourceDir)
	if err != nil {
		return nil, err
	}
	pkg.SourceDir = sourceDir

	packageDir := filepath.Join(b.workspaceDir, "Cellar", pkg.Name)
	installDir := filepath.Join(packageDir, pkg.Version)

	unlock, err := lockPackage(packageDir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Another process may have finished this build while we waited.
	if cache, err := b.loadCache(pkg.Name); err == nil {
		if entry, ok := cache.get(pkg.Version); ok {
			if _, err := os.Stat(installDir); err == nil {
				b.sink.Emit(events.Ev(events.Info, "build.cached", "pkg", pkg.Name, "version", pkg.Version))
				return &Result{Package: pkg, InstallDir: installDir, Strategy: entry.Strategy, BuildTime: entry.BuildTime, Cached: true}, nil
			}
		}
	}

	strategy := b.detect(pkg.SourceDir)
	if strategy == nil {
		return nil, &errs.EnvError{Reason: "no supported build system detected (configure, CMakeLists.txt or Makefile)"}
	}
	b.sink.Emit(events.Ev(events.Info, "build.start",
		"pkg", pkg.Name, "version", pkg.Version, "strategy", strategy.Name()))

	buildEnv, err := buildenv.ForPlatform(b.platform)
	if err != nil {
		return nil, err
	}

	prevDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := os.Chdir(pkg.SourceDir); err != nil {
		return nil, err
	}
	defer os.Chdir(prevDir)

	if err := os.MkdirAll(installDir, 0o755); err != nil {
		return nil, err
	}
	if err := strategy.Build(installDir, buildEnv); err != nil {
		os.RemoveAll(installDir)
		return nil, err
	}

	result := &Result{
		Package:    pkg,
		InstallDir: installDir,
		Strategy:   strategy.Name(),
		BuildTime:  time.Now(),
	}
	cache, err := b.loadCache(pkg.Name)
	if err != nil {
		cache = &buildCache{}
	}
	cache.set(pkg.Version, &cacheEntry{Strategy: result.Strategy, BuildTime: result.BuildTime})
	if err := b.saveCache(pkg.Name, cache); err != nil {
		return nil, err
	}
	return result, nil
}

// detect returns the first strategy claiming the source tree. Order matters:
// a configure script outranks a Makefile it would generate.
func (b *Builder) detect(sourceDir string) buildsys.Strategy {
	for _, s := range b.strategies {
		if s.Detect(sourceDir) {
			return s
		}
	}
	return nil
}
