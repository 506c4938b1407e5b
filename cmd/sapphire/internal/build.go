package internal

import (
	"fmt"
	"path/filepath"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/sapphirepm/sapphire/internal/build"
)

var buildName string
var buildVersion string
var buildPrefix string

var buildCmd = &cobra.Command{
	Use:   "build [source-dir]",
	Short: "Build a prepared source tree into the Cellar",
	Long: `Build compiles an already-extracted source tree and installs it into
the Cellar under <name>/<version>. The build system is detected from the
tree: a configure script, a CMakeLists.txt or a bare Makefile.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildName, "name", "n", "", "Package name (defaults to the source dir basename)")
	buildCmd.Flags().StringVar(&buildVersion, "version", "", "Package version (defaults to a suffix of the source dir name)")
	buildCmd.Flags().StringVar(&buildPrefix, "prefix", "", "Workspace prefix (defaults to the user cache dir)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	sourceDir, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}

	name, version := parseSourceDirName(filepath.Base(sourceDir))
	if buildName != "" {
		name = buildName
	}
	if buildVersion != "" {
		version = buildVersion
	}
	if version == "" {
		return fmt.Errorf("cannot derive a version from %q; pass --version", filepath.Base(sourceDir))
	}

	builder, err := build.NewBuilder(build.Options{
		WorkspaceDir: buildPrefix,
		Sink:         consoleSink{},
	})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	result, err := builder.Build(build.Package{Name: name, Version: version, SourceDir: sourceDir})
	if err != nil {
		return fmt.Errorf("failed to build %s@%s: %w", name, version, err)
	}

	if result.Cached {
		color.Success.Printf("==> %s %s already built: %s\n", name, version, result.InstallDir)
		return nil
	}
	color.Success.Printf("==> Installed %s %s to %s\n", name, version, result.InstallDir)
	return nil
}

// parseSourceDirName splits a source directory basename like "doggo-1.0.5"
// into name and version. The version part must start with a digit; otherwise
// the whole basename is the name.
func parseSourceDirName(base string) (name, version string) {
	for i := len(base) - 1; i > 0; i-- {
		if base[i] == '-' {
			rest := base[i+1:]
			if rest != "" && rest[0] >= '0' && rest[0] <= '9' {
				return base[:i], rest
			}
			break
		}
	}
	return base, ""
}
