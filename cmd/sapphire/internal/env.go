package internal

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"

	"github.com/sapphirepm/sapphire/internal/devtools"
)

// minMacOSVersion is the oldest macOS release builds are expected to work on.
const minMacOSVersion = "11.0"

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the host build environment",
	Long:  `Env probes the host platform and prints the SDK path, OS version, architecture flag and resolved compilers.`,
	Args:  cobra.NoArgs,
	RunE:  runEnv,
}

func init() {
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	p := devtools.Host()

	info, err := p.Info()
	if err != nil {
		return err
	}
	fmt.Printf("sdk path:   %s\n", info.SDKPath)
	fmt.Printf("os version: %s\n", info.OSVersion)
	fmt.Printf("arch flag:  %s\n", orNone(info.ArchFlag))

	if p.OS == "darwin" && semver.Compare("v"+info.OSVersion, "v"+minMacOSVersion) < 0 {
		color.Warn.Printf("warning: macOS %s is older than the minimum supported %s\n", info.OSVersion, minMacOSVersion)
	}

	for _, tool := range []string{"cc", "c++"} {
		path, err := p.FindCompiler(tool)
		if err != nil {
			color.Warn.Printf("%-11s not found\n", tool+":")
			continue
		}
		fmt.Printf("%-11s %s\n", tool+":", path)
	}
	if path, err := p.FindTool("make", ""); err == nil {
		fmt.Printf("%-11s %s\n", "make:", path)
	} else {
		color.Warn.Println("make:       not found")
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
