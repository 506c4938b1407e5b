package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sapphirepm/sapphire/internal/devtools"
)

var whichCmd = &cobra.Command{
	Use:   "which [tool]",
	Short: "Resolve a toolchain executable",
	Long: `Which resolves a tool the way builds do: environment override first
(CC/CXX for compilers), then the platform toolchain locator, then PATH.`,
	Args: cobra.ExactArgs(1),
	RunE: runWhich,
}

func init() {
	rootCmd.AddCommand(whichCmd)
}

func runWhich(cmd *cobra.Command, args []string) error {
	path, err := devtools.Host().FindCompiler(args[0])
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
