package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/manpen/stride/internal/profilewrap"
)

// profileCmd is the hidden subcommand the run command re-execs itself as
// when profiling is enabled: it wraps the real solver, reports resource
// usage, and forwards the child's exit code.
var profileCmd = &cobra.Command{
	Use:    "profile -- solver [solver-args...]",
	Short:  "Internal: wrap a solver invocation with resource-usage reporting",
	Hidden: true,
	Args:   cobra.MinimumNArgs(1),
	RunE:   runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	solverPath := args[0]
	solverArgs := args[1:]

	code := profilewrap.Run(solverPath, solverArgs, os.Stdout)
	if code != 0 {
		os.Exit(code)
	}
	return nil
}
