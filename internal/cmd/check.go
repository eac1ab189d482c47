package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manpen/stride/internal/checker"
)

// checkCmd is a thin front-end over the checker package: given an
// instance and optionally a solution, it reports the classification on
// stdout. The matching algorithm itself is out of scope (see spec
// non-goals); this command surface is ambient CLI plumbing.
var checkCmd = &cobra.Command{
	Use:   "check <instance> [solution]",
	Short: "Check a solution file",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	instancePath := args[0]
	if len(args) == 1 {
		outcome, err := checker.ParseInstanceOnly(instancePath)
		if err != nil {
			return fmt.Errorf("check instance: %w", err)
		}
		if !outcome.IsValid() {
			return fmt.Errorf("instance rejected: %s", outcome)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "instance ok")
		return nil
	}

	solutionPath := args[1]
	outcome, _, err := checker.Process(instancePath, solutionPath)
	if err != nil {
		return fmt.Errorf("check solution: %w", err)
	}

	if outcome.IsValid() {
		fmt.Fprintf(cmd.OutOrStdout(), "#s solution_size %d\n", outcome.Size())
		return nil
	}
	return fmt.Errorf("solution rejected: %s", outcome)
}
