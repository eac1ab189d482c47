// Command stride runs a solver against a benchmark instance set, checks
// and extracts its solutions, and reports results locally and to an
// optional remote aggregation server.
package main

import (
	"os"

	"github.com/manpen/stride/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
