// Command provgate is the ML governance CLI: tamper-evident data lineage
// tracking and risk-tiered deployment compliance gating.
package main

import (
	"os"

	"github.com/leapstack-labs/provgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
