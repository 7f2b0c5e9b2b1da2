package main

import (
	"fmt"

	"github.com/fwojciec/dossier"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	ticker := dossier.NormalizeIdentifier(c.Ticker)
	runs, err := deps.Runs.FindRuns(deps.Ctx, dossier.RunFilter{Ticker: &ticker, Limit: c.Limit})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dossier.ErrorMessage(err))
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintf(deps.Stdout, "No runs recorded for %s.\n", ticker)
		return nil
	}

	for _, r := range runs {
		fmt.Fprintf(deps.Stdout, "%s  %s  %-15s  %-10s  %d artifacts, %d errors\n",
			formatTime(&r.StartedAt), r.ID, r.Status, r.Mode, r.ArtifactCount, r.ErrorCount)
	}
	return nil
}
