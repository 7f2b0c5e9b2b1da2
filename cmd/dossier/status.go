package main

import (
	"fmt"
	"sort"

	"github.com/fwojciec/dossier"
)

// Run executes the status command.
func (c *StatusCmd) Run(deps *Dependencies) error {
	report, err := deps.Builder.Status(deps.Ctx, c.Ticker)
	if dossier.ErrorCode(err) == dossier.ENOTFOUND {
		fmt.Fprintf(deps.Stderr, "No dossier for %s. Use 'dossier build %s' to create one.\n", dossier.NormalizeIdentifier(c.Ticker), c.Ticker)
		return err
	} else if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dossier.ErrorMessage(err))
		return err
	}

	if c.JSON {
		return writeJSON(deps.Stdout, report)
	}

	w := deps.Stdout
	if e := report.Entity; e != nil {
		fmt.Fprintf(w, "%s (%s, CIK %s)\n", e.Name, e.Ticker, e.CIK)
	}
	if r := report.RunInfo; r != nil {
		fmt.Fprintf(w, "  Last run: %s %s (%s, started %s)\n", r.ID, r.Status, r.Mode, formatTime(&r.StartedAt))
	}
	fmt.Fprintf(w, "  Artifacts: %d current, %d superseded, %d chunks\n", report.Artifacts, report.Superseded, report.Chunks)

	forms := make([]string, 0, len(report.Forms))
	for f := range report.Forms {
		forms = append(forms, string(f))
	}
	sort.Strings(forms)
	for _, f := range forms {
		fmt.Fprintf(w, "    %-10s %d\n", f, report.Forms[dossier.Form(f)])
	}
	if report.LatestFiledAt != "" {
		fmt.Fprintf(w, "  Latest filing: %s\n", report.LatestFiledAt)
	}
	if report.Quality != nil {
		printQuality(w, report.Quality)
	}
	fmt.Fprintf(w, "  Manifest: %s\n", report.ManifestPath)
	return nil
}
