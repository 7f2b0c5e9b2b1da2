package main

import (
	"fmt"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/ledger"
)

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	req := deps.Config.BuildRequest(c.Ticker)
	if c.Years != 0 {
		req.Years = c.Years
	}
	if len(c.Forms) > 0 {
		req.Forms = dossier.ParseForms(c.Forms)
	}
	if c.MaxFilingsPerForm != 0 {
		req.MaxPerForm = c.MaxFilingsPerForm
	}
	if c.Mode != "" {
		req.Mode = dossier.Mode(c.Mode)
	}
	if c.Normalize != "" {
		req.NormalizeLevel = dossier.NormalizeLevel(c.Normalize)
	}
	req.Force = c.ForceRebuild
	req.IncludeXBRL = req.IncludeXBRL || c.XBRL
	req.RefreshEntity = c.RefreshEntity

	res, err := deps.Builder.Build(deps.Ctx, req, progressPrinter(deps.Stderr))
	return report(deps, res, err, c.JSON)
}

// Run executes the update command.
func (c *UpdateCmd) Run(deps *Dependencies) error {
	res, err := deps.Builder.Update(deps.Ctx, c.Ticker, dossier.Mode(c.Mode), progressPrinter(deps.Stderr))
	return report(deps, res, err, c.JSON)
}

// report prints a run result. Runs that ended in failure still print what
// they recorded before returning the error.
func report(deps *Dependencies, res *ledger.Result, err error, asJSON bool) error {
	if res == nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dossier.ErrorMessage(err))
		return err
	}
	if asJSON {
		if jerr := writeJSON(deps.Stdout, res); jerr != nil {
			return jerr
		}
	} else {
		printResult(deps.Stdout, res)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dossier.ErrorMessage(err))
	}
	return err
}
