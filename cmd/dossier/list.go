package main

import (
	"fmt"

	"github.com/fwojciec/dossier"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	var filter dossier.ArtifactFilter
	if c.Form != "" {
		form := dossier.Form(c.Form)
		filter.Form = &form
	}
	if c.Since != "" {
		filter.Since = &c.Since
	}

	artifacts, err := deps.Builder.List(deps.Ctx, c.Ticker, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", dossier.ErrorMessage(err))
		return err
	}

	if c.JSON {
		if artifacts == nil {
			artifacts = []*dossier.Artifact{}
		}
		return writeJSON(deps.Stdout, artifacts)
	}

	if len(artifacts) == 0 {
		fmt.Fprintln(deps.Stdout, "No artifacts found.")
		return nil
	}

	for _, a := range artifacts {
		size := "-"
		if a.HasContent() {
			size = formatBytes(a.SizeBytes)
		}
		fmt.Fprintf(deps.Stdout, "%s  %-8s  %-10s  %-10s  %s\n", a.FiledAt, a.Form, a.State, size, a.URL)
	}
	return nil
}
