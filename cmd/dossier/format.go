package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fwojciec/dossier"
	"github.com/fwojciec/dossier/ledger"
)

// truncateURL shortens a URL for display, keeping the end which is more
// informative.
func truncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// formatBytes formats bytes in human-readable form.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTokens formats token count in human-readable form.
func formatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// progressPrinter reports build progress on stderr-like output.
func progressPrinter(w io.Writer) ledger.ProgressFunc {
	return func(event ledger.ProgressEvent) {
		switch event.Type {
		case ledger.ProgressStarted:
			fmt.Fprintf(w, "  Found %d documents\n", event.Total)
		case ledger.ProgressFailed:
			fmt.Fprintf(w, "  fail %s: %v\n", truncateURL(event.URL, 80), event.Error)
		}
	}
}

// printResult writes the human-readable run summary.
func printResult(w io.Writer, res *ledger.Result) {
	s := res.Summary
	if s.Ticker != "" {
		fmt.Fprintf(w, "%s (%s, CIK %s): %s\n", s.CompanyName, s.Ticker, s.CIK, res.Status)
	} else {
		fmt.Fprintf(w, "Run %s: %s\n", res.RunID, res.Status)
	}
	fmt.Fprintf(w, "  %d documents: %d downloaded, %d reused, %d link-only, %d skipped, %d failed\n",
		s.Total, s.Downloaded, s.Reused, s.LinkOnly, s.Skipped, s.Failed)
	if s.ParsedSuccess+s.ParsedFailed > 0 {
		fmt.Fprintf(w, "  %d normalized, %d failed, %d chunks", s.ParsedSuccess, s.ParsedFailed, s.Chunks)
		if s.Tokens > 0 {
			fmt.Fprintf(w, " (%s)", formatTokens(s.Tokens))
		}
		fmt.Fprintln(w)
	}
	if s.LatestFiledAt != "" {
		fmt.Fprintf(w, "  Latest filing: %s\n", s.LatestFiledAt)
	}
	if res.Quality != nil {
		printQuality(w, res.Quality)
	}
	for _, e := range res.Errors {
		fmt.Fprintf(w, "  error %s: %s\n", e.Code, e.Message)
	}
	if res.ManifestPath != "" {
		fmt.Fprintf(w, "  Manifest: %s\n", res.ManifestPath)
	}
}

func printQuality(w io.Writer, q *dossier.QualityMetrics) {
	complete := "incomplete"
	if q.Completeness.Complete {
		complete = "complete"
	}
	fmt.Fprintf(w, "  Quality: %s, traceability %.0f%%", complete, q.Traceability.Ratio*100)
	if d := q.Freshness.DaysSinceLatest; d != nil {
		fmt.Fprintf(w, ", latest filing %d days old", *d)
	}
	fmt.Fprintln(w)
}
