package dossier

import "time"

// QualityMetrics summarizes how useful a dossier is to downstream readers.
type QualityMetrics struct {
	Completeness Completeness `json:"completeness"`
	Freshness    Freshness    `json:"freshness"`
	Traceability Traceability `json:"traceability"`
}

// Completeness compares found filings against the minimum a dossier of the
// requested window should hold.
type Completeness struct {
	Forms    map[Form]FormCoverage `json:"forms"`
	HasXBRL  *bool                 `json:"has_xbrl,omitempty"`
	Complete bool                  `json:"complete"`
}

// FormCoverage is the completeness of one mandatory form.
type FormCoverage struct {
	Expected int  `json:"expected"`
	Found    int  `json:"found"`
	Complete bool `json:"complete"`
}

// Freshness is the age of the most recent filing.
type Freshness struct {
	LatestFiledAt   string `json:"latest_filed_at,omitempty"`
	DaysSinceLatest *int   `json:"days_since_latest,omitempty"`
}

// Traceability is the fraction of artifacts that can be traced back to
// their source. Anything below 1 indicates a bug.
type Traceability struct {
	Total     int     `json:"total"`
	Traceable int     `json:"traceable"`
	Ratio     float64 `json:"ratio"`
}

// ComputeQuality evaluates the manifest's live artifacts against its
// config snapshot at time now.
func ComputeQuality(m *Manifest, now time.Time) *QualityMetrics {
	current := m.CurrentArtifacts()

	found := make(map[Form]int)
	hasXBRL := false
	for _, a := range current {
		if a.Type == KindXBRL {
			hasXBRL = hasXBRL || !a.Failed()
			continue
		}
		if !a.Failed() {
			found[a.Form]++
		}
	}

	q := &QualityMetrics{
		Completeness: Completeness{Forms: make(map[Form]FormCoverage), Complete: true},
	}
	for _, f := range ParseForms(m.Config.Forms) {
		expected := f.MinExpected(m.Config.Years)
		if expected == 0 {
			continue
		}
		cov := FormCoverage{Expected: expected, Found: found[f], Complete: found[f] >= expected}
		q.Completeness.Forms[f] = cov
		q.Completeness.Complete = q.Completeness.Complete && cov.Complete
	}
	if m.Config.IncludeXBRL {
		q.Completeness.HasXBRL = &hasXBRL
		q.Completeness.Complete = q.Completeness.Complete && hasXBRL
	}

	if latest := m.LatestFiledAt(); latest != "" {
		q.Freshness.LatestFiledAt = latest
		if t, err := time.Parse(DateLayout, latest); err == nil {
			today := now.UTC().Truncate(24 * time.Hour)
			days := int(today.Sub(t).Hours() / 24)
			q.Freshness.DaysSinceLatest = &days
		}
	}

	q.Traceability.Total = len(current)
	for _, a := range current {
		if a.ID != "" && a.URL != "" {
			q.Traceability.Traceable++
		}
	}
	q.Traceability.Ratio = 1
	if q.Traceability.Total > 0 {
		q.Traceability.Ratio = float64(q.Traceability.Traceable) / float64(q.Traceability.Total)
	}

	return q
}
