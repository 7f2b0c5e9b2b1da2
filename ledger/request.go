package ledger

import (
	"github.com/fwojciec/dossier"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// BuildRequest is the configuration of one build.
type BuildRequest struct {
	Ticker         string
	Years          int
	Forms          []dossier.Form
	MaxPerForm     int
	Force          bool
	Mode           dossier.Mode
	NormalizeLevel dossier.NormalizeLevel
	IncludeXBRL    bool
	RefreshEntity  bool

	// Recorded in the config snapshot only.
	UserAgent string
	RPSLimit  int
}

// Default build parameters.
const (
	DefaultYears      = 3
	DefaultMaxPerForm = 50
)

// DefaultBuildRequest returns the request used when nothing else is
// configured.
func DefaultBuildRequest(ticker string) BuildRequest {
	return BuildRequest{
		Ticker:         ticker,
		Years:          DefaultYears,
		Forms:          dossier.DefaultForms,
		MaxPerForm:     DefaultMaxPerForm,
		Mode:           dossier.ModeLinksOnly,
		NormalizeLevel: dossier.NormalizeLight,
	}
}

// Validate returns EINVALID when the request cannot be built.
func (r BuildRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Ticker, validation.Required),
		validation.Field(&r.Years, validation.Required, validation.Min(1)),
		validation.Field(&r.Forms, validation.Required),
		validation.Field(&r.MaxPerForm, validation.Required, validation.Min(1)),
		validation.Field(&r.Mode, validation.Required, validation.In(dossier.ModeLinksOnly, dossier.ModeFull)),
		validation.Field(&r.NormalizeLevel, validation.In(dossier.NormalizeNone, dossier.NormalizeLight, dossier.NormalizeDeep)),
	)
	if err != nil {
		return dossier.Errorf(dossier.EINVALID, "invalid build request: %v", err)
	}
	return nil
}

// snapshot returns the configuration recorded in the manifest.
func (r BuildRequest) snapshot() dossier.ConfigSnapshot {
	return dossier.ConfigSnapshot{
		Years:             r.Years,
		Forms:             dossier.FormStrings(r.Forms),
		MaxFilingsPerForm: r.MaxPerForm,
		Mode:              r.Mode,
		ForceRebuild:      r.Force,
		NormalizeLevel:    r.NormalizeLevel,
		IncludeXBRL:       r.IncludeXBRL,
		UserAgent:         r.UserAgent,
		RPSLimit:          r.RPSLimit,
	}
}

// requestFromSnapshot rebuilds the request a previous run used. Force is
// never carried over; contact details come from base.
func requestFromSnapshot(ticker string, s dossier.ConfigSnapshot, base BuildRequest) BuildRequest {
	req := base
	req.Ticker = ticker
	req.Force = false
	req.RefreshEntity = false
	if s.Years > 0 {
		req.Years = s.Years
	}
	if forms := dossier.ParseForms(s.Forms); len(forms) > 0 {
		req.Forms = forms
	}
	if s.MaxFilingsPerForm > 0 {
		req.MaxPerForm = s.MaxFilingsPerForm
	}
	if s.Mode != "" {
		req.Mode = s.Mode
	}
	if s.NormalizeLevel != "" {
		req.NormalizeLevel = s.NormalizeLevel
	}
	req.IncludeXBRL = s.IncludeXBRL
	return req
}
