package dossier

import "strings"

// Form is a filing category code as published by the registry.
type Form string

// Known forms. Any other code maps to the default category.
const (
	Form10K    Form = "10-K"
	Form10Q    Form = "10-Q"
	Form20F    Form = "20-F"
	Form40F    Form = "40-F"
	Form8K     Form = "8-K"
	Form6K     Form = "6-K"
	FormDEF14A Form = "DEF 14A"
	Form3      Form = "3"
	Form4      Form = "4"
	Form5      Form = "5"
	FormS1     Form = "S-1"
	FormS3     Form = "S-3"
	FormS4     Form = "S-4"
	FormS8     Form = "S-8"
	Form13FHR  Form = "13F-HR"
	Form13FNT  Form = "13F-NT"
	FormNCSR   Form = "N-CSR"
	FormNCSRS  Form = "N-CSRS"
	FormNQ     Form = "N-Q"
)

// DefaultForms is the category filter used when none is given.
var DefaultForms = []Form{Form10K, Form10Q, Form8K, FormDEF14A, Form4}

// Directory returns the storage directory segment for the form.
func (f Form) Directory() string {
	switch f {
	case Form10K, Form10Q, Form20F, Form40F:
		return "financial_reports"
	case Form8K, Form6K:
		return "material_events"
	case FormDEF14A:
		return "proxy_statements"
	case Form3, Form4, Form5:
		return "insider_transactions"
	case FormS1, FormS3, FormS4, FormS8:
		return "registration_statements"
	case Form13FHR, Form13FNT:
		return "institutional_holdings"
	case FormNCSR, FormNCSRS, FormNQ:
		return "fund_reports"
	default:
		return "other_filings"
	}
}

// MinExpected returns how many filings of this form a complete dossier
// covering the given number of years should contain. Zero means the form is
// not mandatory.
func (f Form) MinExpected(years int) int {
	switch f {
	case Form10K:
		return min(years, 3)
	case Form10Q:
		return min(years*4, 8)
	case Form8K:
		return 1
	default:
		return 0
	}
}

// Slug returns a filesystem and identifier safe rendition of the form,
// e.g. "DEF 14A" becomes "DEF-14A".
func (f Form) Slug() string {
	return strings.Join(strings.Fields(string(f)), "-")
}

// ParseForms converts raw form codes, dropping blanks and duplicates.
func ParseForms(codes []string) []Form {
	seen := make(map[Form]bool, len(codes))
	forms := make([]Form, 0, len(codes))
	for _, c := range codes {
		f := Form(strings.ToUpper(strings.TrimSpace(c)))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		forms = append(forms, f)
	}
	return forms
}

// FormStrings converts forms back to raw codes.
func FormStrings(forms []Form) []string {
	s := make([]string, len(forms))
	for i, f := range forms {
		s[i] = string(f)
	}
	return s
}
