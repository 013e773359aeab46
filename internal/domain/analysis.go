package domain

import "fmt"

// AnalysisType identifies which analysis a task runs against a slide.
type AnalysisType string

// Supported analysis types
const (
	AnalysisTypeReport         AnalysisType = "report"
	AnalysisTypeGlomeruliCount AnalysisType = "glomeruli_count"
	AnalysisTypeNucleiCount    AnalysisType = "nuclei_count"
)

// AnalysisTypes lists every supported analysis type in a stable order.
var AnalysisTypes = []AnalysisType{
	AnalysisTypeReport,
	AnalysisTypeGlomeruliCount,
	AnalysisTypeNucleiCount,
}

// ParseAnalysisType converts a raw string into an AnalysisType.
func ParseAnalysisType(s string) (AnalysisType, error) {
	t := AnalysisType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAnalysisType, s)
	}
	return t, nil
}

// Valid reports whether t is one of the supported analysis types.
func (t AnalysisType) Valid() bool {
	switch t {
	case AnalysisTypeReport, AnalysisTypeGlomeruliCount, AnalysisTypeNucleiCount:
		return true
	default:
		return false
	}
}

func (t AnalysisType) String() string {
	return string(t)
}
