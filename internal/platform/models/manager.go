// Package models hosts the model manager. The inference methods return
// fixed placeholder results; only the inputs and the catalogue affect them.
package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/renal-ai-api/internal/domain"
)

var (
	// ErrSlideUnavailable is returned when the slide file is missing on disk.
	ErrSlideUnavailable = errors.New("slide file unavailable")

	// ErrModelDisabled is returned when the catalogue disables the model.
	ErrModelDisabled = errors.New("model disabled")
)

// Placeholder report text.
const (
	reportFindings   = "Glomerular morphology is essentially normal with no obvious lesions; nuclear counts are within the normal range."
	reportConclusion = "No obvious renal pathological features observed."
)

// Slide identifies the stored image an analysis runs on.
type Slide struct {
	// Path is the saved location of the slide on disk.
	Path string
	// Name is the original upload name reported back in results.
	Name string
}

// Report is the result of a pathology report analysis.
type Report struct {
	ReportID   string         `json:"report_id"`
	FileName   string         `json:"file_name"`
	Findings   string         `json:"findings"`
	Conclusion string         `json:"conclusion"`
	Confidence float64        `json:"confidence"`
	Parameters map[string]any `json:"parameters"`
}

// GlomeruliCount is the result of a glomeruli counting analysis.
type GlomeruliCount struct {
	Count      int            `json:"count"`
	Density    float64        `json:"density"`
	FileName   string         `json:"file_name"`
	Parameters map[string]any `json:"parameters"`
}

// NucleiCount is the result of a nuclei counting analysis.
type NucleiCount struct {
	AverageNucleiPerGlomerulus int            `json:"average_nuclei_per_glomerulus"`
	TotalNuclei                int            `json:"total_nuclei"`
	FileName                   string         `json:"file_name"`
	Parameters                 map[string]any `json:"parameters"`
}

// Manager runs analyses against the models listed in its catalogue.
type Manager struct {
	catalogue *Catalogue
	logger    *slog.Logger
}

// NewManager creates a Manager. A nil catalogue means DefaultCatalogue.
func NewManager(catalogue *Catalogue, logger *slog.Logger) *Manager {
	if catalogue == nil {
		catalogue = DefaultCatalogue()
	}
	if logger == nil {
		logger = slog.Default()
	}

	for key, m := range catalogue.Models {
		logger.Info("model registered",
			slog.String("model", key),
			slog.String("name", m.Name),
			slog.Bool("enabled", m.Enabled))
	}

	return &Manager{catalogue: catalogue, logger: logger}
}

// GenerateReport produces a pathology report for the slide.
func (m *Manager) GenerateReport(ctx context.Context, slide Slide, params map[string]any) (*Report, error) {
	if err := m.ready(domain.AnalysisTypeReport, slide); err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "generating pathology report", slog.String("file_name", slide.Name))

	return &Report{
		ReportID:   "report_" + domain.FileStem(slide.Path),
		FileName:   slide.Name,
		Findings:   reportFindings,
		Conclusion: reportConclusion,
		Confidence: 0.92,
		Parameters: orEmpty(params),
	}, nil
}

// CountGlomeruli counts glomeruli on the slide.
func (m *Manager) CountGlomeruli(ctx context.Context, slide Slide, params map[string]any) (*GlomeruliCount, error) {
	if err := m.ready(domain.AnalysisTypeGlomeruliCount, slide); err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "counting glomeruli", slog.String("file_name", slide.Name))

	return &GlomeruliCount{
		Count:      28,
		Density:    1.2,
		FileName:   slide.Name,
		Parameters: orEmpty(params),
	}, nil
}

// CountNuclei counts nuclei within the slide's glomeruli.
func (m *Manager) CountNuclei(ctx context.Context, slide Slide, params map[string]any) (*NucleiCount, error) {
	if err := m.ready(domain.AnalysisTypeNucleiCount, slide); err != nil {
		return nil, err
	}
	m.logger.InfoContext(ctx, "counting nuclei", slog.String("file_name", slide.Name))

	return &NucleiCount{
		AverageNucleiPerGlomerulus: 126,
		TotalNuclei:                3528,
		FileName:                   slide.Name,
		Parameters:                 orEmpty(params),
	}, nil
}

func (m *Manager) ready(t domain.AnalysisType, slide Slide) error {
	if !m.catalogue.Enabled(t) {
		return fmt.Errorf("%w: %s", ErrModelDisabled, catalogueKey(t))
	}
	if _, err := os.Stat(slide.Path); err != nil {
		return fmt.Errorf("%w: %s", ErrSlideUnavailable, slide.Name)
	}
	return nil
}

func orEmpty(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}
	return params
}
