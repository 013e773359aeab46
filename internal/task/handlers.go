package task

import (
	"context"
	"time"

	"github.com/phrazzld/renal-ai-api/internal/domain"
	"github.com/phrazzld/renal-ai-api/internal/platform/models"
)

// Analyzer runs the model behind each analysis type. *models.Manager
// satisfies it.
type Analyzer interface {
	GenerateReport(ctx context.Context, slide models.Slide, params map[string]any) (*models.Report, error)
	CountGlomeruli(ctx context.Context, slide models.Slide, params map[string]any) (*models.GlomeruliCount, error)
	CountNuclei(ctx context.Context, slide models.Slide, params map[string]any) (*models.NucleiCount, error)
}

var _ Analyzer = (*models.Manager)(nil)

// Checkpoint waits Delay and then records Progress.
type Checkpoint struct {
	Delay    time.Duration
	Progress int
}

// ComputeFunc produces the result document of an analysis.
type ComputeFunc func(ctx context.Context, a Analyzer, slide models.Slide, params map[string]any) (any, error)

// Handler is the progress schedule and computation for one analysis type.
type Handler struct {
	Type        domain.AnalysisType
	Checkpoints []Checkpoint
	// Settle is waited after the last checkpoint, before Compute runs.
	Settle  time.Duration
	Compute ComputeFunc
}

// Delays configures the simulated processing time of each handler.
type Delays struct {
	Report        time.Duration
	GlomeruliStep time.Duration
	Nuclei        time.Duration
}

// DefaultDelays returns the stock handler timings.
func DefaultDelays() Delays {
	return Delays{
		Report:        2 * time.Second,
		GlomeruliStep: 600 * time.Millisecond,
		Nuclei:        time.Second,
	}
}

// Handlers builds the handler for every analysis type.
func Handlers(d Delays) map[domain.AnalysisType]Handler {
	glomeruli := make([]Checkpoint, 0, 5)
	for progress := 20; progress <= domain.MaxProgress; progress += 20 {
		glomeruli = append(glomeruli, Checkpoint{Delay: d.GlomeruliStep, Progress: progress})
	}

	return map[domain.AnalysisType]Handler{
		domain.AnalysisTypeReport: {
			Type:        domain.AnalysisTypeReport,
			Checkpoints: []Checkpoint{{Progress: 30}},
			Settle:      d.Report,
			Compute: func(ctx context.Context, a Analyzer, s models.Slide, p map[string]any) (any, error) {
				return a.GenerateReport(ctx, s, p)
			},
		},
		domain.AnalysisTypeGlomeruliCount: {
			Type:        domain.AnalysisTypeGlomeruliCount,
			Checkpoints: glomeruli,
			Compute: func(ctx context.Context, a Analyzer, s models.Slide, p map[string]any) (any, error) {
				return a.CountGlomeruli(ctx, s, p)
			},
		},
		domain.AnalysisTypeNucleiCount: {
			Type:        domain.AnalysisTypeNucleiCount,
			Checkpoints: []Checkpoint{{Progress: 50}},
			Settle:      d.Nuclei,
			Compute: func(ctx context.Context, a Analyzer, s models.Slide, p map[string]any) (any, error) {
				return a.CountNuclei(ctx, s, p)
			},
		},
	}
}
