package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/oes-employment-etl/internal/domain"
	"github.com/couchcryptid/oes-employment-etl/internal/observability"
)

// DictionaryLoader loads a code dictionary from a URL or path.
type DictionaryLoader interface {
	Load(ctx context.Context, source string) (*domain.Dictionary, error)
}

// PlanInput names the reference data a run is planned from.
type PlanInput struct {
	StateSource      string
	OccupationSource string
	Salary           []domain.SalaryEntry
	Years            domain.YearRange
}

// Plan is the fully resolved work of one run: the table axes and every
// series ID to request, in request order.
type Plan struct {
	States      []domain.Entry
	Occupations *domain.OccupationSet
	SeriesIDs   []string
	Years       domain.YearRange
}

// BuildPlan loads the dictionaries and resolves the salary schedule into
// occupation columns. It fails before any API request is made if a
// salary-schedule code cannot be resolved.
func BuildPlan(ctx context.Context, loader DictionaryLoader, in PlanInput, logger *slog.Logger, metrics *observability.Metrics) (*Plan, error) {
	if err := in.Years.Validate(); err != nil {
		return nil, err
	}

	states, err := loader.Load(ctx, in.StateSource)
	if err != nil {
		return nil, fmt.Errorf("load states: %w", err)
	}
	if states.Len() == 0 {
		return nil, errors.New("state dictionary is empty")
	}

	occupations, err := loader.Load(ctx, in.OccupationSource)
	if err != nil {
		return nil, fmt.Errorf("load occupations: %w", err)
	}

	set, err := domain.BuildOccupationSet(in.Salary, occupations, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve occupations: %w", err)
	}
	if set.Len() == 0 {
		return nil, errors.New("salary schedule lists no occupations")
	}
	metrics.OccupationFallbacks.Add(float64(set.Fallbacks()))

	plan := &Plan{
		States:      states.Entries(),
		Occupations: set,
		SeriesIDs:   domain.SeriesIDs(states.Codes(), set.Codes()),
		Years:       in.Years,
	}

	logger.Info("run planned",
		"states", len(plan.States),
		"occupations", set.Len(),
		"fallbacks", set.Fallbacks(),
		"series", len(plan.SeriesIDs),
		"years", in.Years.String(),
	)
	return plan, nil
}
