package mock

import (
	"context"

	"github.com/fwojciec/dossier"
)

var _ dossier.RunService = (*RunService)(nil)

// RunService is a mock implementation of dossier.RunService.
type RunService struct {
	CreateRunFn func(ctx context.Context, run *dossier.RunRecord) error
	FindRunsFn  func(ctx context.Context, filter dossier.RunFilter) ([]*dossier.RunRecord, error)
}

func (s *RunService) CreateRun(ctx context.Context, run *dossier.RunRecord) error {
	return s.CreateRunFn(ctx, run)
}

func (s *RunService) FindRuns(ctx context.Context, filter dossier.RunFilter) ([]*dossier.RunRecord, error) {
	return s.FindRunsFn(ctx, filter)
}
