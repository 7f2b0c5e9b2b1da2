package mock

import (
	"context"

	"github.com/fwojciec/dossier"
)

var _ dossier.TokenCounter = (*TokenCounter)(nil)

// TokenCounter is a mock implementation of dossier.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return tc.CountTokensFn(ctx, text)
}
