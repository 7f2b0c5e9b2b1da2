// Package gemini counts tokens with the local Gemini tokenizer.
package gemini

import (
	"context"

	"github.com/fwojciec/dossier"
	"google.golang.org/genai"
	"google.golang.org/genai/tokenizer"
)

// DefaultModel is the tokenizer used when none is configured.
const DefaultModel = "gemini-2.0-flash"

var _ dossier.TokenCounter = (*TokenCounter)(nil)

// TokenCounter counts tokens offline; no API key or network is needed.
type TokenCounter struct {
	tok *tokenizer.LocalTokenizer
}

// NewTokenCounter creates a new TokenCounter for the given model.
func NewTokenCounter(model string) (*TokenCounter, error) {
	if model == "" {
		model = DefaultModel
	}
	tok, err := tokenizer.NewLocalTokenizer(model)
	if err != nil {
		return nil, dossier.Errorf(dossier.EINVALID, "tokenizer for %s: %v", model, err)
	}
	return &TokenCounter{tok: tok}, nil
}

// CountTokens counts the number of tokens in text.
func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := tc.tok.CountTokens([]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
	if err != nil {
		return 0, dossier.Errorf(dossier.EINTERNAL, "counting tokens: %v", err)
	}
	return int(result.TotalTokens), nil
}
