package collab

import (
	"context"

	"github.com/commitly/commitly/internal/perr"
)

// UnavailableLLM implements LLMHandle by always failing with
// KindLLMUnavailable. It is the LLM handle the CLI wires in (no production
// LLM client is part of this module), so the Test agent's
// optimizer and the Refactor agent degrade to a no-op instead of the
// pipeline crashing on a nil interface.
type UnavailableLLM struct{}

func (UnavailableLLM) Complete(ctx context.Context, prompt, system string) (string, error) {
	return "", perr.New(perr.KindLLMUnavailable, "no language-model handle configured")
}

func (UnavailableLLM) SuggestRefactoring(ctx context.Context, code, filePath, rules string) (string, error) {
	return "", perr.New(perr.KindLLMUnavailable, "no language-model handle configured")
}

func (UnavailableLLM) SuggestQueries(ctx context.Context, schema, query, dialect string, n int) ([]string, error) {
	return nil, perr.New(perr.KindLLMUnavailable, "no language-model handle configured")
}
