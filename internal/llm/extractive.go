package llm

import (
	"context"

	"docrag/internal/domain"
)

// NoContextAnswer is returned by Extractive when there is nothing to quote,
// whether no document is loaded or nothing in it matched.
const NoContextAnswer = "No document passage to answer from: either no document is loaded or nothing in it matches the question."

// Extractive answers with the retrieved context itself. It needs no network
// access and is used for offline runs.
type Extractive struct{}

// Generate implements domain.AnswerGenerator.
func (Extractive) Generate(_ context.Context, p domain.Prompt) (string, error) {
	if p.Context == "" {
		return NoContextAnswer, nil
	}
	return p.Context, nil
}
