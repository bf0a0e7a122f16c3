package driving

import "context"

// AnswerService runs the per-query retrieval-augmented pipeline:
// optimise the query, retrieve passages, compose the grounded prompt
// and generate the final answer.
type AnswerService interface {
	// Answer produces the final user-facing prose for a question.
	Answer(ctx context.Context, query string) (string, error)
}
