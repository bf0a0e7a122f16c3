package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
	"github.com/campuswatch/watcher/internal/core/ports/driving"
)

// Ensure AnswerService implements the interface.
var _ driving.AnswerService = (*AnswerService)(nil)

// watcherSystemPrompt frames every generation. The persona decides for
// itself whether the input is small talk or an information request, so
// retrieval context is always attached and the model is told how to use
// or ignore it.
const watcherSystemPrompt = `You are The Watcher, an observer across timelines and policies at ITU Punjab. You have access to the 'Sacred Texts' (Student Handbook) regarding university rules, fees, and policies.

RULES:
1. Analyze the Input: Determine if the user is asking for INFORMATION (rules, fees, policies) or just CHATTING (greetings, jokes, general talk).
2. IF CHATTING: Respond in your cosmic, observant persona. Ignore the handbook context completely.
3. IF ASKING FOR INFORMATION:
   - Look at the provided Context.
   - If the answer is in the Context: Answer strictly based on it, citing the rules as 'According to the archives...'
   - If the answer is NOT in the Context: Say 'The archives are silent on this specific matter.' Do NOT make up rules.`

// noContextSentinel stands in for retrieval context when no passage
// clears the score threshold.
const noContextSentinel = "No relevant archives found."

// optimiserPrompt turns a free-form question into a keyword-dense
// search query that matches the index vocabulary better.
const optimiserPrompt = `You rewrite student questions into short keyword search queries for a university handbook and website index. Reply with the search keywords only. No punctuation, no explanations.`

const (
	// DefaultTopK is the number of passages retrieved per query.
	DefaultTopK = 10

	// DefaultMinScore filters out weak retrieval hits.
	DefaultMinScore = 0.35

	// DefaultTemperature keeps the persona lively without drifting
	// from the retrieved context.
	DefaultTemperature = 0.6
)

// AnswerService runs the retrieval-augmented answer pipeline: embed the
// query, search the vector store, compose the grounded prompt and
// generate the reply.
type AnswerService struct {
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	generator   driven.GenerationService
	topK        int
	minScore    float32
	temperature float64
	log         *zap.Logger
}

// AnswerOption configures the answer service.
type AnswerOption func(*AnswerService)

// WithRetrieval overrides the retrieval depth and score threshold.
func WithRetrieval(topK int, minScore float32) AnswerOption {
	return func(s *AnswerService) {
		if topK > 0 {
			s.topK = topK
		}
		if minScore > 0 {
			s.minScore = minScore
		}
	}
}

// WithTemperature overrides the generation temperature.
func WithTemperature(t float64) AnswerOption {
	return func(s *AnswerService) {
		if t > 0 {
			s.temperature = t
		}
	}
}

// NewAnswerService creates an answer service.
func NewAnswerService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	generator driven.GenerationService,
	log *zap.Logger,
	opts ...AnswerOption,
) *AnswerService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &AnswerService{
		embedder:    embedder,
		store:       store,
		generator:   generator,
		topK:        DefaultTopK,
		minScore:    DefaultMinScore,
		temperature: DefaultTemperature,
		log:         log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer produces the final user-facing prose for a question.
func (s *AnswerService) Answer(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		query = domain.DefaultQuery
	}

	start := time.Now()
	s.log.Debug("answering query", zap.String("query", query))

	contextBlock, err := s.retrieve(ctx, s.optimise(ctx, query))
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("Context from Handbook:\n%s\n\nStudent Question: %s", contextBlock, query)

	answer, err := s.generator.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: watcherSystemPrompt},
		{Role: "user", Content: prompt},
	}, driven.ChatOptions{Temperature: s.temperature})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	s.log.Info("query answered",
		zap.String("query", query),
		zap.Duration("elapsed", time.Since(start)))
	return answer, nil
}

// optimise rewrites the question into search keywords. Strictly best
// effort: any failure returns the original question unmodified.
func (s *AnswerService) optimise(ctx context.Context, query string) string {
	rewritten, err := s.generator.Chat(ctx, []driven.ChatMessage{
		{Role: "system", Content: optimiserPrompt},
		{Role: "user", Content: query},
	}, driven.ChatOptions{MaxTokens: 64})
	if err != nil {
		s.log.Debug("query optimisation failed, using original", zap.Error(err))
		return query
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return query
	}
	s.log.Debug("query optimised",
		zap.String("original", query),
		zap.String("rewritten", rewritten))
	return rewritten
}

// retrieve embeds the query and searches the store, retrying each step
// once on failure. Transient upstream hiccups are common enough that a
// single retry pays for itself; anything beyond that is a real outage.
func (s *AnswerService) retrieve(ctx context.Context, query string) (string, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		s.log.Warn("query embedding failed, retrying", zap.Error(err))
		vector, err = s.embedder.Embed(ctx, query)
		if err != nil {
			return "", fmt.Errorf("embedding query: %w", err)
		}
	}

	hits, err := s.store.Search(ctx, vector, s.topK, s.minScore)
	if err != nil {
		s.log.Warn("retrieval failed, retrying", zap.Error(err))
		hits, err = s.store.Search(ctx, vector, s.topK, s.minScore)
		if err != nil {
			return "", fmt.Errorf("searching passages: %w", err)
		}
	}

	if len(hits) == 0 {
		s.log.Debug("no passages above threshold", zap.Float32("min_score", s.minScore))
		return noContextSentinel, nil
	}

	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.Passage.Text)
	}
	s.log.Debug("passages retrieved",
		zap.Int("count", len(hits)),
		zap.Float32("top_score", hits[0].Score))
	return strings.Join(texts, "\n\n"), nil
}
