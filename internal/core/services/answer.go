package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/logger"
)

// contextDelimiter joins retrieved documents into the prompt context block.
const contextDelimiter = " | "

// answerPromptTemplate is the fixed prompt shape for answer generation.
const answerPromptTemplate = `Use the following pieces of context to answer the query at the end.
If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Query: %s

Helpful Answer:`

// Ensure AnswerService implements the interface.
var _ driving.Assistant = (*AnswerService)(nil)

// AnswerService retrieves context for a query and delegates answer
// generation to the language model.
type AnswerService struct {
	querier driving.Querier
	llm     driven.LLMService
}

// NewAnswerService creates a new answer service.
// The llm parameter is optional; when nil, Ask fails with
// domain.ErrLLMUnavailable and callers should use the Querier directly.
func NewAnswerService(querier driving.Querier, llm driven.LLMService) *AnswerService {
	return &AnswerService{querier: querier, llm: llm}
}

// Ask retrieves context documents for the query, assembles them into a
// prompt and returns the generated answer together with the untouched
// per-kind retrieval results.
func (s *AnswerService) Ask(
	ctx context.Context,
	query string,
	kinds []domain.MediaKind,
	opts driving.QueryOptions,
) (domain.QueryResult, error) {
	if s.llm == nil {
		return domain.QueryResult{}, domain.ErrLLMUnavailable
	}

	documents, err := s.querier.Query(ctx, query, kinds, opts)
	if err != nil {
		return domain.QueryResult{}, err
	}

	prompt := BuildPrompt(query, flattenDocuments(kinds, documents))
	logger.Debug("Prompting %s with %d context characters", s.llm.ModelName(), len(prompt))

	answer, err := s.llm.Answer(ctx, prompt)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.QueryResult{
		LLMResponse: answer,
		Documents:   documents,
	}, nil
}

// BuildPrompt substitutes the joined context block and the query into the
// answer prompt template.
func BuildPrompt(query string, contexts []string) string {
	return fmt.Sprintf(answerPromptTemplate, strings.Join(contexts, contextDelimiter), query)
}

// flattenDocuments orders context strings by requested kind, then by rank
// within each kind. Map iteration is avoided so prompt assembly stays
// deterministic.
func flattenDocuments(kinds []domain.MediaKind, documents map[domain.MediaKind][]domain.MediaData) []string {
	var contexts []string
	for _, kind := range kinds {
		for _, data := range documents[kind] {
			contexts = append(contexts, data.Document)
		}
	}
	return contexts
}
