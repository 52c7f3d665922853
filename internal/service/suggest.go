package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/model"
)

// MaxSuggestCount bounds how many suggestions a single request may ask for.
const MaxSuggestCount = 20

// SuggestService runs the full suggest pipeline: normalize the user's
// ingredients, embed the query, retrieve nearest recipes from the vector
// index, resolve them in the store, rank, and hand the winners to the
// generation layer. A nil generator skips generation and returns the ranked
// recipes as-is.
type SuggestService struct {
	normalizer *Normalizer
	embedder   Embedder
	index      VectorIndex
	store      RecipeStore
	ranker     *RankingEngine
	generator  Generator
	retrieval  config.RetrievalConfig
	timeout    time.Duration
	logger     *zap.Logger
}

// NewSuggestService creates a new SuggestService instance
func NewSuggestService(
	normalizer *Normalizer,
	embedder Embedder,
	index VectorIndex,
	store RecipeStore,
	ranker *RankingEngine,
	generator Generator,
	retrieval config.RetrievalConfig,
	timeout time.Duration,
	logger *zap.Logger,
) *SuggestService {
	return &SuggestService{
		normalizer: normalizer,
		embedder:   embedder,
		index:      index,
		store:      store,
		ranker:     ranker,
		generator:  generator,
		retrieval:  retrieval,
		timeout:    timeout,
		logger:     logger,
	}
}

// Suggest returns at most count suggestions for the given raw ingredient
// list, ordered by descending composite score. Recipes sharing no normalized
// ingredient with the query never appear, and a non-empty tags list restricts
// retrieval to recipes carrying all of them. An empty result is a valid
// answer, not an error.
func (s *SuggestService) Suggest(ctx context.Context, ingredients, tags []string, count int) ([]model.Suggestion, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1", ErrInvalidInput)
	}
	if count > MaxSuggestCount {
		count = MaxSuggestCount
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tokens, err := s.normalizer.Normalize(ingredients)
	if err != nil {
		return nil, err
	}
	hash := queryHash(tokens)

	vector, err := s.embedder.EmbedQuery(ctx, tokens)
	if err != nil {
		return nil, s.stageErr(ctx, "embedding", hash, err)
	}

	matches, err := s.index.QueryTopK(ctx, vector, s.index.KFor(count), cleanTags(tags))
	if err != nil {
		return nil, s.stageErr(ctx, "retrieval", hash, err)
	}
	matches = s.filterMatches(matches)
	if len(matches) == 0 {
		s.logger.Info("no index matches above the similarity floor",
			zap.String("query_hash", hash),
			zap.Float64("min_similarity", s.retrieval.MinSimilarity),
		)
		return []model.Suggestion{}, nil
	}

	ids := make([]uuid.UUID, len(matches))
	for i, m := range matches {
		ids[i] = m.RecipeID
	}
	records, err := s.store.FetchByIDs(ctx, ids)
	if err != nil {
		return nil, s.stageErr(ctx, "store", hash, err)
	}

	// Stale index entries resolve to nothing and drop out here.
	scored := make([]ScoredRecipe, 0, len(matches))
	for _, m := range matches {
		if recipe, ok := records[m.RecipeID]; ok {
			scored = append(scored, ScoredRecipe{Recipe: recipe, Similarity: m.Similarity})
		}
	}

	candidates := s.ranker.Rank(tokens, scored, count)
	s.logger.Info("ranked suggest candidates",
		zap.String("query_hash", hash),
		zap.Int("matches", len(matches)),
		zap.Int("resolved", len(scored)),
		zap.Int("candidates", len(candidates)),
	)
	if len(candidates) == 0 {
		return []model.Suggestion{}, nil
	}

	if s.generator == nil {
		return passthroughSuggestions(candidates), nil
	}
	suggestions, err := s.generator.Generate(ctx, tokens, candidates)
	if err != nil {
		return nil, s.stageErr(ctx, "generation", hash, err)
	}
	return suggestions, nil
}

// filterMatches drops index hits below the configured similarity floor.
func (s *SuggestService) filterMatches(matches []IndexMatch) []IndexMatch {
	if s.retrieval.MinSimilarity <= 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		if m.Similarity >= s.retrieval.MinSimilarity {
			kept = append(kept, m)
		}
	}
	return kept
}

// stageErr attributes a pipeline failure to its stage. A failure observed
// after the request budget expired is reported as a timeout regardless of
// what the stage itself returned.
func (s *SuggestService) stageErr(ctx context.Context, stage, hash string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		s.logger.Warn("suggest request exceeded its time budget",
			zap.String("stage", stage),
			zap.String("query_hash", hash),
		)
		return fmt.Errorf("%w: %s stage exceeded the request budget", ErrTimeout, stage)
	}
	s.logger.Error("suggest stage failed",
		zap.String("stage", stage),
		zap.String("query_hash", hash),
		zap.Error(err),
	)
	return err
}

// passthroughSuggestions presents ranked candidates without generation.
func passthroughSuggestions(candidates []model.Candidate) []model.Suggestion {
	suggestions := make([]model.Suggestion, len(candidates))
	for i, c := range candidates {
		suggestions[i] = model.Suggestion{
			RecipeID:     c.Recipe.ID,
			Title:        c.Recipe.Title,
			Description:  c.Recipe.Description,
			Ingredients:  c.Recipe.Ingredients,
			Instructions: c.Recipe.Instructions,
			Missing:      c.Missing,
			Generated:    false,
		}
	}
	return suggestions
}

// cleanTags trims tag filters and drops empty entries. Tags are matched
// verbatim against the stored record otherwise.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

// queryHash is a short stable identifier for a normalized query, safe to log.
func queryHash(tokens []string) string {
	sum := sha256.Sum256([]byte(strings.Join(tokens, ",")))
	return hex.EncodeToString(sum[:8])
}
