package service

import (
	"sort"
	"strings"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/model"
)

// ScoredRecipe pairs a resolved recipe record with its raw index similarity.
type ScoredRecipe struct {
	Recipe     *model.Recipe
	Similarity float64
}

// RankingEngine rescores retrieved candidates by combining vector similarity
// with literal ingredient feasibility: how much of the recipe the user can
// already cook, and how much they would have to buy.
type RankingEngine struct {
	normalizer *Normalizer
	cfg        config.RankingConfig
}

// NewRankingEngine creates a new RankingEngine instance
func NewRankingEngine(normalizer *Normalizer, cfg config.RankingConfig) *RankingEngine {
	return &RankingEngine{normalizer: normalizer, cfg: cfg}
}

// Rank returns at most n candidates ordered by descending composite score.
// Ties break by descending similarity, then ascending missing-ingredient
// count, then recipe ID, so the order is a deterministic total order.
//
// A candidate that shares no ingredient with the query is excluded outright:
// semantic similarity alone is not enough to put a recipe in front of the
// user.
func (e *RankingEngine) Rank(queryTokens []string, scored []ScoredRecipe, n int) []model.Candidate {
	if n <= 0 {
		return nil
	}

	querySet := make(map[string]struct{}, len(queryTokens))
	for _, tok := range queryTokens {
		querySet[tok] = struct{}{}
	}

	seen := make(map[string]struct{}, len(scored))
	candidates := make([]model.Candidate, 0, len(scored))
	for _, sr := range scored {
		if sr.Recipe == nil {
			continue
		}
		// Duplicate ids collapse to their first (highest-similarity) entry.
		idKey := sr.Recipe.ID.String()
		if _, dup := seen[idKey]; dup {
			continue
		}
		seen[idKey] = struct{}{}

		recipeTokens := e.recipeTokens(sr.Recipe.Ingredients)
		if len(recipeTokens) == 0 {
			continue
		}

		matched := 0
		missing := make([]string, 0, len(recipeTokens))
		for _, tok := range recipeTokens {
			if _, ok := querySet[tok]; ok {
				matched++
			} else {
				missing = append(missing, tok)
			}
		}
		if matched == 0 {
			continue
		}

		similarity := clamp01(sr.Similarity)
		overlap := float64(matched) / float64(len(recipeTokens))
		missingFrac := float64(len(missing)) / float64(len(recipeTokens))
		score := e.cfg.SimilarityWeight*similarity +
			e.cfg.OverlapWeight*overlap -
			e.cfg.MissingPenalty*missingFrac

		candidates = append(candidates, model.Candidate{
			Recipe:     sr.Recipe,
			Similarity: similarity,
			Overlap:    overlap,
			Missing:    missing,
			Score:      score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if len(a.Missing) != len(b.Missing) {
			return len(a.Missing) < len(b.Missing)
		}
		return strings.Compare(a.Recipe.ID.String(), b.Recipe.ID.String()) < 0
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// recipeTokens normalizes a recipe's display ingredients with the same rules
// as the query, preserving the recipe's ingredient order for the missing
// list.
func (e *RankingEngine) recipeTokens(ingredients []string) []string {
	seen := make(map[string]struct{}, len(ingredients))
	tokens := make([]string, 0, len(ingredients))
	for _, raw := range ingredients {
		tok := e.normalizer.NormalizeOne(raw)
		if tok == "" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
