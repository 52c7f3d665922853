package api

import (
	"github.com/fridgechef/backend/internal/model"
)

// SuggestRequest is the body of POST /api/v1/recipes/suggest. Tags optionally
// restrict suggestions to recipes carrying all of them.
type SuggestRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
	Tags        []string `json:"tags"`
	Count       int      `json:"count"`
}

// SuggestResponse wraps the ordered suggestion list.
type SuggestResponse struct {
	Suggestions []model.Suggestion `json:"suggestions"`
}

// CreateRecipeRequest is the body of POST /api/v1/recipes.
type CreateRecipeRequest struct {
	Title        string   `json:"title" binding:"required"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients" binding:"required"`
	Instructions []string `json:"instructions"`
	Tags         []string `json:"tags"`
	Source       string   `json:"source"`
}

// RecipeResponse represents a stored recipe in API responses. The embedding
// vector is internal and never serialized.
type RecipeResponse struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// ErrorResponse carries a safe generic message plus a machine-readable kind.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func recipeResponse(r *model.Recipe) RecipeResponse {
	return RecipeResponse{
		ID:           r.ID.String(),
		Title:        r.Title,
		Description:  r.Description,
		Ingredients:  r.Ingredients,
		Instructions: r.Instructions,
		Tags:         r.Tags,
		Source:       r.Source,
	}
}
