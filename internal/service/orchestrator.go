package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fridgechef/backend/config"
	"github.com/fridgechef/backend/internal/model"
)

const generationSystemPrompt = `You are a helpful AI chef. You adapt existing recipes to the ingredients a user already has, substituting or omitting what they lack where sensible. Respond only with a JSON object like {"title": "...", "description": "...", "ingredients": ["..."], "instructions": ["..."]}.`

// FailurePolicy values for per-candidate generation failures.
const (
	PolicyDrop     = "drop"
	PolicyFallback = "fallback"
)

// GenerationOrchestrator fans generation out across the selected candidates
// and fans the results back in. Concurrency affects completion timing only;
// the output order is always the candidate order.
type GenerationOrchestrator struct {
	completer Completer
	cfg       config.GenerateConfig
	logger    *zap.Logger
}

// NewGenerationOrchestrator creates a new GenerationOrchestrator instance
func NewGenerationOrchestrator(completer Completer, cfg config.GenerateConfig, logger *zap.Logger) *GenerationOrchestrator {
	return &GenerationOrchestrator{completer: completer, cfg: cfg, logger: logger}
}

// generatedRecipe is the JSON shape the generation provider is asked for.
type generatedRecipe struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Ingredients  []string     `json:"ingredients"`
	Instructions flexibleList `json:"instructions"`
}

// flexibleList accepts either a JSON array of strings or a single string;
// models do not reliably stick to one.
type flexibleList []string

func (l *flexibleList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*l = nil
		} else {
			*l = []string{s}
		}
		return nil
	}
	return fmt.Errorf("instructions must be a string or list of strings")
}

// Generate produces one suggestion per candidate, in candidate order. Each
// candidate's generation call retries and fails independently of its
// siblings; what happens to a failed candidate is the configured policy's
// call. With the drop policy, losing every candidate escalates to a request
// failure.
func (o *GenerationOrchestrator) Generate(ctx context.Context, queryTokens []string, candidates []model.Candidate) ([]model.Suggestion, error) {
	if len(candidates) == 0 {
		return []model.Suggestion{}, nil
	}

	results := make([]*model.Suggestion, len(candidates))
	errs := make([]error, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	if o.cfg.MaxConcurrent > 0 {
		g.SetLimit(o.cfg.MaxConcurrent)
	}
	for i := range candidates {
		g.Go(func() error {
			suggestion, err := o.generateOne(gctx, queryTokens, candidates[i])
			if err != nil {
				// Isolated failure: record it, never abort siblings.
				errs[i] = err
				return nil
			}
			results[i] = suggestion
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil && !o.cfg.AllowPartial {
		return nil, fmt.Errorf("%w: generation fan-out cancelled", ErrTimeout)
	}

	suggestions := make([]model.Suggestion, 0, len(candidates))
	failed := 0
	for i, c := range candidates {
		switch {
		case results[i] != nil:
			suggestions = append(suggestions, *results[i])
		case ctx.Err() != nil:
			// Cancelled mid-flight under AllowPartial: completed-so-far only.
			failed++
		case o.cfg.FailurePolicy == PolicyFallback:
			o.logger.Warn("generation failed, returning original recipe",
				zap.String("stage", "generation"),
				zap.String("recipe_id", c.Recipe.ID.String()),
				zap.Error(errs[i]),
			)
			suggestions = append(suggestions, o.fallback(c))
		default:
			o.logger.Warn("generation failed, dropping candidate",
				zap.String("stage", "generation"),
				zap.String("recipe_id", c.Recipe.ID.String()),
				zap.Error(errs[i]),
			)
			failed++
		}
	}

	if len(suggestions) == 0 && failed > 0 {
		return nil, fmt.Errorf("%w: all %d candidates failed", ErrGeneration, failed)
	}
	return suggestions, nil
}

func (o *GenerationOrchestrator) generateOne(ctx context.Context, queryTokens []string, c model.Candidate) (*model.Suggestion, error) {
	prompt := o.buildPrompt(queryTokens, c)

	content, err := o.completer.Complete(ctx, generationSystemPrompt, prompt, 0)
	if err != nil {
		return nil, err
	}

	var gen generatedRecipe
	if err := json.Unmarshal([]byte(content), &gen); err != nil {
		return nil, fmt.Errorf("%w: unparsable generation output: %v", ErrGeneration, err)
	}
	if gen.Title == "" || len(gen.Ingredients) == 0 {
		return nil, fmt.Errorf("%w: generation output missing title or ingredients", ErrGeneration)
	}

	return &model.Suggestion{
		RecipeID:     c.Recipe.ID,
		Title:        gen.Title,
		Description:  gen.Description,
		Ingredients:  gen.Ingredients,
		Instructions: gen.Instructions,
		Missing:      c.Missing,
		Generated:    true,
	}, nil
}

// buildPrompt is deterministic for a given candidate and query: same inputs,
// same prompt, same cacheable provider behavior.
func (o *GenerationOrchestrator) buildPrompt(queryTokens []string, c model.Candidate) string {
	var b strings.Builder
	b.WriteString("Original recipe: ")
	b.WriteString(c.Recipe.Title)
	b.WriteString("\nIngredients: ")
	b.WriteString(strings.Join(c.Recipe.Ingredients, ", "))

	if len(c.Recipe.Instructions) > 0 {
		instructions := strings.Join(c.Recipe.Instructions, " ")
		if o.cfg.InstructionBudget > 0 && len(instructions) > o.cfg.InstructionBudget {
			// Back up to a rune boundary so the cut never emits a partial
			// UTF-8 sequence.
			cut := o.cfg.InstructionBudget
			for cut > 0 && !utf8.RuneStart(instructions[cut]) {
				cut--
			}
			instructions = instructions[:cut]
		}
		b.WriteString("\nInstructions: ")
		b.WriteString(instructions)
	}

	b.WriteString("\n\nThe user has: ")
	b.WriteString(strings.Join(queryTokens, ", "))

	missing := c.Missing
	if o.cfg.MaxMissingPrompt > 0 && len(missing) > o.cfg.MaxMissingPrompt {
		missing = missing[:o.cfg.MaxMissingPrompt]
	}
	if len(missing) > 0 {
		b.WriteString("\nThe user is missing: ")
		b.WriteString(strings.Join(missing, ", "))
	}

	b.WriteString("\n\nAdapt this recipe to what the user has, substituting or omitting missing ingredients where sensible.")
	return b.String()
}

// fallback returns the candidate's original record text, un-generated.
func (o *GenerationOrchestrator) fallback(c model.Candidate) model.Suggestion {
	return model.Suggestion{
		RecipeID:     c.Recipe.ID,
		Title:        c.Recipe.Title,
		Description:  c.Recipe.Description,
		Ingredients:  c.Recipe.Ingredients,
		Instructions: c.Recipe.Instructions,
		Missing:      c.Missing,
		Generated:    false,
	}
}
