package generation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"math"

	"google.golang.org/genai"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	genaiclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/genai"
	"github.com/recipify/diversity-guard/internal/infrastructure/observability"
	"github.com/recipify/diversity-guard/pkg/config"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

// recipeResponseSchema constrains model output to the recipe payload shape.
var recipeResponseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"prepTime":    {Type: genai.TypeString},
		"cookTime":    {Type: genai.TypeString},
		"servings":    {Type: genai.TypeString},
		"ingredientsUsed": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":     {Type: genai.TypeString},
					"quantity": {Type: genai.TypeString},
					"unit":     {Type: genai.TypeString},
				},
				Required: []string{"name", "quantity", "unit"},
			},
		},
		"instructions": {
			Type:  genai.TypeArray,
			Items: &genai.Schema{Type: genai.TypeString},
		},
		"notes": {Type: genai.TypeString},
	},
	Required: []string{"title", "description", "prepTime", "cookTime", "servings", "ingredientsUsed", "instructions"},
}

// GenAIAdapter implements RecipeGenerator against the Google GenAI API
type GenAIAdapter struct {
	client      *genaiclient.Client
	cache       providers.CacheProvider
	metrics     *observability.Metrics
	temperature float64
	cacheTTL    int
}

// NewGenAIAdapter creates a GenAI-backed recipe generator. The cache is
// optional and only consulted for first attempts.
func NewGenAIAdapter(client *genaiclient.Client, cache providers.CacheProvider, metrics *observability.Metrics, cfg *config.GenAIConfig) providers.RecipeGenerator {
	return &GenAIAdapter{
		client:      client,
		cache:       cache,
		metrics:     metrics,
		temperature: cfg.Temperature,
		cacheTTL:    cfg.CacheTTLSeconds,
	}
}

// Generate produces a recipe candidate for the request
func (a *GenAIAdapter) Generate(ctx context.Context, req providers.GenerationRequest) (*entities.Recipe, error) {
	temperature := attemptTemperature(a.temperature, req.AttemptIndex)
	cacheKey := requestCacheKey(req, temperature)

	// Retries must produce fresh candidates, so only the first attempt
	// may be served from cache.
	if a.cache != nil && req.AttemptIndex == 0 {
		if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
			if recipe, parseErr := parseRecipePayload(string(cached)); parseErr == nil {
				observability.RecordCacheHit(ctx, a.metrics, cacheKey)
				return recipe, nil
			}
		}
		observability.RecordCacheMiss(ctx, a.metrics, cacheKey)
	}

	prompt := buildRecipePrompt(req)
	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := a.client.Client().Models.GenerateContent(ctx, a.client.ModelName(), contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(temperature),
		ResponseMIMEType: "application/json",
		ResponseSchema:   recipeResponseSchema,
	})
	if err != nil {
		return nil, apperrors.NewExternalError("GenAI generation failed", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, apperrors.NewInvalidRecipeError("model returned an empty response")
	}

	recipe, err := parseRecipePayload(text)
	if err != nil {
		return nil, err
	}

	if a.cache != nil && req.AttemptIndex == 0 {
		go func() {
			if cacheErr := a.cache.Set(context.Background(), cacheKey, []byte(text), a.cacheTTL); cacheErr != nil {
				log.Printf("Warning: failed to cache generated recipe: %v", cacheErr)
			}
		}()
	}

	return recipe, nil
}

// attemptTemperature raises the sampling temperature on retries so repeated
// attempts explore further from the rejected candidate.
func attemptTemperature(base float64, attempt int) float32 {
	if attempt <= 0 {
		return float32(base)
	}
	limit := 1.2
	if attempt == 1 {
		limit = 1.1
	}
	return float32(math.Min(base+0.2*float64(attempt), limit))
}

func requestCacheKey(req providers.GenerationRequest, temperature float32) string {
	payload, _ := json.Marshal([]any{req.Ingredients, req.Cuisine, req.Audience, req.Servings, req.AvoidTitles})
	digest := sha256.Sum256(payload)
	return fmt.Sprintf("genai:recipe:%s:%d:%.2f", hex.EncodeToString(digest[:]), req.AttemptIndex, temperature)
}
