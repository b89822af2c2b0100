package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/domain/providers"
	apperrors "github.com/recipify/diversity-guard/pkg/errors"
)

const assumedStaples = "salt, black pepper, water, neutral cooking oil (e.g., vegetable, canola)"

const generalBabyInstructions = `**CRITICAL General Guidelines for ALL Baby Recipes (6-12+ months):**
- **Flavor Profile:** ABSOLUTELY NO added salt, NO added sugar, NO honey (especially under 1 year due to botulism risk). Focus on natural flavors. Avoid strong/hot spices (e.g., chili, excessive black pepper) and excessive citrus for younger babies.
- **Safety First:** ALWAYS prioritize avoiding choking hazards. Ensure foods are cooked to appropriate softness. Introduce common allergens cautiously, one at a time.
- **Forbidden Items:** NO honey (under 1 year). NO whole nuts or seeds. NO cow's milk as main drink (under 1 year; small amounts in cooking okay if appropriate). NO highly processed foods.`

var babyRules = map[string]string{
	entities.AudienceBaby6To8: `- **Texture:** SMOOTH PUREE, completely free of lumps. Easily spoon-fed.
- **Ingredients:** Simple combinations (1-2 ingredients are best) to monitor for allergies and aid digestion.
- **Preparation:** Steam, boil, or bake ingredients until very soft before pureeing.`,
	entities.AudienceBaby9To12: `- **Texture:** Mashed foods with some soft lumps, or small, soft, melt-in-the-mouth finger foods.
- **Ingredients:** Can introduce more combinations of ingredients. Mild herbs (e.g., parsley, dill) are okay.
- **Preparation:** Ensure finger foods are soft, grabbable, and cut into safe shapes/sizes (e.g., pea-sized or thin strips).`,
	entities.AudienceBaby12Plus: `- **Texture:** Soft, chopped, easily chewable, more varied. Can be similar to family meals but cut smaller and softer.
- **Flavor:** Still mild. Minimal salt if any, wider range of mild spices/herbs acceptable.
- **Preparation:** Cook soft, chop small. Vigilant about choking hazards (e.g., halve grapes).`,
}

const promptTemplate = `You are "Recipify AI Chef".
Your *entire response* MUST be *ONLY* a single JSON object. No other text, explanations, or conversational fluff before, after, or inside the JSON. Adhere strictly to JSON syntax.

### Expected JSON Output Structure:
If successful:
    {
      "title": "Recipe Title (e.g., 'Simple Chicken and Veggie Stir-fry')",
      "description": "A short, appealing description of the dish (1-2 sentences).",
      "prepTime": "e.g., '15 minutes'",
      "cookTime": "e.g., '25 minutes'",
      "servings": "e.g., '%[4]d adult servings' or 'Approx. %[4]d baby portions (6-8 months)'",
      "ingredientsUsed": [
        { "name": "Ingredient Name", "quantity": "Amount", "unit": "e.g., cups, grams, tbsp, or 'to taste' (if appropriate for audience)" }
      ],
      "instructions": [
        "Clear, step-by-step cooking instruction.",
        "Another step..."
      ],
      "notes": "Optional: cooking tips, storage advice, simple variations using ONLY provided ingredients or assumed staples. Notes must be age-appropriate for babies/toddlers."
    }

If a recipe cannot be generated due to constraints:
    {
      "error": "A polite and clear message explaining why a recipe cannot be generated. E.g., 'The ingredients (e.g., only chili peppers) are not suitable for a baby food recipe.' or 'With just water and salt, I can't create a full recipe.'"
    }

### Recipe Generation Rules:
1.  **Ingredients Source:**
    *   Primarily use a subset or all of the user-provided ingredients: "%[1]s".
    *   **Assumed Staples:** You may assume the user has basic staples: **%[2]s**.
    *   **CRITICAL:** If your recipe *requires* any of these assumed staples for a standard preparation, you **MUST include them in the "ingredientsUsed" list** with appropriate quantities (e.g., "1 tsp salt", "2 tbsp oil"). Do NOT introduce other ingredients.
    *   If a liquid base is needed (e.g., for a shake, soup) and not provided by user, 'Water' from assumed staples may be used if sensible, and MUST be listed in 'ingredientsUsed'.

2.  **Edibility & Sanity:** The recipe must be for an **edible dish** with **common and sensible ingredient combinations**. Avoid unsafe or bizarre pairings.

3.  **Sufficiency Check:** If provided ingredients (even with staples) are insufficient for ANY reasonable recipe (e.g., just "water"), nonsensical, or cannot form a coherent dish, respond with the error JSON.

4.  **Cuisine Style:** %[5]s

5.  **Audience & Servings:**
    *   Target Audience: **%[3]s**. Adhere to the following guidelines:
        %[6]s
    *   Desired Servings: Approximately **%[4]d serving(s)**. Adjust ingredient quantities and "servings" field accordingly. Note: A "serving" for babies/toddlers is smaller than an adult's.

6.  **Recipe Variety:** %[7]s

7.  **No External Text:** Absolutely NO text or characters outside the main JSON object.
---
User provided ingredients: "%[1]s"
Selected cuisine: "%[8]s"
Selected audience: "%[3]s"
Desired servings: %[4]d
%[9]s
---
Respond with ONLY the JSON object.`

// buildRecipePrompt renders the full generation prompt for a request
func buildRecipePrompt(req providers.GenerationRequest) string {
	ingredients := strings.Join(req.Ingredients, ", ")

	audienceInstructions := babyRules[req.Audience]
	if audienceInstructions == "" {
		audienceInstructions = "Standard seasoning and preparation."
	}
	if strings.HasPrefix(req.Audience, "Baby") {
		audienceInstructions = generalBabyInstructions + "\n" + audienceInstructions
	}

	var cuisineInstructions string
	if req.Cuisine != entities.CuisineAny && req.Cuisine != "" {
		cuisineInstructions = fmt.Sprintf(
			"The desired cuisine style is **%s**. Strive to create a recipe that authentically reflects this style, using appropriate flavor profiles and techniques.",
			req.Cuisine,
		)
	} else {
		cuisineInstructions = "The user has not specified a particular cuisine. You have flexibility, but ensure the dish is coherent and appealing based on the provided ingredients."
	}

	var varietyContent, avoidTitlesLine string
	if len(req.AvoidTitles) > 0 {
		avoidList := `"` + strings.Join(req.AvoidTitles, "; ") + `"`
		varietyContent = fmt.Sprintf(
			"To provide variety, please try to AVOID generating recipes that are very similar to these titles: %s\n"+
				"Guidance: Aim for a fresh culinary experience. If ingredients strongly point to one of these, or creativity is limited, you may still suggest it, but ideally, offer a different dish or a new angle. Prioritize novelty.",
			avoidList,
		)
		avoidTitlesLine = fmt.Sprintf("Avoid these titles if possible: %s", avoidList)
	} else {
		varietyContent = "No specific meals to avoid were provided. Generate freely."
	}

	return fmt.Sprintf(promptTemplate,
		ingredients,          // %[1]s
		assumedStaples,       // %[2]s
		req.Audience,         // %[3]s
		req.Servings,         // %[4]d
		cuisineInstructions,  // %[5]s
		audienceInstructions, // %[6]s
		varietyContent,       // %[7]s
		req.Cuisine,          // %[8]s
		avoidTitlesLine,      // %[9]s
	)
}

// fencePattern matches a payload wrapped in markdown code fences
var fencePattern = regexp.MustCompile("(?s)^```(?:\\w+)?\\s*\\n?(.*?)\\n?```$")

// declinedPayload is the error object the model returns when the
// constraints cannot produce a recipe
type declinedPayload struct {
	Error string `json:"error"`
}

// parseRecipePayload decodes a model response into a recipe. A declined
// generation surfaces as a validation error, a malformed one as an invalid
// recipe error so callers can burn the attempt and continue.
func parseRecipePayload(raw string) (*entities.Recipe, error) {
	trimmed := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	if trimmed == "" {
		return nil, apperrors.NewInvalidRecipeError("model returned an empty response")
	}

	var declined declinedPayload
	if err := json.Unmarshal([]byte(trimmed), &declined); err == nil && declined.Error != "" {
		return nil, apperrors.NewValidationError("recipe generation declined: " + declined.Error)
	}

	var recipe entities.Recipe
	if err := json.Unmarshal([]byte(trimmed), &recipe); err != nil {
		return nil, apperrors.NewInvalidRecipeError("model returned malformed JSON: " + err.Error())
	}

	if recipe.Title == "" {
		return nil, apperrors.NewInvalidRecipeError("model response is missing a title")
	}
	if len(recipe.IngredientsUsed) == 0 {
		return nil, apperrors.NewInvalidRecipeError("model response has no ingredients")
	}
	if len(recipe.Instructions) == 0 {
		return nil, apperrors.NewInvalidRecipeError("model response has no instructions")
	}

	return &recipe, nil
}
