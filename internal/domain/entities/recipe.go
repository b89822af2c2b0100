package entities

// Cuisine options the generation frontend offers
const (
	CuisineAny      = "Any"
	CuisineItalian  = "Italian"
	CuisineMexican  = "Mexican"
	CuisineKorean   = "Korean"
	CuisineDessert  = "Dessert"
	CuisineAmerican = "American"
)

// Audience options the generation frontend offers
const (
	AudienceEveryone   = "Everyone"
	AudienceBaby6To8   = "Baby (6-8 months)"
	AudienceBaby9To12  = "Baby (9-12 months)"
	AudienceBaby12Plus = "Baby (12+ months)"
)

// Ingredient is one line of a recipe's ingredient list
type Ingredient struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Unit     string `json:"unit"`
}

// Recipe is a generated recipe candidate. Field names follow the
// generation response contract, so a model reply unmarshals directly.
type Recipe struct {
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	Cuisine         string       `json:"cuisine,omitempty"`
	Audience        string       `json:"audience,omitempty"`
	PrepTime        string       `json:"prepTime"`
	CookTime        string       `json:"cookTime"`
	Servings        string       `json:"servings"`
	IngredientsUsed []Ingredient `json:"ingredientsUsed"`
	Instructions    []string     `json:"instructions"`
	Notes           string       `json:"notes,omitempty"`
}

// IngredientNames returns the raw ingredient names in order
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.IngredientsUsed))
	for _, ing := range r.IngredientsUsed {
		names = append(names, ing.Name)
	}
	return names
}
