package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/recipify/diversity-guard/internal/adapters/database"
	"github.com/recipify/diversity-guard/internal/application/services"
	"github.com/recipify/diversity-guard/internal/domain/entities"
	"github.com/recipify/diversity-guard/internal/infrastructure/clients/postgres"
	"github.com/recipify/diversity-guard/pkg/config"
)

const migrationPath = "migrations/001_create_avoid_list.sql"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	if data, err := os.ReadFile(migrationPath); err != nil {
		log.Printf("Schema migration not found at %s, assuming table exists", migrationPath)
	} else if _, err := pgClient.DB().ExecContext(ctx, string(data)); err != nil {
		log.Fatalf("Failed to apply schema migration: %v", err)
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating avoid_list_entries before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE avoid_list_entries`); err != nil {
			log.Fatalf("Failed to reset table: %v", err)
		}
	}

	store := database.NewAvoidListAdapter(pgClient, cfg.Guard.PerComboCap)
	fingerprints := services.NewFingerprintService(nil, false)

	// A little history for the common demo combos so a first run already
	// has something to collide with
	seeds := []struct {
		ingredients []string
		userID      string
		recipe      *entities.Recipe
	}{
		{
			ingredients: []string{"chicken", "rice", "broccoli", "soy sauce"},
			recipe: &entities.Recipe{
				Title:   "Chicken Broccoli Rice Skillet",
				Cuisine: entities.CuisineAny,
				IngredientsUsed: []entities.Ingredient{
					{Name: "Chicken", Quantity: "1 lb"},
					{Name: "Rice", Quantity: "1 cup"},
					{Name: "Broccoli", Quantity: "2 cups"},
					{Name: "Soy Sauce", Quantity: "2 tbsp"},
				},
				Instructions: []string{
					"Sear the chicken in a hot skillet.",
					"Steam the broccoli until just tender.",
					"Toss with cooked rice and soy sauce.",
				},
				Servings: "2",
			},
		},
		{
			ingredients: []string{"chicken", "rice", "broccoli", "soy sauce"},
			recipe: &entities.Recipe{
				Title:   "Baked Chicken and Broccoli Rice Casserole",
				Cuisine: entities.CuisineAmerican,
				IngredientsUsed: []entities.Ingredient{
					{Name: "Chicken", Quantity: "1 lb"},
					{Name: "Rice", Quantity: "1 cup"},
					{Name: "Broccoli", Quantity: "2 cups"},
					{Name: "Soy Sauce", Quantity: "1 tbsp"},
					{Name: "Cheddar", Quantity: "1 cup"},
				},
				Instructions: []string{
					"Parboil the rice.",
					"Layer chicken, rice and broccoli in a dish.",
					"Top with cheddar.",
					"Bake until bubbling.",
				},
				Servings: "4",
			},
		},
		{
			ingredients: []string{"egg", "flour", "butter"},
			userID:      "demo-user",
			recipe: &entities.Recipe{
				Title:   "Egg Flour Pancakes",
				Cuisine: entities.CuisineAny,
				IngredientsUsed: []entities.Ingredient{
					{Name: "Egg", Quantity: "2"},
					{Name: "Flour", Quantity: "1 cup"},
					{Name: "Butter", Quantity: "2 tbsp"},
				},
				Instructions: []string{
					"Whisk the eggs into the flour.",
					"Melt the butter in a pan.",
					"Fry the batter in batches.",
				},
				Servings: "2",
			},
		},
		{
			ingredients: []string{"salmon", "lemon", "asparagus", "garlic"},
			recipe: &entities.Recipe{
				Title:   "Garlic Butter Salmon with Asparagus",
				Cuisine: entities.CuisineAny,
				IngredientsUsed: []entities.Ingredient{
					{Name: "Salmon", Quantity: "2 fillets"},
					{Name: "Lemon", Quantity: "1"},
					{Name: "Asparagus", Quantity: "1 bunch"},
					{Name: "Garlic", Quantity: "3 cloves"},
				},
				Instructions: []string{
					"Roast the asparagus with garlic.",
					"Pan-sear the salmon skin side down.",
					"Finish with lemon juice.",
				},
				Servings: "2",
			},
		},
	}

	seeded := 0
	for _, seed := range seeds {
		fp, err := fingerprints.Compute(ctx, seed.recipe)
		if err != nil {
			log.Printf("Failed to fingerprint %q: %v", seed.recipe.Title, err)
			continue
		}

		entry := entities.NewAvoidListEntry(entities.NewComboKey(seed.ingredients), seed.userID, *fp, time.Now())

		if err := store.Append(ctx, entry); err != nil {
			log.Printf("Failed to seed %q: %v", seed.recipe.Title, err)
			continue
		}
		seeded++
	}

	log.Printf("Seeded %d avoid-list entries", seeded)
}
