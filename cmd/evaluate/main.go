package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/recipify/diversity-guard/internal/adapters/memory"
	"github.com/recipify/diversity-guard/internal/application/services"
	"github.com/recipify/diversity-guard/internal/evaluation"
	"github.com/recipify/diversity-guard/pkg/config"
)

func main() {
	var goldenPath string
	var sweep bool
	var sweepMin, sweepMax, sweepStep float64

	flag.StringVar(&goldenPath, "golden", "config/golden_scenarios.json", "Path to the golden scenario file")
	flag.BoolVar(&sweep, "sweep", false, "Sweep a threshold range instead of a single run")
	flag.Float64Var(&sweepMin, "sweep-min", 0.40, "Lower bound of the threshold sweep")
	flag.Float64Var(&sweepMax, "sweep-max", 0.85, "Upper bound of the threshold sweep")
	flag.Float64Var(&sweepStep, "sweep-step", 0.05, "Threshold increment per sweep point")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Allow running from the repository root or from a parent checkout
	if _, err := os.Stat(goldenPath); err != nil {
		if _, err := os.Stat("diversity-guard/" + goldenPath); err == nil {
			goldenPath = "diversity-guard/" + goldenPath
		}
	}

	scenarios, err := evaluation.LoadGoldenScenarios(goldenPath)
	if err != nil {
		log.Fatalf("Failed to load golden scenarios: %v", err)
	}
	if err := evaluation.ValidateGoldenScenarios(scenarios); err != nil {
		log.Fatalf("Invalid golden scenarios: %v", err)
	}

	// Scenarios replay offline against an in-memory history, lexical
	// scoring only. Each scenario gets a guard with an empty store.
	factory := func(threshold float64) evaluation.Evaluator {
		policy := cfg.Guard
		policy.SimilarityThreshold = threshold
		policy.UseEmbeddings = false

		store := memory.NewAvoidListAdapter(policy.PerComboCap)
		fingerprints := services.NewFingerprintService(nil, false)
		similarity := services.NewSimilarityService(policy)
		return services.NewGuardService(store, fingerprints, similarity, nil, nil, nil, policy)
	}

	runner := evaluation.NewRunner(factory, cfg.Guard.SimilarityThreshold)
	ctx := context.Background()

	if sweep {
		points, err := runner.Sweep(ctx, scenarios, evaluation.SweepBounds{
			Min:  sweepMin,
			Max:  sweepMax,
			Step: sweepStep,
		})
		if err != nil {
			log.Fatalf("Threshold sweep failed: %v", err)
		}
		out, _ := json.MarshalIndent(points, "", "  ")
		fmt.Println(string(out))
		return
	}

	summary, err := runner.Run(ctx, scenarios)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
