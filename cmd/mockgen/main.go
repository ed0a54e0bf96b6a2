package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"recimpact/cmd/mockgen/engine"
)

func main() {
	outDir := flag.String("out", "./datasets", "Output directory for the visit logs")
	users := flag.Int("users", 1000, "Number of users per algorithm")
	maxShown := flag.Int("max-shown-recs", 3, "Recommendation slots rendered to users")
	ranks := flag.Int("ranks", 6, "Slots the ranker scores, shown or not")
	boost := flag.Float64("boost", 0.5, "Relative click lift from being rendered")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	for _, algorithm := range []string{"A", "B"} {
		cfg := engine.GeneratorConfig{
			Algorithm:    algorithm,
			Users:        *users,
			MaxShownRecs: *maxShown,
			Ranks:        *ranks,
			Boost:        *boost,
			Seed:         *seed,
		}

		fmt.Printf("Generating algorithm %s (Users: %d, Shown: %d/%d, Boost: %.2f) to %s...\n", algorithm, cfg.Users, cfg.MaxShownRecs, cfg.Ranks, cfg.Boost, *outDir)

		path, err := engine.Save(*outDir, algorithm, engine.Generate(cfg))
		if err != nil {
			fmt.Printf("Failed to save mock data: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", path)
	}

	fmt.Println("Done.")
}
