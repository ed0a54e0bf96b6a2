package engine

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"recimpact/internal/visits"
)

type GeneratorConfig struct {
	Algorithm    string // "A" or "B"
	Users        int
	MaxShownRecs int
	Ranks        int     // slots the ranker scores, shown or not
	Boost        float64 // relative click lift from being rendered
	Seed         int64
}

type activityProfile struct {
	Level  string
	Visits int     // visits per user
	RecUse float64 // share of visits that consider the recommendation list
}

var profiles = []activityProfile{
	{Level: "low", Visits: 3, RecUse: 0.25},
	{Level: "medium", Visits: 8, RecUse: 0.4},
	{Level: "high", Visits: 20, RecUse: 0.6},
}

var categories = []string{"Games", "Books", "Music", "Productivity", "Social", "Travel"}

// algorithmTraits returns the relevance decay per rank and the category affinity of the
// ranker. B ranks more relevant items higher, so its clicks concentrate at the top.
func algorithmTraits(algorithm string) (decay float64, affinity map[string]float64) {
	if algorithm == "B" {
		return 0.6, map[string]float64{"Games": 1.3, "Social": 1.2}
	}
	return 0.8, map[string]float64{"Books": 1.2, "Productivity": 1.1}
}

// Generate synthesizes a visit log. Visits that consider the recommendation list land on a
// rank drawn from a smoothly decaying relevance curve; ranks up to MaxShownRecs are lifted
// by Boost and recorded as recommendation visits, the rest as organic visits to the item
// that would have been in that slot. Remaining visits are organic with rank -1.
func Generate(cfg GeneratorConfig) []visits.Record {
	if cfg.MaxShownRecs < 1 {
		cfg.MaxShownRecs = 3
	}
	if cfg.Ranks <= cfg.MaxShownRecs {
		cfg.Ranks = cfg.MaxShownRecs + 3
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	decay, affinity := algorithmTraits(cfg.Algorithm)

	weights := make([]float64, cfg.Ranks)
	for i := range weights {
		weights[i] = math.Pow(decay, float64(i))
		if i < cfg.MaxShownRecs {
			weights[i] *= 1 + cfg.Boost
		}
	}

	var records []visits.Record
	for u := 0; u < cfg.Users; u++ {
		p := profiles[rng.Intn(len(profiles))]
		for v := 0; v < p.Visits; v++ {
			category := categories[rng.Intn(len(categories))]
			rec := visits.Record{
				UserID:        u + 1,
				ActivityLevel: p.Level,
				Category:      category,
				ProductID:     fmt.Sprintf("%s-%03d", category[:3], rng.Intn(200)),
				RecRank:       visits.NoRank,
			}

			recUse := p.RecUse
			if a, ok := affinity[category]; ok {
				recUse = math.Min(1, recUse*a)
			}
			if rng.Float64() < recUse {
				rec.RecRank = sampleRank(rng, weights)
				rec.IsRecVisit = rec.RecRank <= cfg.MaxShownRecs
			}
			records = append(records, rec)
		}
	}
	return records
}

func sampleRank(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	x := rng.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return i + 1
		}
	}
	return len(weights)
}

// Save writes records as user_app_visits_<algorithm>.csv, with a leading unnamed index
// column like a dataframe export.
func Save(outDir, algorithm string, records []visits.Record) (path string, err error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}

	path = filepath.Join(outDir, fmt.Sprintf("user_app_visits_%s.csv", algorithm))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	header := []string{"", visits.ColUserID, visits.ColActivityLevel, visits.ColProductID, visits.ColCategory, visits.ColIsRecVisit, visits.ColRecRank}
	if err := w.Write(header); err != nil {
		return "", err
	}
	for i, r := range records {
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(r.UserID),
			r.ActivityLevel,
			r.ProductID,
			r.Category,
			strconv.FormatBool(r.IsRecVisit),
			strconv.Itoa(r.RecRank),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}
