package recommend

import (
	"sort"
	"strings"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

const (
	diversityMinCandidates = 10
	diversityFirstPassMax  = 15
	diversityResultMax     = 20
	diversityFreeSlots     = 5
)

// applyDiversityFilter keeps one candidate per (primary-cuisine-pair,
// price-tier) combination so a single cuisine cannot dominate the results,
// then backfills with the next-best scorers up to the result cap. Inputs of
// ten or fewer pass through untouched.
func applyDiversityFilter(scored []models.ScoredRestaurant) []models.ScoredRestaurant {
	if len(scored) <= diversityMinCandidates {
		return scored
	}

	type comboKey struct {
		cuisines string
		price    int
	}

	usedCombos := make(map[comboKey]bool)
	pickedIDs := make(map[string]bool)
	diverse := make([]models.ScoredRestaurant, 0, diversityResultMax)

	for _, sr := range scored {
		key := comboKey{
			cuisines: primaryCuisinePair(sr.Candidate.Cuisines),
			price:    priceTierOrZero(sr.Candidate),
		}
		// The first few slots ignore diversity so top scorers always survive.
		if usedCombos[key] && len(diverse) >= diversityFreeSlots {
			continue
		}
		diverse = append(diverse, sr)
		usedCombos[key] = true
		pickedIDs[sr.Candidate.ID] = true

		if len(diverse) >= diversityFirstPassMax {
			break
		}
	}

	for _, sr := range scored {
		if len(diverse) >= diversityResultMax {
			break
		}
		if pickedIDs[sr.Candidate.ID] {
			continue
		}
		diverse = append(diverse, sr)
		pickedIDs[sr.Candidate.ID] = true
	}

	sort.SliceStable(diverse, func(i, j int) bool {
		return diverse[i].Score > diverse[j].Score
	})
	return diverse
}

// primaryCuisinePair keys a candidate by its first two cuisines, sorted so
// the pair is order-insensitive.
func primaryCuisinePair(cuisines []string) string {
	pair := cuisines
	if len(pair) > 2 {
		pair = pair[:2]
	}
	lowered := make([]string, len(pair))
	for i, c := range pair {
		lowered[i] = strings.ToLower(c)
	}
	sort.Strings(lowered)
	return strings.Join(lowered, "|")
}

func priceTierOrZero(candidate models.Candidate) int {
	if candidate.PriceTier == nil {
		return 0
	}
	return *candidate.PriceTier
}
