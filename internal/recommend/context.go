package recommend

import (
	"strings"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// timeAppropriateness maps a time of day to cuisine substrings and their fit
// scores. A candidate takes the best matching value, defaulting to 0.5.
var timeAppropriateness = map[string]map[string]float64{
	"breakfast": {
		"cafe": 0.9, "american": 0.8, "french": 0.7,
	},
	"lunch": {
		"fast_food": 0.9, "american": 0.8, "italian": 0.8, "asian": 0.8,
	},
	"dinner": {
		"fine_dining": 0.9, "italian": 0.9, "french": 0.9, "indian": 0.8,
	},
	"late_night": {
		"fast_food": 0.9, "american": 0.8, "pizza": 0.9,
	},
}

const (
	smallGroupMax = 2
	largeGroupMin = 6
)

// scoreContextualFit averages a neutral base with the time-of-day fit, then
// adds occasion and group-size bonuses. Capped at 1.0 but not floored; the
// large-group penalty may push it below the base.
func scoreContextualFit(candidate models.Candidate, ctx models.RecommendationContext) float64 {
	score := 0.5

	timeScore := 0.5
	if fits, ok := timeAppropriateness[ctx.TimeOfDay]; ok {
		for _, cuisine := range candidate.Cuisines {
			lower := strings.ToLower(cuisine)
			for key, value := range fits {
				if strings.Contains(lower, key) && value > timeScore {
					timeScore = value
				}
			}
		}
	}
	score = (score + timeScore) / 2

	switch {
	case ctx.Occasion == "celebration" && candidate.PriceTier != nil && *candidate.PriceTier >= 3:
		score += 0.2
	case ctx.Occasion == "casual" && candidate.PriceTier != nil && *candidate.PriceTier <= 2:
		score += 0.1
	case ctx.Occasion == "business" && candidate.Rating != nil && *candidate.Rating >= 7:
		score += 0.15
	}

	if ctx.GroupSize > 0 {
		if ctx.GroupSize <= smallGroupMax {
			if candidate.HasFeature("intimate") {
				score += 0.1
			}
		} else if ctx.GroupSize >= largeGroupMin {
			if candidate.HasFeature("large_groups") {
				score += 0.2
			} else {
				// Capacity risk for big parties.
				score -= 0.1
			}
		}
	}

	if score > 1.0 {
		return 1.0
	}
	return score
}

// contextualAdjustment is the additive post-weighting correction for
// urgency, weather and an explicit budget hint.
func contextualAdjustment(candidate models.Candidate, ctx models.RecommendationContext) float64 {
	adjustment := 0.0

	// Less crowded places seat faster.
	if ctx.Urgency == "high" && candidate.Popularity != nil && *candidate.Popularity < 0.7 {
		adjustment += 0.1
	}

	if candidate.HasFeature("outdoor_seating") {
		switch ctx.Weather {
		case "rainy":
			adjustment -= 0.1
		case "sunny":
			adjustment += 0.1
		}
	}

	if candidate.PriceTier != nil {
		if ctx.BudgetHint == "budget" && *candidate.PriceTier > 2 {
			adjustment -= 0.2
		} else if ctx.BudgetHint == "luxury" && *candidate.PriceTier < 3 {
			adjustment -= 0.1
		}
	}

	return adjustment
}
