package recommend

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// Sub-score weights. They sum to 1.0 so the weighted sum stays in [0,1]
// before contextual adjustments.
const (
	weightGroupMatch   = 0.25
	weightIndividual   = 0.20
	weightLocation     = 0.15
	weightContextual   = 0.15
	weightQuality      = 0.15
	weightNovelty      = 0.10
	dislikedPenalty    = 0.5
	priceDecayPerUnit  = 0.3
	harmonyBonusWeight = 0.3
)

// uncommonCuisines get a novelty boost to encourage exploration.
var uncommonCuisines = map[string]bool{
	"ethiopian":  true,
	"peruvian":   true,
	"moroccan":   true,
	"korean":     true,
	"vietnamese": true,
}

const noveltyRecentWindow = 180 * 24 * time.Hour

// Scorer ranks restaurant candidates for a group. It is stateless; all
// inputs arrive per call so scoring stays a pure function.
type Scorer struct{}

func NewScorer() *Scorer {
	return &Scorer{}
}

// ScoreAll scores every candidate, applies the diversity filter and returns
// the result sorted by descending score.
func (s *Scorer) ScoreAll(
	candidates []models.Candidate,
	ctx models.RecommendationContext,
	profile *models.GroupProfile,
	now time.Time,
) []models.ScoredRestaurant {
	scored := make([]models.ScoredRestaurant, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, s.Score(c, ctx, profile, now))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return applyDiversityFilter(scored)
}

// Score computes the weighted sub-scores, applies contextual adjustments and
// clamps the result to [0,1].
func (s *Scorer) Score(
	candidate models.Candidate,
	ctx models.RecommendationContext,
	profile *models.GroupProfile,
	now time.Time,
) models.ScoredRestaurant {
	breakdown := models.ScoreBreakdown{
		GroupMatch:             scoreGroupMatch(candidate, profile),
		IndividualSatisfaction: scoreIndividualSatisfaction(candidate, profile),
		LocationConvenience:    scoreLocationConvenience(candidate, ctx),
		ContextualFit:          scoreContextualFit(candidate, ctx),
		Quality:                scoreQuality(candidate),
		Novelty:                scoreNovelty(candidate, now),
	}

	score := breakdown.GroupMatch*weightGroupMatch +
		breakdown.IndividualSatisfaction*weightIndividual +
		breakdown.LocationConvenience*weightLocation +
		breakdown.ContextualFit*weightContextual +
		breakdown.Quality*weightQuality +
		breakdown.Novelty*weightNovelty

	breakdown.ContextAdjustment = contextualAdjustment(candidate, ctx)
	score += breakdown.ContextAdjustment

	return models.ScoredRestaurant{
		Candidate: candidate,
		Score:     clamp01(score),
		Breakdown: breakdown,
	}
}

// scoreGroupMatch averages the component matches that apply (cuisine, price,
// dietary) then subtracts a flat penalty when a disliked cuisine appears.
// With no group signal at all the match is a neutral 0.5.
func scoreGroupMatch(candidate models.Candidate, profile *models.GroupProfile) float64 {
	preferred, dietary := groupOnboardingUnions(profile)

	score, factors := 0.0, 0

	if len(preferred) > 0 {
		if cuisineOverlaps(candidate.Cuisines, preferred) {
			score += 1.0
		}
		factors++
	}

	if pr := profile.Derived.PriceConsensus; pr != nil && candidate.PriceTier != nil {
		price := *candidate.PriceTier
		if pr.Contains(price) {
			score += 1.0
		} else {
			distance := math.Min(
				math.Abs(float64(price-pr.Min)),
				math.Abs(float64(price-pr.Max)),
			)
			score += math.Max(0, 1.0-distance*priceDecayPerUnit)
		}
		factors++
	}

	if len(dietary) > 0 {
		satisfied := 0
		for restriction := range dietary {
			if hasDietaryOption(candidate, restriction) {
				satisfied++
			}
		}
		score += float64(satisfied) / float64(len(dietary))
		factors++
	}

	if factors == 0 {
		return 0.5
	}
	result := score / float64(factors)

	if cuisineOverlaps(candidate.Cuisines, toSet(profile.Derived.DislikedCuisines)) {
		result -= dislikedPenalty
	}
	return result
}

// scoreIndividualSatisfaction predicts per-member satisfaction and rewards
// consensus: mean plus a harmony bonus shrinking with variance, normalized
// back into [0,1].
func scoreIndividualSatisfaction(candidate models.Candidate, profile *models.GroupProfile) float64 {
	if len(profile.Members) == 0 {
		return 0.5
	}

	scores := make([]float64, 0, len(profile.Members))
	for _, id := range profile.MemberIDs() {
		scores = append(scores, memberSatisfaction(candidate, profile.Members[id]))
	}

	mean := 0.0
	for _, v := range scores {
		mean += v
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, v := range scores {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(scores))

	harmony := math.Max(0, 1.0-variance)
	return (mean + harmony*harmonyBonusWeight) / (1.0 + harmonyBonusWeight)
}

func memberSatisfaction(candidate models.Candidate, member models.MemberPreference) float64 {
	score := 0.0

	cuisine := 0.0
	preferred := toSet(member.Onboarding.PreferredCuisines)
	learned := toSet(member.Learned.Keywords["cuisine"])
	for _, c := range candidate.Cuisines {
		key := strings.ToLower(c)
		if preferred[key] {
			cuisine = math.Max(cuisine, 1.0)
		} else if learned[key] {
			// Learned signal is weaker than a stated preference.
			cuisine = math.Max(cuisine, 0.6)
		}
	}
	score += cuisine * 0.4

	if candidate.PriceTier != nil {
		sensitivity := priceSensitivity(member.Onboarding.BudgetTier)
		comfort := 1.0 - math.Abs(float64(*candidate.PriceTier)/4.0-sensitivity)
		score += math.Max(0, comfort) * 0.3
	}

	dietary := 1.0
	for _, restriction := range member.Onboarding.DietaryRestrictions {
		if !hasDietaryOption(candidate, restriction) {
			dietary = 0.0
			break
		}
	}
	score += dietary * 0.3

	return score
}

// priceSensitivity places a budget tier on the 0-1 scale used for price
// comfort: the midpoint of the tier's bucket over the 4-point range.
func priceSensitivity(tier models.BudgetTier) float64 {
	bucket := tier.PriceBucket()
	return (float64(bucket.Min) + float64(bucket.Max)) / 2.0 / 4.0
}

// scoreLocationConvenience is a step function of distance. Without a usable
// distance or context location the score is a neutral 0.5.
func scoreLocationConvenience(candidate models.Candidate, ctx models.RecommendationContext) float64 {
	distance := 0.0
	switch {
	case candidate.DistanceMeters != nil:
		distance = *candidate.DistanceMeters
	case ctx.Latitude != 0 || ctx.Longitude != 0:
		distance = haversineMeters(ctx.Latitude, ctx.Longitude, candidate.Latitude, candidate.Longitude)
	default:
		return 0.5
	}

	switch {
	case distance <= 500:
		return 1.0
	case distance <= 1000:
		return 0.9
	case distance <= 2000:
		return 0.7
	case distance <= 5000:
		return 0.5
	default:
		return 0.2
	}
}

// scoreQuality is the mean of whichever quality signals are present. No
// signal at all scores 0; absence of evidence counts against a candidate.
func scoreQuality(candidate models.Candidate) float64 {
	score, factors := 0.0, 0

	if candidate.Rating != nil {
		score += *candidate.Rating / 10.0
		factors++
	}
	if candidate.Popularity != nil {
		score += *candidate.Popularity
		factors++
	}
	if candidate.PhotoCount > 0 {
		score += 0.8
		factors++
	}
	if candidate.ReviewCount > 0 {
		score += 0.7
		factors++
	}
	if len(candidate.Features) > 0 {
		score += math.Min(1.0, float64(len(candidate.Features))*0.1)
		factors++
	}

	if factors == 0 {
		return 0.0
	}
	return score / float64(factors)
}

// scoreNovelty starts from a 0.5 baseline, rises to 0.8 for uncommon
// cuisines and gains 0.2 for recently listed places, capped at 1.0.
func scoreNovelty(candidate models.Candidate, now time.Time) float64 {
	score := 0.5
	for _, c := range candidate.Cuisines {
		if uncommonCuisines[strings.ToLower(c)] {
			score = 0.8
			break
		}
	}
	if candidate.CreatedAt != nil && now.Sub(*candidate.CreatedAt) < noveltyRecentWindow {
		score += 0.2
	}
	return math.Min(1.0, score)
}

// groupOnboardingUnions folds member onboarding answers into the group-level
// preferred-cuisine and dietary-restriction sets.
func groupOnboardingUnions(profile *models.GroupProfile) (preferred, dietary map[string]bool) {
	preferred = make(map[string]bool)
	dietary = make(map[string]bool)
	for _, member := range profile.Members {
		for _, c := range member.Onboarding.PreferredCuisines {
			preferred[strings.ToLower(c)] = true
		}
		for _, r := range member.Onboarding.DietaryRestrictions {
			dietary[strings.ToLower(r)] = true
		}
	}
	return preferred, dietary
}

func cuisineOverlaps(cuisines []string, set map[string]bool) bool {
	for _, c := range cuisines {
		if set[strings.ToLower(c)] {
			return true
		}
	}
	return false
}

func hasDietaryOption(candidate models.Candidate, restriction string) bool {
	target := strings.ToLower(restriction)
	for _, option := range candidate.DietaryOptions {
		if strings.ToLower(option) == target {
			return true
		}
	}
	return false
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func clamp01(v float64) float64 {
	return math.Min(1.0, math.Max(0.0, v))
}

// haversineMeters is the great-circle distance between two coordinates.
func haversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusMeters = 6371000

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
