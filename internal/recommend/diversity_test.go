package recommend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func scoredCandidate(id string, score float64, price int, cuisines ...string) models.ScoredRestaurant {
	return models.ScoredRestaurant{
		Candidate: models.Candidate{
			ID:        id,
			Cuisines:  cuisines,
			PriceTier: intPtr(price),
		},
		Score: score,
	}
}

// descendingSet builds n scored candidates with strictly decreasing scores.
func descendingSet(n int, cuisineOf func(i int) string, priceOf func(i int) int) []models.ScoredRestaurant {
	var scored []models.ScoredRestaurant
	for i := 0; i < n; i++ {
		scored = append(scored, scoredCandidate(
			fmt.Sprintf("r%02d", i),
			1.0-float64(i)*0.01,
			priceOf(i),
			cuisineOf(i),
		))
	}
	return scored
}

// ==========================
// Diversity Filter Tests
// ==========================

func TestDiversityFilter_SmallInputPassesThrough(t *testing.T) {
	scored := descendingSet(10, func(i int) string { return "thai" }, func(i int) int { return 2 })

	result := applyDiversityFilter(scored)

	assert.Equal(t, scored, result)
}

func TestDiversityFilter_CapsAtTwenty(t *testing.T) {
	scored := descendingSet(40,
		func(i int) string { return fmt.Sprintf("cuisine-%d", i) },
		func(i int) int { return i%4 + 1 })

	result := applyDiversityFilter(scored)

	assert.LessOrEqual(t, len(result), diversityResultMax)
}

func TestDiversityFilter_NeverExceedsInput(t *testing.T) {
	scored := descendingSet(12, func(i int) string { return "thai" }, func(i int) int { return 2 })

	result := applyDiversityFilter(scored)

	assert.LessOrEqual(t, len(result), len(scored))
}

func TestDiversityFilter_NoDuplicateIDs(t *testing.T) {
	scored := descendingSet(30,
		func(i int) string { return fmt.Sprintf("cuisine-%d", i%3) },
		func(i int) int { return i%2 + 1 })

	result := applyDiversityFilter(scored)

	seen := make(map[string]bool)
	for _, sr := range result {
		assert.False(t, seen[sr.Candidate.ID], "duplicate id %s", sr.Candidate.ID)
		seen[sr.Candidate.ID] = true
	}
}

func TestDiversityFilter_OnePerComboAfterFreeSlots(t *testing.T) {
	// All 30 candidates share one (cuisine, price) combo: the first pass
	// keeps only the free slots, then backfill tops the list back up.
	scored := descendingSet(30, func(i int) string { return "thai" }, func(i int) int { return 2 })

	result := applyDiversityFilter(scored)

	assert.Len(t, result, diversityResultMax)
	// Highest scorer always survives.
	assert.Equal(t, "r00", result[0].Candidate.ID)
}

func TestDiversityFilter_ResortedByScore(t *testing.T) {
	scored := descendingSet(25,
		func(i int) string { return fmt.Sprintf("cuisine-%d", i%5) },
		func(i int) int { return i%3 + 1 })

	result := applyDiversityFilter(scored)

	for i := 1; i < len(result); i++ {
		assert.GreaterOrEqual(t, result[i-1].Score, result[i].Score)
	}
}

func TestPrimaryCuisinePair_OrderInsensitive(t *testing.T) {
	assert.Equal(t,
		primaryCuisinePair([]string{"Thai", "italian", "french"}),
		primaryCuisinePair([]string{"Italian", "thai"}))
	assert.Equal(t, "", primaryCuisinePair(nil))
}
