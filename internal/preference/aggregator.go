package preference

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// TextCompletionCapability is the optional generative-model hook used to
// prioritize aggregated keywords. Failures degrade to frequency ranking.
type TextCompletionCapability interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Aggregator folds member contributions into a GroupProfile's derived fields.
// All mutations serialize per group id; the derived fields are overwritten
// wholesale on every recompute so they stay a pure function of the members.
type Aggregator struct {
	completion TextCompletionCapability // nil disables LLM prioritization
	locks      *keyedMutex
	log        logger.Logger
}

func NewAggregator(completion TextCompletionCapability, log logger.Logger) *Aggregator {
	return &Aggregator{
		completion: completion,
		locks:      newKeyedMutex(),
		log:        log.WithFields(map[string]interface{}{"component": "preference-aggregator"}),
	}
}

// AddOrUpdateMember upserts a member contribution and recomputes.
func (a *Aggregator) AddOrUpdateMember(profile *models.GroupProfile, member models.MemberPreference, now time.Time) {
	a.locks.Lock(profile.GroupID)
	defer a.locks.Unlock(profile.GroupID)

	profile.Members[member.UserID] = member.Clone()
	a.recomputeLocked(profile, now)
}

// RemoveMember deletes a member contribution and recomputes. Whether an
// emptied profile should be deleted is the caller's decision.
func (a *Aggregator) RemoveMember(profile *models.GroupProfile, userID string, now time.Time) error {
	a.locks.Lock(profile.GroupID)
	defer a.locks.Unlock(profile.GroupID)

	if _, ok := profile.Members[userID]; !ok {
		return errors.NewMemberPreferenceNotFoundError(profile.GroupID, userID)
	}
	delete(profile.Members, userID)
	a.recomputeLocked(profile, now)
	return nil
}

// ApplyExtractedKeywords merges one message analysis into a member's learned
// preferences and recomputes. Returns NotFound when the member has no
// contribution yet; the caller's default policy is create-then-retry.
func (a *Aggregator) ApplyExtractedKeywords(
	profile *models.GroupProfile,
	userID string,
	keywords map[string][]string,
	params models.ExtractedParams,
	confidence float64,
	now time.Time,
) error {
	a.locks.Lock(profile.GroupID)
	defer a.locks.Unlock(profile.GroupID)

	member, ok := profile.Members[userID]
	if !ok {
		return errors.NewMemberPreferenceNotFoundError(profile.GroupID, userID)
	}

	if member.Learned.Keywords == nil {
		member.Learned.Keywords = make(map[string][]string)
	}

	learned := 0
	for category, newWords := range keywords {
		if len(newWords) == 0 {
			continue
		}
		combined := member.Learned.Keywords[category]
		for _, word := range newWords {
			if !containsString(combined, word) {
				combined = append(combined, word)
			}
		}
		// Most recent entries win when the cap is exceeded.
		if len(combined) > models.MaxKeywordsPerCategory {
			combined = combined[len(combined)-models.MaxKeywordsPerCategory:]
		}
		member.Learned.Keywords[category] = combined
		learned += len(newWords)
	}

	member.Learned.Confidence = confidence
	member.Learned.TotalInteractions++
	member.Learned.KeywordsLearned += learned
	member.Learned.LastRefreshedAt = now

	applySignals(&member.Signals, params, now)

	member.UpdatedAt = now
	profile.Members[userID] = member

	a.recomputeLocked(profile, now)
	return nil
}

// applySignals overwrites single-valued provider signals with the newest
// non-empty extraction. Multi-valued category ids accumulate instead.
func applySignals(signals *models.SearchSignals, params models.ExtractedParams, now time.Time) {
	if params.IsEmpty() {
		return
	}
	if params.Query != "" {
		signals.QueryTerm = params.Query
	}
	for _, id := range params.CategoryIDs {
		if !containsString(signals.CategoryIDs, id) {
			signals.CategoryIDs = append(signals.CategoryIDs, id)
		}
	}
	if params.PriceMin > 0 {
		signals.PriceMin = params.PriceMin
		signals.PriceMax = params.PriceMax
	}
	if params.Location != "" {
		signals.LocationPhrase = params.Location
	}
	if params.OpenNow {
		signals.OpenNow = true
	}
	if params.Sort != "" {
		signals.SortHint = params.Sort
	}
	signals.UpdatedAt = now
}

// Recompute rebuilds the derived fields from the member contributions.
func (a *Aggregator) Recompute(profile *models.GroupProfile, now time.Time) {
	a.locks.Lock(profile.GroupID)
	defer a.locks.Unlock(profile.GroupID)

	a.recomputeLocked(profile, now)
}

// recomputeLocked iterates members in sorted id order so that frequency
// tie-breaks and the price-consensus mode are deterministic regardless of
// insertion order.
func (a *Aggregator) recomputeLocked(profile *models.GroupProfile, now time.Time) {
	derived := models.DerivedPreferences{
		KeywordFrequency: make(map[string]int),
		MemberCount:      len(profile.Members),
	}

	var (
		minCounts    = make(map[int]int)
		maxCounts    = make(map[int]int)
		confidenceSum float64
	)

	for _, id := range profile.MemberIDs() {
		member := profile.Members[id]

		for _, term := range onboardingQueryTerms(member.Onboarding) {
			if !containsString(derived.QueryTerms, term) {
				derived.QueryTerms = append(derived.QueryTerms, term)
			}
		}
		for _, cuisine := range member.Onboarding.DislikedCuisines {
			if !containsString(derived.DislikedCuisines, cuisine) {
				derived.DislikedCuisines = append(derived.DislikedCuisines, cuisine)
			}
		}
		for _, catID := range member.Signals.CategoryIDs {
			if !containsString(derived.CategoryIDs, catID) {
				derived.CategoryIDs = append(derived.CategoryIDs, catID)
			}
		}

		for _, words := range member.Learned.Keywords {
			for _, word := range words {
				key := strings.ToLower(strings.TrimSpace(word))
				if len(key) > 2 {
					derived.KeywordFrequency[key]++
				}
			}
		}

		bucket := member.Onboarding.BudgetTier.PriceBucket()
		minCounts[bucket.Min]++
		maxCounts[bucket.Max]++

		confidenceSum += member.Learned.Confidence
	}

	if derived.MemberCount > 0 {
		derived.PriceConsensus = &models.PriceRange{
			Min: modeOf(minCounts),
			Max: modeOf(maxCounts),
		}
		derived.AggregateConfidence = confidenceSum / float64(derived.MemberCount)
	}

	derived.CategoryTopKeywords = topKeywordsPerCategory(profile)
	derived.PrioritizedKeywords = frequencyPrioritize(derived.KeywordFrequency, derived.CategoryTopKeywords)
	derived.ParameterCount = countParameters(derived)

	profile.Derived = derived
	profile.UpdatedAt = now
}

// onboardingQueryTerms lists the searchable terms a member's onboarding
// answers contribute: cuisines, dietary tags, dining styles and a
// non-default spice tolerance.
func onboardingQueryTerms(o models.OnboardingProfile) []string {
	terms := make([]string, 0, len(o.PreferredCuisines)+len(o.DietaryRestrictions)+len(o.DiningStyles)+1)
	terms = append(terms, o.PreferredCuisines...)
	terms = append(terms, o.DietaryRestrictions...)
	if o.SpiceTolerance != "" && o.SpiceTolerance != models.SpiceMedium {
		terms = append(terms, string(o.SpiceTolerance))
	}
	terms = append(terms, o.DiningStyles...)
	return terms
}

// modeOf returns the most frequent value; ties break toward the smaller
// value so the result does not depend on map iteration order.
func modeOf(counts map[int]int) int {
	best, bestCount := 0, 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value < best) {
			best, bestCount = value, count
		}
	}
	return best
}

// topKeywordsPerCategory keeps the ten most frequent keywords per learned
// category across all members, ties broken alphabetically.
func topKeywordsPerCategory(profile *models.GroupProfile) map[string][]string {
	const perCategory = 10

	counts := make(map[string]map[string]int)
	for _, id := range profile.MemberIDs() {
		for category, words := range profile.Members[id].Learned.Keywords {
			if counts[category] == nil {
				counts[category] = make(map[string]int)
			}
			for _, word := range words {
				key := strings.ToLower(strings.TrimSpace(word))
				if len(key) > 2 {
					counts[category][key]++
				}
			}
		}
	}

	top := make(map[string][]string, len(counts))
	for category, words := range counts {
		ranked := rankByCount(words)
		if len(ranked) > perCategory {
			ranked = ranked[:perCategory]
		}
		top[category] = ranked
	}
	return top
}

// rankByCount sorts keywords by descending frequency, then alphabetically.
func rankByCount(counts map[string]int) []string {
	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	return words
}

// countParameters reports how many search-relevant derived fields are
// populated, a cheap signal of how much the group has expressed.
func countParameters(d models.DerivedPreferences) int {
	count := 0
	if len(d.QueryTerms) > 0 {
		count++
	}
	if len(d.CategoryIDs) > 0 {
		count++
	}
	if d.PriceConsensus != nil {
		count++
	}
	if len(d.KeywordFrequency) > 0 {
		count++
	}
	if len(d.DislikedCuisines) > 0 {
		count++
	}
	return count
}

func containsString(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
