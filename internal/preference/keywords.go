package preference

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kanishkaditya/DinemateBackend/internal/common/metrics"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

const (
	maxPrioritizedKeywords = 15
	maxFallbackKeywords    = 12
	maxFrequentKeywords    = 10
	maxPriorityPerCategory = 3
)

// priorityCategories are mined first by the frequency fallback; they carry
// the strongest restaurant-search signal.
var priorityCategories = []string{"cuisine", "dietary", "taste", "food"}

// PrioritizeKeywords asks the completion capability to rank the group's
// aggregated keywords for restaurant search and stores the result on the
// profile. Any capability failure degrades to the deterministic frequency
// ranking already present from recompute; this method never returns an error.
func (a *Aggregator) PrioritizeKeywords(ctx context.Context, profile *models.GroupProfile) {
	a.locks.Lock(profile.GroupID)
	defer a.locks.Unlock(profile.GroupID)

	if a.completion == nil || len(profile.Derived.KeywordFrequency) == 0 {
		return
	}

	prompt := buildPrioritizationPrompt(profile.Derived)

	raw, err := a.completion.Complete(ctx, prompt)
	if err != nil {
		metrics.CapabilityErrors.WithLabelValues("completion").Inc()
		a.log.Warn("keyword prioritization unavailable, keeping frequency ranking", map[string]interface{}{
			"groupId": profile.GroupID,
			"error":   err.Error(),
		})
		return
	}

	prioritized := parsePrioritizedKeywords(raw)
	if len(prioritized) == 0 {
		a.log.Warn("keyword prioritization returned nothing usable, keeping frequency ranking", map[string]interface{}{
			"groupId": profile.GroupID,
		})
		return
	}
	profile.Derived.PrioritizedKeywords = prioritized
}

// buildPrioritizationPrompt lists the aggregated keywords with their counts
// and asks for a comma-separated ranking.
func buildPrioritizationPrompt(derived models.DerivedPreferences) string {
	ranked := rankByCount(derived.KeywordFrequency)

	var sb strings.Builder
	sb.WriteString("A group of ")
	fmt.Fprintf(&sb, "%d", derived.MemberCount)
	sb.WriteString(" people is choosing a restaurant. These keywords were collected from their chat, with mention counts:\n")
	for _, word := range ranked {
		fmt.Fprintf(&sb, "- %s (%d)\n", word, derived.KeywordFrequency[word])
	}
	fmt.Fprintf(&sb, "\nReturn the %d keywords most useful for a restaurant search, most important first, as a single comma-separated line with no other text.", maxPrioritizedKeywords)
	return sb.String()
}

// parsePrioritizedKeywords splits a comma-separated completion, keeping
// plausible keyword tokens only.
func parsePrioritizedKeywords(raw string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, part := range strings.Split(raw, ",") {
		word := strings.ToLower(strings.TrimSpace(part))
		word = strings.Trim(word, `"'.`)
		if len(word) <= 2 || len(word) >= 25 || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) >= maxPrioritizedKeywords {
			break
		}
	}
	return keywords
}

// frequencyPrioritize is the deterministic ranking used when no completion
// capability is available: the most frequent keywords overall, plus the top
// few from each high-signal category.
func frequencyPrioritize(frequency map[string]int, topPerCategory map[string][]string) []string {
	frequent := rankByCount(frequency)
	if len(frequent) > maxFrequentKeywords {
		frequent = frequent[:maxFrequentKeywords]
	}

	seen := make(map[string]bool)
	var keywords []string
	add := func(word string) {
		key := strings.ToLower(word)
		if seen[key] || len(keywords) >= maxFallbackKeywords {
			return
		}
		seen[key] = true
		keywords = append(keywords, key)
	}

	for _, word := range frequent {
		add(word)
	}
	for _, category := range priorityCategories {
		top := topPerCategory[category]
		if len(top) > maxPriorityPerCategory {
			top = top[:maxPriorityPerCategory]
		}
		for _, word := range top {
			add(word)
		}
	}

	sortStable(keywords, frequency)
	return keywords
}

// sortStable orders the final list by descending frequency then
// alphabetically, so the fallback output is reproducible.
func sortStable(keywords []string, frequency map[string]int) {
	sort.SliceStable(keywords, func(i, j int) bool {
		if frequency[keywords[i]] != frequency[keywords[j]] {
			return frequency[keywords[i]] > frequency[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
}
