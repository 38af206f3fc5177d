package analysis

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// KeywordExtractor turns free-form chat text into categorized keyword sets
// and a provider parameter bag. It is stateless and deterministic: the same
// text always produces the same result.
type KeywordExtractor struct{}

func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

// Extract analyzes one message. Empty text yields an empty result, not an
// error.
func (e *KeywordExtractor) Extract(text string) models.ExtractionResult {
	result := models.ExtractionResult{
		Keywords: make(map[string][]string),
	}
	if strings.TrimSpace(text) == "" {
		return result
	}

	lower := strings.ToLower(text)

	for _, category := range KeywordCategories {
		if words := matchCategory(lower, category); len(words) > 0 {
			result.Keywords[category] = words
		}
	}

	wordCount := len(strings.Fields(text))
	if wordCount < 1 {
		wordCount = 1
	}
	relevance := float64(result.TotalKeywords()) / float64(wordCount) * 5
	if relevance > 1.0 {
		relevance = 1.0
	}
	result.Relevance = relevance

	result.Params = e.extractParams(text, lower)
	return result
}

// matchCategory returns the category's matched tokens, deduplicated,
// lowercase, length > 2, sorted for determinism.
func matchCategory(lower, category string) []string {
	matches := categoryPatterns[category].FindAllString(lower, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	words := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) <= 2 || seen[m] {
			continue
		}
		seen[m] = true
		words = append(words, m)
	}
	sort.Strings(words)
	return words
}

// extractParams derives the provider parameter bag independently of the
// keyword categories.
func (e *KeywordExtractor) extractParams(text, lower string) models.ExtractedParams {
	params := models.ExtractedParams{}

	queryMatches := queryTermPattern.FindAllString(lower, -1)
	params.Query = bestQueryTerm(queryMatches)
	params.CategoryIDs = mapCategoryIDs(queryMatches)

	params.PriceMin, params.PriceMax = extractPriceBounds(lower, text)
	params.OpenNow = matchesOpenNow(lower)
	params.Location = extractLocation(text)
	params.Sort = extractSortHint(lower)

	return params
}

// bestQueryTerm picks the first non-generic match, falling back to the first
// match of any kind.
func bestQueryTerm(matches []string) string {
	if len(matches) == 0 {
		return ""
	}
	for _, m := range matches {
		if !genericQueryTerms[m] {
			return m
		}
	}
	return matches[0]
}

// mapCategoryIDs translates matched terms through the provider category
// table, deduplicated and sorted.
func mapCategoryIDs(matches []string) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, term := range matches {
		id, ok := cuisineCategoryIDs[term]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// extractPriceBounds resolves explicit amounts ($40, "budget of 100") first,
// price vocabulary second, and bare plausible numbers last. A stated amount
// always beats vague words like "budget".
func extractPriceBounds(lower, text string) (int, int) {
	if m := dollarAmountPattern.FindStringSubmatch(text); m != nil {
		amount, _ := strconv.Atoi(m[1])
		return dollarBucket(amount)
	}
	if m := budgetAmountPattern.FindStringSubmatch(lower); m != nil {
		amount, _ := strconv.Atoi(m[1])
		return dollarBucket(amount)
	}

	for _, p := range pricePhrases {
		if strings.Contains(lower, p.Phrase) {
			return p.Min, p.Max
		}
	}

	for _, m := range bareNumberPattern.FindAllStringSubmatch(text, -1) {
		n, _ := strconv.Atoi(m[1])
		// Bare numbers only count when they look like a plausible spend.
		if n >= 50 && n <= 5000 {
			return dollarBucket(n)
		}
	}
	return 0, 0
}

func matchesOpenNow(lower string) bool {
	for _, p := range openNowPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// extractLocation returns the first capture after a location preposition,
// skipping captures too short to be a real place.
func extractLocation(text string) string {
	for _, p := range locationPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			location := trimTrailingFiller(strings.TrimSpace(m[1]))
			if len(location) > 3 {
				return location
			}
		}
	}
	return ""
}

// trimTrailingFiller drops time and filler words the greedy capture picks up
// after the place phrase ("downtown tonight" becomes "downtown").
func trimTrailingFiller(phrase string) string {
	words := strings.Fields(phrase)
	for len(words) > 0 && locationTrailingFiller[strings.ToLower(words[len(words)-1])] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func extractSortHint(lower string) string {
	for _, p := range sortPhrases {
		if strings.Contains(lower, p.Phrase) {
			return p.Sort
		}
	}
	return ""
}
