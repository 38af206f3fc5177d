package analysis

import (
	"strings"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

var (
	positiveWords = []string{"love", "amazing", "delicious", "great", "awesome", "perfect", "craving", "excited"}
	negativeWords = []string{"hate", "terrible", "awful", "bad", "horrible", "disappointed"}

	enthusiasmMarkers = []string{"!!", "omg", "definitely", "must try"}
	agreementPhrases  = []string{"everyone", "we all", "agreed"}
	dissentPhrases    = []string{"but", "however", "disagree"}
)

// SentimentScorer estimates sentiment, enthusiasm and group agreement from
// fixed vocabularies. Pure and deterministic.
type SentimentScorer struct{}

func NewSentimentScorer() *SentimentScorer {
	return &SentimentScorer{}
}

func (s *SentimentScorer) Score(text string) models.SentimentResult {
	lower := strings.ToLower(text)

	positive := countContained(lower, positiveWords)
	negative := countContained(lower, negativeWords)
	enthusiasm := countContained(lower, enthusiasmMarkers)

	overall := "neutral"
	if positive > negative {
		overall = "positive"
	} else if negative > positive {
		overall = "negative"
	}

	diff := positive - negative
	if diff < 0 {
		diff = -diff
	}
	confidence := 0.5 + float64(diff)*0.1
	if confidence > 0.9 {
		confidence = 0.9
	}

	level := "low"
	if enthusiasm > 1 {
		level = "high"
	} else if enthusiasm > 0 {
		level = "medium"
	}

	agreement := "unknown"
	if anyContained(lower, agreementPhrases) {
		agreement = "high"
	} else if anyContained(lower, dissentPhrases) {
		agreement = "low"
	}

	return models.SentimentResult{
		Overall:        overall,
		Confidence:     confidence,
		Enthusiasm:     level,
		GroupAgreement: agreement,
	}
}

func countContained(lower string, phrases []string) int {
	count := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			count++
		}
	}
	return count
}

func anyContained(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
