package analysis

import (
	"strings"

	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

var restaurantIndicators = map[string]bool{
	"restaurant": true,
	"place":      true,
	"spot":       true,
	"cafe":       true,
	"bar":        true,
}

// experienceContexts infers how the speaker relates to a mention. First hit
// anywhere in the text wins.
var experienceContexts = []struct {
	Context string
	Phrases []string
}{
	{"visited", []string{"went to", "tried"}},
	{"recommended", []string{"recommend", "suggest"}},
}

// mentionConfidence reflects that this heuristic produces acceptable false
// positives; mentions are a soft signal, never authoritative.
const mentionConfidence = 0.7

// MentionDetector finds probable restaurant name mentions: the token
// immediately preceding an indicator word is treated as the name.
type MentionDetector struct{}

func NewMentionDetector() *MentionDetector {
	return &MentionDetector{}
}

func (d *MentionDetector) Detect(text string) []models.RestaurantMention {
	lower := strings.ToLower(text)
	words := strings.Fields(text)

	var mentions []models.RestaurantMention
	for i, word := range words {
		if i == 0 || !restaurantIndicators[strings.ToLower(word)] {
			continue
		}

		context := "unknown"
		for _, ec := range experienceContexts {
			if anyContained(lower, ec.Phrases) {
				context = ec.Context
				break
			}
		}

		mentions = append(mentions, models.RestaurantMention{
			Name:       words[i-1],
			Context:    context,
			Confidence: mentionConfidence,
		})
	}
	return mentions
}
