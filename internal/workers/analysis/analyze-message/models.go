// internal/workers/analysis/analyze-message/models.go
package analyzemessage

import "github.com/kanishkaditya/DinemateBackend/internal/models"

type Input struct {
	MessageID  string `json:"messageId"`
	GroupID    string `json:"groupId"`
	UserID     string `json:"userId"`
	Content    string `json:"content"`
	SenderName string `json:"senderName,omitempty"`
}

// Output reports the analysis verdict. Analysis never blocks message
// delivery, so even fallback results complete the job.
type Output struct {
	AnalysisID              string   `json:"analysisId"`
	OverallRelevance        float64  `json:"overallRelevance"`
	ShouldUpdatePreferences bool     `json:"shouldUpdatePreferences"`
	PreferencesUpdated      bool     `json:"preferencesUpdated"`
	RecommendationKeywords  []string `json:"recommendationKeywords,omitempty"`
	Sentiment               string   `json:"sentiment,omitempty"`
	AnalysisError           string   `json:"analysisError,omitempty"`
}

func outputFromAnalysis(record models.MessageAnalysis, updated bool) *Output {
	return &Output{
		AnalysisID:              record.AnalysisID,
		OverallRelevance:        record.OverallRelevance,
		ShouldUpdatePreferences: record.ShouldUpdatePreferences,
		PreferencesUpdated:      updated,
		RecommendationKeywords:  record.RecommendationKeywords,
		Sentiment:               record.Sentiment.Overall,
		AnalysisError:           record.Error,
	}
}
