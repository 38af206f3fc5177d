package analysis

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestPipeline(t *testing.T) *Pipeline {
	return NewPipeline(0.5, logger.NewTestLogger(t))
}

func createMessage(content string) Message {
	return Message{
		MessageID: "msg-1",
		GroupID:   "group-1",
		UserID:    "user-1",
		Content:   content,
	}
}

// ==========================
// Full Pipeline Tests
// ==========================

func TestAnalyze_RelevantMessage(t *testing.T) {
	p := createTestPipeline(t)

	result := p.Analyze(createMessage("lets get cheap spicy thai food near downtown tonight, everyone agreed"))

	assert.Equal(t, models.StageDone, result.Stage)
	assert.NotEmpty(t, result.AnalysisID)
	assert.Equal(t, "msg-1", result.MessageID)
	assert.Equal(t, "group-1", result.GroupID)
	assert.Equal(t, "user-1", result.UserID)
	assert.Empty(t, result.Error)

	assert.Greater(t, result.OverallRelevance, 0.5)
	assert.True(t, result.ShouldUpdatePreferences)
	assert.Contains(t, result.RecommendationKeywords, "thai")
	assert.Contains(t, result.RecommendationKeywords, "spicy")
	assert.Equal(t, "high", result.Sentiment.GroupAgreement)
}

func TestAnalyze_IrrelevantMessage(t *testing.T) {
	p := createTestPipeline(t)

	result := p.Analyze(createMessage("can you send over the meeting notes"))

	assert.Equal(t, models.StageDone, result.Stage)
	assert.False(t, result.ShouldUpdatePreferences)
	assert.Empty(t, result.RecommendationKeywords)
}

func TestAnalyze_EmptyMessage(t *testing.T) {
	p := createTestPipeline(t)

	result := p.Analyze(createMessage(""))

	assert.Equal(t, models.StageDone, result.Stage)
	assert.Zero(t, result.OverallRelevance)
	assert.False(t, result.ShouldUpdatePreferences)
}

func TestAnalyze_UniqueAnalysisIDs(t *testing.T) {
	p := createTestPipeline(t)
	msg := createMessage("thai food tonight")

	first := p.Analyze(msg)
	second := p.Analyze(msg)

	assert.NotEqual(t, first.AnalysisID, second.AnalysisID)
}

// ==========================
// Group Dynamics Tests
// ==========================

func TestAnalyze_GroupDynamics(t *testing.T) {
	tests := []struct {
		name              string
		content           string
		expectedInfluence string
		expectedConsensus string
	}{
		{
			name:              "leadership phrase raises influence",
			content:           "how about sushi, everyone agreed last time",
			expectedInfluence: "high",
			expectedConsensus: "high",
		},
		{
			name:              "suggestion phrase raises influence",
			content:           "i suggest we try the new thai spot",
			expectedInfluence: "high",
			expectedConsensus: "unknown",
		},
		{
			name:              "plain statement stays medium",
			content:           "thai food sounds good to me",
			expectedInfluence: "medium",
			expectedConsensus: "unknown",
		},
		{
			name:              "dissent lowers consensus",
			content:           "pizza works but i had it yesterday",
			expectedInfluence: "medium",
			expectedConsensus: "low",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := createTestPipeline(t)

			result := p.Analyze(createMessage(tt.content))

			assert.Equal(t, tt.expectedInfluence, result.Dynamics.InfluenceLevel)
			assert.Equal(t, tt.expectedConsensus, result.Dynamics.ConsensusBuilding)
		})
	}
}

// ==========================
// Relevance Synthesis Tests
// ==========================

func TestAnalyze_MentionBoostsRelevance(t *testing.T) {
	p := createTestPipeline(t)

	without := p.Analyze(createMessage("craving sushi"))
	with := p.Analyze(createMessage("craving sushi, we tried Kura restaurant last week"))

	assert.Greater(t, with.OverallRelevance, 0.0)
	assert.NotEmpty(t, with.Mentions)
	assert.Empty(t, without.Mentions)
}

func TestAnalyze_ThresholdIsExclusive(t *testing.T) {
	// A pipeline with threshold 1.0 can never trigger updates because
	// relevance is capped at 1.0 and the comparison is strict.
	p := NewPipeline(1.0, logger.NewNoOpLogger())

	result := p.Analyze(createMessage("cheap spicy thai food near downtown tonight"))

	assert.False(t, result.ShouldUpdatePreferences)
}

// ==========================
// Fallback Tests
// ==========================

func TestFallback_ZeroRelevanceRecord(t *testing.T) {
	p := createTestPipeline(t)
	msg := createMessage("whatever")

	result := p.Fallback(msg, models.StageSentiment, errors.New("boom"))

	assert.Equal(t, models.StageSentiment, result.Stage)
	assert.Zero(t, result.OverallRelevance)
	assert.False(t, result.ShouldUpdatePreferences)
	assert.Contains(t, result.Error, "sentiment")
	assert.Contains(t, result.Error, "boom")
	assert.Equal(t, msg.MessageID, result.MessageID)
	assert.Equal(t, msg.GroupID, result.GroupID)
	assert.Equal(t, msg.UserID, result.UserID)
}

// ==========================
// Keyword Flattening Tests
// ==========================

func TestFlattenKeywords_PriorityOrder(t *testing.T) {
	keywords := map[string][]string{
		CategoryFood:    {"pizza"},
		CategoryCuisine: {"italian"},
		CategoryPrice:   {"cheap"},
		CategoryTaste:   {"spicy"},
	}

	flat := FlattenKeywords(keywords)

	assert.Equal(t, []string{"italian", "pizza", "spicy", "cheap"}, flat)
}

func TestFlattenKeywords_DeduplicatesCaseInsensitive(t *testing.T) {
	keywords := map[string][]string{
		CategoryCuisine: {"Thai"},
		CategoryFood:    {"thai", "noodles"},
	}

	flat := FlattenKeywords(keywords)

	assert.Equal(t, []string{"Thai", "noodles"}, flat)
}

func TestFlattenKeywords_Truncates(t *testing.T) {
	keywords := map[string][]string{}
	for i, category := range FlattenPriority {
		for j := 0; j < 5; j++ {
			keywords[category] = append(keywords[category], fmt.Sprintf("kw-%d-%d", i, j))
		}
	}

	flat := FlattenKeywords(keywords)

	assert.Len(t, flat, MaxRecommendationKeywords)
}

func TestFlattenKeywords_Empty(t *testing.T) {
	assert.Empty(t, FlattenKeywords(nil))
	assert.Empty(t, FlattenKeywords(map[string][]string{}))
}
