package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// Message is one chat message handed to the pipeline.
type Message struct {
	MessageID string
	GroupID   string
	UserID    string
	Content   string
}

// MaxRecommendationKeywords caps the flattened keyword list.
const MaxRecommendationKeywords = 20

var leadershipPhrases = []string{"let's", "how about", "i suggest"}

// Pipeline runs the fixed stage sequence over one message. Stages are pure
// transforms of the accumulating MessageAnalysis record; a failure at any
// stage yields the zero-relevance fallback record instead of an error, so
// analysis can never block message delivery.
type Pipeline struct {
	extractor *KeywordExtractor
	sentiment *SentimentScorer
	mentions  *MentionDetector

	// updateThreshold is the overall-relevance bar for preference updates.
	updateThreshold float64
	log             logger.Logger
}

func NewPipeline(updateThreshold float64, log logger.Logger) *Pipeline {
	return &Pipeline{
		extractor:       NewKeywordExtractor(),
		sentiment:       NewSentimentScorer(),
		mentions:        NewMentionDetector(),
		updateThreshold: updateThreshold,
		log:             log.WithFields(map[string]interface{}{"component": "analysis-pipeline"}),
	}
}

type stage struct {
	name string
	run  func(*models.MessageAnalysis, Message) error
}

// Analyze runs all stages in order and returns the final record.
func (p *Pipeline) Analyze(msg Message) models.MessageAnalysis {
	result := models.MessageAnalysis{
		AnalysisID: uuid.NewString(),
		MessageID:  msg.MessageID,
		GroupID:    msg.GroupID,
		UserID:     msg.UserID,
		Stage:      models.StageInitial,
		AnalyzedAt: time.Now().UTC(),
	}

	stages := []stage{
		{models.StageExtraction, p.runExtraction},
		{models.StageSentiment, p.runSentiment},
		{models.StageMentionDetection, p.runMentionDetection},
		{models.StageContextIntegration, p.runContextIntegration},
		{models.StageConfidenceScoring, p.runConfidenceScoring},
		{models.StageSynthesis, p.runSynthesis},
	}

	for _, s := range stages {
		result.Stage = s.name
		if err := s.run(&result, msg); err != nil {
			p.log.Warn("analysis stage failed, returning fallback result", map[string]interface{}{
				"messageId": msg.MessageID,
				"stage":     s.name,
				"error":     err.Error(),
			})
			return p.Fallback(msg, s.name, err)
		}
	}

	result.Stage = models.StageDone
	return result
}

// Fallback builds the zero-relevance record returned when a stage fails.
func (p *Pipeline) Fallback(msg Message, stageName string, err error) models.MessageAnalysis {
	return models.MessageAnalysis{
		AnalysisID:              uuid.NewString(),
		MessageID:               msg.MessageID,
		GroupID:                 msg.GroupID,
		UserID:                  msg.UserID,
		Stage:                   stageName,
		OverallRelevance:        0.0,
		ShouldUpdatePreferences: false,
		Error:                   fmt.Sprintf("stage %s: %v", stageName, err),
		AnalyzedAt:              time.Now().UTC(),
	}
}

func (p *Pipeline) runExtraction(a *models.MessageAnalysis, msg Message) error {
	a.Extraction = p.extractor.Extract(msg.Content)
	return nil
}

func (p *Pipeline) runSentiment(a *models.MessageAnalysis, msg Message) error {
	a.Sentiment = p.sentiment.Score(msg.Content)
	return nil
}

func (p *Pipeline) runMentionDetection(a *models.MessageAnalysis, msg Message) error {
	a.Mentions = p.mentions.Detect(msg.Content)
	return nil
}

func (p *Pipeline) runContextIntegration(a *models.MessageAnalysis, msg Message) error {
	lower := strings.ToLower(msg.Content)

	influence := "medium"
	for _, phrase := range leadershipPhrases {
		if strings.Contains(lower, phrase) {
			influence = "high"
			break
		}
	}

	a.Dynamics = models.GroupDynamics{
		InfluenceLevel:    influence,
		ConsensusBuilding: a.Sentiment.GroupAgreement,
	}
	return nil
}

// runConfidenceScoring derives overall relevance as the mean of the
// contributing factors.
func (p *Pipeline) runConfidenceScoring(a *models.MessageAnalysis, _ Message) error {
	factors := []float64{a.Extraction.Relevance}

	nonEmpty := len(a.Extraction.Keywords)
	density := float64(nonEmpty) / 6.0
	if density > 1.0 {
		density = 1.0
	}
	factors = append(factors, density)

	if len(a.Extraction.Keywords[CategoryFood]) > 0 || len(a.Extraction.Keywords[CategoryCuisine]) > 0 {
		factors = append(factors, 0.8)
	}
	if len(a.Extraction.Keywords[CategoryTaste]) > 0 || len(a.Extraction.Keywords[CategoryPrice]) > 0 {
		factors = append(factors, 0.7)
	}
	if len(a.Mentions) > 0 {
		factors = append(factors, 0.9)
	}

	sum := 0.0
	for _, f := range factors {
		sum += f
	}
	a.OverallRelevance = sum / float64(len(factors))
	return nil
}

func (p *Pipeline) runSynthesis(a *models.MessageAnalysis, _ Message) error {
	a.ShouldUpdatePreferences = a.OverallRelevance > p.updateThreshold
	a.RecommendationKeywords = FlattenKeywords(a.Extraction.Keywords)
	return nil
}

// FlattenKeywords concatenates category lists in the fixed priority order,
// deduplicates case-insensitively preserving first-seen order, and truncates
// to MaxRecommendationKeywords.
func FlattenKeywords(keywords map[string][]string) []string {
	seen := make(map[string]bool)
	var flat []string
	for _, category := range FlattenPriority {
		for _, word := range keywords[category] {
			key := strings.ToLower(word)
			if seen[key] {
				continue
			}
			seen[key] = true
			flat = append(flat, word)
			if len(flat) >= MaxRecommendationKeywords {
				return flat
			}
		}
	}
	return flat
}
