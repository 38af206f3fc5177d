package models

import "time"

// Pipeline stages, in execution order.
const (
	StageInitial            = "initial"
	StageExtraction         = "extraction"
	StageSentiment          = "sentiment"
	StageMentionDetection   = "mention_detection"
	StageContextIntegration = "context_integration"
	StageConfidenceScoring  = "confidence_scoring"
	StageSynthesis          = "synthesis"
	StageDone               = "done"
)

// ExtractedParams is the provider parameter bag derived from one message.
type ExtractedParams struct {
	Query       string   `json:"query,omitempty"`
	CategoryIDs []string `json:"categoryIds,omitempty"`
	PriceMin    int      `json:"priceMin,omitempty"`
	PriceMax    int      `json:"priceMax,omitempty"`
	OpenNow     bool     `json:"openNow,omitempty"`
	Location    string   `json:"location,omitempty"`
	Sort        string   `json:"sort,omitempty"`
}

// IsEmpty reports whether extraction produced no provider parameters.
func (p ExtractedParams) IsEmpty() bool {
	return p.Query == "" && len(p.CategoryIDs) == 0 && p.PriceMin == 0 &&
		p.PriceMax == 0 && !p.OpenNow && p.Location == "" && p.Sort == ""
}

// ExtractionResult is the KeywordExtractor output for one message.
type ExtractionResult struct {
	// Keywords maps each category to its deduplicated, sorted tokens.
	Keywords  map[string][]string `json:"keywords"`
	Relevance float64             `json:"relevance"`
	Params    ExtractedParams     `json:"params"`
}

// TotalKeywords counts tokens across all categories.
func (r ExtractionResult) TotalKeywords() int {
	total := 0
	for _, words := range r.Keywords {
		total += len(words)
	}
	return total
}

// SentimentResult is the SentimentScorer output.
type SentimentResult struct {
	Overall        string  `json:"overall"` // positive|negative|neutral
	Confidence     float64 `json:"confidence"`
	Enthusiasm     string  `json:"enthusiasm"`     // high|medium|low
	GroupAgreement string  `json:"groupAgreement"` // high|low|unknown
}

// RestaurantMention is a heuristic entity detection. Soft signal only.
type RestaurantMention struct {
	Name       string  `json:"name"`
	Context    string  `json:"context"` // visited|recommended|unknown
	Confidence float64 `json:"confidence"`
}

// GroupDynamics captures soft conversational signals used downstream as
// context, never as authoritative preference data.
type GroupDynamics struct {
	InfluenceLevel    string `json:"influenceLevel"`    // high|medium
	ConsensusBuilding string `json:"consensusBuilding"` // high|low|unknown
}

// MessageAnalysis is the accumulating record the pipeline stages transform.
type MessageAnalysis struct {
	AnalysisID string `json:"analysisId"`
	MessageID  string `json:"messageId"`
	GroupID    string `json:"groupId"`
	UserID     string `json:"userId"`
	Stage      string `json:"stage"`

	Extraction ExtractionResult    `json:"extraction"`
	Sentiment  SentimentResult     `json:"sentiment"`
	Mentions   []RestaurantMention `json:"mentions,omitempty"`
	Dynamics   GroupDynamics       `json:"dynamics"`

	OverallRelevance        float64  `json:"overallRelevance"`
	ShouldUpdatePreferences bool     `json:"shouldUpdatePreferences"`
	RecommendationKeywords  []string `json:"recommendationKeywords,omitempty"`

	// Error is set only on fallback results.
	Error      string    `json:"error,omitempty"`
	AnalyzedAt time.Time `json:"analyzedAt"`
}
