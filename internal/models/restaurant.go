package models

import "time"

// Candidate is a restaurant returned by the search capability. All quality
// signals are optional; absence is meaningful to the scorer.
type Candidate struct {
	ID             string     `json:"fsqId"`
	Name           string     `json:"name"`
	Latitude       float64    `json:"latitude,omitempty"`
	Longitude      float64    `json:"longitude,omitempty"`
	DistanceMeters *float64   `json:"distanceMeters,omitempty"`
	PriceTier      *int       `json:"priceTier,omitempty"` // 1-4
	Rating         *float64   `json:"rating,omitempty"`    // 0-10
	Popularity     *float64   `json:"popularity,omitempty"`
	Cuisines       []string   `json:"cuisines,omitempty"`
	Features       []string   `json:"features,omitempty"`
	DietaryOptions []string   `json:"dietaryOptions,omitempty"`
	PhotoCount     int        `json:"photoCount,omitempty"`
	ReviewCount    int        `json:"reviewCount,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// HasFeature does a case-insensitive-free exact check; feature tags are
// normalized lowercase upstream.
func (c Candidate) HasFeature(feature string) bool {
	for _, f := range c.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// ScoreBreakdown exposes the six weighted sub-scores plus the additive
// contextual adjustment applied after weighting.
type ScoreBreakdown struct {
	GroupMatch             float64 `json:"groupMatch"`
	IndividualSatisfaction float64 `json:"individualSatisfaction"`
	LocationConvenience    float64 `json:"locationConvenience"`
	ContextualFit          float64 `json:"contextualFit"`
	Quality                float64 `json:"quality"`
	Novelty                float64 `json:"novelty"`
	ContextAdjustment      float64 `json:"contextAdjustment"`
}

// ScoredRestaurant pairs a candidate with its composite score. Ephemeral,
// never persisted.
type ScoredRestaurant struct {
	Candidate Candidate      `json:"candidate"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// RecommendationContext describes one recommendation request.
type RecommendationContext struct {
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	LocationName string  `json:"locationName,omitempty"`
	RadiusMeters int     `json:"radiusMeters,omitempty"`
	TimeOfDay    string  `json:"timeOfDay,omitempty"` // breakfast|lunch|afternoon|dinner|late_night
	DayOfWeek    string  `json:"dayOfWeek,omitempty"`
	Occasion     string  `json:"occasion,omitempty"` // celebration|casual|business
	GroupSize    int     `json:"groupSize,omitempty"`
	Urgency      string  `json:"urgency,omitempty"`    // high|normal|low
	Weather      string  `json:"weather,omitempty"`    // rainy|sunny
	BudgetHint   string  `json:"budgetHint,omitempty"` // budget|luxury
}

// SearchParams is the flat parameter bag handed to the restaurant search
// capability.
type SearchParams struct {
	Query        string   `json:"query,omitempty"`
	Near         string   `json:"near,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	RadiusMeters int      `json:"radiusMeters,omitempty"`
	CategoryIDs  []string `json:"categoryIds,omitempty"`
	MinPrice     int      `json:"minPrice,omitempty"`
	MaxPrice     int      `json:"maxPrice,omitempty"`
	OpenNow      bool     `json:"openNow,omitempty"`
	Sort         string   `json:"sort,omitempty"`
	Limit        int      `json:"limit,omitempty"`
}

// HasLocation reports whether the params carry any usable location.
func (p SearchParams) HasLocation() bool {
	return p.Near != "" || (p.Latitude != nil && p.Longitude != nil)
}
