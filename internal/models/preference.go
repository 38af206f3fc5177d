package models

import (
	"sort"
	"time"
)

// SchemaVersion tags persisted preference records so stored documents can be
// migrated when their shape changes.
const SchemaVersion = 1

// BudgetTier is a member's onboarding price comfort band.
type BudgetTier string

const (
	BudgetTierBudget   BudgetTier = "budget"
	BudgetTierModerate BudgetTier = "moderate"
	BudgetTierUpscale  BudgetTier = "upscale"
)

// PriceBucket maps a budget tier onto the 1-4 price scale used by the
// restaurant search provider.
func (t BudgetTier) PriceBucket() PriceRange {
	switch t {
	case BudgetTierBudget:
		return PriceRange{Min: 1, Max: 2}
	case BudgetTierUpscale:
		return PriceRange{Min: 3, Max: 4}
	default:
		return PriceRange{Min: 2, Max: 3}
	}
}

// SpiceTolerance is a member's onboarding spice preference.
type SpiceTolerance string

const (
	SpiceMild   SpiceTolerance = "mild"
	SpiceMedium SpiceTolerance = "medium"
	SpiceSpicy  SpiceTolerance = "spicy"
)

// PriceRange is an inclusive price band on the 1-4 provider scale.
type PriceRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether a price tier falls inside the range.
func (r PriceRange) Contains(price int) bool {
	return price >= r.Min && price <= r.Max
}

// OnboardingProfile holds the answers a user gave when joining.
type OnboardingProfile struct {
	DietaryRestrictions []string       `json:"dietaryRestrictions,omitempty"`
	PreferredCuisines   []string       `json:"preferredCuisines,omitempty"`
	DislikedCuisines    []string       `json:"dislikedCuisines,omitempty"`
	BudgetTier          BudgetTier     `json:"budgetTier,omitempty"`
	DiningStyles        []string       `json:"diningStyles,omitempty"`
	SpiceTolerance      SpiceTolerance `json:"spiceTolerance,omitempty"`
}

// MaxKeywordsPerCategory caps each learned keyword list; the most recent
// entries win when the cap is exceeded.
const MaxKeywordsPerCategory = 20

// LearnedPreferences accumulates signals extracted from chat messages.
type LearnedPreferences struct {
	// Keywords maps an extraction category to its most recent keywords,
	// capped at MaxKeywordsPerCategory per category.
	Keywords          map[string][]string `json:"keywords,omitempty"`
	Confidence        float64             `json:"confidence"`
	TotalInteractions int                 `json:"totalInteractions"`
	KeywordsLearned   int                 `json:"keywordsLearned"`
	LastRefreshedAt   time.Time           `json:"lastRefreshedAt"`
}

// SearchSignals carries the most recent provider parameters extracted from a
// member's messages. UpdatedAt orders members for most-recent-wins projection.
type SearchSignals struct {
	QueryTerm      string    `json:"queryTerm,omitempty"`
	CategoryIDs    []string  `json:"categoryIds,omitempty"`
	PriceMin       int       `json:"priceMin,omitempty"`
	PriceMax       int       `json:"priceMax,omitempty"`
	LocationPhrase string    `json:"locationPhrase,omitempty"`
	OpenNow        bool      `json:"openNow,omitempty"`
	SortHint       string    `json:"sortHint,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// MemberPreference is one user's contribution to a group, combining their
// onboarding answers with everything learned from their messages.
type MemberPreference struct {
	SchemaVersion int                `json:"schemaVersion"`
	GroupID       string             `json:"groupId"`
	UserID        string             `json:"userId"`
	Onboarding    OnboardingProfile  `json:"onboarding"`
	Learned       LearnedPreferences `json:"learned"`
	Signals       SearchSignals      `json:"signals"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// NewMemberPreference seeds a member contribution from an onboarding profile.
func NewMemberPreference(groupID, userID string, profile OnboardingProfile, now time.Time) MemberPreference {
	return MemberPreference{
		SchemaVersion: SchemaVersion,
		GroupID:       groupID,
		UserID:        userID,
		Onboarding:    profile,
		Learned: LearnedPreferences{
			Keywords:   make(map[string][]string),
			Confidence: 0.5,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (m MemberPreference) Clone() MemberPreference {
	out := m
	out.Onboarding.DietaryRestrictions = append([]string(nil), m.Onboarding.DietaryRestrictions...)
	out.Onboarding.PreferredCuisines = append([]string(nil), m.Onboarding.PreferredCuisines...)
	out.Onboarding.DislikedCuisines = append([]string(nil), m.Onboarding.DislikedCuisines...)
	out.Onboarding.DiningStyles = append([]string(nil), m.Onboarding.DiningStyles...)
	out.Signals.CategoryIDs = append([]string(nil), m.Signals.CategoryIDs...)
	out.Learned.Keywords = make(map[string][]string, len(m.Learned.Keywords))
	for category, words := range m.Learned.Keywords {
		out.Learned.Keywords[category] = append([]string(nil), words...)
	}
	return out
}

// DerivedPreferences are the aggregated fields of a GroupProfile. They are
// always a pure function of the member contributions and are overwritten
// wholesale on every recompute.
type DerivedPreferences struct {
	QueryTerms          []string            `json:"queryTerms,omitempty"`
	CategoryIDs         []string            `json:"categoryIds,omitempty"`
	DislikedCuisines    []string            `json:"dislikedCuisines,omitempty"`
	PriceConsensus      *PriceRange         `json:"priceConsensus,omitempty"`
	KeywordFrequency    map[string]int      `json:"keywordFrequency,omitempty"`
	CategoryTopKeywords map[string][]string `json:"categoryTopKeywords,omitempty"`
	PrioritizedKeywords []string            `json:"prioritizedKeywords,omitempty"`
	AggregateConfidence float64             `json:"aggregateConfidence"`
	ParameterCount      int                 `json:"parameterCount"`
	MemberCount         int                 `json:"memberCount"`
}

// GroupProfile is the single aggregated preference document for a group.
type GroupProfile struct {
	SchemaVersion int                         `json:"schemaVersion"`
	GroupID       string                      `json:"groupId"`
	Members       map[string]MemberPreference `json:"members"`
	Derived       DerivedPreferences          `json:"derived"`
	CreatedAt     time.Time                   `json:"createdAt"`
	UpdatedAt     time.Time                   `json:"updatedAt"`
}

// NewGroupProfile creates an empty profile for a group.
func NewGroupProfile(groupID string, now time.Time) *GroupProfile {
	return &GroupProfile{
		SchemaVersion: SchemaVersion,
		GroupID:       groupID,
		Members:       make(map[string]MemberPreference),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MemberIDs returns the contributing member ids in sorted order. Aggregation
// folds iterate in this order so mode tie-breaks are deterministic.
func (g *GroupProfile) MemberIDs() []string {
	ids := make([]string, 0, len(g.Members))
	for id := range g.Members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone deep-copies the profile, including member contributions.
func (g *GroupProfile) Clone() *GroupProfile {
	out := *g
	out.Members = make(map[string]MemberPreference, len(g.Members))
	for id, member := range g.Members {
		out.Members[id] = member.Clone()
	}
	out.Derived.QueryTerms = append([]string(nil), g.Derived.QueryTerms...)
	out.Derived.CategoryIDs = append([]string(nil), g.Derived.CategoryIDs...)
	out.Derived.DislikedCuisines = append([]string(nil), g.Derived.DislikedCuisines...)
	out.Derived.PrioritizedKeywords = append([]string(nil), g.Derived.PrioritizedKeywords...)
	if g.Derived.PriceConsensus != nil {
		pr := *g.Derived.PriceConsensus
		out.Derived.PriceConsensus = &pr
	}
	out.Derived.KeywordFrequency = make(map[string]int, len(g.Derived.KeywordFrequency))
	for k, v := range g.Derived.KeywordFrequency {
		out.Derived.KeywordFrequency[k] = v
	}
	out.Derived.CategoryTopKeywords = make(map[string][]string, len(g.Derived.CategoryTopKeywords))
	for k, v := range g.Derived.CategoryTopKeywords {
		out.Derived.CategoryTopKeywords[k] = append([]string(nil), v...)
	}
	return &out
}
