// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanishkaditya/DinemateBackend/internal/analysis"
	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
	"github.com/kanishkaditya/DinemateBackend/internal/preference"
	"github.com/kanishkaditya/DinemateBackend/internal/recommend"

	am "github.com/kanishkaditya/DinemateBackend/internal/workers/analysis/analyze-message"
	sgm "github.com/kanishkaditya/DinemateBackend/internal/workers/preference/sync-group-member"
	fc "github.com/kanishkaditya/DinemateBackend/internal/workers/recommendation/fetch-candidates"
	rr "github.com/kanishkaditya/DinemateBackend/internal/workers/recommendation/rank-restaurants"
)

// The e2e suite runs the full preference-to-recommendation flow through the
// real handlers with in-memory infrastructure. No broker, database or network
// is required.

// ==========================
// In-Memory Infrastructure
// ==========================

type memoryStore struct {
	profiles map[string]*models.GroupProfile
	members  map[string]models.MemberPreference
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		profiles: make(map[string]*models.GroupProfile),
		members:  make(map[string]models.MemberPreference),
	}
}

func (m *memoryStore) GetGroupProfile(_ context.Context, groupID string) (*models.GroupProfile, error) {
	if profile, ok := m.profiles[groupID]; ok {
		return profile.Clone(), nil
	}
	return nil, apperrors.NewGroupProfileNotFoundError(groupID)
}

func (m *memoryStore) SaveGroupProfile(_ context.Context, profile *models.GroupProfile) error {
	m.profiles[profile.GroupID] = profile.Clone()
	return nil
}

func (m *memoryStore) SaveMemberPreference(_ context.Context, member *models.MemberPreference) error {
	m.members[member.GroupID+"/"+member.UserID] = member.Clone()
	return nil
}

func (m *memoryStore) DeleteMemberPreference(_ context.Context, groupID, userID string) error {
	key := groupID + "/" + userID
	if _, ok := m.members[key]; !ok {
		return apperrors.NewMemberPreferenceNotFoundError(groupID, userID)
	}
	delete(m.members, key)
	return nil
}

type memorySearcher struct {
	results    []models.Candidate
	lastParams models.SearchParams
}

func (m *memorySearcher) Search(_ context.Context, params models.SearchParams) ([]models.Candidate, error) {
	m.lastParams = params
	return m.results, nil
}

type testEnv struct {
	store      *memoryStore
	searcher   *memorySearcher
	analyze    *am.Handler
	sync       *sgm.Handler
	fetch      *fc.Handler
	rank       *rr.Handler
	aggregator *preference.Aggregator
}

func newTestEnv(t *testing.T) *testEnv {
	log := logger.NewTestLogger(t)
	store := newMemoryStore()
	searcher := &memorySearcher{}

	aggregator := preference.NewAggregator(nil, log)
	pipeline := analysis.NewPipeline(0.5, log)

	return &testEnv{
		store:      store,
		searcher:   searcher,
		aggregator: aggregator,
		analyze: am.NewHandler(&am.Config{
			Timeout:         30 * time.Second,
			UpdateThreshold: 0.5,
			MinConfidence:   0.3,
		}, pipeline, aggregator, store, log),
		sync: sgm.NewHandler(&sgm.Config{
			Timeout: 30 * time.Second,
		}, aggregator, store, log),
		fetch: fc.NewHandler(&fc.Config{
			Timeout:    30 * time.Second,
			MaxResults: 20,
		}, store, searcher, nil, log),
		rank: rr.NewHandler(&rr.Config{
			Timeout: 30 * time.Second,
		}, recommend.NewScorer(), store, log),
	}
}

func (e *testEnv) join(t *testing.T, groupID, userID string, tier models.BudgetTier, cuisines ...string) {
	t.Helper()
	_, err := e.sync.Execute(context.Background(), &sgm.Input{
		GroupID: groupID,
		UserID:  userID,
		Action:  sgm.ActionJoin,
		Onboarding: &models.OnboardingProfile{
			PreferredCuisines: cuisines,
			BudgetTier:        tier,
		},
	})
	require.NoError(t, err)
}

func (e *testEnv) chat(t *testing.T, groupID, userID, content string) *am.Output {
	t.Helper()
	output, err := e.analyze.Execute(context.Background(), &am.Input{
		MessageID: "msg-" + userID,
		GroupID:   groupID,
		UserID:    userID,
		Content:   content,
	})
	require.NoError(t, err)
	return output
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func restaurant(id, cuisine string, price int, distance float64) models.Candidate {
	return models.Candidate{
		ID:             id,
		Name:           id,
		Cuisines:       []string{cuisine},
		PriceTier:      intPtr(price),
		Rating:         floatPtr(8.2),
		Popularity:     floatPtr(0.6),
		DistanceMeters: floatPtr(distance),
	}
}

// ==========================
// End-to-End Flow Tests
// ==========================

func TestFlow_ChatToRecommendation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Three members join with onboarding answers.
	env.join(t, "g1", "alice", models.BudgetTierBudget, "thai")
	env.join(t, "g1", "bob", models.BudgetTierModerate, "thai", "italian")
	env.join(t, "g1", "carol", models.BudgetTierModerate, "mexican")

	// A relevant chat message updates the sender's learned preferences.
	analyzed := env.chat(t, "g1", "alice", "lets get cheap spicy thai food near downtown tonight")
	assert.True(t, analyzed.PreferencesUpdated)
	assert.Contains(t, analyzed.RecommendationKeywords, "thai")

	// Candidate fetch projects the group's aggregated signals.
	env.searcher.results = []models.Candidate{
		restaurant("thai-near", "thai", 2, 400),
		restaurant("mexican-mid", "mexican", 2, 1500),
		restaurant("french-far", "french", 4, 6000),
	}
	fetched, err := env.fetch.Execute(ctx, &fc.Input{GroupID: "g1"})
	require.NoError(t, err)
	assert.Equal(t, fc.SourceFoursquare, fetched.Source)
	assert.Equal(t, 3, fetched.Count)

	params := env.searcher.lastParams
	assert.Equal(t, "thai", params.Query)
	assert.Equal(t, "downtown", params.Near)
	// {budget, moderate, moderate} resolves to the moderate bucket.
	assert.Equal(t, 2, params.MinPrice)
	assert.Equal(t, 3, params.MaxPrice)

	// Ranking puts the near, preference-matching candidate first.
	ranked, err := env.rank.Execute(ctx, &rr.Input{
		GroupID:    "g1",
		Candidates: fetched.Candidates,
		Context:    models.RecommendationContext{GroupSize: 3, TimeOfDay: "dinner"},
	})
	require.NoError(t, err)
	require.Equal(t, 3, ranked.Count)
	assert.Equal(t, "thai-near", ranked.Recommendations[0].Candidate.ID)
	for _, rec := range ranked.Recommendations {
		assert.GreaterOrEqual(t, rec.Score, 0.0)
		assert.LessOrEqual(t, rec.Score, 1.0)
	}
}

func TestFlow_PriceConsensusFollowsMode(t *testing.T) {
	env := newTestEnv(t)

	env.join(t, "g1", "u1", models.BudgetTierBudget)
	env.join(t, "g1", "u2", models.BudgetTierModerate)
	env.join(t, "g1", "u3", models.BudgetTierModerate)

	profile := env.store.profiles["g1"]
	require.NotNil(t, profile.Derived.PriceConsensus)
	assert.Equal(t, &models.PriceRange{Min: 2, Max: 3}, profile.Derived.PriceConsensus)
}

func TestFlow_MemberLeaveNarrowsPreferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.join(t, "g1", "u1", models.BudgetTierModerate, "thai")
	env.join(t, "g1", "u2", models.BudgetTierUpscale, "french")

	output, err := env.sync.Execute(ctx, &sgm.Input{
		GroupID: "g1",
		UserID:  "u2",
		Action:  sgm.ActionLeave,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, output.MemberCount)

	profile := env.store.profiles["g1"]
	assert.NotContains(t, profile.Derived.QueryTerms, "french")
	assert.Contains(t, profile.Derived.QueryTerms, "thai")
}

func TestFlow_IrrelevantChatterLeavesProfileUntouched(t *testing.T) {
	env := newTestEnv(t)

	env.join(t, "g1", "u1", models.BudgetTierModerate, "thai")
	before := env.store.profiles["g1"].Members["u1"].Learned.TotalInteractions

	analyzed := env.chat(t, "g1", "u1", "did anyone see the game last night")
	assert.False(t, analyzed.PreferencesUpdated)

	after := env.store.profiles["g1"].Members["u1"].Learned.TotalInteractions
	assert.Equal(t, before, after)
}

func TestFlow_DistanceDominatesAtEqualPreference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.join(t, "g1", "u1", models.BudgetTierModerate, "thai")

	ranked, err := env.rank.Execute(ctx, &rr.Input{
		GroupID: "g1",
		Candidates: []models.Candidate{
			restaurant("thai-far", "thai", 2, 6000),
			restaurant("thai-near", "thai", 2, 400),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "thai-near", ranked.Recommendations[0].Candidate.ID)
}

func TestFlow_ExplicitLocationOverridesChatSignals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.join(t, "g1", "u1", models.BudgetTierModerate, "thai")
	env.chat(t, "g1", "u1", "craving spicy thai food near downtown")

	lat, lon := 47.61, -122.33
	env.searcher.results = []models.Candidate{restaurant("r1", "thai", 2, 300)}
	_, err := env.fetch.Execute(ctx, &fc.Input{
		GroupID:   "g1",
		Latitude:  &lat,
		Longitude: &lon,
	})
	require.NoError(t, err)

	params := env.searcher.lastParams
	require.NotNil(t, params.Latitude)
	assert.Equal(t, lat, *params.Latitude)
	assert.Empty(t, params.Near)
}
