// internal/workers/recommendation/fetch-candidates/handler_test.go
package fetchcandidates

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeSearcher struct {
	results []models.Candidate
	err     error
	params  []models.SearchParams
}

func (f *fakeSearcher) Search(_ context.Context, params models.SearchParams) ([]models.Candidate, error) {
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeStore struct {
	profiles map[string]*models.GroupProfile
}

func (f *fakeStore) GetGroupProfile(_ context.Context, groupID string) (*models.GroupProfile, error) {
	if profile, ok := f.profiles[groupID]; ok {
		return profile.Clone(), nil
	}
	return nil, apperrors.NewGroupProfileNotFoundError(groupID)
}

func createTestHandler(t *testing.T, store ProfileStore, primary, fallback CandidateSearcher) *Handler {
	return NewHandler(LoadConfig(), store, primary, fallback, logger.NewTestLogger(t))
}

func profileWithSignals(groupID string) *models.GroupProfile {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	profile := models.NewGroupProfile(groupID, now)
	member := models.NewMemberPreference(groupID, "u1", models.OnboardingProfile{
		PreferredCuisines: []string{"thai"},
		BudgetTier:        models.BudgetTierModerate,
	}, now)
	member.Signals = models.SearchSignals{
		QueryTerm:      "thai",
		LocationPhrase: "downtown",
		UpdatedAt:      now,
	}
	profile.Members["u1"] = member
	profile.Derived.QueryTerms = []string{"thai"}
	profile.Derived.PriceConsensus = &models.PriceRange{Min: 2, Max: 3}
	return profile
}

func candidates(ids ...string) []models.Candidate {
	out := make([]models.Candidate, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Candidate{ID: id, Name: id})
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PrimarySearch(t *testing.T) {
	primary := &fakeSearcher{results: candidates("r1", "r2")}
	store := &fakeStore{profiles: map[string]*models.GroupProfile{"group-1": profileWithSignals("group-1")}}
	h := createTestHandler(t, store, primary, nil)

	output, err := h.Execute(context.Background(), &Input{GroupID: "group-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceFoursquare, output.Source)
	assert.Equal(t, 2, output.Count)
	require.Len(t, primary.params, 1)
	params := primary.params[0]
	assert.Equal(t, "thai", params.Query)
	assert.Equal(t, "downtown", params.Near)
	assert.Equal(t, 2, params.MinPrice)
	assert.Equal(t, 3, params.MaxPrice)
	assert.Equal(t, "relevance", params.Sort)
	assert.Equal(t, 20, params.Limit)
}

func TestHandler_Execute_RequestOverridesGroupSignals(t *testing.T) {
	primary := &fakeSearcher{results: candidates("r1")}
	store := &fakeStore{profiles: map[string]*models.GroupProfile{"group-1": profileWithSignals("group-1")}}
	h := createTestHandler(t, store, primary, nil)

	lat, lon := 47.61, -122.33
	_, err := h.Execute(context.Background(), &Input{
		GroupID:      "group-1",
		Query:        "sushi",
		Latitude:     &lat,
		Longitude:    &lon,
		RadiusMeters: 1500,
		Limit:        5,
	})

	require.NoError(t, err)
	params := primary.params[0]
	assert.Equal(t, "sushi", params.Query)
	require.NotNil(t, params.Latitude)
	assert.Equal(t, lat, *params.Latitude)
	// Coordinates replace the group's location phrase entirely.
	assert.Empty(t, params.Near)
	assert.Equal(t, 1500, params.RadiusMeters)
	assert.Equal(t, 5, params.Limit)
}

func TestHandler_Execute_UnknownGroupWithExplicitLocation(t *testing.T) {
	primary := &fakeSearcher{results: candidates("r1")}
	h := createTestHandler(t, &fakeStore{profiles: map[string]*models.GroupProfile{}}, primary, nil)

	output, err := h.Execute(context.Background(), &Input{GroupID: "ghost", Near: "capitol hill", Query: "ramen"})

	require.NoError(t, err)
	assert.Equal(t, SourceFoursquare, output.Source)
	assert.Equal(t, "capitol hill", primary.params[0].Near)
}

// ==========================
// Degrade Path Tests
// ==========================

func TestHandler_Execute_FallsBackToIndex(t *testing.T) {
	primary := &fakeSearcher{err: apperrors.NewSearchCapabilityError(assert.AnError)}
	fallback := &fakeSearcher{results: candidates("r1", "r2", "r3")}
	store := &fakeStore{profiles: map[string]*models.GroupProfile{"group-1": profileWithSignals("group-1")}}
	h := createTestHandler(t, store, primary, fallback)

	output, err := h.Execute(context.Background(), &Input{GroupID: "group-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceIndex, output.Source)
	assert.Equal(t, 3, output.Count)
	require.Len(t, fallback.params, 1)
	assert.Equal(t, "thai", fallback.params[0].Query)
}

func TestHandler_Execute_BothBackendsDownReturnsEmpty(t *testing.T) {
	primary := &fakeSearcher{err: apperrors.NewSearchCapabilityError(assert.AnError)}
	fallback := &fakeSearcher{err: apperrors.NewIndexQueryFailedError(assert.AnError)}
	store := &fakeStore{profiles: map[string]*models.GroupProfile{"group-1": profileWithSignals("group-1")}}
	h := createTestHandler(t, store, primary, fallback)

	output, err := h.Execute(context.Background(), &Input{GroupID: "group-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceNone, output.Source)
	assert.Equal(t, 0, output.Count)
	assert.Empty(t, output.Candidates)
}

func TestHandler_Execute_NoFallbackConfigured(t *testing.T) {
	primary := &fakeSearcher{err: apperrors.NewSearchCapabilityError(assert.AnError)}
	store := &fakeStore{profiles: map[string]*models.GroupProfile{"group-1": profileWithSignals("group-1")}}
	h := createTestHandler(t, store, primary, nil)

	output, err := h.Execute(context.Background(), &Input{GroupID: "group-1"})

	require.NoError(t, err)
	assert.Equal(t, SourceNone, output.Source)
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_MissingGroupID(t *testing.T) {
	h := createTestHandler(t, &fakeStore{}, &fakeSearcher{}, nil)

	_, err := h.Execute(context.Background(), &Input{})

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInputValidationFailed, stdErr.Code)
}

func TestHandler_Execute_NoLocationAnywhere(t *testing.T) {
	// Unknown group and no location in the request: nothing to search near.
	h := createTestHandler(t, &fakeStore{profiles: map[string]*models.GroupProfile{}}, &fakeSearcher{}, nil)

	_, err := h.Execute(context.Background(), &Input{GroupID: "ghost", Query: "ramen"})

	require.Error(t, err)
	stdErr, ok := err.(*apperrors.StandardError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeLocationMissing, stdErr.Code)
}
