// internal/workers/maintenance/decay-stale-preferences/handler_test.go
package decaystalepreferences

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
	"github.com/kanishkaditya/DinemateBackend/internal/preference"
)

// ==========================
// Test Helper Functions
// ==========================

var staleTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeStore struct {
	profiles     map[string]*models.GroupProfile
	stale        []models.MemberPreference
	savedMembers []models.MemberPreference
	listErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]*models.GroupProfile)}
}

func (f *fakeStore) GetGroupProfile(_ context.Context, groupID string) (*models.GroupProfile, error) {
	if profile, ok := f.profiles[groupID]; ok {
		return profile.Clone(), nil
	}
	return nil, apperrors.NewGroupProfileNotFoundError(groupID)
}

func (f *fakeStore) SaveGroupProfile(_ context.Context, profile *models.GroupProfile) error {
	f.profiles[profile.GroupID] = profile.Clone()
	return nil
}

func (f *fakeStore) SaveMemberPreference(_ context.Context, member *models.MemberPreference) error {
	f.savedMembers = append(f.savedMembers, member.Clone())
	return nil
}

func (f *fakeStore) ListStaleMembers(_ context.Context, groupID string, _ time.Time, limit int) ([]models.MemberPreference, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.MemberPreference
	for _, member := range f.stale {
		if groupID != "" && member.GroupID != groupID {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, member.Clone())
	}
	return out, nil
}

func createTestHandler(t *testing.T, store ProfileStore) *Handler {
	testLogger := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(), preference.NewAggregator(nil, testLogger), store, testLogger)
}

// addStaleMember registers a member both in the group document and in the
// stale listing, with the given learned confidence.
func addStaleMember(store *fakeStore, groupID, userID string, confidence float64) {
	profile, ok := store.profiles[groupID]
	if !ok {
		profile = models.NewGroupProfile(groupID, staleTime)
		store.profiles[groupID] = profile
	}
	member := models.NewMemberPreference(groupID, userID, models.OnboardingProfile{
		PreferredCuisines: []string{"thai"},
		BudgetTier:        models.BudgetTierModerate,
	}, staleTime)
	member.Learned.Confidence = confidence
	profile.Members[userID] = member
	store.stale = append(store.stale, member)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_DecaysStaleMembers(t *testing.T) {
	store := newFakeStore()
	addStaleMember(store, "group-1", "u1", 0.9)
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 1, output.MembersDecayed)
	assert.Equal(t, 1, output.GroupsRecomputed)

	member := store.profiles["group-1"].Members["u1"]
	assert.InDelta(t, 0.72, member.Learned.Confidence, 1e-9)
	require.Len(t, store.savedMembers, 1)
	assert.InDelta(t, 0.72, store.savedMembers[0].Learned.Confidence, 1e-9)
}

func TestHandler_Execute_ConfidenceNeverBelowFloor(t *testing.T) {
	store := newFakeStore()
	addStaleMember(store, "group-1", "u1", 0.32)
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	member := store.profiles["group-1"].Members["u1"]
	assert.Equal(t, 0.3, member.Learned.Confidence)
}

func TestHandler_Execute_MultipleGroupsRecomputedOnce(t *testing.T) {
	store := newFakeStore()
	addStaleMember(store, "group-1", "u1", 0.8)
	addStaleMember(store, "group-1", "u2", 0.8)
	addStaleMember(store, "group-2", "u3", 0.8)
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 3, output.MembersDecayed)
	assert.Equal(t, 2, output.GroupsRecomputed)
}

func TestHandler_Execute_ScopedToGroup(t *testing.T) {
	store := newFakeStore()
	addStaleMember(store, "group-1", "u1", 0.8)
	addStaleMember(store, "group-2", "u2", 0.8)
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{GroupID: "group-1"})

	require.NoError(t, err)
	assert.Equal(t, 1, output.MembersDecayed)
	// The other group's member stays untouched.
	assert.Equal(t, 0.8, store.profiles["group-2"].Members["u2"].Learned.Confidence)
}

func TestHandler_Execute_BatchSizeLimitsSweep(t *testing.T) {
	store := newFakeStore()
	addStaleMember(store, "group-1", "u1", 0.8)
	addStaleMember(store, "group-1", "u2", 0.8)
	addStaleMember(store, "group-1", "u3", 0.8)
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{BatchSize: 2})

	require.NoError(t, err)
	assert.Equal(t, 2, output.MembersDecayed)
}

// ==========================
// Edge Case Tests
// ==========================

func TestHandler_Execute_NothingStale(t *testing.T) {
	h := createTestHandler(t, newFakeStore())

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, output.MembersDecayed)
	assert.Equal(t, 0, output.GroupsRecomputed)
}

func TestHandler_Execute_OrphanedMemberSkipped(t *testing.T) {
	store := newFakeStore()
	// Member row without a matching group document.
	store.stale = append(store.stale, models.NewMemberPreference("ghost", "u1", models.OnboardingProfile{}, staleTime))
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, output.MembersDecayed)
	assert.Equal(t, 0, output.GroupsRecomputed)
}

func TestHandler_Execute_StaleRowForDepartedMemberNotCounted(t *testing.T) {
	store := newFakeStore()
	// The group document exists but the stale row points at a member who
	// already left it. Nothing decays, so nothing is recomputed.
	store.profiles["g1"] = models.NewGroupProfile("g1", staleTime)
	store.stale = append(store.stale, models.NewMemberPreference("g1", "gone", models.OnboardingProfile{}, staleTime))
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{})

	require.NoError(t, err)
	assert.Equal(t, 0, output.MembersDecayed)
	assert.Equal(t, 0, output.GroupsRecomputed)
	assert.Empty(t, store.savedMembers)
}

func TestHandler_Execute_ListFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.listErr = apperrors.NewProfileLoadFailedError("", assert.AnError)
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), &Input{})

	require.Error(t, err)
}
