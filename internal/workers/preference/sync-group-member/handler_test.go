// internal/workers/preference/sync-group-member/handler_test.go
package syncgroupmember

import (
	"context"
	"testing"

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

type fakeStore struct {
	profiles map[string]*models.GroupProfile
	members  map[string]models.MemberPreference
	deleted  []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profiles: make(map[string]*models.GroupProfile),
		members:  make(map[string]models.MemberPreference),
	}
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
	f.members[member.GroupID+"/"+member.UserID] = member.Clone()
	return nil
}

func (f *fakeStore) DeleteMemberPreference(_ context.Context, groupID, userID string) error {
	key := groupID + "/" + userID
	if _, ok := f.members[key]; !ok {
		return apperrors.NewMemberPreferenceNotFoundError(groupID, userID)
	}
	delete(f.members, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func createTestHandler(t *testing.T, store ProfileStore) *Handler {
	testLogger := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(), preference.NewAggregator(nil, testLogger), store, testLogger)
}

func joinInput(userID string, cuisines ...string) *Input {
	return &Input{
		GroupID: "group-1",
		UserID:  userID,
		Action:  ActionJoin,
		Onboarding: &models.OnboardingProfile{
			PreferredCuisines: cuisines,
			BudgetTier:        models.BudgetTierModerate,
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_JoinCreatesProfile(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), joinInput("u1", "thai"))

	require.NoError(t, err)
	assert.Equal(t, 1, output.MemberCount)
	assert.True(t, output.Recomputed)

	profile := store.profiles["group-1"]
	require.NotNil(t, profile)
	assert.Contains(t, profile.Derived.QueryTerms, "thai")
	assert.Contains(t, store.members, "group-1/u1")
}

func TestHandler_Execute_SecondJoinAggregates(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), joinInput("u1", "thai"))
	require.NoError(t, err)
	output, err := h.Execute(context.Background(), joinInput("u2", "italian"))
	require.NoError(t, err)

	assert.Equal(t, 2, output.MemberCount)
	profile := store.profiles["group-1"]
	assert.ElementsMatch(t, []string{"thai", "italian"}, profile.Derived.QueryTerms)
}

func TestHandler_Execute_UpdateKeepsLearnedPreferences(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), joinInput("u1", "thai"))
	require.NoError(t, err)

	// Simulate learned keywords between onboarding updates.
	profile := store.profiles["group-1"]
	member := profile.Members["u1"]
	member.Learned.Keywords["cuisine"] = []string{"korean"}
	profile.Members["u1"] = member
	store.profiles["group-1"] = profile

	update := joinInput("u1", "japanese")
	update.Action = ActionUpdate
	_, err = h.Execute(context.Background(), update)
	require.NoError(t, err)

	updated := store.profiles["group-1"].Members["u1"]
	assert.Equal(t, []string{"japanese"}, updated.Onboarding.PreferredCuisines)
	assert.Equal(t, []string{"korean"}, updated.Learned.Keywords["cuisine"])
}

func TestHandler_Execute_LeaveRemovesMember(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), joinInput("u1", "thai"))
	require.NoError(t, err)
	_, err = h.Execute(context.Background(), joinInput("u2", "italian"))
	require.NoError(t, err)

	output, err := h.Execute(context.Background(), &Input{
		GroupID: "group-1",
		UserID:  "u1",
		Action:  ActionLeave,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.MemberCount)
	assert.NotContains(t, store.profiles["group-1"].Derived.QueryTerms, "thai")
	assert.Contains(t, store.deleted, "group-1/u1")
}

// ==========================
// Error Path Tests
// ==========================

func TestHandler_Execute_LeaveUnknownGroup(t *testing.T) {
	h := createTestHandler(t, newFakeStore())

	_, err := h.Execute(context.Background(), &Input{
		GroupID: "ghost",
		UserID:  "u1",
		Action:  ActionLeave,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHandler_Execute_LeaveUnknownMember(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	_, err := h.Execute(context.Background(), joinInput("u1", "thai"))
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{
		GroupID: "group-1",
		UserID:  "ghost",
		Action:  ActionLeave,
	})

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"missing groupId", &Input{UserID: "u1", Action: ActionJoin}},
		{"missing userId", &Input{GroupID: "g1", Action: ActionJoin}},
		{"unknown action", &Input{GroupID: "g1", UserID: "u1", Action: "explode"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t, newFakeStore())

			_, err := h.Execute(context.Background(), tt.input)

			require.Error(t, err)
			stdErr, ok := err.(*apperrors.StandardError)
			require.True(t, ok)
			assert.Equal(t, apperrors.ErrCodeInputValidationFailed, stdErr.Code)
		})
	}
}

func TestHandler_Execute_JoinWithoutOnboardingDefaults(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(), &Input{
		GroupID: "group-1",
		UserID:  "u1",
		Action:  ActionJoin,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.MemberCount)
	// Default budget tier maps to the moderate bucket.
	assert.Equal(t, &models.PriceRange{Min: 2, Max: 3}, store.profiles["group-1"].Derived.PriceConsensus)
}
