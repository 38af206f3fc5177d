// internal/workers/analysis/analyze-message/handler_test.go
package analyzemessage

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
)

// ==========================
// Test Helper Functions
// ==========================

type fakeStore struct {
	profiles     map[string]*models.GroupProfile
	savedMembers []models.MemberPreference
	saveErr      error
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
	if f.saveErr != nil {
		return f.saveErr
	}
	f.profiles[profile.GroupID] = profile.Clone()
	return nil
}

func (f *fakeStore) SaveMemberPreference(_ context.Context, member *models.MemberPreference) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedMembers = append(f.savedMembers, member.Clone())
	return nil
}

func createTestHandler(t *testing.T, store ProfileStore) *Handler {
	config := LoadConfig()
	testLogger := logger.NewTestLogger(t)
	pipeline := analysis.NewPipeline(config.UpdateThreshold, testLogger)
	aggregator := preference.NewAggregator(nil, testLogger)
	return NewHandler(config, pipeline, aggregator, store, testLogger)
}

func createInput(content string) *Input {
	return &Input{
		MessageID: "msg-1",
		GroupID:   "group-1",
		UserID:    "user-1",
		Content:   content,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_RelevantMessageUpdatesPreferences(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(),
		createInput("lets get cheap spicy thai food near downtown tonight"))

	require.NoError(t, err)
	assert.True(t, output.ShouldUpdatePreferences)
	assert.True(t, output.PreferencesUpdated)
	assert.Contains(t, output.RecommendationKeywords, "thai")

	// Profile created on the fly with the sender as its first member.
	profile, ok := store.profiles["group-1"]
	require.True(t, ok)
	member, ok := profile.Members["user-1"]
	require.True(t, ok)
	assert.Contains(t, member.Learned.Keywords["cuisine"], "thai")
	require.Len(t, store.savedMembers, 1)
}

func TestHandler_Execute_IrrelevantMessageSkipsUpdate(t *testing.T) {
	store := newFakeStore()
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(),
		createInput("can you send the meeting notes"))

	require.NoError(t, err)
	assert.False(t, output.ShouldUpdatePreferences)
	assert.False(t, output.PreferencesUpdated)
	assert.Empty(t, store.profiles)
}

func TestHandler_Execute_ExistingMemberMergesKeywords(t *testing.T) {
	store := newFakeStore()
	profile := models.NewGroupProfile("group-1", time.Now().UTC())
	profile.Members["user-1"] = models.NewMemberPreference("group-1", "user-1", models.OnboardingProfile{
		PreferredCuisines: []string{"italian"},
		BudgetTier:        models.BudgetTierModerate,
	}, time.Now().UTC())
	store.profiles["group-1"] = profile

	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(),
		createInput("i love amazing spicy thai food, everyone agreed we should go tonight"))

	require.NoError(t, err)
	assert.True(t, output.PreferencesUpdated)

	saved := store.profiles["group-1"]
	member := saved.Members["user-1"]
	assert.Contains(t, member.Learned.Keywords["cuisine"], "thai")
	assert.Contains(t, member.Onboarding.PreferredCuisines, "italian")
}

// ==========================
// Validation Tests
// ==========================

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
	}{
		{"missing messageId", &Input{GroupID: "g", UserID: "u", Content: "x"}},
		{"missing groupId", &Input{MessageID: "m", UserID: "u", Content: "x"}},
		{"missing userId", &Input{MessageID: "m", GroupID: "g", Content: "x"}},
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

func TestHandler_Execute_EmptyContentCompletes(t *testing.T) {
	h := createTestHandler(t, newFakeStore())

	output, err := h.Execute(context.Background(), createInput(""))

	require.NoError(t, err)
	assert.False(t, output.ShouldUpdatePreferences)
}

// ==========================
// Degrade Path Tests
// ==========================

func TestHandler_Execute_StoreFailureStillCompletes(t *testing.T) {
	store := newFakeStore()
	store.saveErr = apperrors.NewProfileSaveFailedError("group-1", assert.AnError)
	h := createTestHandler(t, store)

	output, err := h.Execute(context.Background(),
		createInput("lets get cheap spicy thai food near downtown tonight"))

	require.NoError(t, err)
	assert.True(t, output.ShouldUpdatePreferences)
	assert.False(t, output.PreferencesUpdated)
	assert.Contains(t, output.RecommendationKeywords, "thai")
}
