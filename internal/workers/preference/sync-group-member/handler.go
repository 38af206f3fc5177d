// internal/workers/preference/sync-group-member/handler.go
package syncgroupmember

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/common/metrics"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
	"github.com/kanishkaditya/DinemateBackend/internal/preference"
)

const (
	TaskType = "sync-group-member"
)

// ProfileStore is the persistence surface this worker needs.
type ProfileStore interface {
	GetGroupProfile(ctx context.Context, groupID string) (*models.GroupProfile, error)
	SaveGroupProfile(ctx context.Context, profile *models.GroupProfile) error
	SaveMemberPreference(ctx context.Context, member *models.MemberPreference) error
	DeleteMemberPreference(ctx context.Context, groupID, userID string) error
}

type Handler struct {
	config     *Config
	aggregator *preference.Aggregator
	store      ProfileStore
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, aggregator *preference.Aggregator, store ProfileStore, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		aggregator: aggregator,
		store:      store,
		errors:     apperrors.NewErrorHandler(scoped),
		logger:     scoped,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, apperrors.NewInputValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.GroupID == "" || input.UserID == "" {
		return nil, apperrors.NewInputValidationError("groupId and userId are required")
	}

	now := time.Now().UTC()

	profile, err := h.store.GetGroupProfile(ctx, input.GroupID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		if input.Action == ActionLeave {
			return nil, apperrors.NewGroupProfileNotFoundError(input.GroupID)
		}
		profile = models.NewGroupProfile(input.GroupID, now)
	}

	switch input.Action {
	case ActionJoin, ActionUpdate:
		member := h.buildMember(profile, input, now)
		h.aggregator.AddOrUpdateMember(profile, member, now)
		if err := h.store.SaveMemberPreference(ctx, &member); err != nil {
			return nil, err
		}
		metrics.PreferenceUpdates.WithLabelValues("join").Inc()

	case ActionLeave:
		if err := h.aggregator.RemoveMember(profile, input.UserID, now); err != nil {
			return nil, err
		}
		if err := h.store.DeleteMemberPreference(ctx, input.GroupID, input.UserID); err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}

	default:
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("unknown action %q", input.Action))
	}

	if err := h.store.SaveGroupProfile(ctx, profile); err != nil {
		return nil, err
	}

	return &Output{
		GroupID:     profile.GroupID,
		MemberCount: profile.Derived.MemberCount,
		Recomputed:  true,
	}, nil
}

// buildMember keeps an existing member's learned preferences across
// onboarding updates; only the onboarding answers are replaced.
func (h *Handler) buildMember(profile *models.GroupProfile, input *Input, now time.Time) models.MemberPreference {
	onboarding := models.OnboardingProfile{}
	if input.Onboarding != nil {
		onboarding = *input.Onboarding
	}

	if existing, ok := profile.Members[input.UserID]; ok {
		member := existing.Clone()
		member.Onboarding = onboarding
		member.UpdatedAt = now
		return member
	}
	return models.NewMemberPreference(input.GroupID, input.UserID, onboarding, now)
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errors.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
