// internal/workers/maintenance/decay-stale-preferences/handler.go
package decaystalepreferences

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
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
	TaskType = "decay-stale-preferences"
)

// ProfileStore is the persistence surface this worker needs.
type ProfileStore interface {
	GetGroupProfile(ctx context.Context, groupID string) (*models.GroupProfile, error)
	SaveGroupProfile(ctx context.Context, profile *models.GroupProfile) error
	SaveMemberPreference(ctx context.Context, member *models.MemberPreference) error
	ListStaleMembers(ctx context.Context, groupID string, cutoff time.Time, limit int) ([]models.MemberPreference, error)
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
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -h.config.StaleAfterDays)

	limit := h.config.BatchSize
	if input.BatchSize > 0 && input.BatchSize < limit {
		limit = input.BatchSize
	}

	stale, err := h.store.ListStaleMembers(ctx, input.GroupID, cutoff, limit)
	if err != nil {
		return nil, err
	}

	byGroup := make(map[string][]models.MemberPreference)
	for _, member := range stale {
		byGroup[member.GroupID] = append(byGroup[member.GroupID], member)
	}

	groupIDs := make([]string, 0, len(byGroup))
	for id := range byGroup {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	output := &Output{}
	for _, groupID := range groupIDs {
		decayed, err := h.decayGroup(ctx, groupID, byGroup[groupID], now)
		if err != nil {
			// One bad group never stalls the sweep.
			h.logger.Warn("decay skipped for group", map[string]interface{}{
				"groupId": groupID,
				"error":   err.Error(),
			})
			continue
		}
		output.MembersDecayed += decayed
		if decayed > 0 {
			output.GroupsRecomputed++
		}
	}

	h.logger.Info("decay sweep finished", map[string]interface{}{
		"staleMembers":     len(stale),
		"membersDecayed":   output.MembersDecayed,
		"groupsRecomputed": output.GroupsRecomputed,
	})

	return output, nil
}

// decayGroup lowers the learned confidence of each stale member, persists
// the members and recomputes the group's derived preferences once.
func (h *Handler) decayGroup(ctx context.Context, groupID string, stale []models.MemberPreference, now time.Time) (int, error) {
	profile, err := h.store.GetGroupProfile(ctx, groupID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Orphaned member rows. Nothing to recompute against.
			return 0, nil
		}
		return 0, err
	}

	decayed := 0
	for _, staleMember := range stale {
		member, ok := profile.Members[staleMember.UserID]
		if !ok {
			continue
		}
		member.Learned.Confidence = h.decayedConfidence(member.Learned.Confidence)
		member.UpdatedAt = now
		profile.Members[staleMember.UserID] = member

		if err := h.store.SaveMemberPreference(ctx, &member); err != nil {
			return decayed, err
		}
		metrics.PreferenceUpdates.WithLabelValues("decay").Inc()
		decayed++
	}

	if decayed == 0 {
		return 0, nil
	}

	h.aggregator.Recompute(profile, now)
	if err := h.store.SaveGroupProfile(ctx, profile); err != nil {
		return decayed, err
	}
	return decayed, nil
}

func (h *Handler) decayedConfidence(confidence float64) float64 {
	decayed := confidence * h.config.DecayFactor
	if decayed < h.config.DecayFloor {
		return h.config.DecayFloor
	}
	return decayed
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
