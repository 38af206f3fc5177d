// internal/workers/recommendation/rank-restaurants/handler.go
package rankrestaurants

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
	"github.com/kanishkaditya/DinemateBackend/internal/recommend"
)

const (
	TaskType = "rank-restaurants"
)

// ProfileStore is the persistence surface this worker needs.
type ProfileStore interface {
	GetGroupProfile(ctx context.Context, groupID string) (*models.GroupProfile, error)
}

type Handler struct {
	config *Config
	scorer *recommend.Scorer
	store  ProfileStore
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, scorer *recommend.Scorer, store ProfileStore, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		scorer: scorer,
		store:  store,
		errors: apperrors.NewErrorHandler(scoped),
		logger: scoped,
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
	if input.GroupID == "" {
		return nil, apperrors.NewInputValidationError("groupId is required")
	}
	if len(input.Candidates) == 0 {
		return &Output{Recommendations: []models.ScoredRestaurant{}, Count: 0}, nil
	}

	now := time.Now().UTC()

	profile, err := h.store.GetGroupProfile(ctx, input.GroupID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return nil, err
		}
		// No stored preferences: score on context and quality alone.
		profile = models.NewGroupProfile(input.GroupID, now)
	}

	recommendations := h.scorer.ScoreAll(input.Candidates, input.Context, profile, now)
	metrics.RestaurantsScored.Add(float64(len(input.Candidates)))

	h.logger.Info("ranked candidates", map[string]interface{}{
		"groupId":    input.GroupID,
		"candidates": len(input.Candidates),
		"returned":   len(recommendations),
	})

	return &Output{
		Recommendations: recommendations,
		Count:           len(recommendations),
	}, nil
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
