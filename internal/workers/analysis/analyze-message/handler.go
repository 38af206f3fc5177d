// internal/workers/analysis/analyze-message/handler.go
package analyzemessage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/kanishkaditya/DinemateBackend/internal/analysis"
	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/common/metrics"
	"github.com/kanishkaditya/DinemateBackend/internal/common/validation"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
	"github.com/kanishkaditya/DinemateBackend/internal/preference"
)

const (
	TaskType = "analyze-chat-message"
)

// ProfileStore is the persistence surface this worker needs.
type ProfileStore interface {
	GetGroupProfile(ctx context.Context, groupID string) (*models.GroupProfile, error)
	SaveGroupProfile(ctx context.Context, profile *models.GroupProfile) error
	SaveMemberPreference(ctx context.Context, member *models.MemberPreference) error
}

type Handler struct {
	config     *Config
	pipeline   *analysis.Pipeline
	aggregator *preference.Aggregator
	store      ProfileStore
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, pipeline *analysis.Pipeline, aggregator *preference.Aggregator, store ProfileStore, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		pipeline:   pipeline,
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

	variables, err := job.GetVariablesAsMap()
	if err != nil {
		h.failJob(client, job, apperrors.NewInputValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}
	if result := validation.ValidateInput(variables, GetInputSchema()); !result.Valid {
		h.failJob(client, job, apperrors.NewInputValidationError(
			fmt.Sprintf("input validation failed: %v", result.GetErrorMessages())))
		return
	}

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
	if input.MessageID == "" || input.GroupID == "" || input.UserID == "" {
		return nil, apperrors.NewInputValidationError("messageId, groupId and userId are required")
	}

	record := h.pipeline.Analyze(analysis.Message{
		MessageID: input.MessageID,
		GroupID:   input.GroupID,
		UserID:    input.UserID,
		Content:   input.Content,
	})

	// Fallback records complete the job; analysis must never block the
	// message path.
	if record.Error != "" {
		metrics.MessagesAnalyzed.WithLabelValues("fallback").Inc()
		return outputFromAnalysis(record, false), nil
	}

	if !record.ShouldUpdatePreferences || record.Sentiment.Confidence < h.config.MinConfidence {
		metrics.MessagesAnalyzed.WithLabelValues("below_threshold").Inc()
		return outputFromAnalysis(record, false), nil
	}

	if err := h.mergePreferences(ctx, input, record); err != nil {
		// Merge failures degrade to analysis-only; the keywords are not
		// lost, the next relevant message re-learns them.
		h.logger.Warn("preference merge failed, completing with analysis only", map[string]interface{}{
			"groupId": input.GroupID,
			"userId":  input.UserID,
			"error":   err.Error(),
		})
		metrics.MessagesAnalyzed.WithLabelValues("fallback").Inc()
		return outputFromAnalysis(record, false), nil
	}

	metrics.MessagesAnalyzed.WithLabelValues("updated").Inc()
	metrics.PreferenceUpdates.WithLabelValues("message").Inc()
	return outputFromAnalysis(record, true), nil
}

// mergePreferences folds the analysis into the group profile, creating the
// profile and the member contribution when they do not exist yet.
func (h *Handler) mergePreferences(ctx context.Context, input *Input, record models.MessageAnalysis) error {
	now := time.Now().UTC()

	profile, err := h.store.GetGroupProfile(ctx, input.GroupID)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			return err
		}
		profile = models.NewGroupProfile(input.GroupID, now)
	}

	err = h.aggregator.ApplyExtractedKeywords(profile, input.UserID,
		record.Extraction.Keywords, record.Extraction.Params,
		record.OverallRelevance, now)
	if apperrors.IsNotFound(err) {
		// Create-if-absent: a member who chats before onboarding gets an
		// empty contribution seeded from nothing.
		h.aggregator.AddOrUpdateMember(profile,
			models.NewMemberPreference(input.GroupID, input.UserID, models.OnboardingProfile{}, now), now)
		err = h.aggregator.ApplyExtractedKeywords(profile, input.UserID,
			record.Extraction.Keywords, record.Extraction.Params,
			record.OverallRelevance, now)
	}
	if err != nil {
		return err
	}

	h.aggregator.PrioritizeKeywords(ctx, profile)

	member := profile.Members[input.UserID]
	if err := h.store.SaveMemberPreference(ctx, &member); err != nil {
		return err
	}
	return h.store.SaveGroupProfile(ctx, profile)
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
