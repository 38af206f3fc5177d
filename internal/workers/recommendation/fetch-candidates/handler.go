// internal/workers/recommendation/fetch-candidates/handler.go
package fetchcandidates

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
	TaskType = "fetch-restaurant-candidates"
)

// CandidateSearcher abstracts a restaurant search backend. The live place
// provider and the local index both satisfy it.
type CandidateSearcher interface {
	Search(ctx context.Context, params models.SearchParams) ([]models.Candidate, error)
}

// ProfileStore is the persistence surface this worker needs.
type ProfileStore interface {
	GetGroupProfile(ctx context.Context, groupID string) (*models.GroupProfile, error)
}

type Handler struct {
	config   *Config
	store    ProfileStore
	primary  CandidateSearcher
	fallback CandidateSearcher
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

// NewHandler wires the worker. fallback may be nil when no local index is
// configured; provider outages then return an empty candidate set.
func NewHandler(config *Config, store ProfileStore, primary, fallback CandidateSearcher, log logger.Logger) *Handler {
	scoped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		store:    store,
		primary:  primary,
		fallback: fallback,
		errors:   apperrors.NewErrorHandler(scoped),
		logger:   scoped,
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

	params, err := h.buildParams(ctx, input)
	if err != nil {
		return nil, err
	}

	candidates, err := h.primary.Search(ctx, params)
	if err == nil {
		return &Output{Candidates: candidates, Source: SourceFoursquare, Count: len(candidates)}, nil
	}
	if !apperrors.IsCapabilityUnavailable(err) {
		return nil, err
	}

	metrics.CapabilityErrors.WithLabelValues("search").Inc()
	h.logger.Warn("search capability unavailable, degrading to local index", map[string]interface{}{
		"groupId": input.GroupID,
		"error":   err.Error(),
	})

	if h.fallback != nil {
		candidates, err = h.fallback.Search(ctx, params)
		if err == nil {
			return &Output{Candidates: candidates, Source: SourceIndex, Count: len(candidates)}, nil
		}
		h.logger.Warn("local index search failed", map[string]interface{}{
			"groupId": input.GroupID,
			"error":   err.Error(),
		})
	}

	return &Output{Candidates: []models.Candidate{}, Source: SourceNone, Count: 0}, nil
}

// buildParams merges the group's aggregated signals with the request. Request
// values win: an explicit location or query from the caller overrides whatever
// the group's chat history produced.
func (h *Handler) buildParams(ctx context.Context, input *Input) (models.SearchParams, error) {
	params := models.SearchParams{}

	profile, err := h.store.GetGroupProfile(ctx, input.GroupID)
	if err == nil {
		params = preference.GetAggregatedSearchParams(profile)
	} else if !apperrors.IsNotFound(err) {
		return params, err
	}

	if input.Query != "" {
		params.Query = input.Query
	}
	if input.Latitude != nil && input.Longitude != nil {
		params.Latitude = input.Latitude
		params.Longitude = input.Longitude
		params.Near = ""
	} else if input.Near != "" {
		params.Near = input.Near
	}
	if input.RadiusMeters > 0 {
		params.RadiusMeters = input.RadiusMeters
	}

	if !params.HasLocation() {
		return params, apperrors.NewLocationMissingError()
	}

	if params.Sort == "" {
		params.Sort = "relevance"
	}
	params.Limit = h.config.MaxResults
	if input.Limit > 0 && input.Limit < h.config.MaxResults {
		params.Limit = input.Limit
	}

	return params, nil
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
