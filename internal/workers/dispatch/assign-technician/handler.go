package assigntechnician

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "technician-dispatch/internal/common/errors"
	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/common/metrics"
	"technician-dispatch/internal/common/validation"
	"technician-dispatch/internal/dispatch"
	"technician-dispatch/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "assign-technician"
)

var defaultInputSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"requestId"},
	"properties": map[string]interface{}{
		"requestId": map[string]interface{}{"type": "string", "minLength": 1},
	},
}

// Matcher runs the dispatch pipeline for one request.
type Matcher interface {
	Match(ctx context.Context, requestID string) (*dispatch.MatchResult, error)
}

type Handler struct {
	config       *Config
	matcher      Matcher
	validator    *validation.Validator
	activity     *registry.Activity
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler validates job variables against the registry's input schema for
// the task type, or a built-in schema when the registry has none.
func NewHandler(config *Config, matcher Matcher, reg *registry.ActivityRegistry, log logger.Logger) (*Handler, error) {
	schema := defaultInputSchema
	var activity *registry.Activity
	if reg != nil {
		if a, ok := reg.Find(TaskType); ok {
			activity = a
			if len(a.InputSchema) > 0 {
				schema = a.InputSchema
			}
		}
	}
	v, err := validation.Compile(schema)
	if err != nil {
		return nil, fmt.Errorf("%s input schema: %w", TaskType, err)
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		matcher:      matcher,
		validator:    v,
		activity:     activity,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput([]byte(job.Variables))
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(variables []byte) (*Input, error) {
	res, err := h.validator.Validate(variables)
	if err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error()).WithCause(err)
	}
	if !res.Valid {
		return nil, apperrors.NewInvalidInputError(res.Summary())
	}

	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)).WithCause(err)
	}
	return &input, nil
}

// Execute matches the request and maps failures to workflow error codes.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.RequestID == "" {
		return nil, apperrors.NewInvalidInputError("requestId is required")
	}

	result, err := h.matcher.Match(ctx, input.RequestID)
	if err != nil {
		stdErr := dispatch.ToStandardError(err, input.RequestID)
		// Undeclared codes have no boundary event in the process model.
		if h.activity != nil && !h.activity.HasErrorCode(string(stdErr.Code)) {
			h.logger.Warn("error code not declared in activity registry", map[string]interface{}{
				"requestId": input.RequestID,
				"errorCode": string(stdErr.Code),
			})
		}
		return nil, stdErr
	}

	h.logger.Info("match finished", map[string]interface{}{
		"requestId": input.RequestID,
		"runId":     result.RunID,
		"outcome":   string(result.Outcome),
	})
	return outputFrom(result), nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	return nil
}
