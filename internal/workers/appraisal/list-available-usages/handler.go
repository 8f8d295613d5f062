package listavailableusages

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/common/observability"
	"assessment-workers/internal/common/validation"
	"assessment-workers/internal/models"
	"assessment-workers/internal/valuation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TaskType = "list-available-usages"

type Dependencies struct {
	Catalog       *valuation.CostCatalog
	Validator     *validation.Validator
	Observability *observability.Observability
}

type Handler struct {
	config       *Config
	deps         Dependencies
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) (*Handler, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("%s: cost catalog is required", TaskType)
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		deps:         deps,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.deps.Observability.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.Key))
	defer span.End()

	h.logger.Debug("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	if err := h.deps.Validator.ValidateVariables(TaskType, job.Variables); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.fail(ctx, client, job, start, err)
		return
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.fail(ctx, client, job, start, errors.NewParseError(err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.fail(ctx, client, job, start, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, start, errors.NewInternalError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.deps.Observability.RecordJobProcessed(ctx, TaskType, "completed")
	h.deps.Observability.RecordJobDuration(ctx, TaskType, time.Since(start), "completed")
}

// Execute lists the priced usages of input.ConstructionType in catalog order. An unknown
// construction type has no usages; that is not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ct := strings.TrimSpace(input.ConstructionType)
	if ct == "" {
		return &Output{
			Usages:            []models.UsageOption{},
			ConstructionTypes: h.deps.Catalog.ConstructionTypes(),
		}, nil
	}

	usages := h.deps.Catalog.AvailableUsagesFor(ct)
	out := &Output{
		ConstructionType:  ct,
		Usages:            make([]models.UsageOption, 0, len(usages)),
		ConstructionTypes: []string{},
	}
	for _, usage := range usages {
		cost, _ := h.deps.Catalog.Lookup(ct, usage)
		out.Usages = append(out.Usages, models.UsageOption{Usage: usage, UnitCost: cost})
	}

	if len(out.Usages) == 0 {
		h.logger.Info("construction type has no priced usages", map[string]interface{}{
			"constructionType": ct,
		})
	}
	return out, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	stdErr := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.deps.Observability.RecordJobProcessed(ctx, TaskType, "failed")
	h.deps.Observability.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}
