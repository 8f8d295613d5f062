package computeappraisal

import (
	"context"
	"encoding/json"
	"fmt"
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

const TaskType = "compute-appraisal"

type Dependencies struct {
	Catalog       *valuation.CostCatalog
	Policy        valuation.Policy
	Validator     *validation.Validator
	Observability *observability.Observability
}

type Handler struct {
	config       *Config
	deps         Dependencies
	resolver     *valuation.Resolver
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
		resolver:     valuation.DefaultResolver(),
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

	ctx, span := h.deps.Observability.StartSpan(ctx, TaskType,
		attribute.Int64("job.key", job.Key),
		attribute.Int64("process.instance.key", job.ProcessInstanceKey),
	)
	defer span.End()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		h.fail(ctx, client, job, start, err)
		return
	}

	output, err := h.Execute(ctx, input)
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

	h.logger.Info("job completed", map[string]interface{}{
		"jobKey":        job.Key,
		"lineItems":     len(output.LineItems),
		"unpricedItems": len(output.UnpricedItems),
		"marketValue":   output.Aggregate.TotalMarketValue.String(),
	})
}

// Execute appraises the line items in a fresh session. Items whose construction type and
// usage have no catalog price are kept with a unit value of 0 and listed in UnpricedItems.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	session := valuation.NewSession(h.deps.Catalog, h.resolver, h.deps.Policy, nil)
	if err := models.ApplyLineItems(session, input.LineItems); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := session.Snapshot()
	metrics.RecordLineItems(TaskType, len(snap.Items), len(snap.Unpriced))
	if len(snap.Unpriced) > 0 {
		h.logger.Warn("line items without catalog price", map[string]interface{}{
			"unpricedItems": snap.Unpriced,
		})
	}

	return &Output{
		LineItems:     models.NewLineItemResults(snap.Items),
		Aggregate:     models.NewAggregateResult(snap.Aggregate),
		UnpricedItems: snap.Unpriced,
	}, nil
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	if err := h.deps.Validator.ValidateVariables(TaskType, job.Variables); err != nil {
		return nil, err
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, start time.Time, err error) {
	stdErr := h.errorHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.deps.Observability.RecordJobProcessed(ctx, TaskType, "failed")
	h.deps.Observability.RecordJobDuration(ctx, TaskType, time.Since(start), "failed")
}
