package calculateassessment

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

const TaskType = "calculate-assessment"

type Dependencies struct {
	Catalog *valuation.CostCatalog
	// Resolver defaults to the statutory tables.
	Resolver      *valuation.Resolver
	Policy        valuation.Policy
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
	if deps.Resolver == nil {
		deps.Resolver = valuation.DefaultResolver()
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
	span.SetAttributes(
		attribute.String("building.category", output.Assessment.BuildingCategory),
		attribute.Int("line.items", len(output.LineItems)),
		attribute.Int("revisions", output.PublishedRevisions),
	)

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

	h.logger.Info("assessment calculated", map[string]interface{}{
		"jobKey":           job.Key,
		"buildingCategory": output.Assessment.BuildingCategory,
		"marketValue":      output.Assessment.MarketValue.String(),
		"assessmentValue":  output.Assessment.AssessmentValue.String(),
	})
}

// Execute runs one appraisal session: line items first, then the additional items
// subtotal, then the record fields. Every setter cascades before the next one runs, so the
// output reflects the final state. Any rejected value fails the whole job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	category, err := valuation.ParseCategory(input.BuildingCategory)
	if err != nil {
		return nil, err
	}
	quarter, err := valuation.ParseQuarter(input.EffectiveQuarter)
	if err != nil {
		return nil, err
	}

	revisions := 0
	publisher := valuation.PublisherFunc(func(valuation.Record) { revisions++ })
	session := valuation.NewSession(h.deps.Catalog, h.deps.Resolver, h.deps.Policy, publisher)

	if err := models.ApplyLineItems(session, input.LineItems); err != nil {
		return nil, err
	}
	if input.AdditionalItemsSubtotal != nil {
		session.SetAdditionalItemsSubtotal(*input.AdditionalItemsSubtotal)
	}
	if err := session.SetCategory(category); err != nil {
		return nil, err
	}
	if input.Taxable != nil {
		session.SetTaxable(*input.Taxable)
	}
	if quarter != valuation.QuarterUnset {
		session.SetEffectiveQuarter(quarter)
	}
	if input.EffectiveYear != nil {
		if err := session.SetEffectiveYear(*input.EffectiveYear); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := session.Snapshot()
	metrics.RecordLineItems(TaskType, len(snap.Items), len(snap.Unpriced))
	metrics.RecordLevelResolution(snap.Record.BuildingCategory.String(), snap.Record.AssessmentLevelPercent.Valid)
	h.deps.Observability.RecordRevisions(ctx, revisions)

	return &Output{
		LineItems:          models.NewLineItemResults(snap.Items),
		Aggregate:          models.NewAggregateResult(snap.Aggregate),
		Assessment:         models.NewAssessmentRecordResult(snap.Record),
		UnpricedItems:      snap.Unpriced,
		PublishedRevisions: revisions,
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
