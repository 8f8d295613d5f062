// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"assessment-workers/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name         string
	PackageName  string
	Dir          string
	TaskType     string
	Description  string
	Category     string
	Timeout      string
	Retries      int
	InputFields  []Field
	OutputFields []Field
}

// Field is one generated struct field.
type Field struct {
	Name    string
	GoType  string
	JSONTag string
	Comment string
}

// NeedsDecimal reports whether any field is money.
func (d WorkerData) NeedsDecimal() bool {
	for _, f := range append(append([]Field{}, d.InputFields...), d.OutputFields...) {
		if strings.Contains(f.GoType, "decimal.") {
			return true
		}
	}
	return false
}

// parseSchema extracts properties from a JSON schema object
func parseSchema(schemaObj interface{}) map[string]interface{} {
	if schemaMap, ok := schemaObj.(map[string]interface{}); ok {
		if props, exists := schemaMap["properties"]; exists {
			if properties, ok := props.(map[string]interface{}); ok {
				return properties
			}
		}
	}
	return map[string]interface{}{}
}

// goTypeFromJSONType maps JSON schema types to Go types. Numbers are money in this module,
// including the ["number","string"] union used for decimal strings.
func goTypeFromJSONType(jsonType interface{}) string {
	if union, ok := jsonType.([]interface{}); ok {
		for _, t := range union {
			if t == "number" {
				return "decimal.Decimal"
			}
		}
		if len(union) == 1 {
			return goTypeFromJSONType(union[0])
		}
		return "interface{}"
	}
	jt, ok := jsonType.(string)
	if !ok {
		return "interface{}"
	}
	switch jt {
	case "string":
		return "string"
	case "number":
		return "decimal.Decimal"
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	default:
		return "interface{}"
	}
}

// structFields builds fields for the schema properties, sorted by name.
func structFields(schemaObj interface{}) []Field {
	properties := parseSchema(schemaObj)
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]Field, 0, len(names))
	for _, prop := range names {
		details, ok := properties[prop].(map[string]interface{})
		if !ok {
			continue
		}
		f := Field{
			Name:    upperFirst(prop),
			GoType:  goTypeFromJSONType(details["type"]),
			JSONTag: fmt.Sprintf("`json:\"%s\"`", prop),
		}
		if desc, ok := details["description"].(string); ok && desc != "" {
			f.Comment = " // " + desc
		}
		fields = append(fields, f)
	}
	return fields
}

// upperFirst makes the first character uppercase
func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const configTemplate = `// internal/workers/{{ .Dir }}/config.go
package {{ .PackageName }}

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .Timeout }},
	}
}
`

const modelsTemplate = `// internal/workers/{{ .Dir }}/models.go
package {{ .PackageName }}
{{ if .NeedsDecimal }}
import "github.com/shopspring/decimal"
{{ end }}
type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}{{ .Comment }}
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .GoType }} {{ .JSONTag }}{{ .Comment }}
{{- end }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"time"

	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/common/observability"
	"assessment-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TaskType = "{{ .TaskType }}"

type Dependencies struct {
	Validator     *validation.Validator
	Observability *observability.Observability
}

type Handler struct {
	config       *Config
	deps         Dependencies
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, deps Dependencies, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		deps:         deps,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.deps.Observability.StartSpan(ctx, TaskType, attribute.Int64("job.key", job.Key))
	defer span.End()

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
}

// Execute {{ .Description }}
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Output{}, nil
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
`

const testTemplate = `package {{ .PackageName }}

import (
	"context"
	"testing"

	"assessment-workers/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(LoadConfig(), Dependencies{}, logger.NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.NotNil(t, out)
}

func TestHandler_Execute_Cancelled(t *testing.T) {
	h := NewHandler(LoadConfig(), Dependencies{}, logger.NewNoOpLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, &Input{})
	assert.ErrorIs(t, err, context.Canceled)
}
`

var templates = []struct {
	file string
	body string
}{
	{"config.go", configTemplate},
	{"models.go", modelsTemplate},
	{"handler.go", handlerTemplate},
	{"handler_test.go", testTemplate},
}

func main() {
	fs := flag.NewFlagSet("worker-generator", flag.ExitOnError)
	activity := fs.String("activity", "", "Activity ID from registry (e.g., resolve-assessment-level)")
	outputDir := fs.String("output", "./internal/workers/", "Output directory for the generated worker")
	registryPath := fs.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := fs.Bool("force", false, "Overwrite an existing worker directory")
	_ = fs.Parse(os.Args[1:])

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		fmt.Println("\nExample:")
		fmt.Println("  go run ./cmd/tools/worker-generator -activity resolve-assessment-level")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}
	act, ok := reg.FindByID(*activity)
	if !ok {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	if _, err := generate(act, *outputDir, *force, os.Stdout); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nNext steps:\n")
	fmt.Printf("  1. Implement Execute in handler.go\n")
	fmt.Printf("  2. Register the worker in cmd/worker-manager/main.go\n")
	fmt.Printf("  3. Add the task type under workers: in configs/config.yaml\n")
}

// newWorkerData derives template data from a registry activity.
func newWorkerData(act *registry.Activity) WorkerData {
	dir := filepath.ToSlash(filepath.Join(strings.ToLower(act.Category), act.ID))
	timeout := "10 * time.Second"
	if d, err := parseTimeout(act.Timeout); err == nil {
		timeout = d
	}
	return WorkerData{
		Name:         act.DisplayName,
		PackageName:  strings.ReplaceAll(act.ID, "-", ""),
		Dir:          dir,
		TaskType:     act.TaskType,
		Description:  strings.TrimSpace(act.Description),
		Category:     act.Category,
		Timeout:      timeout,
		Retries:      act.Retries,
		InputFields:  structFields(act.InputSchema),
		OutputFields: structFields(act.OutputSchema),
	}
}

// parseTimeout renders a registry timeout such as "10s" as a Go duration expression.
func parseTimeout(s string) (string, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return "", err
	}
	if d <= 0 {
		return "", fmt.Errorf("timeout must be positive: %s", s)
	}
	if d%time.Second == 0 {
		return fmt.Sprintf("%d * time.Second", d/time.Second), nil
	}
	return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond), nil
}

// generate writes the worker scaffold for act under outputDir and returns the written paths.
func generate(act *registry.Activity, outputDir string, force bool, out io.Writer) ([]string, error) {
	if act.Category == "" {
		return nil, fmt.Errorf("activity %s has no category", act.ID)
	}
	data := newWorkerData(act)
	workerDir := filepath.Join(outputDir, filepath.FromSlash(data.Dir))

	if _, err := os.Stat(workerDir); err == nil && !force {
		return nil, fmt.Errorf("%s already exists, use -force to overwrite", workerDir)
	}
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		return nil, fmt.Errorf("create worker directory: %w", err)
	}

	written := make([]string, 0, len(templates))
	for _, t := range templates {
		tmpl, err := template.New(t.file).Parse(t.body)
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", t.file, err)
		}

		path := filepath.Join(workerDir, t.file)
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", path, err)
		}
		err = tmpl.Execute(f, data)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return written, fmt.Errorf("render %s: %w", path, err)
		}

		written = append(written, path)
		fmt.Fprintf(out, "✓ Generated %s\n", path)
	}
	return written, nil
}
