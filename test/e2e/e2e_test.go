// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"assessment-workers/internal/catalog"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/database"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/observability"
	"assessment-workers/internal/common/validation"
	"assessment-workers/internal/models"
	"assessment-workers/internal/valuation"
	"assessment-workers/pkg/registry"

	ca "assessment-workers/internal/workers/appraisal/compute-appraisal"
	lau "assessment-workers/internal/workers/appraisal/list-available-usages"
	cas "assessment-workers/internal/workers/assessment/calculate-assessment"
	ral "assessment-workers/internal/workers/assessment/resolve-assessment-level"
)

const (
	processID    = "property-assessment"
	bpmnPath     = "testdata/property-assessment.bpmn"
	registryPath = "../../configs/activity-registry.json"
)

var zapLog *zap.Logger

func TestMain(m *testing.M) {
	decimal.MarshalJSONWithoutQuotes = true
	zapLog, _ = zap.NewDevelopment()

	code := m.Run()
	_ = zapLog.Sync()
	os.Exit(code)
}

// requireServices skips unless E2E_ENABLED is set; the run needs a Zeebe gateway and, for
// the postgres catalog, a database.
func requireServices(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("E2E_ENABLED") == "" {
		t.Skip("E2E_ENABLED not set")
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func loadValidator(t testing.TB) *validation.Validator {
	t.Helper()
	reg, err := registry.LoadRegistry(registryPath)
	require.NoError(t, err)
	v, err := validation.NewValidator(reg)
	require.NoError(t, err)
	return v
}

func TestFullE2E(t *testing.T) {
	cfg := requireServices(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log := logger.NewZapAdapter(zapLog)

	zeebe, err := camunda.NewClientWithConfig(camunda.ClientConfigFrom(cfg.Camunda))
	require.NoError(t, err, "zeebe connection failed")
	defer zeebe.Close()
	require.NoError(t, zeebe.HealthCheck(ctx))

	costs := loadCatalog(t, ctx, cfg, log)
	deployProcess(t, ctx, zeebe)

	policy, err := cfg.Valuation.Policy()
	require.NoError(t, err)
	obs := observability.New("assessment-workers-e2e")
	defer obs.Shutdown()
	v := loadValidator(t)

	computeHandler, err := ca.NewHandler(ca.LoadConfig(), ca.Dependencies{
		Catalog: costs, Policy: policy, Validator: v, Observability: obs,
	}, log)
	require.NoError(t, err)
	calculateHandler, err := cas.NewHandler(cas.LoadConfig(), cas.Dependencies{
		Catalog: costs, Policy: policy, Validator: v, Observability: obs,
	}, log)
	require.NoError(t, err)

	pool := camunda.NewPool(zeebe.GetClient(), log)
	defer pool.Close()
	pool.Start(ca.TaskType, config.GetWorkerConfig(cfg, ca.TaskType), computeHandler.Handle)
	pool.Start(cas.TaskType, config.GetWorkerConfig(cfg, cas.TaskType), calculateHandler.Handle)

	t.Run("residential with additional items", func(t *testing.T) {
		vars := map[string]interface{}{
			"lineItems": []map[string]interface{}{{
				"id": "main", "area": 100, "constructionType": "I-A", "usage": "residential",
				"smvPercent": 100, "depreciationPercent": 12,
			}},
			"buildingCategory":        "residential",
			"effectiveQuarter":        "QTR2",
			"effectiveYear":           time.Now().Year() + 1,
			"additionalItemsSubtotal": 50000,
		}

		out := runProcess(t, ctx, zeebe, vars)

		assert.True(t, decimal.NewFromInt(149600).Equal(out.Appraisal.TotalMarketValue), "appraisal %s", out.Appraisal.TotalMarketValue)
		assert.Equal(t, "residential", out.Assessment.BuildingCategory)
		assert.Equal(t, "QTR2", out.Assessment.EffectiveQuarter)
		assert.True(t, decimal.NewFromInt(199600).Equal(out.Assessment.MarketValue))
		require.True(t, out.Assessment.AssessmentLevelPercent.Valid)
		assert.True(t, decimal.NewFromInt(10).Equal(out.Assessment.AssessmentLevelPercent.Decimal))
		assert.True(t, decimal.NewFromInt(19960).Equal(out.Assessment.AssessmentValue))
	})

	t.Run("unpriced line item", func(t *testing.T) {
		vars := map[string]interface{}{
			"lineItems":        []map[string]interface{}{{"id": "annex", "area": 40, "constructionType": "II-A", "usage": "institutional"}},
			"buildingCategory": "commercial",
		}

		out := runProcess(t, ctx, zeebe, vars)

		assert.Equal(t, []string{"annex"}, out.UnpricedItems)
		assert.True(t, out.Assessment.MarketValue.IsZero())
		assert.False(t, out.Assessment.AssessmentLevelPercent.Valid)
	})
}

// processResult holds the process variables this run asserts on.
type processResult struct {
	Appraisal     models.AggregateResult        `json:"appraisal"`
	Assessment    models.AssessmentRecordResult `json:"assessment"`
	UnpricedItems []string                      `json:"unpricedItems"`
}

func runProcess(t *testing.T, ctx context.Context, zeebe *camunda.Client, vars map[string]interface{}) processResult {
	t.Helper()

	res, err := zeebe.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		cmd, err := zeebe.GetClient().NewCreateInstanceCommand().
			BPMNProcessId(processID).
			LatestVersion().
			VariablesFromObject(vars)
		if err != nil {
			return nil, err
		}
		return cmd.WithResult().Send(ctx)
	}, "create property-assessment instance")
	require.NoError(t, err)

	resp, ok := res.(*pb.CreateProcessInstanceWithResultResponse)
	require.True(t, ok)

	var out processResult
	require.NoError(t, json.Unmarshal([]byte(resp.Variables), &out), resp.Variables)
	return out
}

func deployProcess(t *testing.T, ctx context.Context, zeebe *camunda.Client) {
	t.Helper()
	_, err := zeebe.ExecuteWithRetry(ctx, func(ctx context.Context) (interface{}, error) {
		return zeebe.GetClient().NewDeployResourceCommand().AddResourceFile(bpmnPath).Send(ctx)
	}, "deploy "+bpmnPath)
	require.NoError(t, err, "deploy failed")
	t.Logf("deployed %s", bpmnPath)
}

// loadCatalog seeds and reads the postgres schedule when the config selects it, and the
// file schedule otherwise.
func loadCatalog(t *testing.T, ctx context.Context, cfg *config.Config, log logger.Logger) *valuation.CostCatalog {
	t.Helper()
	catCfg := cfg.Valuation.Catalog

	if catCfg.Source != config.CatalogSourcePostgres {
		cat, err := catalog.NewLoader(&catalog.Config{Source: catCfg.Source, Path: catCfg.Path}, nil, nil, log).Load(ctx)
		require.NoError(t, err)
		return cat
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })
	require.NoError(t, pg.Ping(ctx), "postgres ping failed")

	var rdb *database.RedisClient
	if cfg.Database.Redis.Enabled() {
		rdb, err = database.NewRedis(cfg.Database.Redis)
		require.NoError(t, err)
		t.Cleanup(func() { rdb.Close() })
	}

	seed, err := catalog.LoadFile(catCfg.Path)
	require.NoError(t, err)
	n, err := catalog.Seed(ctx, pg.GetDB(), rdb.GetClient(), catCfg.Schedule, seed)
	require.NoError(t, err)
	t.Logf("seeded %d unit costs into schedule %s", n, catCfg.Schedule)

	cat, err := catalog.NewLoader(&catalog.Config{
		Source:   catCfg.Source,
		Schedule: catCfg.Schedule,
		CacheTTL: catCfg.CacheTTLDuration(),
		Timeout:  catCfg.TimeoutDuration(),
	}, pg.GetDB(), rdb.GetClient(), log).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, seed.Len(), cat.Len())
	return cat
}

// TestHandlers_AgainstConfiguredCatalog runs every handler's Execute against the configured
// schedule without a broker.
func TestHandlers_AgainstConfiguredCatalog(t *testing.T) {
	cfg := requireServices(t)
	ctx := context.Background()
	log := logger.NewZapAdapter(zapLog)
	costs := loadCatalog(t, ctx, cfg, log)
	v := loadValidator(t)

	t.Run(lau.TaskType, func(t *testing.T) {
		h, err := lau.NewHandler(lau.LoadConfig(), lau.Dependencies{Catalog: costs, Validator: v}, log)
		require.NoError(t, err)
		out, err := h.Execute(ctx, &lau.Input{})
		require.NoError(t, err)
		assert.Equal(t, costs.ConstructionTypes(), out.ConstructionTypes)
	})

	t.Run(ral.TaskType, func(t *testing.T) {
		h := ral.NewHandler(ral.LoadConfig(), ral.Dependencies{Validator: v}, log)
		out, err := h.Execute(ctx, &ral.Input{BuildingCategory: "commercial", MarketValue: decimal.NewFromInt(300000)})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(105000).Equal(out.AssessmentValue))
	})
}

func BenchmarkHandler_CalculateAssessment(b *testing.B) {
	costs, err := catalog.Default()
	require.NoError(b, err)
	h, err := cas.NewHandler(cas.LoadConfig(), cas.Dependencies{
		Catalog:   costs,
		Policy:    valuation.DefaultPolicy(),
		Validator: loadValidator(b),
	}, logger.NewNoOpLogger())
	require.NoError(b, err)

	area := decimal.NewFromInt(120)
	input := &cas.Input{
		LineItems: []models.LineItemInput{
			{ID: "main", Area: &area, ConstructionType: "II-A", Usage: "commercial"},
			{ID: "annex", Area: &area, ConstructionType: "I-A", Usage: "residential"},
		},
		BuildingCategory: "commercial",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := h.Execute(context.Background(), input); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkResolver_Resolve(b *testing.B) {
	r := valuation.DefaultResolver()
	mv := decimal.NewFromInt(1234567)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Resolve(valuation.CategoryResidential, mv)
	}
}
