package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/valuation"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	SourceFile     = "file"
	SourcePostgres = "postgres"

	cacheKeyPrefix = "catalog:unit-costs:"
)

const unitCostQuery = `
		SELECT construction_type, usage, unit_cost
		FROM construction_unit_costs
		WHERE schedule = $1
		ORDER BY type_rank, usage_rank`

type Config struct {
	Source   string
	Path     string
	Schedule string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// Loader resolves the cost catalog once at startup.
type Loader struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewLoader(config *Config, db *sql.DB, redis *redis.Client, log logger.Logger) *Loader {
	return &Loader{
		config: config,
		db:     db,
		redis:  redis,
		logger: log.WithFields(map[string]interface{}{"component": "catalog", "source": config.Source}),
	}
}

func (l *Loader) Load(ctx context.Context) (*valuation.CostCatalog, error) {
	if l.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.config.Timeout)
		defer cancel()
	}

	var (
		cat *valuation.CostCatalog
		err error
	)
	switch l.config.Source {
	case "", SourceFile:
		cat, err = LoadFile(l.config.Path)
	case SourcePostgres:
		cat, err = l.loadPostgres(ctx)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", l.config.Source)
	}
	if err != nil {
		return nil, err
	}

	l.logger.Info("cost catalog loaded", map[string]interface{}{
		"schedule":          l.config.Schedule,
		"entries":           cat.Len(),
		"constructionTypes": len(cat.ConstructionTypes()),
	})
	return cat, nil
}

// cachedEntry is the Redis representation of one catalog entry.
type cachedEntry struct {
	ConstructionType string          `json:"constructionType"`
	Usage            string          `json:"usage"`
	UnitCost         decimal.Decimal `json:"unitCost"`
}

func (l *Loader) cacheKey() string {
	return cacheKeyPrefix + l.config.Schedule
}

func (l *Loader) loadPostgres(ctx context.Context) (*valuation.CostCatalog, error) {
	if cat, ok := l.fromCache(ctx); ok {
		return cat, nil
	}
	if l.db == nil {
		return nil, fmt.Errorf("catalog source postgres requires a database connection")
	}

	rows, err := l.db.QueryContext(ctx, unitCostQuery, l.config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("query unit costs: %w", err)
	}
	defer rows.Close()

	var entries []valuation.CatalogEntry
	for rows.Next() {
		var (
			ct, usage string
			cost      decimal.NullDecimal
		)
		if err := rows.Scan(&ct, &usage, &cost); err != nil {
			return nil, fmt.Errorf("scan unit cost: %w", err)
		}
		if !cost.Valid {
			continue
		}
		entries = append(entries, valuation.CatalogEntry{ConstructionType: ct, Usage: usage, UnitCost: cost.Decimal})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unit costs: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("schedule %q has no priced entries", l.config.Schedule)
	}

	cat, err := valuation.NewCostCatalog(entries)
	if err != nil {
		return nil, err
	}
	l.storeCache(ctx, cat)
	return cat, nil
}

func (l *Loader) fromCache(ctx context.Context) (*valuation.CostCatalog, bool) {
	if l.redis == nil {
		return nil, false
	}
	val, err := l.redis.Get(ctx, l.cacheKey()).Result()
	if err != nil {
		if err != redis.Nil {
			l.logger.Warn("catalog cache read failed", map[string]interface{}{"error": err.Error()})
		}
		return nil, false
	}

	var cached []cachedEntry
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		l.logger.Warn("catalog cache entry corrupt", map[string]interface{}{"error": err.Error()})
		return nil, false
	}
	entries := make([]valuation.CatalogEntry, len(cached))
	for i, c := range cached {
		entries[i] = valuation.CatalogEntry{ConstructionType: c.ConstructionType, Usage: c.Usage, UnitCost: c.UnitCost}
	}
	cat, err := valuation.NewCostCatalog(entries)
	if err != nil || cat.Len() == 0 {
		l.logger.Warn("catalog cache entry rejected", map[string]interface{}{"error": fmt.Sprint(err)})
		return nil, false
	}

	l.logger.Debug("catalog cache hit", map[string]interface{}{"key": l.cacheKey()})
	return cat, true
}

func (l *Loader) storeCache(ctx context.Context, cat *valuation.CostCatalog) {
	if l.redis == nil {
		return
	}
	data, err := encodeCache(cat)
	if err != nil {
		return
	}
	if err := l.redis.Set(ctx, l.cacheKey(), data, l.config.CacheTTL).Err(); err != nil {
		l.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func encodeCache(cat *valuation.CostCatalog) ([]byte, error) {
	entries := cat.Entries()
	cached := make([]cachedEntry, len(entries))
	for i, e := range entries {
		cached[i] = cachedEntry{ConstructionType: e.ConstructionType, Usage: e.Usage, UnitCost: e.UnitCost}
	}
	return json.Marshal(cached)
}
