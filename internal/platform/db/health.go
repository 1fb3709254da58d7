package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const healthTimeout = 5 * time.Second

// PoolStats summarises connection usage for /health/db.
type PoolStats struct {
	Total       int32   `json:"total"`
	Idle        int32   `json:"idle"`
	InUse       int32   `json:"in_use"`
	Max         int32   `json:"max"`
	Utilization float64 `json:"utilization"`
}

// DBHealth is the /health/db body. SchemaVersion is the highest applied
// migration, 0 when the schema has not been migrated.
type DBHealth struct {
	Status        string    `json:"status"`
	Schema        string    `json:"schema,omitempty"`
	SchemaVersion int       `json:"schema_version"`
	PingLatency   string    `json:"ping_latency,omitempty"`
	Pool          PoolStats `json:"pool"`
}

func newPoolStats(total, idle, inUse, max int32) PoolStats {
	s := PoolStats{Total: total, Idle: idle, InUse: inUse, Max: max}
	if max > 0 {
		s.Utilization = float64(inUse) / float64(max)
	}
	return s
}

func poolStats(pool *pgxpool.Pool) PoolStats {
	st := pool.Stat()
	return newPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns(), st.MaxConns())
}

// schemaVersion reads the highest migration recorded in schema.
func schemaVersion(ctx context.Context, pool *pgxpool.Pool, schema string) (int, error) {
	qs, err := quoteSchema(schema)
	if err != nil {
		return 0, err
	}
	var exists bool
	if err := pool.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, schema+"._migrations").Scan(&exists); err != nil || !exists {
		return 0, err
	}
	var v int
	err = pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM `+qs+`._migrations`).Scan(&v)
	return v, err
}

// HealthHandler pings the database and reports the migration state of
// schema. Failures are logged and answered with 503 without detail.
func HealthHandler(pool *pgxpool.Pool, schema string, logger zerolog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()

		h := DBHealth{Status: "healthy", Schema: schema, Pool: poolStats(pool)}

		start := time.Now()
		if err := pool.Ping(ctx); err != nil {
			logger.Error().Err(err).Msg("database health check failed")
			h.Status = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, h)
		}
		h.PingLatency = time.Since(start).String()

		if schema != "" {
			v, err := schemaVersion(ctx, pool, schema)
			if err != nil {
				logger.Error().Err(err).Str("schema", schema).Msg("reading schema version failed")
				h.Status = "unhealthy"
				return c.JSON(http.StatusServiceUnavailable, h)
			}
			h.SchemaVersion = v
		}

		return c.JSON(http.StatusOK, h)
	}
}
