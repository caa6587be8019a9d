package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
	models "github.com/Schera-ole/obsmetrics/internal/model"
)

// retryDelays are the pauses before each retry of a failed statement.
var retryDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

// DBStorage implements the Repository interface on PostgreSQL.
type DBStorage struct {
	db     *sql.DB
	delays []time.Duration
}

// NewDBStorage opens a pgx connection pool for dsn.
func NewDBStorage(dsn string) (*DBStorage, error) {
	dbConnect, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", internalerrors.ErrDatabaseConnection, err)
	}
	return newDBStorage(dbConnect, retryDelays), nil
}

func newDBStorage(db *sql.DB, delays []time.Duration) *DBStorage {
	return &DBStorage{db: db, delays: delays}
}

func (storage *DBStorage) Close() error {
	return storage.db.Close()
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgErr.Code == pgerrcode.SerializationFailure ||
			pgErr.Code == pgerrcode.DeadlockDetected
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset by peer") ||
		strings.Contains(errStr, "network is unreachable")
}

// withRetry runs op, retrying connection-class failures after each configured delay.
func (storage *DBStorage) withRetry(ctx context.Context, op func() error) error {
	err := op()
	for _, delay := range storage.delays {
		if err == nil || !isRetryableError(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		err = op()
	}
	return err
}

func (storage *DBStorage) exec(ctx context.Context, query string, args ...any) error {
	err := storage.withRetry(ctx, func() error {
		_, err := storage.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %w", internalerrors.ErrQueryExecution, err)
	}
	return nil
}

func (storage *DBStorage) SetMetric(ctx context.Context, name string, value int64) error {
	query := `INSERT INTO metrics (name, value, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if err := storage.exec(ctx, query, name, value); err != nil {
		return fmt.Errorf("error saving metric: %w", err)
	}
	return nil
}

func (storage *DBStorage) DeleteMetric(ctx context.Context, name string) error {
	if err := storage.exec(ctx, "DELETE FROM metrics WHERE name = $1", name); err != nil {
		return fmt.Errorf("error deleting metric: %w", err)
	}
	return nil
}

func (storage *DBStorage) ListMetrics(ctx context.Context) ([]models.Metric, error) {
	var metrics []models.Metric
	err := storage.withRetry(ctx, func() error {
		metrics = nil
		rows, err := storage.db.QueryContext(ctx, "SELECT name, value FROM metrics ORDER BY name")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var metric models.Metric
			if err := rows.Scan(&metric.Name, &metric.Value); err != nil {
				return fmt.Errorf("error scanning metric: %w", err)
			}
			metrics = append(metrics, metric)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving metrics: %w", err)
	}
	return metrics, nil
}

func (storage *DBStorage) SetAgent(ctx context.Context, id string, agent models.Agent) error {
	query := `INSERT INTO agents (id, ip, port, created_at, updated_at) VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET ip = EXCLUDED.ip, port = EXCLUDED.port, updated_at = NOW()`
	if err := storage.exec(ctx, query, id, agent.IP, agent.Port); err != nil {
		return fmt.Errorf("error saving agent: %w", err)
	}
	return nil
}

func (storage *DBStorage) DeleteAgent(ctx context.Context, id string) error {
	if err := storage.exec(ctx, "DELETE FROM agents WHERE id = $1", id); err != nil {
		return fmt.Errorf("error deleting agent: %w", err)
	}
	return nil
}

func (storage *DBStorage) ListAgents(ctx context.Context) (map[string]models.Agent, error) {
	agents := make(map[string]models.Agent)
	err := storage.withRetry(ctx, func() error {
		clear(agents)
		rows, err := storage.db.QueryContext(ctx, "SELECT id, ip, port FROM agents")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var id string
			var agent models.Agent
			if err := rows.Scan(&id, &agent.IP, &agent.Port); err != nil {
				return fmt.Errorf("error scanning agent: %w", err)
			}
			agents[id] = agent
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("error retrieving agents: %w", err)
	}
	return agents, nil
}

func (storage *DBStorage) Ping(ctx context.Context) error {
	err := storage.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", internalerrors.ErrDatabaseConnection, err)
	}
	return nil
}
