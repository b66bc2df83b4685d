package repository

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// PostgresRepository implements HistoryRepository on PostgreSQL, for
// deployments where several backend replicas share one history store.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository connects using the given DSN.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection.
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations applies every *.sql file in migrationFS in name order.
func (r *PostgresRepository) RunMigrations(migrationFS fs.FS) error {
	return runMigrations(r.db, migrationFS)
}

func (r *PostgresRepository) SaveGraph(ctx context.Context, rec *models.GraphRecord) error {
	return saveGraph(ctx, r.db, rec)
}

func (r *PostgresRepository) GetGraph(ctx context.Context, id string) (*models.GraphRecord, error) {
	return getGraph(ctx, r.db, id)
}

func (r *PostgresRepository) ListGraphs(ctx context.Context, cluster, namespace string, kind models.WorkloadKind, name string, limit int) ([]*models.GraphRecordSummary, error) {
	return listGraphs(ctx, r.db, cluster, namespace, kind, name, limit)
}

func (r *PostgresRepository) Prune(ctx context.Context, cluster, namespace string, kind models.WorkloadKind, name string, keep int) error {
	return pruneGraphs(ctx, r.db, cluster, namespace, kind, name, keep)
}
