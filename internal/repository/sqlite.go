package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// SQLiteRepository implements HistoryRepository on SQLite. This is the default
// store; a single file, no external service.
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sqlx.Connect("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SQLite: %w", err)
	}

	// WAL lets the HTTP handlers read while the watcher goroutine writes.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ping verifies database connectivity.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RunMigrations applies every *.sql file in migrationFS in name order.
// Migrations are idempotent (CREATE ... IF NOT EXISTS).
func (r *SQLiteRepository) RunMigrations(migrationFS fs.FS) error {
	return runMigrations(r.db, migrationFS)
}

func runMigrations(db *sqlx.DB, migrationFS fs.FS) error {
	names, err := fs.Glob(migrationFS, "*.sql")
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		sqlBytes, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			return fmt.Errorf("migration %s failed: %w", name, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) SaveGraph(ctx context.Context, rec *models.GraphRecord) error {
	return saveGraph(ctx, r.db, rec)
}

func (r *SQLiteRepository) GetGraph(ctx context.Context, id string) (*models.GraphRecord, error) {
	return getGraph(ctx, r.db, id)
}

func (r *SQLiteRepository) ListGraphs(ctx context.Context, cluster, namespace string, kind models.WorkloadKind, name string, limit int) ([]*models.GraphRecordSummary, error) {
	return listGraphs(ctx, r.db, cluster, namespace, kind, name, limit)
}

func (r *SQLiteRepository) Prune(ctx context.Context, cluster, namespace string, kind models.WorkloadKind, name string, keep int) error {
	return pruneGraphs(ctx, r.db, cluster, namespace, kind, name, keep)
}

// Shared query bodies. sqlx.Rebind converts the ? placeholders for whichever
// driver backs the *sqlx.DB, so SQLite and Postgres run the same SQL.

func saveGraph(ctx context.Context, db *sqlx.DB, rec *models.GraphRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := db.Rebind(`
		INSERT INTO graph_records (id, cluster, namespace, kind, name, node_count, edge_count, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	return instrumentQuery("save_graph", func() error {
		_, err := db.ExecContext(ctx, query,
			rec.ID, rec.Cluster, rec.Namespace, rec.Kind, rec.Name,
			rec.NodeCount, rec.EdgeCount, string(rec.Data), rec.CreatedAt,
		)
		return err
	})
}

func getGraph(ctx context.Context, db *sqlx.DB, id string) (*models.GraphRecord, error) {
	var rec models.GraphRecord
	query := db.Rebind(`SELECT * FROM graph_records WHERE id = ?`)
	err := instrumentQuery("get_graph", func() error {
		return db.GetContext(ctx, &rec, query, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func listGraphs(ctx context.Context, db *sqlx.DB, cluster, namespace string, kind models.WorkloadKind, name string, limit int) ([]*models.GraphRecordSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []*models.GraphRecordSummary
	query := db.Rebind(`
		SELECT id, cluster, namespace, kind, name, node_count, edge_count, created_at
		FROM graph_records
		WHERE cluster = ? AND namespace = ? AND kind = ? AND name = ?
		ORDER BY created_at DESC
		LIMIT ?
	`)
	err := instrumentQuery("list_graphs", func() error {
		return db.SelectContext(ctx, &recs, query, cluster, namespace, kind, name, limit)
	})
	return recs, err
}

func pruneGraphs(ctx context.Context, db *sqlx.DB, cluster, namespace string, kind models.WorkloadKind, name string, keep int) error {
	if keep <= 0 {
		return nil
	}
	query := db.Rebind(`
		DELETE FROM graph_records
		WHERE cluster = ? AND namespace = ? AND kind = ? AND name = ?
		AND id NOT IN (
			SELECT id FROM graph_records
			WHERE cluster = ? AND namespace = ? AND kind = ? AND name = ?
			ORDER BY created_at DESC
			LIMIT ?
		)
	`)
	return instrumentQuery("prune_graphs", func() error {
		_, err := db.ExecContext(ctx, query,
			cluster, namespace, kind, name,
			cluster, namespace, kind, name, keep,
		)
		return err
	})
}
