// Package repository persists topology graph history. Each saved record is a
// positioned graph for one workload at one point in time; listings return
// summaries without the serialized graph body.
package repository

import (
	"context"
	"errors"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// ErrNotFound is returned when a graph record does not exist.
var ErrNotFound = errors.New("graph record not found")

// HistoryRepository stores and retrieves topology graph snapshots.
type HistoryRepository interface {
	// SaveGraph persists a record. A missing ID is filled in.
	SaveGraph(ctx context.Context, rec *models.GraphRecord) error
	// GetGraph returns one record including the graph body.
	GetGraph(ctx context.Context, id string) (*models.GraphRecord, error)
	// ListGraphs returns newest-first summaries for a workload.
	ListGraphs(ctx context.Context, cluster, namespace string, kind models.WorkloadKind, name string, limit int) ([]*models.GraphRecordSummary, error)
	// Prune deletes all but the newest keep records for a workload.
	// keep <= 0 is a no-op.
	Prune(ctx context.Context, cluster, namespace string, kind models.WorkloadKind, name string, keep int) error

	Ping(ctx context.Context) error
	Close() error
}
