package models

import (
	"encoding/json"
	"time"
)

// GraphRecord is a persisted point-in-time topology graph for one workload.
// Data holds the positioned TopologyGraph as JSON.
type GraphRecord struct {
	ID        string          `json:"id" db:"id"`
	Cluster   string          `json:"cluster" db:"cluster"`
	Namespace string          `json:"namespace" db:"namespace"`
	Kind      WorkloadKind    `json:"kind" db:"kind"`
	Name      string          `json:"name" db:"name"`
	NodeCount int             `json:"nodeCount" db:"node_count"`
	EdgeCount int             `json:"edgeCount" db:"edge_count"`
	Data      json.RawMessage `json:"data,omitempty" db:"data"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// GraphRecordSummary is a GraphRecord without the serialized graph, for
// history listings.
type GraphRecordSummary struct {
	ID        string       `json:"id" db:"id"`
	Cluster   string       `json:"cluster" db:"cluster"`
	Namespace string       `json:"namespace" db:"namespace"`
	Kind      WorkloadKind `json:"kind" db:"kind"`
	Name      string       `json:"name" db:"name"`
	NodeCount int          `json:"nodeCount" db:"node_count"`
	EdgeCount int          `json:"edgeCount" db:"edge_count"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}
