package repository

import (
	"time"

	"github.com/PrasadTelasula/kaptivan-sub002/internal/pkg/metrics"
)

// instrumentQuery wraps a database query with timing metrics.
func instrumentQuery(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	return err
}
