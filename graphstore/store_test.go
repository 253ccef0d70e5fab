package graphstore

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/booknet/bookgraph/metric"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid",
			config:  Config{URI: "neo4j://localhost:7687", Username: "neo4j", Password: "secret", Database: "booknet"},
			wantErr: false,
		},
		{
			name:    "missing uri",
			config:  Config{Database: "booknet"},
			wantErr: true,
		},
		{
			name:    "missing database",
			config:  Config{URI: "neo4j://localhost:7687"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestObserveRecordsOperationLatency(t *testing.T) {
	m := metric.NewMetrics()
	s := &Neo4jStore{}
	s.SetMetrics(m)

	// Transactions carry the store's observer so per-statement latency
	// lands under the same histogram.
	tx := &neo4jTx{observe: s.observe}
	tx.observe("run", time.Now())
	s.observe("begin", time.Now())

	assert.Equal(t, 2, testutil.CollectAndCount(m.StoreOperationDuration))
}

func TestObserveWithoutMetricsIsNoop(t *testing.T) {
	s := &Neo4jStore{}
	assert.NotPanics(t, func() {
		s.observe("ping", time.Now())
	})
}
