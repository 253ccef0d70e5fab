package docstore

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/booknet/bookgraph/metric"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{URI: "mongodb://localhost:27017", Database: "booknet"}, false},
		{"missing uri", Config{Database: "booknet"}, true},
		{"missing database", Config{URI: "mongodb://localhost:27017"}, true},
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

func TestInsertedID(t *testing.T) {
	assert.Equal(t, "genre:fantasy", insertedID("genre:fantasy"))

	oid := bson.NewObjectID()
	assert.Equal(t, oid.Hex(), insertedID(oid))
}

func TestObserveRecordsOperationLatency(t *testing.T) {
	m := metric.NewMetrics()
	s := &MongoStore{}
	s.SetMetrics(m)

	s.observe("insert", time.Now())
	s.observe("find_by_id", time.Now())
	s.observe("insert", time.Now())

	assert.Equal(t, 2, testutil.CollectAndCount(m.StoreOperationDuration))
}

func TestObserveWithoutMetricsIsNoop(t *testing.T) {
	s := &MongoStore{}
	assert.NotPanics(t, func() {
		s.observe("insert", time.Now())
	})
}
