package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCount(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, DropDuration.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestRecordTracked(t *testing.T) {
	before := testutil.ToFloat64(CollectionsTrackedTotal)

	RecordTracked()
	RecordTracked()

	assert.Equal(t, before+2, testutil.ToFloat64(CollectionsTrackedTotal))
}

func TestRecordDrop(t *testing.T) {
	tests := []struct {
		name  string
		phase string
	}{
		{name: "tracked phase", phase: PhaseTracked},
		{name: "prefix phase", phase: PhasePrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := CollectionsDroppedTotal.WithLabelValues(tt.phase)
			before := testutil.ToFloat64(counter)

			RecordDrop(tt.phase)

			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestRecordDropError(t *testing.T) {
	counter := DropErrorsTotal.WithLabelValues(PhasePrefix)
	before := testutil.ToFloat64(counter)

	RecordDropError(PhasePrefix)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestObserveDrop(t *testing.T) {
	before := sampleCount(t)

	ObserveDrop(25 * time.Millisecond)

	assert.Equal(t, before+1, sampleCount(t))
}
