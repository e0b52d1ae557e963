package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NilRegisterer(t *testing.T) {
	m := New(nil)
	require.Nil(t, m)

	// All methods are safe on nil.
	m.ObserveOperation(OpInitiate, time.Millisecond, nil)
	m.RecordBytes(OpUploadPart, 10)
	m.RecordTransfer("upload", "single", nil)
	m.SessionOpened()
	m.SessionClosed()
	m.ObserveParts(3)
	m.RecordAbort(errors.New("x"))
}

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	require.NotNil(t, m)

	m.ObserveOperation(OpUploadPart, 5*time.Millisecond, nil)
	m.ObserveOperation(OpUploadPart, 5*time.Millisecond, errors.New("boom"))
	m.RecordBytes(OpUploadPart, 100)
	m.RecordBytes(OpUploadPart, 0)
	m.RecordTransfer("upload", "chunked", nil)
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed()
	m.ObserveParts(4)
	m.RecordAbort(nil)
	m.RecordAbort(errors.New("abort failed"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpUploadPart, "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.operationsTotal.WithLabelValues(OpUploadPart, "error")), 0)
	assert.InDelta(t, 100, testutil.ToFloat64(m.bytesTransferred.WithLabelValues(OpUploadPart)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.transfersTotal.WithLabelValues("upload", "chunked", "success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.activeSessions), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.abortsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.abortFailures), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.partsPerTransfer))
}
