package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/andreyxaxa/memories-server/internal/entity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := New(reg)
	require.NoError(t, err)

	m.RecordDerivation(entity.Done, 20*time.Millisecond)
	m.RecordDerivation(entity.Done, 30*time.Millisecond)
	m.RecordDerivation(entity.Skipped, time.Millisecond)
	m.RecordUploadSlot(nil)
	m.RecordUploadSlot(errors.New("boom"))
	m.RecordRedrive(3, nil)
	m.RecordRedrive(0, errors.New("ignored"))
	m.RecordHTTPRequest("GET", "/images/listing", 200)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.derivationEvents.WithLabelValues("done")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.derivationEvents.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadSlots.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.redrivenLetters.WithLabelValues("ok")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.redrivenLetters.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/images/listing", "200")))
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.NoError(t, err)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordDerivation(entity.DeadLettered, time.Second)
		m.RecordDerivationRetry()
		m.RecordUploadSlot(nil)
		m.RecordPresignFailure("GET")
		m.RecordRedrive(1, nil)
		m.RecordHTTPRequest("POST", "/users/login", 400)
	})
}
