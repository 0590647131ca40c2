package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestOp(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Op("create", nil)
	m.Op("create", nil)
	m.Op("create", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ProductOps.WithLabelValues("create", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProductOps.WithLabelValues("create", "failure")))
}

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.OwnershipViolations.WithLabelValues("update").Inc()
	m.ImageCleanup.WithLabelValues("deleted").Inc()

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Panics(t, func() { New(reg) }, "registering twice must fail loudly")
}
