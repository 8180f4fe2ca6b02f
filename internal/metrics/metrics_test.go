package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollectors_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(reg)
	require.NoError(t, err)

	c.Observe("grpc", "batch", 3, 0.01, nil)
	c.Observe("grpc", "batch", 2, 0.02, errors.New("down"))

	require.Equal(t, 1.0, testutil.ToFloat64(c.Requests.WithLabelValues("grpc", "batch", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(c.Requests.WithLabelValues("grpc", "batch", "error")))
	require.Equal(t, 5.0, testutil.ToFloat64(c.Keys.WithLabelValues("grpc")))

	_, err = New(reg)
	require.Error(t, err, "second registration must collide")
}
