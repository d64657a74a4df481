package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpmanager/internal/manager"
	"cpmanager/pkg/types"
)

func newContext(t *testing.T) (*Context, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := New(Config{Registerer: reg, ServiceName: "CpManagerMonitor", AdapterName: "CpManagerMonitorAdapter"})
	require.NoError(t, err)
	return c, reg
}

func TestPublishTracksState(t *testing.T) {
	c, _ := newContext(t)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.state.WithLabelValues("LOADED")))

	c.Publish(manager.Event{Name: "startup", State: types.StateStandby})
	c.Publish(manager.Event{Name: "activate_done", State: types.StateOnline})

	assert.Equal(t, 0.0, testutil.ToFloat64(c.state.WithLabelValues("LOADED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.state.WithLabelValues("ONLINE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("startup")))
}

func TestObserveDispatch(t *testing.T) {
	c, _ := newContext(t)
	c.ObserveDispatch("process", "ok", 20*time.Millisecond)
	c.ObserveDispatch("process", "error", 0)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("process", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.notifications.WithLabelValues("process", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.dispatch))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	_, reg := newContext(t)
	_, err := New(Config{Registerer: reg, ServiceName: "CpManagerMonitor", AdapterName: "CpManagerMonitorAdapter"})
	require.Error(t, err)
}

func TestDestroyUnregisters(t *testing.T) {
	c, reg := newContext(t)
	require.NoError(t, c.Destroy())
	require.NoError(t, c.Destroy())

	c.Publish(manager.Event{Name: "startup", State: types.StateStandby})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.transitions.WithLabelValues("startup")))

	again, err := New(Config{Registerer: reg, ServiceName: "CpManagerMonitor", AdapterName: "CpManagerMonitorAdapter"})
	require.NoError(t, err, "collectors can be registered again after destroy")
	require.NoError(t, again.Destroy())
}
