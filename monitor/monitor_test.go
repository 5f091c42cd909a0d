package monitor

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitor_Counters(t *testing.T) {
	m, err := NewMonitor("test")
	require.NoError(t, err)

	m.IncOnlineConnections()
	m.IncOnlineConnections()
	m.DecOnlineConnections()
	m.SetActiveRooms(3)
	m.IncMessagesReceived()
	m.IncMessagesReceived()
	m.IncGamesCreated()
	m.IncGamesFinished("won")
	m.IncGamesFinished("lost")
	m.IncGamesFinished("lost")
	m.IncDroppedMessages()
	m.ObserveMessageLatency(2 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.OnlineConnections))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.metrics.ActiveRooms))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.MessagesReceived))
	assert.Equal(t, int64(2), m.RequestCount())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.GamesCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.GamesFinished.WithLabelValues("won")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.GamesFinished.WithLabelValues("lost")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.DroppedMessages))
	assert.Equal(t, 1, testutil.CollectAndCount(m.metrics.MessageLatency))
}

func TestMonitor_IndependentRegistries(t *testing.T) {
	a, err := NewMonitor("test")
	require.NoError(t, err)
	b, err := NewMonitor("test")
	require.NoError(t, err)

	a.IncGamesCreated()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.metrics.GamesCreated))
}

func TestMonitor_Handler(t *testing.T) {
	m, err := NewMonitor("sweeper")
	require.NoError(t, err)
	m.SetActiveRooms(7)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "sweeper_active_rooms 7"))
}
