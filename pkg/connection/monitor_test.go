package connection

import (
	"testing"
	"time"

	"github.com/killallgit/tessera/pkg/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorStartsDisconnected(t *testing.T) {
	m := NewMonitor(notify.NewCenter(time.Second))
	assert.False(t, m.Connected())
	assert.Equal(t, "disconnected", m.State().String())
	assert.False(t, m.ResendWithHistory())
}

func TestFirstConnectShowsNoRestoredNotice(t *testing.T) {
	notices := notify.NewCenter(time.Minute)
	m := NewMonitor(notices)

	m.Connect()
	assert.True(t, m.Connected())
	assert.Empty(t, notices.Active())
}

func TestDisconnectDuringTurn(t *testing.T) {
	notices := notify.NewCenter(time.Minute)
	m := NewMonitor(notices)
	m.Connect()

	abandoned := m.Disconnect(true)
	assert.True(t, abandoned)
	assert.True(t, m.ResendWithHistory())
	assert.False(t, m.Connected())

	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, ReconnectingMessage, active[0].Message)
	assert.True(t, active[0].Persistent)
}

func TestDisconnectWhileIdleDoesNotFlagResend(t *testing.T) {
	m := NewMonitor(notify.NewCenter(time.Minute))
	m.Connect()

	assert.False(t, m.Disconnect(false))
	assert.False(t, m.ResendWithHistory())
}

func TestReconnectDismissesNoticeAndAnnouncesRestore(t *testing.T) {
	notices := notify.NewCenter(time.Minute)
	m := NewMonitor(notices)
	m.Connect()
	m.Disconnect(false)
	m.Disconnect(false)

	// Repeated disconnects keep a single reconnecting notice
	require.Len(t, notices.Active(), 1)

	m.Connect()
	active := notices.Active()
	require.Len(t, active, 1)
	assert.Equal(t, RestoredMessage, active[0].Message)
	assert.False(t, active[0].Persistent)
	assert.True(t, m.HadDisconnectedOnce())
}

func TestResendFlag(t *testing.T) {
	m := NewMonitor(notify.NewCenter(time.Second))
	m.RequestResend()
	assert.True(t, m.ResendWithHistory())
	m.ClearResend()
	assert.False(t, m.ResendWithHistory())
}
