package broadcast

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wfunc/sweeper/network"
	"github.com/wfunc/sweeper/protocol"
)

type mockConn struct {
	id       string
	received []*network.Packet
	sendErr  error
	closed   bool
	mu       sync.Mutex
}

func (m *mockConn) ID() string { return m.id }

func (m *mockConn) Send(p *network.Packet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, p)
	return nil
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, p := range m.received {
		out = append(out, p.Event)
	}
	return out
}

func newHubWith(ids ...string) (*Hub, map[string]*mockConn) {
	h := NewHub()
	conns := make(map[string]*mockConn)
	for _, id := range ids {
		c := &mockConn{id: id}
		conns[id] = c
		h.Register(c)
	}
	return h, conns
}

func TestHub_EmitTo(t *testing.T) {
	h, conns := newHubWith("a", "b")

	h.EmitTo("a", protocol.InitializeUser{ID: "a"})
	h.EmitTo("ghost", protocol.InitializeUser{ID: "ghost"})

	require.Len(t, conns["a"].received, 1)
	assert.Empty(t, conns["b"].received)

	p := conns["a"].received[0]
	assert.Equal(t, protocol.EventInitializeUser, p.Event)
	assert.JSONEq(t, `"a"`, string(p.Data))
}

func TestHub_EmitToRoomExceptSender(t *testing.T) {
	tests := []struct {
		name   string
		groups map[string][]string
		sender string
		want   map[string]int
	}{
		{
			name:   "room members except sender",
			groups: map[string][]string{"1000": {"a", "b", "c"}},
			sender: "a",
			want:   map[string]int{"a": 0, "b": 1, "c": 1},
		},
		{
			name:   "no cross-room delivery",
			groups: map[string][]string{"1000": {"a"}, "2000": {"b", "c"}},
			sender: "a",
			want:   map[string]int{"a": 0, "b": 0, "c": 0},
		},
		{
			name:   "sender outside the room",
			groups: map[string][]string{"1000": {"b"}},
			sender: "a",
			want:   map[string]int{"a": 0, "b": 1, "c": 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, conns := newHubWith("a", "b", "c")
			for code, ids := range tt.groups {
				for _, id := range ids {
					h.JoinGroup(id, code)
				}
			}

			h.EmitToRoomExceptSender("1000", tt.sender, protocol.RemoveSocket{ID: tt.sender})

			for id, n := range tt.want {
				assert.Len(t, conns[id].received, n, "connection %s", id)
			}
		})
	}
}

func TestHub_EmitToRoom(t *testing.T) {
	h, conns := newHubWith("a", "b")
	h.JoinGroup("a", "4321")
	h.JoinGroup("b", "4321")

	h.EmitToRoom("4321", protocol.RoomMembership{
		ConnectionID: "b",
		Room:         protocol.RoomSnapshot{Code: "4321", MemberIDs: []string{"a", "b"}},
	})

	for _, id := range []string{"a", "b"} {
		require.Len(t, conns[id].received, 1)
		var got protocol.RoomMembership
		require.NoError(t, json.Unmarshal(conns[id].received[0].Data, &got))
		assert.Equal(t, "b", got.ConnectionID)
		assert.Equal(t, []string{"a", "b"}, got.Room.MemberIDs)
	}
}

func TestHub_SendErrorDoesNotStopMulticast(t *testing.T) {
	h, conns := newHubWith("a", "b", "c")
	conns["b"].sendErr = network.ErrSendBufferFull
	for _, id := range []string{"a", "b", "c"} {
		h.JoinGroup(id, "1111")
	}

	h.EmitToRoom("1111", protocol.BroadcastInitializeUser{ID: "z"})

	assert.Equal(t, []string{protocol.EventBroadcastInitializeUser}, conns["a"].events())
	assert.Empty(t, conns["b"].events())
	assert.Equal(t, []string{protocol.EventBroadcastInitializeUser}, conns["c"].events())
}

func TestHub_GroupsAndStats(t *testing.T) {
	h, _ := newHubWith("a", "b")
	h.JoinGroup("b", "1000")
	h.JoinGroup("a", "1000")
	h.JoinGroup("a", "2000")

	assert.Equal(t, []string{"a", "b"}, h.Members("1000"))
	assert.Equal(t, Stats{Connections: 2, Groups: 2}, h.Stats())

	h.LeaveGroup("a", "2000")
	h.LeaveGroup("a", "9999")
	assert.Equal(t, 1, h.Stats().Groups)

	h.Unregister("a")
	assert.Equal(t, []string{"b"}, h.Members("1000"))
	assert.Equal(t, Stats{Connections: 1, Groups: 1}, h.Stats())
}

func TestHub_ConcurrentAccess(t *testing.T) {
	h := NewHub()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := &mockConn{id: string(rune('A' + i%26))}
			h.Register(c)
			h.JoinGroup(c.id, "1000")
			h.EmitToRoom("1000", protocol.RemoveSocket{ID: c.id})
			_ = h.Stats()
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, h.Stats().Connections, 26)
}

func TestHub_Close(t *testing.T) {
	h, conns := newHubWith("a", "b")
	h.JoinGroup("a", "1000")

	h.Close("a")
	h.Close("ghost")

	assert.True(t, conns["a"].closed)
	assert.False(t, conns["b"].closed)
	assert.Equal(t, []string{"a"}, h.Members("1000"), "close leaves membership to Unregister")
}
