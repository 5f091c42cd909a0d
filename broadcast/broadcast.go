// broadcast/broadcast.go
package broadcast

import (
	"sort"
	"sync"

	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/network"
	"github.com/wfunc/sweeper/protocol"
)

// Conn is the part of a transport connection the hub writes to.
type Conn interface {
	ID() string
	Send(packet *network.Packet) error
	Close() error
}

// Stats is a point-in-time count of what the hub holds.
type Stats struct {
	Connections int `json:"connections"`
	Groups      int `json:"groups"`
}

// Hub keeps the live connections and their multicast groups. Emits to an
// unknown connection or group are dropped.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Conn
	groups map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]Conn),
		groups: make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn.ID()] = conn
}

// Unregister forgets the connection and removes it from every group.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
	for code, members := range h.groups {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, code)
		}
	}
}

func (h *Hub) JoinGroup(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[code]
	if !ok {
		members = make(map[string]struct{})
		h.groups[code] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) LeaveGroup(connID, code string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[code]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, code)
	}
}

// Close closes the connection's transport. The hub keeps it registered until
// Unregister.
func (h *Hub) Close(connID string) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := conn.Close(); err != nil {
		logger.Log.Debugf("close %s: %v", connID, err)
	}
}

// Members lists a group's connection ids in sorted order.
func (h *Hub) Members(code string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.groups[code]))
	for id := range h.groups[code] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Connections: len(h.conns), Groups: len(h.groups)}
}

func (h *Hub) EmitTo(connID string, msg protocol.Outbound) {
	h.mu.RLock()
	conn, ok := h.conns[connID]
	h.mu.RUnlock()
	if !ok {
		logger.Log.Debugf("drop %q for unknown connection %s", msg.Event(), connID)
		return
	}

	packet, err := network.NewPacket(msg.Event(), msg)
	if err != nil {
		logger.Log.Errorf("encode %q: %v", msg.Event(), err)
		return
	}
	h.send(conn, packet)
}

func (h *Hub) EmitToRoom(code string, msg protocol.Outbound) {
	h.EmitToRoomExceptSender(code, "", msg)
}

// EmitToRoomExceptSender multicasts msg to the group, skipping senderID.
func (h *Hub) EmitToRoomExceptSender(code, senderID string, msg protocol.Outbound) {
	targets := h.targets(code, senderID)
	if len(targets) == 0 {
		return
	}

	packet, err := network.NewPacket(msg.Event(), msg)
	if err != nil {
		logger.Log.Errorf("encode %q: %v", msg.Event(), err)
		return
	}
	for _, conn := range targets {
		h.send(conn, packet)
	}
}

func (h *Hub) targets(code, exclude string) []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []Conn
	for id := range h.groups[code] {
		if id == exclude {
			continue
		}
		if conn, ok := h.conns[id]; ok {
			out = append(out, conn)
		}
	}
	return out
}

func (h *Hub) send(conn Conn, packet *network.Packet) {
	if err := conn.Send(packet); err != nil {
		logger.Log.Warnf("send %q to %s: %v", packet.Event, conn.ID(), err)
	}
}
