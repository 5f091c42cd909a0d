// room/room.go
package room

import (
	"math/rand"
	"sort"
	"time"

	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/protocol"
	"github.com/wfunc/sweeper/session"
)

// Broadcaster is the slice of the transport the registry drives: multicast
// group membership and the "member removed" notification.
type Broadcaster interface {
	EmitToRoomExceptSender(code, senderID string, msg protocol.Outbound)
	JoinGroup(connID, code string)
	LeaveGroup(connID, code string)
}

// Room is a joinable group of connections. A registered room always has at
// least one member.
type Room struct {
	Code    string
	members []string
}

// Members returns member ids in join order.
func (r *Room) Members() []string {
	return append([]string(nil), r.members...)
}

func (r *Room) Has(connID string) bool {
	return r.indexOf(connID) >= 0
}

func (r *Room) Len() int {
	return len(r.members)
}

func (r *Room) Snapshot() protocol.RoomSnapshot {
	return protocol.RoomSnapshot{Code: r.Code, MemberIDs: r.Members()}
}

func (r *Room) add(connID string) {
	if !r.Has(connID) {
		r.members = append(r.members, connID)
	}
}

func (r *Room) remove(connID string) bool {
	i := r.indexOf(connID)
	if i < 0 {
		return false
	}
	r.members = append(r.members[:i], r.members[i+1:]...)
	return true
}

func (r *Room) indexOf(connID string) int {
	for i, id := range r.members {
		if id == connID {
			return i
		}
	}
	return -1
}

// Registry holds the live rooms and connection records. It is owned by a
// single event loop and performs no locking. Unknown ids are no-ops.
type Registry struct {
	rooms        map[string]*Room
	reserved     map[string]string // code -> connection id
	sessions     *session.Manager
	broadcaster  Broadcaster
	rng          *rand.Rand
	codeAttempts int
}

type Option func(*Registry)

// WithRand sets the source used for room codes.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) { r.rng = rng }
}

// WithCodeAttempts bounds the random draws made before falling back to a scan.
func WithCodeAttempts(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.codeAttempts = n
		}
	}
}

func NewRegistry(sessions *session.Manager, broadcaster Broadcaster, opts ...Option) *Registry {
	r := &Registry{
		rooms:        make(map[string]*Room),
		reserved:     make(map[string]string),
		sessions:     sessions,
		broadcaster:  broadcaster,
		codeAttempts: 1000,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r
}

// Connect creates the record for a new transport connection.
func (r *Registry) Connect(connID string) *session.Session {
	if s, ok := r.sessions.Get(connID); ok {
		return s
	}
	s := session.NewSession(connID)
	r.sessions.Add(s)
	return s
}

func (r *Registry) Session(connID string) (*session.Session, bool) {
	return r.sessions.Get(connID)
}

// JoinRoom moves connID into code, leaving any other room first, and returns
// the resulting membership.
func (r *Registry) JoinRoom(connID, code string) []string {
	r.LeaveAllRooms(connID, true)

	rm, exists := r.rooms[code]
	if !exists {
		rm = &Room{Code: code}
		r.rooms[code] = rm
		logger.Log.Debugf("room %s created", code)
	}
	rm.add(connID)
	r.broadcaster.JoinGroup(connID, code)

	if s, ok := r.sessions.Get(connID); ok {
		r.release(s)
		s.RoomCode = code
	}
	return rm.Members()
}

// LeaveAllRooms removes connID from every room that lists it, deleting rooms
// left empty, and returns the codes it left. With notifyTransport the
// multicast groups are left as well.
func (r *Registry) LeaveAllRooms(connID string, notifyTransport bool) []string {
	var left []string
	for code, rm := range r.rooms {
		if !rm.remove(connID) {
			continue
		}
		left = append(left, code)
		if notifyTransport {
			r.broadcaster.LeaveGroup(connID, code)
		}
		if rm.Len() == 0 {
			delete(r.rooms, code)
			logger.Log.Debugf("room %s deleted", code)
		}
	}

	if s, ok := r.sessions.Get(connID); ok {
		s.RoomCode = ""
	}
	sort.Strings(left)
	return left
}

// Disconnect notifies the connection's room, forgets the connection and
// removes it from every room.
func (r *Registry) Disconnect(connID string) {
	if s, ok := r.sessions.Get(connID); ok {
		if s.RoomCode != "" {
			r.broadcaster.EmitToRoomExceptSender(s.RoomCode, connID, protocol.RemoveSocket{ID: connID})
		}
		r.release(s)
		r.sessions.Remove(connID)
	}
	r.LeaveAllRooms(connID, true)
}

func (r *Registry) Room(code string) (*Room, bool) {
	rm, ok := r.rooms[code]
	return rm, ok
}

func (r *Registry) Len() int {
	return len(r.rooms)
}

// Snapshot lists the live rooms ordered by code.
func (r *Registry) Snapshot() []protocol.RoomSnapshot {
	out := make([]protocol.RoomSnapshot, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, rm.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *Registry) release(s *session.Session) {
	if s.OfferedCode == "" {
		return
	}
	if r.reserved[s.OfferedCode] == s.ID {
		delete(r.reserved, s.OfferedCode)
	}
	s.OfferedCode = ""
}
