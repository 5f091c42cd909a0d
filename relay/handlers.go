package relay

import (
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/sweeper/broadcast"
	"github.com/wfunc/sweeper/game"
	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/models"
	"github.com/wfunc/sweeper/network"
	"github.com/wfunc/sweeper/protocol"
	"github.com/wfunc/sweeper/session"
)

// event is what the loop consumes; the set below is closed.
type event interface {
	isEvent()
}

type connectEvent struct {
	conn broadcast.Conn
}

type packetEvent struct {
	connID string
	packet *network.Packet
}

type disconnectEvent struct {
	connID string
}

type snapshotEvent struct{}

type reapEvent struct {
	maxIdle time.Duration
}

type statsEvent struct {
	reply chan<- models.ServerStats
}

func (connectEvent) isEvent()    {}
func (packetEvent) isEvent()     {}
func (disconnectEvent) isEvent() {}
func (snapshotEvent) isEvent()   {}
func (reapEvent) isEvent()       {}
func (statsEvent) isEvent()      {}

func (c *Coordinator) dispatch(ev event) {
	switch ev := ev.(type) {
	case connectEvent:
		c.connect(ev.conn)
	case packetEvent:
		c.receive(ev.connID, ev.packet)
	case disconnectEvent:
		c.handle(ev.connID, protocol.Disconnect{})
	case snapshotEvent:
		c.snapshot()
	case reapEvent:
		c.reap(ev.maxIdle)
	case statsEvent:
		ev.reply <- models.ServerStats{Rooms: c.registry.Len(), Connections: c.sessions.Len()}
	}
}

func (c *Coordinator) connect(conn broadcast.Conn) {
	c.transport.Register(conn)
	c.registry.Connect(conn.ID())
	c.metrics.IncOnlineConnections()
	logger.Log.Debugw("connection registered", "conn", conn.ID())
}

func (c *Coordinator) receive(connID string, packet *network.Packet) {
	start := time.Now()
	c.metrics.IncMessagesReceived()

	in, err := protocol.Decode(packet)
	if err != nil {
		c.metrics.IncDroppedMessages()
		logger.Log.Warnw("dropping client event", "conn", connID, "event", packet.Event, "error", err)
		return
	}
	c.handle(connID, in)
	c.metrics.ObserveMessageLatency(time.Since(start))
}

// handle applies one inbound event. Events from unknown connections are
// ignored.
func (c *Coordinator) handle(connID string, in protocol.Inbound) {
	s, ok := c.sessions.Get(connID)
	if !ok {
		logger.Log.Debugw("event from unknown connection", "conn", connID)
		return
	}
	s.Touch()

	switch in := in.(type) {
	case protocol.Connect:
		c.onConnection(s)
	case protocol.JoinRoom:
		c.onJoinRoom(s, in.Code)
	case protocol.Disconnect:
		c.onDisconnect(s)
	case protocol.CreateGame:
		c.onCreateGame(s)
	case protocol.Click:
		c.onClick(s, in.Click)
	case protocol.RelayInitializeUser:
		c.relay(s, in.TargetID, protocol.RespondInitializeUser{State: in.State})
	case protocol.RelayInitializeGame:
		c.relay(s, in.TargetID, protocol.RespondInitializeGame{State: in.State})
	default:
		logger.Log.Warnw("unhandled event type", "conn", connID, "event", in)
	}
}

func (c *Coordinator) onConnection(s *session.Session) {
	code, err := c.registry.GenerateCode(s.ID)
	if err != nil {
		logger.Log.Errorw("mint room code failed", "conn", s.ID, "error", err)
		return
	}
	c.transport.EmitTo(s.ID, protocol.NewRoom{Code: code})
	c.transport.EmitTo(s.ID, protocol.InitializeUser{ID: s.ID})
}

func (c *Coordinator) onJoinRoom(s *session.Session, code string) {
	if s.RoomCode == code {
		// already a member: repeat the membership to the sender only
		if rm, ok := c.registry.Room(code); ok {
			c.transport.EmitTo(s.ID, protocol.RoomMembership{ConnectionID: s.ID, Room: rm.Snapshot()})
			return
		}
	}
	if old := s.RoomCode; old != "" && old != code {
		c.transport.EmitToRoomExceptSender(old, s.ID, protocol.RemoveSocket{ID: s.ID})
	}

	members := c.registry.JoinRoom(s.ID, code)
	c.transport.EmitToRoom(code, protocol.RoomMembership{
		ConnectionID: s.ID,
		Room:         protocol.RoomSnapshot{Code: code, MemberIDs: members},
	})
	c.transport.EmitToRoomExceptSender(code, s.ID, protocol.BroadcastInitializeUser{ID: s.ID})
	c.metrics.SetActiveRooms(c.registry.Len())

	logger.Log.Infow("joined room", "conn", s.ID, "room", code, "members", len(members))
}

func (c *Coordinator) onDisconnect(s *session.Session) {
	room := s.RoomCode
	c.registry.Disconnect(s.ID)
	c.transport.Unregister(s.ID)
	c.metrics.DecOnlineConnections()
	c.metrics.SetActiveRooms(c.registry.Len())

	logger.Log.Infow("connection closed", "conn", s.ID, "room", room)
}

func (c *Coordinator) onCreateGame(s *session.Session) {
	g, err := game.NewSession(s.ID, c.gameOpts)
	if err != nil {
		logger.Log.Errorw("create game failed", "conn", s.ID, "error", err)
		return
	}
	replaced := s.Game != nil
	s.Game = g
	c.metrics.IncGamesCreated()

	c.transport.EmitTo(s.ID, g.Display(protocol.EventInitializeGame))
	if s.RoomCode != "" {
		c.transport.EmitToRoomExceptSender(s.RoomCode, s.ID, g.Display(protocol.EventBroadcastInitializeGame))
	}
	logger.Log.Infow("game created", "conn", s.ID, "room", s.RoomCode, "replaced", replaced)
}

func (c *Coordinator) onClick(s *session.Session, click game.Click) {
	g := s.Game
	if g == nil {
		logger.Log.Debugw("click without a game", "conn", s.ID)
		return
	}

	wasOver := g.Status().Terminal()
	changed := g.RegisterClick(click)

	c.transport.EmitTo(s.ID, g.Display(protocol.EventUpdateGame))
	if changed && s.RoomCode != "" {
		c.transport.EmitToRoomExceptSender(s.RoomCode, s.ID, g.Display(protocol.EventBroadcastUpdateGame))
	}
	if changed && !wasOver && g.Status().Terminal() {
		c.finish(s, g)
	}
}

func (c *Coordinator) finish(s *session.Session, g *game.Session) {
	status := g.Status().String()
	c.metrics.IncGamesFinished(status)

	var members []string
	if rm, ok := c.registry.Room(s.RoomCode); ok {
		members = rm.Members()
	}
	b := g.Board()
	record := &models.GameRecord{
		ID:         uuid.NewString(),
		RoomCode:   s.RoomCode,
		OwnerID:    s.ID,
		Members:    members,
		Rows:       b.Rows,
		Cols:       b.Cols,
		Mines:      b.Mines,
		Status:     status,
		Moves:      g.Moves(),
		StartedAt:  g.CreatedAt,
		FinishedAt: time.Now(),
	}
	if err := c.recorder.Record(record); err != nil {
		logger.Log.Warnw("game record not queued", "conn", s.ID, "error", err)
	}
	logger.Log.Infow("game finished", "conn", s.ID, "room", s.RoomCode, "status", status, "moves", g.Moves())
}

// relay forwards a peer's state to target. Targets that already left are
// dropped.
func (c *Coordinator) relay(s *session.Session, target string, msg protocol.Outbound) {
	if _, ok := c.sessions.Get(target); !ok {
		logger.Log.Debugw("relay target gone", "from", s.ID, "to", target, "event", msg.Event())
		return
	}
	c.transport.EmitTo(target, msg)
}

func (c *Coordinator) snapshot() {
	c.metrics.SetActiveRooms(c.registry.Len())
	rooms := c.registry.Snapshot()
	logger.Log.Infow("registry snapshot", "rooms", len(rooms), "connections", c.sessions.Len())
	for _, rm := range rooms {
		games := 0
		for _, s := range c.sessions.InRoom(rm.Code) {
			if s.Game != nil {
				games++
			}
		}
		logger.Log.Debugw("room", "code", rm.Code, "members", rm.MemberIDs, "games", games)
	}
}

func (c *Coordinator) reap(maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	for _, s := range c.sessions.IdleSince(time.Now().Add(-maxIdle)) {
		logger.Log.Infow("closing idle connection", "conn", s.ID, "room", s.RoomCode, "idle", time.Since(s.LastActive))
		c.transport.Close(s.ID)
	}
}
