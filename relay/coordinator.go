// relay/coordinator.go
package relay

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/wfunc/sweeper/broadcast"
	"github.com/wfunc/sweeper/game"
	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/models"
	"github.com/wfunc/sweeper/network"
	"github.com/wfunc/sweeper/protocol"
	"github.com/wfunc/sweeper/room"
	"github.com/wfunc/sweeper/session"
)

var ErrStopped = errors.New("coordinator stopped")

// Transport delivers outbound events and mirrors room membership as
// multicast groups.
type Transport interface {
	room.Broadcaster
	Register(conn broadcast.Conn)
	Unregister(connID string)
	EmitTo(connID string, msg protocol.Outbound)
	EmitToRoom(code string, msg protocol.Outbound)
	Close(connID string)
}

type Metrics interface {
	IncOnlineConnections()
	DecOnlineConnections()
	SetActiveRooms(count int)
	IncMessagesReceived()
	ObserveMessageLatency(d time.Duration)
	IncGamesCreated()
	IncGamesFinished(status string)
	IncDroppedMessages()
}

// Recorder receives finished games. It must not block.
type Recorder interface {
	Record(record *models.GameRecord) error
}

type Option func(*Coordinator)

func WithMetrics(m Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithGameOptions sets the board every "create game" builds.
func WithGameOptions(opts game.Options) Option {
	return func(c *Coordinator) { c.gameOpts = opts }
}

// WithRand seeds both room codes and mine placement.
func WithRand(rng *rand.Rand) Option {
	return func(c *Coordinator) { c.rng = rng }
}

func WithCodeAttempts(n int) Option {
	return func(c *Coordinator) { c.codeAttempts = n }
}

func WithEventBuffer(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.eventBuffer = n
		}
	}
}

// Coordinator turns client events into registry and game operations and
// emits the results. All state is owned by the goroutine running Run.
type Coordinator struct {
	transport Transport
	sessions  *session.Manager
	registry  *room.Registry
	metrics   Metrics
	recorder  Recorder
	gameOpts  game.Options
	rng       *rand.Rand

	codeAttempts int
	eventBuffer  int

	events chan event
	done   chan struct{}
}

func NewCoordinator(transport Transport, opts ...Option) *Coordinator {
	c := &Coordinator{
		transport:    transport,
		sessions:     session.NewManager(),
		metrics:      nopMetrics{},
		recorder:     nopRecorder{},
		gameOpts:     game.DefaultOptions(),
		codeAttempts: 1000,
		eventBuffer:  1024,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if c.gameOpts.Rand == nil {
		c.gameOpts.Rand = c.rng
	}
	c.registry = room.NewRegistry(c.sessions, transport,
		room.WithRand(c.rng),
		room.WithCodeAttempts(c.codeAttempts),
	)
	c.events = make(chan event, c.eventBuffer)
	return c
}

func (c *Coordinator) Registry() *room.Registry {
	return c.registry
}

// Run processes events in arrival order until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	logger.Log.Info("relay coordinator started")

	for {
		select {
		case ev := <-c.events:
			c.dispatch(ev)
		case <-ctx.Done():
			logger.Log.Info("relay coordinator stopped")
			return
		}
	}
}

func (c *Coordinator) post(ev event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// Connect registers a new transport connection.
func (c *Coordinator) Connect(conn broadcast.Conn) {
	c.post(connectEvent{conn: conn})
}

// Receive queues one frame read from connID.
func (c *Coordinator) Receive(connID string, packet *network.Packet) {
	c.post(packetEvent{connID: connID, packet: packet})
}

func (c *Coordinator) Disconnect(connID string) {
	c.post(disconnectEvent{connID: connID})
}

// RequestSnapshot asks the loop to log the registry and refresh gauges.
func (c *Coordinator) RequestSnapshot() {
	c.post(snapshotEvent{})
}

// ReapIdle closes connections that sent nothing for maxIdle. Their read
// loops then report the disconnect as usual.
func (c *Coordinator) ReapIdle(maxIdle time.Duration) {
	c.post(reapEvent{maxIdle: maxIdle})
}

// Stats reads live counts through the loop.
func (c *Coordinator) Stats(ctx context.Context) (models.ServerStats, error) {
	reply := make(chan models.ServerStats, 1)
	if !c.post(statsEvent{reply: reply}) {
		return models.ServerStats{}, ErrStopped
	}
	select {
	case stats := <-reply:
		return stats, nil
	case <-c.done:
		return models.ServerStats{}, ErrStopped
	case <-ctx.Done():
		return models.ServerStats{}, ctx.Err()
	}
}

type nopMetrics struct{}

func (nopMetrics) IncOnlineConnections()               {}
func (nopMetrics) DecOnlineConnections()               {}
func (nopMetrics) SetActiveRooms(int)                  {}
func (nopMetrics) IncMessagesReceived()                {}
func (nopMetrics) ObserveMessageLatency(time.Duration) {}
func (nopMetrics) IncGamesCreated()                    {}
func (nopMetrics) IncGamesFinished(string)             {}
func (nopMetrics) IncDroppedMessages()                 {}

type nopRecorder struct{}

func (nopRecorder) Record(*models.GameRecord) error { return nil }
