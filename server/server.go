package server

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/sweeper/broadcast"
	"github.com/wfunc/sweeper/config"
	"github.com/wfunc/sweeper/game"
	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/monitor"
	"github.com/wfunc/sweeper/network"
	"github.com/wfunc/sweeper/persistence"
	"github.com/wfunc/sweeper/relay"
	sweeperrpc "github.com/wfunc/sweeper/rpc"
	"github.com/wfunc/sweeper/services"
	"github.com/wfunc/sweeper/timer"
)

type GameServer struct {
	cfg          *config.Config
	hub          *broadcast.Hub
	coordinator  *relay.Coordinator
	monitor      *monitor.Monitor
	records      *services.RecordService
	timers       *timer.Manager
	rpcServer    *sweeperrpc.Server
	healthServer *sweeperrpc.HealthServer
	httpServer   *http.Server
	upgrader     websocket.Upgrader

	conns    sync.Map // id -> network.Connection
	timerIDs []int64
	cancel   context.CancelFunc
	wg     sync.WaitGroup
}

// NewGameServer wires the relay to its transport, metrics and archive. An
// empty RPC or gRPC address disables that listener.
func NewGameServer(cfg *config.Config, db persistence.Database) (*GameServer, error) {
	mon, err := monitor.NewMonitor(cfg.Monitor.Namespace)
	if err != nil {
		return nil, err
	}

	s := &GameServer{
		cfg:     cfg,
		hub:     broadcast.NewHub(),
		monitor: mon,
		records: services.NewRecordService(db, cfg.Database.QueueSize),
		timers:  timer.NewManager(0),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}

	s.coordinator = relay.NewCoordinator(s.hub,
		relay.WithMetrics(mon),
		relay.WithRecorder(s.records),
		relay.WithGameOptions(game.Options{
			Rows:          cfg.Game.Rows,
			Cols:          cfg.Game.Cols,
			Mines:         cfg.Game.Mines,
			SafeNeighbors: cfg.Game.SafeNeighbors,
		}),
		relay.WithCodeAttempts(cfg.Room.CodeAttempts),
		relay.WithEventBuffer(cfg.Server.EventBuffer),
	)

	if cfg.Server.RPCAddress != "" {
		s.rpcServer, err = sweeperrpc.NewServer(cfg.Server.RPCAddress)
		if err != nil {
			return nil, err
		}
		if err := s.rpcServer.Register(sweeperrpc.NewAdminService(s.coordinator, s.records)); err != nil {
			s.rpcServer.Stop()
			return nil, err
		}
	}

	if cfg.Server.GRPCAddress != "" {
		s.healthServer, err = sweeperrpc.NewHealthServer(cfg.Server.GRPCAddress)
		if err != nil {
			if s.rpcServer != nil {
				s.rpcServer.Stop()
			}
			return nil, err
		}
	}

	s.httpServer = &http.Server{
		Addr:    cfg.Server.HTTPAddress,
		Handler: s.Handler(),
	}
	return s, nil
}

func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.Handle("/metrics", s.monitor.Handler())
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/stats", s.handleStats)
	mux.Handle("/", staticHandler{dir: s.cfg.Server.StaticDir, notFoundPage: s.cfg.Server.NotFoundPage})
	return mux
}

// startBackground launches the relay loop, the snapshot and idle timers and
// the archive writer.
func (s *GameServer) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.monitor.PublishExpvars()

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.coordinator.Run(ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.timers.Start(ctx)
	}()
	s.records.Start(ctx)

	if interval := s.cfg.Monitor.SnapshotInterval; interval > 0 {
		s.timerIDs = append(s.timerIDs, s.timers.AddTimer(interval, interval, s.coordinator.RequestSnapshot))
	}
	if idle := s.cfg.Server.IdleTimeout; idle > 0 {
		check := idle / 4
		if check < 100*time.Millisecond {
			check = 100 * time.Millisecond
		}
		s.timerIDs = append(s.timerIDs, s.timers.AddTimer(check, check, func() {
			s.coordinator.ReapIdle(idle)
		}))
	}
}

// Start serves until Shutdown.
func (s *GameServer) Start() error {
	s.startBackground()
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	if s.healthServer != nil {
		go s.healthServer.Start()
	}

	logger.Log.Infof("Http server running at %s", s.cfg.Server.HTTPAddress)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting clients, closes open sockets, then stops the
// relay and flushes queued game records.
func (s *GameServer) Shutdown(ctx context.Context) error {
	if s.healthServer != nil {
		s.healthServer.SetServing("", false)
	}
	err := s.httpServer.Shutdown(ctx)

	for _, id := range s.timerIDs {
		s.timers.RemoveTimer(id)
	}
	s.timerIDs = nil

	s.conns.Range(func(_, v interface{}) bool {
		v.(network.Connection).Close()
		return true
	})

	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.records.Wait()

	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	if s.healthServer != nil {
		s.healthServer.Stop()
	}
	if closeErr := s.records.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	logger.Log.Info("Game server stopped.")
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	id := uuid.NewString()
	ws := network.NewWSConnection(id, conn, s.cfg.Server.SendBuffer, s.cfg.Server.MaxMessageSize)
	ws.SetHeartbeat(s.cfg.Server.HeartbeatInterval)
	go ws.WritePump()
	s.serve(ws)
}

// serve registers conn with the relay and feeds it every frame until the
// connection fails.
func (s *GameServer) serve(conn network.Connection) {
	id := conn.ID()
	s.conns.Store(id, conn)

	s.coordinator.Connect(conn)
	logger.Log.Infof("New connection from %s, id: %s", conn.RemoteAddr(), id)

	defer func() {
		logger.Log.Infof("Connection closed from %s, id: %s", conn.RemoteAddr(), id)
		s.coordinator.Disconnect(id)
		s.conns.Delete(id)
		conn.Close()
	}()

	for {
		packet, err := conn.ReadPacket()
		if errors.Is(err, network.ErrMalformedPacket) {
			s.monitor.IncDroppedMessages()
			logger.Log.Warnf("Malformed frame from %s: %v", id, err)
			continue
		}
		if err != nil {
			return
		}
		s.coordinator.Receive(id, packet)
	}
}

func (s *GameServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte("ok"))
}

func (s *GameServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := s.coordinator.Stats(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
