package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/models"
)

const callTimeout = 5 * time.Second

// Server serves registered services over net/rpc on its own listener.
type Server struct {
	listener net.Listener
	rpc      *rpc.Server
}

func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		rpc:      rpc.NewServer(),
	}, nil
}

// Register exposes rcvr's exported methods under its type name.
func (s *Server) Register(rcvr interface{}) error {
	return s.rpc.Register(rcvr)
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start accepts connections until Stop is called.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	logger.Log.Info("Stopping RPC server.")
	s.listener.Close()
}

// LiveStats reports what the relay currently holds.
type LiveStats interface {
	Stats(ctx context.Context) (models.ServerStats, error)
}

// GameArchive answers queries about finished games.
type GameArchive interface {
	Stats(ctx context.Context) (*models.GameStats, error)
	Recent(ctx context.Context, limit int) ([]models.GameRecord, error)
	Get(ctx context.Context, id string) (*models.GameRecord, error)
}

// AdminService is the struct that exposes RPC methods.
type AdminService struct {
	live    LiveStats
	archive GameArchive
}

func NewAdminService(live LiveStats, archive GameArchive) *AdminService {
	return &AdminService{live: live, archive: archive}
}

type Empty struct{}

type RecentGamesArgs struct {
	Limit int
}

type RecentGamesReply struct {
	Games []models.GameRecord
}

type GameRecordArgs struct {
	ID string
}

func (a *AdminService) Stats(_ *Empty, reply *models.ServerStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	stats, err := a.live.Stats(ctx)
	if err != nil {
		return err
	}
	*reply = stats
	return nil
}

func (a *AdminService) GameStats(_ *Empty, reply *models.GameStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	stats, err := a.archive.Stats(ctx)
	if err != nil {
		return err
	}
	*reply = *stats
	return nil
}

func (a *AdminService) RecentGames(args *RecentGamesArgs, reply *RecentGamesReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	games, err := a.archive.Recent(ctx, args.Limit)
	if err != nil {
		return err
	}
	reply.Games = games
	return nil
}

// GameRecord looks up one finished game by its record id.
func (a *AdminService) GameRecord(args *GameRecordArgs, reply *models.GameRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	record, err := a.archive.Get(ctx, args.ID)
	if err != nil {
		return err
	}
	*reply = *record
	return nil
}
