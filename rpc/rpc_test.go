package rpc

import (
	"context"
	"errors"
	"net/rpc"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/wfunc/sweeper/models"
)

type fakeLive struct {
	stats models.ServerStats
	err   error
}

func (f fakeLive) Stats(context.Context) (models.ServerStats, error) { return f.stats, f.err }

type fakeArchive struct {
	games     []models.GameRecord
	lastLimit int
}

func (f *fakeArchive) Stats(context.Context) (*models.GameStats, error) {
	return &models.GameStats{TotalGames: int64(len(f.games)), Wins: 1}, nil
}

func (f *fakeArchive) Get(_ context.Context, id string) (*models.GameRecord, error) {
	for i := range f.games {
		if f.games[i].ID == id {
			return &f.games[i], nil
		}
	}
	return nil, errors.New("record not found")
}

func (f *fakeArchive) Recent(_ context.Context, limit int) ([]models.GameRecord, error) {
	f.lastLimit = limit
	return f.games, nil
}

func startAdmin(t *testing.T, live LiveStats, archive GameArchive) *rpc.Client {
	srv, err := NewServer("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, srv.Register(NewAdminService(live, archive)))
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := rpc.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestAdminService(t *testing.T) {
	archive := &fakeArchive{games: []models.GameRecord{{ID: "g1", Status: "won"}}}
	client := startAdmin(t, fakeLive{stats: models.ServerStats{Rooms: 2, Connections: 5}}, archive)

	var live models.ServerStats
	require.NoError(t, client.Call("AdminService.Stats", &Empty{}, &live))
	assert.Equal(t, models.ServerStats{Rooms: 2, Connections: 5}, live)

	var stats models.GameStats
	require.NoError(t, client.Call("AdminService.GameStats", &Empty{}, &stats))
	assert.Equal(t, int64(1), stats.TotalGames)

	var recent RecentGamesReply
	require.NoError(t, client.Call("AdminService.RecentGames", &RecentGamesArgs{Limit: 5}, &recent))
	require.Len(t, recent.Games, 1)
	assert.Equal(t, "g1", recent.Games[0].ID)
	assert.Equal(t, 5, archive.lastLimit)

	var record models.GameRecord
	require.NoError(t, client.Call("AdminService.GameRecord", &GameRecordArgs{ID: "g1"}, &record))
	assert.Equal(t, "won", record.Status)

	err := client.Call("AdminService.GameRecord", &GameRecordArgs{ID: "missing"}, &record)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record not found")
}

func TestAdminService_Error(t *testing.T) {
	client := startAdmin(t, fakeLive{err: errors.New("coordinator stopped")}, &fakeArchive{})

	var live models.ServerStats
	err := client.Call("AdminService.Stats", &Empty{}, &live)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "coordinator stopped")
}

func TestHealthServer(t *testing.T) {
	srv, err := NewHealthServer("127.0.0.1:0")
	require.NoError(t, err)
	go srv.Start()

	conn, err := grpc.NewClient(srv.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.Eventually(t, func() bool {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
		return err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)

	srv.SetServing("relay", false)
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "relay"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	srv.Stop()
}
