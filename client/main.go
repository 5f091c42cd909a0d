package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/rpc"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	"github.com/wfunc/sweeper/game"
	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/models"
	"github.com/wfunc/sweeper/network"
	"github.com/wfunc/sweeper/protocol"
	sweeperrpc "github.com/wfunc/sweeper/rpc"
)

func main() {
	cmd := &cli.Command{
		Name:  "sweeper-client",
		Usage: "play shared-room minesweeper from a terminal",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			level := "info"
			if cmd.Bool("debug") {
				level = "debug"
			}
			return ctx, logger.Init(level, true)
		},
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "connect to a server and play from stdin",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Value: "localhost:3000", Usage: "server host:port"},
					&cli.StringFlag{Name: "room", Usage: "room code to join instead of the offered one"},
				},
				Action: play,
			},
			{
				Name:  "stats",
				Usage: "query the admin RPC service",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rpc-addr", Value: "127.0.0.1:3001", Usage: "admin RPC host:port"},
					&cli.IntFlag{Name: "recent", Value: 5, Usage: "number of recent games to list"},
				},
				Action: stats,
			},
			{
				Name:      "record",
				Usage:     "show one archived game",
				ArgsUsage: "<record id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "rpc-addr", Value: "127.0.0.1:3001", Usage: "admin RPC host:port"},
				},
				Action: record,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Log.Fatalf("%v", err)
	}
	logger.Sync()
}

func play(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	u := url.URL{Scheme: "ws", Host: cmd.String("addr"), Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())
	c, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer c.Close()

	send := func(event string, payload interface{}) error {
		p, err := network.NewPacket(event, payload)
		if err != nil {
			return err
		}
		frame, err := p.Encode()
		if err != nil {
			return err
		}
		return c.WriteMessage(websocket.TextMessage, frame)
	}

	room := cmd.String("room")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, frame, err := c.ReadMessage()
			if err != nil {
				logger.Log.Infof("Read error: %v", err)
				return
			}
			p, err := network.DecodePacket(frame)
			if err != nil {
				logger.Log.Warnf("Bad frame: %v", err)
				continue
			}
			if p.Event == protocol.EventNewRoom {
				var offered string
				json.Unmarshal(p.Data, &offered)
				if room == "" {
					room = offered
				}
				if err := send(protocol.EventJoinRoom, room); err != nil {
					logger.Log.Warnf("Join failed: %v", err)
				}
			}
			printEvent(p)
		}
	}()

	if err := send(protocol.EventConnection, nil); err != nil {
		return err
	}
	fmt.Println("Commands: create | reveal <row> <col> | flag <row> <col> | join <code> | quit")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		case <-done:
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			event, payload, err := parseCommand(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if event == "" {
				return nil
			}
			if err := send(event, payload); err != nil {
				return err
			}
		}
	}
}

// parseCommand maps a stdin line onto an event; an empty event means quit.
func parseCommand(line string) (string, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	switch fields[0] {
	case "quit", "exit":
		return "", nil, nil
	case "create":
		return protocol.EventCreateGame, nil, nil
	case "join":
		if len(fields) != 2 {
			return "", nil, fmt.Errorf("usage: join <code>")
		}
		return protocol.EventJoinRoom, fields[1], nil
	case "reveal", "flag":
		if len(fields) != 3 {
			return "", nil, fmt.Errorf("usage: %s <row> <col>", fields[0])
		}
		row, err1 := strconv.Atoi(fields[1])
		col, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			return "", nil, fmt.Errorf("row and col must be numbers")
		}
		mode := game.Reveal
		if fields[0] == "flag" {
			mode = game.ToggleFlag
		}
		return protocol.EventClick, game.Click{Coords: game.Coords{Row: row, Col: col}, Mode: mode}, nil
	default:
		return "", nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func printEvent(p *network.Packet) {
	switch p.Event {
	case protocol.EventInitializeGame, protocol.EventUpdateGame,
		protocol.EventBroadcastInitializeGame, protocol.EventBroadcastUpdateGame:
		var d struct {
			OwnerID string `json:"ownerId"`
			game.View
		}
		if err := json.Unmarshal(p.Data, &d); err != nil {
			logger.Log.Warnf("Bad board: %v", err)
			return
		}
		fmt.Printf("[%s] board of %s, %s, %d mines left\n%s", p.Event, d.OwnerID, d.Status, d.MinesRemaining, renderBoard(d.View))
	default:
		fmt.Printf("[%s] %s\n", p.Event, string(p.Data))
	}
}

func renderBoard(v game.View) string {
	var b strings.Builder
	for _, row := range v.Cells {
		for _, cell := range row {
			switch {
			case cell.State == game.StateOpened && cell.IsMine:
				b.WriteByte('*')
			case cell.State == game.StateOpened && cell.Count == 0:
				b.WriteByte('.')
			case cell.State == game.StateOpened:
				b.WriteByte(byte('0' + cell.Count))
			case cell.State == game.StateFlagged:
				b.WriteByte('F')
			case cell.State == game.StateMisflagged:
				b.WriteByte('X')
			default:
				b.WriteByte('#')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func stats(ctx context.Context, cmd *cli.Command) error {
	client, err := rpc.Dial("tcp", cmd.String("rpc-addr"))
	if err != nil {
		return err
	}
	defer client.Close()

	var live models.ServerStats
	if err := client.Call("AdminService.Stats", &sweeperrpc.Empty{}, &live); err != nil {
		return err
	}
	var archived models.GameStats
	if err := client.Call("AdminService.GameStats", &sweeperrpc.Empty{}, &archived); err != nil {
		return err
	}
	var recent sweeperrpc.RecentGamesReply
	if err := client.Call("AdminService.RecentGames", &sweeperrpc.RecentGamesArgs{Limit: int(cmd.Int("recent"))}, &recent); err != nil {
		return err
	}

	fmt.Printf("rooms=%d connections=%d\n", live.Rooms, live.Connections)
	fmt.Printf("games=%d won=%d lost=%d avg_moves=%.1f\n", archived.TotalGames, archived.Wins, archived.Losses, archived.AverageMoves)
	for _, g := range recent.Games {
		fmt.Printf("  %s room=%s %s %dx%d moves=%d in %s\n", g.ID, g.RoomCode, g.Status, g.Rows, g.Cols, g.Moves, g.Duration())
	}
	return nil
}

func record(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("record: missing record id")
	}
	client, err := rpc.Dial("tcp", cmd.String("rpc-addr"))
	if err != nil {
		return err
	}
	defer client.Close()

	var g models.GameRecord
	if err := client.Call("AdminService.GameRecord", &sweeperrpc.GameRecordArgs{ID: id}, &g); err != nil {
		return err
	}
	fmt.Printf("%s room=%s owner=%s %s\n", g.ID, g.RoomCode, g.OwnerID, g.Status)
	fmt.Printf("  board %dx%d mines=%d moves=%d in %s\n", g.Rows, g.Cols, g.Mines, g.Moves, g.Duration())
	fmt.Printf("  members %s\n", strings.Join(g.Members, ", "))
	return nil
}
