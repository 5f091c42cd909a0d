// models/models.go
package models

import (
	"time"
)

// GameRecord is the archived summary of a finished game.
type GameRecord struct {
	ID         string    `json:"id"`
	RoomCode   string    `json:"room_code"`
	OwnerID    string    `json:"owner_id"`
	Members    []string  `json:"members"`
	Rows       int       `json:"rows"`
	Cols       int       `json:"cols"`
	Mines      int       `json:"mines"`
	Status     string    `json:"status"` // won/lost
	Moves      int       `json:"moves"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func (r *GameRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// GameStats aggregates the archive.
type GameStats struct {
	TotalGames   int64   `json:"total_games"`
	Wins         int64   `json:"wins"`
	Losses       int64   `json:"losses"`
	AverageMoves float64 `json:"average_moves"`
}

// ServerStats is the live view of the relay.
type ServerStats struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}
