// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord is the table row for a GameRecord.
type GormGameRecord struct {
	gorm.Model
	RecordID   string    `gorm:"uniqueIndex;not null"`
	RoomCode   string    `gorm:"index;not null"`
	OwnerID    string    `gorm:"not null"`
	Members    []string  `gorm:"serializer:json;type:jsonb"`
	Rows       int       `gorm:"not null"`
	Cols       int       `gorm:"not null"`
	Mines      int       `gorm:"not null"`
	Status     string    `gorm:"index;not null"`
	Moves      int       `gorm:"default:0"`
	StartedAt  time.Time `gorm:"not null"`
	FinishedAt time.Time `gorm:"index;not null"`
}

func (GormGameRecord) TableName() string {
	return "game_records"
}

func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RecordID:   r.ID,
		RoomCode:   r.RoomCode,
		OwnerID:    r.OwnerID,
		Members:    r.Members,
		Rows:       r.Rows,
		Cols:       r.Cols,
		Mines:      r.Mines,
		Status:     r.Status,
		Moves:      r.Moves,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

func (g *GormGameRecord) GameRecord() GameRecord {
	return GameRecord{
		ID:         g.RecordID,
		RoomCode:   g.RoomCode,
		OwnerID:    g.OwnerID,
		Members:    g.Members,
		Rows:       g.Rows,
		Cols:       g.Cols,
		Mines:      g.Mines,
		Status:     g.Status,
		Moves:      g.Moves,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
}
