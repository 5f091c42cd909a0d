package models

import (
	"testing"
	"time"
)

func TestGameRecord_GormConversion(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := GameRecord{
		ID:         "rec-1",
		RoomCode:   "4821",
		OwnerID:    "conn-a",
		Members:    []string{"conn-a", "conn-b"},
		Rows:       10,
		Cols:       15,
		Mines:      20,
		Status:     "won",
		Moves:      42,
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
	}

	got := NewGormGameRecord(&r).GameRecord()
	if got.ID != r.ID || got.RoomCode != r.RoomCode || got.Status != r.Status || len(got.Members) != 2 {
		t.Errorf("Round trip lost fields: %+v", got)
	}
	if got.Duration() != 90*time.Second {
		t.Errorf("Expected 90s duration, got %v", got.Duration())
	}
	if (GormGameRecord{}).TableName() != "game_records" {
		t.Error("Unexpected table name")
	}
}
