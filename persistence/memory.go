package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/wfunc/sweeper/models"
)

// Memory keeps the archive in process; it is used when no database is
// configured and in tests.
type Memory struct {
	mu      sync.RWMutex
	records []models.GameRecord
	byID    map[string]int
}

func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

func (m *Memory) SaveGameRecord(_ context.Context, record *models.GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *record
	r.Members = append([]string(nil), record.Members...)
	if i, ok := m.byID[r.ID]; ok {
		m.records[i] = r
		return nil
	}
	m.byID[r.ID] = len(m.records)
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) LoadGameRecord(_ context.Context, id string) (*models.GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.byID[id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	r := m.records[i]
	return &r, nil
}

func (m *Memory) RecentGameRecords(_ context.Context, limit int) ([]models.GameRecord, error) {
	m.mu.RLock()
	out := append([]models.GameRecord(nil), m.records...)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinishedAt.After(out[j].FinishedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) GameStats(_ context.Context) (*models.GameStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var (
		stats models.GameStats
		moves int
	)
	for _, r := range m.records {
		stats.TotalGames++
		switch r.Status {
		case "won":
			stats.Wins++
		case "lost":
			stats.Losses++
		}
		moves += r.Moves
	}
	if stats.TotalGames > 0 {
		stats.AverageMoves = float64(moves) / float64(stats.TotalGames)
	}
	return &stats, nil
}

func (m *Memory) Close() error {
	return nil
}
