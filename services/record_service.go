// services/record_service.go
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/models"
	"github.com/wfunc/sweeper/persistence"
)

var ErrQueueFull = errors.New("record queue full")

const saveTimeout = 5 * time.Second

// RecordService archives finished games off the relay loop. Record never
// blocks; a full queue drops the record.
type RecordService struct {
	db    persistence.Database
	queue chan *models.GameRecord
	wg    sync.WaitGroup
	once  sync.Once
}

func NewRecordService(db persistence.Database, queueSize int) *RecordService {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &RecordService{
		db:    db,
		queue: make(chan *models.GameRecord, queueSize),
	}
}

// Start runs the writer until ctx is done, then drains what is queued.
func (s *RecordService) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case record := <-s.queue:
				s.save(record)
			case <-ctx.Done():
				s.drain()
				return
			}
		}
	}()
}

func (s *RecordService) drain() {
	for {
		select {
		case record := <-s.queue:
			s.save(record)
		default:
			return
		}
	}
}

func (s *RecordService) save(record *models.GameRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.db.SaveGameRecord(ctx, record); err != nil {
		logger.Log.Errorw("save game record failed", "id", record.ID, "room", record.RoomCode, "error", err)
		return
	}
	logger.Log.Infow("game archived", "id", record.ID, "room", record.RoomCode, "status", record.Status, "moves", record.Moves)
}

func (s *RecordService) Record(record *models.GameRecord) error {
	select {
	case s.queue <- record:
		return nil
	default:
		logger.Log.Warnw("game record dropped", "id", record.ID, "error", ErrQueueFull)
		return ErrQueueFull
	}
}

// Wait blocks until the writer started by Start has exited.
func (s *RecordService) Wait() {
	s.wg.Wait()
}

func (s *RecordService) Stats(ctx context.Context) (*models.GameStats, error) {
	return s.db.GameStats(ctx)
}

// Get loads one archived game. Games still queued are not visible yet.
func (s *RecordService) Get(ctx context.Context, id string) (*models.GameRecord, error) {
	return s.db.LoadGameRecord(ctx, id)
}

func (s *RecordService) Recent(ctx context.Context, limit int) ([]models.GameRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.db.RecentGameRecords(ctx, limit)
}

func (s *RecordService) Close() error {
	var err error
	s.once.Do(func() {
		err = s.db.Close()
	})
	return err
}
